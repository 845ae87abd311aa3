package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by the parser
var (
	ErrInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	ErrInvalidGLBMagic    = errors.New("invalid GLB magic number")
	ErrInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	ErrMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	ErrTruncatedGLB       = errors.New("GLB file truncated")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	document *gltfDocument
}

// gltfParser loads and parses glTF/GLB files into a gltfDocument.
// Binary buffers are skipped; only the JSON scene description is decoded.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// Automatically detects .gltf (JSON) vs .glb (binary) format.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed glTF document, or nil before a successful parse.
	Document() *gltfDocument
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

// parseGLTF parses a glTF JSON document.
func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: have %q", ErrInvalidGLTFVersion, doc.Asset.Version)
	}

	p.document = &doc
	return nil
}

// parseGLB extracts the JSON chunk of a GLB container and parses it.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("%w: %d bytes", ErrTruncatedGLB, len(data))
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}

	if header.Magic != gltfGLBMagic {
		return ErrInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return ErrInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("%w: chunk of %d bytes with %d remaining", ErrTruncatedGLB, chunkHeader.ChunkLength, r.Len())
		}
		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		if chunkHeader.ChunkType == gltfGLBChunkJSON && jsonData == nil {
			jsonData = chunkData
		}
	}

	if jsonData == nil {
		return ErrMissingJSONChunk
	}
	return p.parseGLTF(jsonData)
}
