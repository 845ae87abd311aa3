package loader

import (
	"io"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// It delegates to the gltfImporter for parsing and hierarchy building.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - scene: the scene index to import, or nil for the document's default scene
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(scene *int) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(scene),
	}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*Hierarchy, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) (*Hierarchy, error) {
	return b.importer.ImportReader(r, isGLB)
}
