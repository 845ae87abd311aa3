package loader

import (
	"io"
)

// loaderBackend defines the generic interface for loading node hierarchies from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the node hierarchy of the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Hierarchy: the imported hierarchy
	//   - error: error if loading fails
	Load(path string) (*Hierarchy, error)

	// LoadReader imports a node hierarchy from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing the data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - *Hierarchy: the imported hierarchy
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool) (*Hierarchy, error)
}
