package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithScene selects which scene of a multi-scene document is imported.
// By default the document's "scene" property is used, falling back to the first scene.
//
// Parameters:
//   - index: the scene index
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(index int) LoaderBuilderOption {
	return func(l *loader) {
		l.scene = &index
	}
}
