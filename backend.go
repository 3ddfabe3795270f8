package jsontree

// Backend defines the storage operations the tree codec is written against.
// Paths are always complete, i.e. they already include the storage root.
type Backend interface {
	// Creates or truncates the leaf at path and writes rec to it
	WriteField(path Path, rec Record) error

	// Reads the two-line record stored at path
	ReadField(path Path) (Record, error)

	// Creates the directory at path along with any missing parents
	EnsurePath(path Path) error

	// Reports whether path is a collection (directory) rather than a leaf
	Stat(path Path) (isCollection bool, err error)

	// Returns the entry names of the collection at path, class record included
	List(path Path) ([]string, error)
}

// BackendProvider is a factory for concrete [Backend] implementations built
// from their raw JSON options. The options always carry a "type" field naming
// the provider they are meant for.
type BackendProvider interface {
	NewBackend(raw []byte) (Backend, error)
}

// BackendProviderFunc adapts a plain function to [BackendProvider]
type BackendProviderFunc func(raw []byte) (Backend, error)

func (f BackendProviderFunc) NewBackend(raw []byte) (Backend, error) {
	return f(raw)
}
