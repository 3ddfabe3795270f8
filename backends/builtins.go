package backends

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brettbedarf/jsontree"
	"github.com/spf13/afero"
)

// Built-in backend type names
const (
	OSBackendType     = "os"
	MemoryBackendType = "memory"
)

const fsCreateFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// Options are the raw JSON options understood by the built-in backends.
type Options struct {
	Type string `json:"type"`
	// Sync flushes every leaf write to disk; ignored by the memory backend
	Sync bool `json:"sync,omitempty"`
}

// Raw renders the options as the JSON handed to [Registry.NewBackend].
func (o Options) Raw() []byte {
	b, _ := json.Marshal(o)
	return b
}

func parseOptions(raw []byte) (Options, error) {
	var opts Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("backend options: %w", err)
	}
	return opts, nil
}

// NewOSBackend stores the tree on the host filesystem.
func NewOSBackend(raw []byte) (jsontree.Backend, error) {
	opts, err := parseOptions(raw)
	if err != nil {
		return nil, err
	}
	return NewAferoBackend(afero.NewOsFs(), opts.Sync), nil
}

// NewMemoryBackend keeps the tree in memory; it is lost when the process exits.
func NewMemoryBackend(raw []byte) (jsontree.Backend, error) {
	if _, err := parseOptions(raw); err != nil {
		return nil, err
	}
	return NewAferoBackend(afero.NewMemMapFs(), false), nil
}

func init() {
	Register(OSBackendType, jsontree.BackendProviderFunc(NewOSBackend))
	Register(MemoryBackendType, jsontree.BackendProviderFunc(NewMemoryBackend))
}
