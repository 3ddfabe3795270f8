package config

// Defaults for the read-only FUSE view
const (
	DefaultFsName = "jsontree"
	DefaultName   = "jsontree"

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0
)

// MountOptions holds high-level settings for mounting.
// No go-fuse types are exposed here.
type MountOptions struct {
	Debug        bool    // fuse debug logs
	FsName       string  // mount's FsName
	Name         string  // mount's Name
	AttrTimeout  float64 `validate:"gte=0"` // seconds
	EntryTimeout float64 `validate:"gte=0"` // seconds
}

func NewDefaultMountOptions() MountOptions {
	return MountOptions{
		FsName:       DefaultFsName,
		Name:         DefaultName,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
	}
}

func (m *MountOptions) merge(override *ConfigOverride) {
	if override.Debug != nil {
		m.Debug = *override.Debug
	}
	if override.FsName != nil {
		m.FsName = *override.FsName
	}
	if override.Name != nil {
		m.Name = *override.Name
	}
	if override.AttrTimeout != nil {
		m.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		m.EntryTimeout = *override.EntryTimeout
	}
}
