package mount

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"syscall"

	"github.com/brettbedarf/jsontree"
	"github.com/brettbedarf/jsontree/codec"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/rs/zerolog"
)

const (
	dirPerm  = 0o555
	filePerm = 0o444
)

// node is one entry of the stored tree: a collection directory or a leaf file.
// Nothing is cached; every operation goes back to the codec.
type node struct {
	gofuse.Inode
	tree   *codec.Tree
	path   jsontree.Path
	logger zerolog.Logger
}

var (
	_ gofuse.InodeEmbedder = (*node)(nil)
	_ gofuse.NodeLookuper  = (*node)(nil)
	_ gofuse.NodeReaddirer = (*node)(nil)
	_ gofuse.NodeGetattrer = (*node)(nil)
	_ gofuse.NodeOpener    = (*node)(nil)
)

func (n *node) child(name string) *node {
	return &node{tree: n.tree, path: n.path.Child(name), logger: n.logger}
}

// errno maps a codec failure onto the closest errno.
func errno(err error) syscall.Errno {
	var e syscall.Errno
	switch {
	case err == nil:
		return 0
	case errors.As(err, &e):
		return e
	case errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, fs.ErrPermission):
		return syscall.EACCES
	}
	return syscall.EIO
}

// render is the file content shown for a leaf: compact JSON and a newline.
func render(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (n *node) content() ([]byte, syscall.Errno) {
	v, err := n.tree.ReadPath(n.path)
	if err != nil {
		n.logger.Debug().Err(err).Stringer("path", n.path).Msg("Read failed")
		return nil, errno(err)
	}
	b, err := render(v)
	if err != nil {
		n.logger.Error().Err(err).Stringer("path", n.path).Msg("Render failed")
		return nil, syscall.EIO
	}
	return b, 0
}

// attr fills out for the entry, reporting whether it is a directory.
func (n *node) attr(out *fuse.Attr) (bool, syscall.Errno) {
	isDir, err := n.tree.Backend().Stat(n.path)
	if err != nil {
		return false, errno(err)
	}
	if isDir {
		out.Mode = syscall.S_IFDIR | dirPerm
		out.Nlink = 2
		return true, 0
	}
	data, eno := n.content()
	if eno != 0 {
		return false, eno
	}
	out.Mode = syscall.S_IFREG | filePerm
	out.Nlink = 1
	out.Size = uint64(len(data))
	out.Blocks = (out.Size + 511) / 512
	return false, 0
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if name == jsontree.ClassFileName {
		return nil, syscall.ENOENT
	}
	child := n.child(name)
	isDir, eno := child.attr(&out.Attr)
	if eno != 0 {
		return nil, eno
	}
	mode := uint32(syscall.S_IFREG)
	if isDir {
		mode = syscall.S_IFDIR
	}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: mode}), 0
}

// entries lists the members of the collection, class record excluded.
func (n *node) entries() ([]fuse.DirEntry, syscall.Errno) {
	names, err := n.tree.Backend().List(n.path)
	if err != nil {
		n.logger.Debug().Err(err).Stringer("path", n.path).Msg("List failed")
		return nil, errno(err)
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		if name == jsontree.ClassFileName {
			continue
		}
		mode := uint32(syscall.S_IFREG)
		if isDir, err := n.tree.Backend().Stat(n.path.Child(name)); err == nil && isDir {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return entries, 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, eno := n.entries()
	if eno != 0 {
		return nil, eno
	}
	return gofuse.NewListDirStream(entries), 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	_, eno := n.attr(&out.Attr)
	return eno
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	data, eno := n.content()
	if eno != 0 {
		return nil, 0, eno
	}
	// the stored value may change underneath, so skip the page cache
	return &leafHandle{data: data}, fuse.FOPEN_DIRECT_IO, 0
}

// leafHandle serves reads from the content rendered at open time.
type leafHandle struct {
	data []byte
}

var _ gofuse.FileReader = (*leafHandle)(nil)

func (h *leafHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off >= int64(len(h.data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := min(off+int64(len(dest)), int64(len(h.data)))
	return fuse.ReadResultData(h.data[off:end]), 0
}
