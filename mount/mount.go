// Package mount exposes a stored document tree as a read-only FUSE filesystem.
// Collections appear as directories and every leaf as a file holding its value
// as JSON.
package mount

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/brettbedarf/jsontree/codec"
	"github.com/brettbedarf/jsontree/config"
	"github.com/brettbedarf/jsontree/internal/util"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

func seconds(s float64) *time.Duration {
	d := time.Duration(s * float64(time.Second))
	return &d
}

// Options builds the go-fuse options for a read-only mount.
func Options(cfg *config.Config) *gofuse.Options {
	logLvl := util.DebugLevel
	if cfg.LogLvl == util.TraceLevel {
		logLvl = util.TraceLevel
	}
	return &gofuse.Options{
		AttrTimeout:  seconds(cfg.AttrTimeout),
		EntryTimeout: seconds(cfg.EntryTimeout),
		MountOptions: fuse.MountOptions{
			Name:    cfg.Name,
			FsName:  cfg.FsName,
			Debug:   cfg.Debug || cfg.LogLvl == util.TraceLevel,
			Options: []string{"ro"},
			Logger:  util.NewLogLogger("fuse", logLvl),
		},
		Logger: util.NewLogLogger("fusefs", logLvl),
	}
}

// Mount serves tree read-only at mountpoint, creating it when missing. The
// caller unmounts through the returned server.
func Mount(tree *codec.Tree, mountpoint string, cfg *config.Config) (*fuse.Server, error) {
	logger := util.GetLogger("mount")
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", mountpoint, err)
	}

	root := &node{tree: tree, path: tree.Root(), logger: logger}
	server, err := gofuse.Mount(mountpoint, root, Options(cfg))
	if err != nil {
		return nil, fmt.Errorf("mounting at %s: %w", mountpoint, err)
	}
	logger.Info().Str("mountpoint", mountpoint).Stringer("root", tree.Root()).Msg("Filesystem mounted")
	return server, nil
}

// ForceUnmount detaches a stale mount left behind by a process that did not
// exit cleanly. It is a no-op when nothing is mounted there.
func ForceUnmount(mountpoint string) {
	// not mounted is the common case, so the error is ignored
	exec.Command("fusermount", "-u", mountpoint).Run() // nolint:errcheck
}
