package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/brettbedarf/jsontree/backends"
	"github.com/brettbedarf/jsontree/config"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/brettbedarf/jsontree/mount"
	"github.com/spf13/cobra"
)

// NewMountCmd creates the mount subcommand, which shows the stored documents
// as a read-only filesystem until SIGINT or SIGTERM.
func NewMountCmd(opts *globalOptions) *cobra.Command {
	var umount bool
	cmd := &cobra.Command{
		Use:   "mount MOUNTPOINT",
		Short: "Mount the stored documents read-only",
		Long: `Mount the stored documents read-only at MOUNTPOINT.

Collections appear as directories and every scalar as a file holding its value
as JSON followed by a newline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runMount(cfg, args[0], umount)
		},
	}
	cmd.Flags().BoolVarP(&umount, "umount", "u", false,
		"Unmount the mountpoint first if needed. Useful for debuggers that don't exit properly.")
	return cmd
}

func runMount(cfg *config.Config, mountpoint string, umount bool) error {
	logger := util.GetLogger("mount")
	if err := checkMountpoint(cfg, mountpoint); err != nil {
		return err
	}
	if umount {
		mount.ForceUnmount(mountpoint)
	}

	tree, err := openTree(cfg)
	if err != nil {
		return err
	}

	server, err := mount.Mount(tree, mountpoint, cfg)
	if err != nil {
		return err
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signalChan)

	go func() {
		sig := <-signalChan
		logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
		if err := server.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount filesystem")
		}
	}()

	server.Wait()
	logger.Info().Msg("Filesystem unmounted")
	return nil
}

// checkMountpoint refuses a mountpoint inside the storage root or the other
// way around, which would make the mount serve itself.
func checkMountpoint(cfg *config.Config, mountpoint string) error {
	if cfg.Backend != backends.OSBackendType {
		return nil
	}
	if pathsOverlap(cfg.StorageDir, mountpoint) {
		return fmt.Errorf("mountpoint %s overlaps storage directory %s", mountpoint, cfg.StorageDir)
	}
	return nil
}

// pathsOverlap reports whether one path is the other or contains it.
func pathsOverlap(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		absA, absB = filepath.Clean(a), filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(absA, absB+sep) || strings.HasPrefix(absB, absA+sep)
}
