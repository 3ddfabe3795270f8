package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/jsontree/config"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/brettbedarf/jsontree/mount"
	"github.com/brettbedarf/jsontree/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd creates the serve subcommand, which runs the HTTP server until
// SIGINT or SIGTERM.
func NewServeCmd(opts *globalOptions) *cobra.Command {
	var (
		addr       string
		mountpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents over HTTP",
		Long: `Serve documents over HTTP.

GET /<path> returns the value stored at path as JSON (or CBOR when the client
accepts application/cbor). PUT /<path> stores the JSON or CBOR request body
there. With --mount the same tree is also exposed read-only at MOUNTPOINT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd.Context(), cfg, mountpoint)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().StringVar(&mountpoint, "mount", "", "Also mount the tree read-only at this directory")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, mountpoint string) error {
	logger := util.GetLogger("serve")
	tree, err := openTree(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if mountpoint != "" {
		if err := checkMountpoint(cfg, mountpoint); err != nil {
			return err
		}
		fuseServer, err := mount.Mount(tree, mountpoint, cfg)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			logger.Info().Str("mountpoint", mountpoint).Msg("Unmounting filesystem")
			return fuseServer.Unmount()
		})
	}
	g.Go(func() error {
		return server.New(cfg, tree).Serve(ctx)
	})

	err = g.Wait()
	logger.Info().Err(err).Msg("Shutdown complete")
	return err
}
