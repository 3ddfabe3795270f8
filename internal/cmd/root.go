// Package cmd implements the jsontree command line interface.
package cmd

import (
	"fmt"

	"github.com/brettbedarf/jsontree"
	"github.com/brettbedarf/jsontree/backends"
	"github.com/brettbedarf/jsontree/codec"
	"github.com/brettbedarf/jsontree/config"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    int
	storage    string
	backend    string
}

// NewRootCmd creates and returns the root cobra command for the jsontree CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "jsontree",
		Short: "jsontree - JSON documents stored as plain files and directories",
		Long: `jsontree stores JSON documents as a tree of plain files and directories.

Every scalar becomes a small two-line file holding its type and value. Objects
and arrays become directories. Documents can be written and read over HTTP, from
the command line, or browsed through a read-only FUSE mount.

Use subcommands to perform different operations:
  - serve: Serve documents over HTTP (GET reads, PUT writes)
  - mount: Mount the stored documents read-only
  - get:   Print a stored value as JSON
  - put:   Store a JSON document`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config override file (.yaml, .yml, .json or .jsonc)")
	flags.IntVarP(&opts.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity between 1 (error) and 5 (trace)")
	flags.StringVarP(&opts.storage, "storage", "s", "", "Storage root directory (default "+config.DefaultStorageDir+")")
	flags.StringVarP(&opts.backend, "backend", "b", "", "Storage backend: os or memory (default "+config.DefaultBackend+")")

	rootCmd.AddCommand(NewServeCmd(opts))
	rootCmd.AddCommand(NewMountCmd(opts))
	rootCmd.AddCommand(NewGetCmd(opts))
	rootCmd.AddCommand(NewPutCmd(opts))

	return rootCmd
}

// load builds the effective config: defaults, then the override file, then
// any flag the user set explicitly. It also initializes logging.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	override := &config.ConfigOverride{}
	if o.configPath != "" {
		var err error
		override, err = config.LoadConfigOverrideFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		override.LogLvl = util.Pointer(o.verbose)
	}
	if flags.Changed("storage") {
		override.StorageDir = util.Pointer(o.storage)
	}
	if flags.Changed("backend") {
		override.Backend = util.Pointer(o.backend)
	}

	cfg := config.NewConfig(override)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	util.InitializeLogger(cfg.LogLvl)
	return cfg, nil
}

// openTree creates the configured backend and a tree rooted at the storage
// dir, creating the storage dir if it does not exist yet.
func openTree(cfg *config.Config) (*codec.Tree, error) {
	backend, err := backends.New(backends.Options{Type: cfg.Backend, Sync: cfg.Sync}.Raw())
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", cfg.Backend, err)
	}
	tree := codec.New(backend, jsontree.ParseRoot(cfg.StorageDir))
	if err := backend.EnsurePath(tree.Root()); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return tree, nil
}

// argPath parses a slash-delimited document path given on the command line.
func argPath(arg string) (jsontree.Path, error) {
	path := jsontree.ParsePath(arg)
	if err := path.Validate(); err != nil {
		return nil, err
	}
	return path, nil
}
