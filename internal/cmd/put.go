package cmd

import (
	"io"
	"os"

	"github.com/brettbedarf/jsontree"
	"github.com/spf13/cobra"
)

// NewPutCmd creates the put subcommand, which stores a JSON document.
func NewPutCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put PATH [FILE|-]",
		Short: "Store a JSON document",
		Long: `Store the JSON document read from FILE (or stdin when FILE is - or
omitted) at PATH, relative to the storage root.

When some members fail to store, the others are still written and every
failure is reported.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			path, err := argPath(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if len(args) < 2 || args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return err
			}
			v, err := jsontree.DecodeJSON(data)
			if err != nil {
				return err
			}

			tree, err := openTree(cfg)
			if err != nil {
				return err
			}
			return tree.Put(path, v, cfg.DefaultUser)
		},
	}
	return cmd
}
