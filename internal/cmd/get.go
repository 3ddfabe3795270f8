package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"
)

// NewGetCmd creates the get subcommand, which prints a stored value.
func NewGetCmd(opts *globalOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Print a stored value as JSON",
		Long: `Print the value stored at PATH as indented JSON.

PATH is slash-delimited and relative to the storage root. With --query only the
values matched by the JSONPath expression are printed, as an array.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			path, err := argPath(args[0])
			if err != nil {
				return err
			}
			var x jp.Expr
			if query != "" {
				if x, err = jp.ParseString(query); err != nil {
					return fmt.Errorf("invalid query %q: %w", query, err)
				}
			}

			tree, err := openTree(cfg)
			if err != nil {
				return err
			}
			v, err := tree.Get(path, cfg.DefaultUser)
			if err != nil {
				return err
			}
			if x != nil {
				matches := x.Get(v)
				if matches == nil {
					matches = []any{}
				}
				v = matches
			}

			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "JSONPath expression selecting from the value")
	return cmd
}
