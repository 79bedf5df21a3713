package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
)

type demoOpts struct {
	seed   uint64
	output string
	format string
}

func (c *CLI) demoCommand() *cobra.Command {
	opts := demoOpts{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write the generated demo taxonomy as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDemo(cmd, opts)
		},
	}
	cmd.Flags().Uint64Var(&opts.seed, "seed", canopy.DemoSeed, "generator seed")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "json or yaml (default from the output extension)")
	return cmd
}

func (c *CLI) runDemo(cmd *cobra.Command, opts demoOpts) error {
	var f canopy.Format
	switch strings.ToLower(opts.format) {
	case "json":
		f = canopy.FormatJSON
	case "yaml", "yml":
		f = canopy.FormatYAML
	case "":
		f = canopy.FormatForPath(opts.output)
	default:
		return fmt.Errorf("unknown format %q: want json or yaml", opts.format)
	}

	root := canopy.GenerateDemo(opts.seed)
	var w io.Writer = c.out
	if opts.output != "" {
		out, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer out.Close()
		w = out
	}
	if err := canopy.Encode(w, root, f); err != nil {
		return err
	}
	if opts.output != "" {
		loggerFromContext(cmd.Context()).Info("wrote demo taxonomy", "file", opts.output, "seed", opts.seed)
	}
	return nil
}
