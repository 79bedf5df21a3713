package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/remote"
)

type renderOpts struct {
	source    sourceFlags
	output    string
	at        string
	size      string
	highlight string
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}
	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render a view to PNG or SVG without opening a window",
		Long: `Render draws the same view the explorer would show and writes it to a file.
The format follows the output extension (.png or .svg).`,
		Example: `  canopy render tree.json -o tree.png
  canopy render --demo --at Life/Animalia --highlight felis -o cats.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "canopy.png", "output file (.png or .svg)")
	cmd.Flags().StringVar(&opts.at, "at", "", "focus a deep link (fragment or A/B/C path)")
	cmd.Flags().StringVar(&opts.size, "size", "", "image size WxH (default: window size from config)")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "search for and highlight a node")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, args []string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	if _, err := canopy.ExportFormatForPath(opts.output); err != nil {
		return err
	}
	cfg, settings, err := c.loadConfig()
	if err != nil {
		return err
	}
	w, h := cfg.Window.Width, cfg.Window.Height
	if opts.size != "" {
		if w, h, err = parseSize(opts.size); err != nil {
			return err
		}
	}

	client := newClient(cfg, logger)
	in, err := c.resolveInput(ctx, client, args, opts.source)
	if err != nil {
		return err
	}
	root, err := in.decode()
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	ex := canopy.NewExplorer(float64(w), float64(h), canopy.Options{
		Settings: settings,
		Loader:   remote.NewChildLoader(client, in.ref()),
		Logger:   logger,
		Source:   in.ref(),
	})
	defer ex.Close()

	if opts.at != "" {
		ex.Location().Replace(canopy.FragmentFromLink(opts.at))
	}
	ex.SetTree(canopy.Index(root))
	ex.Settle()
	if opts.at != "" {
		want := canopy.DecodePath(canopy.FragmentFromLink(opts.at))
		got := ex.Tree().PathNames(ex.Focus())
		if len(got) < len(want) {
			printWarning(c.out, "%q not found; showing %s", opts.at, strings.Join(got, "/"))
		}
	}
	if opts.highlight != "" {
		n, kind := ex.Search(opts.highlight)
		if n == nil {
			printWarning(c.out, "no match for %q", opts.highlight)
		} else {
			logger.Debug("highlight", "node", n.Name, "match", kind)
			ex.Settle()
		}
	}

	st, err := ex.ExportFile(opts.output)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", opts.output))
	printSuccess(c.out, "%s  %s circles, %s labels", opts.output,
		StyleNumber.Render(humanize.Comma(int64(st.Drawn))),
		StyleNumber.Render(humanize.Comma(int64(st.LabelsPlaced))))
	return nil
}
