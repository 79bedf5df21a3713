package cli

import (
	"context"
	"os"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/remote"
)

type viewOpts struct {
	source      sourceFlags
	at          string
	script      string
	exitAfter   bool
	watch       bool
	noPreview   bool
	provider    string
	screenshots string
	size        string
	debug       bool
}

func (c *CLI) viewCommand() *cobra.Command {
	opts := viewOpts{}
	cmd := &cobra.Command{
		Use:   "view [source]",
		Short: "Open the interactive explorer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args, opts)
		},
	}
	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.at, "at", "", "open at a deep link (fragment or A/B/C path)")
	cmd.Flags().StringVar(&opts.script, "script", "", "drive the viewer with a JSON input script")
	cmd.Flags().BoolVar(&opts.exitAfter, "exit-after-script", false, "quit when the script finishes")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the source file when it changes")
	cmd.Flags().BoolVar(&opts.noPreview, "no-preview", false, "disable hover image previews")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "external search provider")
	cmd.Flags().StringVar(&opts.screenshots, "screenshots", "", "screenshot directory")
	cmd.Flags().StringVar(&opts.size, "size", "", "window size WxH")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "log per-frame render statistics")
	return cmd
}

// systemClipboard adapts atotto/clipboard to canopy.Clipboard.
type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

func (c *CLI) runView(ctx context.Context, args []string, opts viewOpts) error {
	logger := loggerFromContext(ctx)
	cfg, settings, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.provider != "" {
		settings.Provider = opts.provider
	}
	settings.Debug = opts.debug
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

	var thumbs canopy.ThumbnailSource
	if cfg.Preview.Enabled && !opts.noPreview {
		thumbs = remote.NewWikipedia(client, cfg.Preview.Endpoint, cfg.Preview.MaxSize)
	}
	ex := canopy.NewExplorer(float64(w), float64(h), canopy.Options{
		Settings:   settings,
		Loader:     remote.NewChildLoader(client, in.ref()),
		Thumbnails: thumbs,
		Opener:     canopy.OpenerFunc(browser.OpenURL),
		Clipboard:  systemClipboard{},
		Logger:     logger,
		Source:     in.ref(),
	})
	defer ex.Close()

	if opts.at != "" {
		ex.Location().Replace(canopy.FragmentFromLink(opts.at))
	}
	in.start(ex)

	var script *canopy.TestRunner
	if opts.script != "" {
		data, err := os.ReadFile(opts.script)
		if err != nil {
			return err
		}
		if script, err = canopy.LoadTestScript(data); err != nil {
			return err
		}
	}

	title := cfg.Window.Title
	if title == "" || title == appName {
		title = appName + " - " + in.title
	}
	v, err := canopy.NewViewer(ex, canopy.ViewerOptions{
		Title:         title,
		Width:         w,
		Height:        h,
		ScreenshotDir: opts.screenshots,
		Script:        script,
		ExitWhenDone:  opts.exitAfter,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if opts.watch {
		if in.src == nil || in.src.Ref == "-" || remote.IsURL(in.src.Ref) {
			logger.Warn("--watch needs a local source file; ignoring")
		} else {
			stop, err := watchFile(ctx, in.src.Ref, logger, func(data []byte) {
				ex.Post(func() { ex.Load(in.title, data, in.src.Format) })
			})
			if err != nil {
				return err
			}
			defer stop()
		}
	}

	go func() {
		<-ctx.Done()
		v.Quit()
	}()
	if err := v.Run(); err != nil {
		return err
	}
	return ctx.Err()
}
