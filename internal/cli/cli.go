// Package cli implements the canopy command-line interface.
//
// The root command opens the interactive viewer; subcommands render
// headless images, search a tree, print statistics, write the demo taxonomy
// and manage the configuration file. Every command accepts --verbose (-v)
// for debug logging and --config to pick a configuration file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/internal/buildinfo"
	"github.com/phanxgames/canopy/internal/config"
	"github.com/phanxgames/canopy/internal/remote"
)

const appName = "canopy"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	in         io.Reader
	configPath string
}

// New creates a CLI logging to w. Command output goes to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		in:     os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered. Running it without a subcommand opens the viewer.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.viewCommand()
	root.Use = appName + " [source]"
	root.Short = "canopy explores hierarchies as nested circles"
	root.Long = `canopy draws a tree as nested circles and lets you pan, zoom, search and
drill into it. The source is a JSON or YAML file, "-" for stdin, or an
http(s) URL. Without one, tree.json, taxonomy.json and data.json are tried
before falling back to a generated demo taxonomy.`
	build := buildinfo.Current()
	root.Version = build.Version
	root.SilenceUsage = true
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}
	root.SetVersionTemplate(build.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.findCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.demoCommand())
	root.AddCommand(c.configCommand())
	return root
}

// loadConfig reads the configuration and maps it onto canopy settings.
func (c *CLI) loadConfig() (*config.Config, canopy.Settings, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, canopy.Settings{}, err
	}
	s, err := cfg.Settings()
	if err != nil {
		return nil, canopy.Settings{}, err
	}
	return cfg, s, nil
}

func newClient(cfg *config.Config, logger *log.Logger) *remote.Client {
	return remote.NewClient(remote.Options{
		Timeout:   cfg.Timeout(),
		Attempts:  cfg.Network.Retries,
		UserAgent: cfg.Network.UserAgent,
		OnRetry: func(url string, attempt int, err error) {
			logger.Warn("retrying fetch", "url", url, "attempt", attempt, "err", err)
		},
	})
}

// sourceFlags selects the tree a command works on.
type sourceFlags struct {
	demo bool
	seed uint64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.demo, "demo", false, "use the generated demo taxonomy")
	cmd.Flags().Uint64Var(&f.seed, "seed", canopy.DemoSeed, "demo taxonomy seed")
}

// input is a resolved tree source: a document or the generated demo.
type input struct {
	src   *remote.Source // nil for the demo
	title string
	seed  uint64
}

// ref is the source reference used in copied links.
func (in *input) ref() string {
	if in.src == nil {
		return "demo"
	}
	return in.src.Ref
}

// decode parses the source synchronously.
func (in *input) decode() (*canopy.Node, error) {
	if in.src == nil {
		return canopy.GenerateDemo(in.seed), nil
	}
	return canopy.Decode(in.src.Data, in.src.Format)
}

// start loads the source into ex in the background.
func (in *input) start(ex *canopy.Explorer) {
	if in.src == nil {
		ex.LoadRoot(in.title, canopy.GenerateDemo(in.seed))
		return
	}
	ex.Load(in.title, in.src.Data, in.src.Format)
}

// resolveInput picks the tree source: the argument, then the default
// candidates in the working directory, then the demo.
func (c *CLI) resolveInput(ctx context.Context, client *remote.Client, args []string, f sourceFlags) (*input, error) {
	logger := loggerFromContext(ctx)
	if f.demo {
		return &input{title: "Demo taxonomy", seed: f.seed}, nil
	}
	if len(args) > 0 {
		src, err := remote.ReadSource(ctx, client, args[0], c.in)
		if err != nil {
			return nil, err
		}
		logger.Debug("source loaded", "ref", src.Ref, "bytes", len(src.Data))
		return &input{src: src, title: sourceTitle(src.Ref)}, nil
	}
	if src := remote.FindDefault(ctx, client, remote.DefaultCandidates); src != nil {
		logger.Info("using default source", "file", src.Ref)
		return &input{src: src, title: sourceTitle(src.Ref)}, nil
	}
	logger.Info("no data source found, using demo taxonomy")
	return &input{title: "Demo taxonomy", seed: f.seed}, nil
}

func sourceTitle(ref string) string {
	switch {
	case ref == "-":
		return "stdin"
	case remote.IsURL(ref):
		return ref
	default:
		return filepath.Base(ref)
	}
}

// loadTree decodes and indexes the input, then resolves at (a fragment,
// full link or plain A/B/C path) against it.
func loadTree(in *input, at string) (*canopy.Tree, *canopy.Node, error) {
	root, err := in.decode()
	if err != nil {
		return nil, nil, err
	}
	t := canopy.Index(root)
	node := t.Root()
	if at != "" {
		names := canopy.DecodePath(canopy.FragmentFromLink(at))
		var used int
		node, used = t.ResolvePath(names)
		if used < len(names) {
			return t, node, canopy.NewError(canopy.ErrCodeNotFound, "no node at %q (stopped at %s)", at, strings.Join(t.PathNames(node), "/"))
		}
	}
	return t, node, nil
}

// parseSize parses "WxH".
func parseSize(s string) (w, h int, err error) {
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: want WxH", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return w, h, nil
}
