package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/graphpage/internal/config"
	"github.com/matzehuels/graphpage/pkg/buildinfo"
	"github.com/matzehuels/graphpage/pkg/cache"
	"github.com/matzehuels/graphpage/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
}

// New creates a CLI that logs to w. Config holds the defaults until the root
// command's PersistentPreRunE loads the real configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "graphpage renders a JSON graph description as an annotated HTML page",
		Long: `graphpage turns a JSON description of vertices and edges into an SVG diagram
(laid out by Graphviz) embedded in a standalone HTML page. Vertices and edges
that carry detail become links to their entry in the page.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/graphpage/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config",
		"engine", cfg.Pipeline.Engine,
		"cache", cfg.Cache.Backend)
	return nil
}

// pipelineFlags are the flags shared by commands that run the pipeline.
type pipelineFlags struct {
	engine        string
	layoutProgram string
	templateDir   string
	noCache       bool
	refresh       bool
}

func (f *pipelineFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.engine, "engine", "", "layout engine: exec (default), graphviz")
	fs.StringVar(&f.layoutProgram, "layout-program", "", "program run by the exec engine (default dot)")
	fs.StringVar(&f.templateDir, "templates", "", "directory overriding graph.dot.tmpl, page.html.tmpl or style.css")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached layouts and recompute")
}

// options overlays explicitly set flags on the configured pipeline options.
func (f *pipelineFlags) options(fs *pflag.FlagSet, base pipeline.Options) pipeline.Options {
	opts := base
	if fs.Changed("engine") {
		opts.Engine = f.engine
	}
	if fs.Changed("layout-program") {
		opts.LayoutProgram = f.layoutProgram
	}
	if fs.Changed("templates") {
		opts.TemplateDir = f.templateDir
	}
	opts.Refresh = f.refresh
	return opts
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, opts pipeline.Options, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	opts.Logger = c.Logger
	runner, err := pipeline.NewRunner(ch, opts)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.Redis)
	}
	dir, err := c.Config.CacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
