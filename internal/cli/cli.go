// Package cli implements the autoflex command-line interface.
//
// # Commands
//
//   - analyze: run the full inference and print the structure outline
//   - relate, cluster: inspect sibling relationships and spatial clusters
//   - plan: list conversion steps, or simulate them into a new snapshot
//   - check: check design rules, optionally verifying the plan's effect
//   - visualize: draw the inferred structure as SVG or DOT
//   - config: print the effective configuration
//   - cache: clear the result cache or print its location
//
// Every analysis command reads a snapshot file, or stdin when none is given,
// and accepts --json or -o for machine-readable output.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/buildinfo"
	"github.com/matzehuels/autoflex/pkg/cache"
	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/pipeline"
	"github.com/matzehuels/autoflex/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "autoflex"

	envConfig    = "AUTOFLEX_CONFIG"
	envRedisAddr = "AUTOFLEX_REDIS_ADDR"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	redisAddr  string
	scope      string
	noCache    bool

	// Overrides for the most common configuration knobs.
	tolerance      float64
	groupThreshold float64
	sequential     bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Autoflex infers auto-layout structure from absolutely positioned designs",
		Long: `Autoflex reads a snapshot of absolutely positioned design elements and infers
how they would be expressed as auto layout: flow direction, spacing, padding,
alignment and per-child sizing. It produces an ordered conversion plan and can
check the snapshot against design rules.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "TOML configuration file (env "+envConfig+")")
	flags.StringVar(&c.redisAddr, "redis", "", "cache results in Redis at this address (env "+envRedisAddr+")")
	flags.StringVar(&c.scope, "scope", "", "cache key scope, to keep projects apart in a shared cache")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable caching")
	flags.Float64Var(&c.tolerance, "tolerance", 0, "alignment tolerance in pixels")
	flags.Float64Var(&c.groupThreshold, "group-threshold", 0, "minimum cluster score for creating groups")
	flags.BoolVar(&c.sequential, "sequential", false, "synthesize sibling subtrees one at a time")

	// Register all subcommands
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.relateCommand())
	root.AddCommand(c.clusterCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig returns the effective configuration: defaults, then the config
// file, then any override flags the user set.
func (c *CLI) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	path := c.configPath
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("tolerance") {
		cfg.Relate.Tolerance = c.tolerance
	}
	if flags.Changed("group-threshold") {
		cfg.Plan.GroupScoreThreshold = c.groupThreshold
	}
	if flags.Changed("sequential") {
		cfg.Structure.Parallel = !c.sequential
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.scope != "" {
		keyer = cache.NewScopedKeyer(nil, c.scope+":")
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if addr := c.redis(); addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr, Prefix: appName + ":"})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) redis() string {
	if c.redisAddr != "" {
		return c.redisAddr
	}
	return os.Getenv(envRedisAddr)
}

// analysis holds the flags shared by the commands that run the pipeline.
type analysis struct {
	grouping bool
	refresh  bool
	jsonOut  bool
	output   string
}

func (a *analysis) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&a.grouping, "group", "g", false, "wrap strong clusters into new groups")
	cmd.Flags().BoolVar(&a.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of a summary")
	cmd.Flags().StringVarP(&a.output, "output", "o", "", "write JSON to this file")
}

// run loads the snapshot named by args and analyzes it. It returns the
// snapshot root along with the result.
func (c *CLI) run(cmd *cobra.Command, args []string, a analysis, rules, verify bool) (geom.Element, *pipeline.Result, error) {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return geom.Element{}, nil, err
	}
	root, input, err := readSnapshot(cmd, args, cfg.Vocabulary)
	if err != nil {
		return geom.Element{}, nil, err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return geom.Element{}, nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Config:   &cfg,
		Grouping: a.grouping,
		Rules:    rules,
		Verify:   verify,
		Refresh:  a.refresh,
		Logger:   c.Logger,
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s...", input))
	spinner.Start()

	res, err := runner.Execute(ctx, root, opts)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return geom.Element{}, nil, fmt.Errorf("analyze %s: %w", input, err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Analyzed %d elements", res.Stats.Elements))

	for _, d := range res.Diagnostics {
		printWarning("%s: skipped %s: %s", d.Stage, d.EntityID, d.Message)
	}
	return root, res, nil
}

// readSnapshot reads the snapshot file in args, or stdin when args is empty
// or "-".
func readSnapshot(cmd *cobra.Command, args []string, vocab config.Vocabulary) (geom.Element, string, error) {
	if len(args) == 0 || args[0] == "-" {
		root, err := snapshot.Read(cmd.InOrStdin(), vocab)
		return root, "stdin", err
	}
	root, err := snapshot.Load(args[0], vocab)
	return root, args[0], err
}

// emit writes v as JSON to the output file or stdout, or calls summary when
// neither is requested.
func emit(a analysis, v any, summary func()) error {
	switch {
	case a.output != "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if err := os.WriteFile(a.output, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", a.output, err)
		}
		printSuccess("Wrote results")
		printFile(a.output)
		return nil
	case a.jsonOut:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		summary()
		return nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/autoflex/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
