package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/space-catalog/internal/config"
	"github.com/Sternrassler/space-catalog/pkg/client"
	"github.com/Sternrassler/space-catalog/pkg/logging"
	"github.com/Sternrassler/space-catalog/pkg/metrics"
	"github.com/Sternrassler/space-catalog/pkg/mutation"
	"github.com/Sternrassler/space-catalog/pkg/notify"
)

// app carries the global flags and the resources built from them.
type app struct {
	in  io.Reader
	out io.Writer

	configPath  string
	baseURL     string
	logLevel    string
	logPretty   bool
	metricsAddr string

	cfg    config.Config
	logger zerolog.Logger
	client *client.Client
	redis  *redis.Client

	stopMetrics context.CancelFunc
	metricsErr  chan error
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: in, out: out}
}

// execute runs the command line and releases everything setup acquired,
// including when setup or the command itself failed.
func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	if args != nil {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.teardown())
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalog",
		Short: "Browse and edit the space object catalog",
		Long: `catalog talks to the space-objects REST resource.

Available subcommands:
  list   - Print one page, or every page with --all
  create - Add a space object
  delete - Remove a space object after confirmation
  export - Write the whole catalog as JSON
  browse - Open the interactive browser`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.out)
	root.SetIn(a.in)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&a.baseURL, "base-url", "", "API root, e.g. http://localhost:3000/api")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	flags.BoolVar(&a.logPretty, "log-pretty", false, "human-readable log output")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		newListCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newBrowseCmd(a),
	)
	return root
}

// setup resolves configuration (file, then environment, then flags) and
// builds the logger, the optional Redis connection and the client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.LogPretty = a.logPretty
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = a.metricsAddr
	}
	a.cfg = cfg

	logOut := io.Writer(os.Stderr)
	if cmd.Name() == "browse" && !cfg.LogPretty {
		// JSON lines would corrupt the alternate screen.
		logOut = io.Discard
	}
	a.logger = logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: logOut,
	}).With().Str("component", "cli").Logger()

	if cfg.Path != "" {
		a.logger.Debug().Str("path", cfg.Path).Msg("Loaded config file")
	}

	a.redis = a.connectRedis(cmd.Context())

	clientCfg := client.DefaultConfig(cfg.BaseURL)
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.Timeout = cfg.Timeout
	clientCfg.Redis = a.redis

	c, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	a.client = c

	if cfg.MetricsAddr != "" {
		a.startMetrics(cmd.Context())
	}
	return nil
}

// connectRedis returns a client for the configured Redis, or nil when none is
// configured or it does not answer. Caching is optional.
func (a *app) connectRedis(ctx context.Context) *redis.Client {
	if a.cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr, DB: a.cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("Redis unavailable, continuing without cache")
		_ = rdb.Close()
		return nil
	}
	a.logger.Debug().Str("addr", a.cfg.RedisAddr).Int("db", a.cfg.RedisDB).Msg("Connected to Redis")
	return rdb
}

func (a *app) startMetrics(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.stopMetrics = cancel
	a.metricsErr = make(chan error, 1)

	go func() {
		a.metricsErr <- metrics.Serve(ctx, a.cfg.MetricsAddr, a.logger)
	}()
}

func (a *app) teardown() error {
	var errs []error

	if a.stopMetrics != nil {
		a.stopMetrics()
		if err := <-a.metricsErr; err != nil {
			errs = append(errs, err)
		}
		a.stopMetrics = nil
	}
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			errs = append(errs, err)
		}
		a.client = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
		a.redis = nil
	}
	return errors.Join(errs...)
}

// mutations returns a handler that reports outcomes on the command output
// and in the log. The CLI keeps no listing, so there is nothing to invalidate.
func (a *app) mutations() *mutation.Handler {
	printer := notify.NotifierFunc(func(n notify.Notification) {
		fmt.Fprintln(a.out, n.Message)
	})
	return mutation.NewHandler(a.client, nil, notify.Multi{notify.Log{Logger: a.logger}, printer})
}
