package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/viewmetrics/internal/config"
	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/views"
	"github.com/crimson-sun/viewmetrics/internal/logging"
	"github.com/crimson-sun/viewmetrics/internal/output"
	"github.com/crimson-sun/viewmetrics/internal/output/file"
	"github.com/crimson-sun/viewmetrics/internal/output/multi"
	"github.com/crimson-sun/viewmetrics/internal/output/stdout"
	"github.com/crimson-sun/viewmetrics/internal/output/webhook"
	"github.com/crimson-sun/viewmetrics/internal/pipeline"

	// Register finder implementations.
	_ "github.com/crimson-sun/viewmetrics/internal/connector/usage"
	_ "github.com/crimson-sun/viewmetrics/internal/connector/visits"
)

// combinedSource is the --source value for visits followed by usage.
const combinedSource = "views"

type globalFlags struct {
	configPath string
	server     string
	apiKey     string
	logLevel   string
	outputFile string
	pretty     bool
}

type queryFlags struct {
	source         string
	contentGUID    string
	minDataVersion int
	start          string
	end            string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "viewmetrics",
		Short:         "Query content visits and app usage from Posit Connect",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (environment variables still override it)")
	pf.StringVar(&g.server, "server", "", "Connect server URL (overrides CONNECT_SERVER)")
	pf.StringVar(&g.apiKey, "api-key", "", "Connect API key (overrides CONNECT_API_KEY)")
	pf.StringVar(&g.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")
	pf.StringVar(&g.outputFile, "output-file", "", "append NDJSON to this file instead of stdout")
	pf.BoolVar(&g.pretty, "pretty", false, "indent JSON written to stdout")

	root.AddCommand(
		newFindCmd(g, "find", "Print every matching view event", false),
		newFindCmd(g, "find-one", "Print the first matching view event", true),
		newSourcesCmd(),
		newVersionCmd(),
	)
	return root
}

func newFindCmd(g *globalFlags, use, short string, one bool) *cobra.Command {
	q := &queryFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			params, err := q.params(cmd)
			if err != nil {
				return err
			}
			finder, err := resolveFinder(q.source)
			if err != nil {
				return err
			}
			out, err := buildOutput(cfg.Output)
			if err != nil {
				return err
			}

			p := pipeline.New(finder, out)
			var n int
			if one {
				n, err = p.QueryOne(cmd.Context(), cfg.ConnectorConfig(), params)
			} else {
				n, err = p.Query(cmd.Context(), cfg.ConnectorConfig(), params)
			}
			if cerr := p.Close(); cerr != nil && err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			slog.Info("query complete", "source", q.source, "events", n)
			return nil
		},
	}

	q.bind(cmd)
	return cmd
}

func (q *queryFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&q.source, "source", combinedSource, "views (visits then usage), visits, or usage")
	f.StringVar(&q.contentGUID, "content-guid", "", "only events for this content item")
	f.IntVar(&q.minDataVersion, "min-data-version", 0, "only events at or above this data version")
	f.StringVar(&q.start, "start", "", "inclusive lower time bound (RFC 3339)")
	f.StringVar(&q.end, "end", "", "upper time bound (RFC 3339)")
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the values accepted by --source",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), combinedSource)
			for _, name := range connector.Sources() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "viewmetrics", config.Version)
		},
	}
}

// loadConfig layers .env, the optional YAML file, the environment and
// finally explicit flags, then validates and initializes logging.
func loadConfig(g *globalFlags) (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := config.Load()
	if g.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(g.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if g.server != "" {
		cfg.Connector.Server = g.server
	}
	if g.apiKey != "" {
		cfg.Connector.APIKey = g.apiKey
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.outputFile != "" {
		cfg.Output.Mode = "file"
		cfg.Output.Path = g.outputFile
	}
	if g.pretty {
		cfg.Output.Pretty = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

func (q *queryFlags) params(cmd *cobra.Command) (connector.QueryParams, error) {
	params := connector.QueryParams{ContentGUID: q.contentGUID}
	if cmd.Flags().Changed("min-data-version") {
		v := q.minDataVersion
		params.MinDataVersion = &v
	}

	var err error
	if params.Start, err = parseTime("start", q.start); err != nil {
		return connector.QueryParams{}, err
	}
	if params.End, err = parseTime("end", q.end); err != nil {
		return connector.QueryParams{}, err
	}
	return params, params.Validate()
}

func parseTime(flag, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}

func resolveFinder(source string) (pipeline.Finder, error) {
	if source == "" || source == combinedSource {
		return views.Default(), nil
	}
	ctor, err := connector.Get(source)
	if err != nil {
		return nil, err
	}
	return views.New(ctor()), nil
}

func buildOutput(cfg config.OutputConfig) (output.Output, error) {
	var primary output.Output
	switch cfg.Mode {
	case "file":
		f, err := file.New(cfg.Path, file.WithMaxSize(cfg.MaxSize))
		if err != nil {
			return nil, err
		}
		primary = f
	default:
		primary = stdout.New(cfg.Pretty)
	}

	if cfg.WebhookURL == "" {
		return primary, nil
	}
	return multi.New(primary, webhook.New(cfg.WebhookURL)), nil
}
