// Package cli implements the load command: flag and configuration handling,
// logger setup, data source resolution and the run summary printed at the
// end of a load.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// CurrentBuild returns the injected build information.
func CurrentBuild() BuildInfo {
	return BuildInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate}
}

// RootOptions holds the command-line flags. Flags override the matching
// configuration keys only when set explicitly.
type RootOptions struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	URI             string
	Database        string
	BatchSize       int
	EdgeBatchSize   int
	Tables          []string
	IncludeAbstract bool
	SkipEnrichment  bool
	MetricsTextfile string
}

// NewRootCommand creates the load command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	b := CurrentBuild()

	cmd := &cobra.Command{
		Use:   "load <credential-file> <data-directory>",
		Short: "Load PatentsView bulk tables into a Neo4j property graph",
		Long: "load reads the PatentsView legacy bulk-download tables from a local directory or an\n" +
			"s3://bucket/prefix location and merges patents, assignees, inventors, locations,\n" +
			"citations and classifications into Neo4j. Runs are idempotent.\n\n" +
			"The credential file holds the Neo4j username on its first line and the password\n" +
			"on its second.\n\n" +
			"With lock.redis_addr set, loads into the same database are serialised through a Redis\n" +
			"lock. With events.brokers set, a load.completed event is published to Kafka.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.BuildDate),
		Args:          positionalArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0], args[1])
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeConfig, "invalid flags")
	})

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	f.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&opts.LogFormat, "log-format", "", "log format (console, json)")
	f.StringVar(&opts.URI, "uri", "", "Neo4j URI (default bolt://localhost:7687)")
	f.StringVar(&opts.Database, "database", "", "Neo4j database (default: server default)")
	f.IntVar(&opts.BatchSize, "batch-size", 0, "node requests per write transaction")
	f.IntVar(&opts.EdgeBatchSize, "edge-batch-size", 0, "relationship requests per write transaction")
	f.StringSliceVar(&opts.Tables, "tables", nil, "load only these tables (comma separated)")
	f.BoolVar(&opts.IncludeAbstract, "include-abstract", false, "store patent abstracts")
	f.BoolVar(&opts.SkipEnrichment, "skip-enrichment", false, "skip the application, claim and citation count tables")
	f.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write run metrics to this node-exporter textfile")

	return cmd
}

func positionalArgs(_ *cobra.Command, args []string) error {
	if len(args) != 2 {
		return pkgerrors.Newf(pkgerrors.ErrCodeConfig, "expected <credential-file> <data-directory>, got %d arguments", len(args))
	}
	return nil
}

// Execute runs the command with args and returns the process exit status.
// Cancelling ctx stops a running load.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		PrintError(cmd, err)
		return pkgerrors.ExitCode(err)
	}
	return pkgerrors.ExitOK
}

// initConfig loads the config file and environment, then applies the flags
// the user set.
func initConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeConfig, "invalid configuration")
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}
	if changed("log-format") {
		cfg.Log.Format = opts.LogFormat
	}
	if changed("uri") {
		cfg.Neo4j.URI = opts.URI
	}
	if changed("database") {
		cfg.Neo4j.Database = opts.Database
	}
	if changed("batch-size") {
		cfg.Load.NodeBatchSize = opts.BatchSize
	}
	if changed("edge-batch-size") {
		cfg.Load.EdgeBatchSize = opts.EdgeBatchSize
	}
	if changed("tables") {
		cfg.Load.Tables = opts.Tables
	}
	if changed("include-abstract") {
		cfg.Load.IncludeAbstract = opts.IncludeAbstract
	}
	if changed("skip-enrichment") {
		cfg.Load.SkipEnrichment = opts.SkipEnrichment
	}
	if changed("metrics-textfile") {
		cfg.Metrics.TextfilePath = opts.MetricsTextfile
	}

	if err := config.Finalize(cfg); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeConfig, "invalid configuration")
	}
	return cfg, nil
}

// initLogger creates a logger on stderr tagged with the run id.
func initLogger(cfg *config.Config, runID common.RunID, stderr io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeConfig, "invalid log level")
	}
	logger, err := logging.NewLoggerTo(logging.LogConfig{Level: level, Format: cfg.Log.Format}, stderr)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeConfig, "cannot create logger")
	}
	logger = logger.With(logging.String(logging.FieldRunID, string(runID)))
	logging.SetDefault(logger)
	return logger, nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if i == len(headers)-1 {
				sb.WriteString(val)
				continue
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
