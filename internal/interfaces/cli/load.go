package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/patentsview-graph/internal/application/loader"
	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	infraNeo4j "github.com/turtacn/patentsview-graph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/storage/minio"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/storage/tablefile"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

const metricsNamespace = "pvgraph"

// newConnector builds the store connector of a run.
var newConnector = neo4jConnector

// runLoad performs every pre-flight check before connecting: configuration,
// credentials, data directory, required tables and headers. The run lock is
// taken after the checks pass.
func runLoad(cmd *cobra.Command, opts *RootOptions, credPath, dataArg string) (err error) {
	ctx := cmd.Context()

	cfg, err := initConfig(cmd, opts)
	if err != nil {
		return err
	}
	runID := common.NewRunID()
	log, err := initLogger(cfg, runID, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	desc, err := config.NewConnectionDescriptor(cfg.Neo4j, credPath)
	if err != nil {
		return err
	}
	src, err := config.ResolveDataDir(dataArg)
	if err != nil {
		return err
	}
	dir, cleanup, err := localDataDir(ctx, cfg.Source, src, log)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog, err := tablefile.Discover(dir)
	if err != nil {
		return err
	}
	reader := tablefile.NewReader(patentsview.ParseOptions{IncludeAbstract: cfg.Load.IncludeAbstract}, log)
	lopts := loader.Options{
		NodeBatchSize:  cfg.Load.NodeBatchSize,
		EdgeBatchSize:  cfg.Load.EdgeBatchSize,
		ChannelDepth:   cfg.Load.ChannelDepth,
		RequiredTables: cfg.Load.RequiredTables,
		Tables:         cfg.Load.Tables,
		SkipEnrichment: cfg.Load.SkipEnrichment,
	}
	plan, err := loader.Prepare(catalog, reader, lopts, log)
	if err != nil {
		return err
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: metricsNamespace, Subsystem: "load"}, log)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "cannot create metrics collector")
	}
	metrics := prometheus.NewLoadMetrics(collector)

	release, err := acquireRunLock(ctx, cfg.Lock, desc, string(runID), log)
	if err != nil {
		return err
	}
	defer release()

	log.Info("Starting load",
		logging.String("target", desc.String()),
		logging.String("data", src.String()),
		logging.Int("tables", len(plan.Files)))

	summary, runErr := loader.New(reader, lopts, runID, metrics, log).
		Run(ctx, plan, newConnector(desc, cfg.Neo4j, lopts, log))

	PrintSummary(cmd.OutOrStdout(), summary)
	logSummary(log, summary, runErr)
	publishRunEvent(cfg.Events, summary, desc, src.String(), runErr, log)

	if path := cfg.Metrics.TextfilePath; path != "" {
		if werr := collector.WriteTextfile(path); werr != nil {
			log.Warn("Failed to write metrics textfile", logging.String(logging.FieldFile, path), logging.Err(werr))
		}
	}
	return runErr
}

// neo4jConnector opens the driver and one write session for the run. The
// writer checks the driver after a rejected batch so that a lost connection
// stops the run instead of being counted as row failures.
func neo4jConnector(desc config.ConnectionDescriptor, cfg config.Neo4jConfig, opts loader.Options, log logging.Logger) loader.Connector {
	return func(ctx context.Context) (loader.Store, func(context.Context) error, error) {
		drv, err := infraNeo4j.Connect(ctx, desc, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		session := drv.WriteSession(ctx)
		writer := repositories.NewGraphWriter(session, repositories.WriterOptions{
			NodeBatchSize: opts.NodeBatchSize,
			EdgeBatchSize: opts.EdgeBatchSize,
			HealthCheck:   drv.HealthCheck,
		}, log)

		closeFn := func(ctx context.Context) error {
			serr := session.Close(ctx)
			derr := drv.Close(ctx)
			if serr != nil {
				return serr
			}
			return derr
		}
		return writer, closeFn, nil
	}
}

// localDataDir returns a local directory holding the tables of src. Remote
// sources are mirrored into the configured cache directory, or into a
// temporary directory removed by the returned cleanup.
func localDataDir(ctx context.Context, cfg config.SourceConfig, src config.DataDir, log logging.Logger) (string, func(), error) {
	noop := func() {}
	if !src.IsRemote() {
		return src.Path, noop, nil
	}

	client, err := minio.NewMinIOClient(ctx, cfg, src.Bucket, log)
	if err != nil {
		return "", noop, err
	}
	defer client.Close()

	cacheDir, cleanup := cfg.CacheDir, noop
	if cacheDir == "" {
		tmp, err := os.MkdirTemp("", "pvgraph-")
		if err != nil {
			return "", noop, pkgerrors.Wrap(err, pkgerrors.ErrCodeDataDir, "cannot create temporary cache directory")
		}
		cacheDir = tmp
		cleanup = func() {
			if err := os.RemoveAll(tmp); err != nil {
				log.Warn("Failed to remove temporary cache directory", logging.String(logging.FieldFile, tmp), logging.Err(err))
			}
		}
	}

	res, err := client.Mirror(ctx, src, cacheDir)
	if err != nil {
		cleanup()
		return "", noop, err
	}
	log.Info("Data source mirrored",
		logging.String("source", src.String()),
		logging.String("dir", res.Dir),
		logging.Int("downloaded", len(res.Downloaded)),
		logging.Int("cached", len(res.Cached)))
	return res.Dir, cleanup, nil
}

//Personal.AI order the ending
