package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"github.com/constellation-lab/constellation-zkevm/app"
	"github.com/constellation-lab/constellation-zkevm/config"
	"github.com/constellation-lab/constellation-zkevm/derivative"
	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/indexer/sink"
	"github.com/constellation-lab/constellation-zkevm/libs/log"
	"github.com/constellation-lab/constellation-zkevm/store"
)

const shutdownTimeout = 5 * time.Second

// MakeStartCommand returns the command that serves the application to a
// Tendermint node over ABCI.
func MakeStartCommand(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"node", "run"},
		Short:   "Run the ABCI application",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(conf)
			if err != nil {
				return err
			}
			return runApp(cmd.Context(), conf, logger)
		},
	}
	cmd.Flags().String("proxy-app", conf.ProxyApp, "address the ABCI server listens on")
	cmd.Flags().String("abci", conf.ABCI, "ABCI transport (socket | grpc)")
	cmd.Flags().String("db-backend", conf.DBBackend, "database backend (goleveldb | memdb)")
	cmd.Flags().Uint32("app.oracle-words", conf.App.OracleWords, "random words requested per settlement")
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve Prometheus metrics")
	return cmd
}

func runApp(ctx context.Context, conf *config.Config, logger log.Logger) error {
	db, err := dbm.NewDB("ledger", dbm.BackendType(conf.DBBackend), conf.DBDir())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	state, err := store.LoadAppStateJSON(db)
	if err != nil {
		db.Close()
		return err
	}

	appMetrics, engineMetrics, indexerMetrics := app.NopMetrics(), derivative.NopMetrics(), indexer.NopMetrics()
	if conf.Instrumentation.Prometheus {
		ns := conf.Instrumentation.Namespace
		appMetrics = app.PrometheusMetrics(ns)
		engineMetrics = derivative.PrometheusMetrics(ns)
		indexerMetrics = indexer.PrometheusMetrics(ns)
	}

	sinks, err := sink.EventSinksFromConfig(conf.EventSink, state.ChainID)
	if err != nil {
		db.Close()
		return err
	}
	indexerService := indexer.NewService(indexer.ServiceArgs{
		Sinks:   sinks,
		Metrics: indexerMetrics,
		Logger:  logger.With("module", "indexer"),
	})

	genesis, err := os.ReadFile(conf.AppStateFile())
	if err != nil && !os.IsNotExist(err) {
		db.Close()
		return fmt.Errorf("read app state file: %w", err)
	}

	application, err := app.NewApplication(db,
		app.WithLogger(logger.With("module", "app")),
		app.WithGenesisFallback(genesis),
		app.WithMetrics(appMetrics),
		app.WithPublisher(indexerService),
		app.WithEngineOptions(
			derivative.WithMetrics(engineMetrics),
			derivative.WithOracleWords(conf.App.OracleWords),
		),
	)
	if err != nil {
		db.Close()
		return err
	}
	defer application.Close()

	srv, err := server.NewServer(conf.ProxyApp, conf.ABCI, application)
	if err != nil {
		return err
	}
	srv.SetLogger(logger.With("module", "abci-server"))

	// the indexer outlives the ABCI server so a Commit still in flight can
	// publish its events; it is stopped once srv.Stop has returned.
	ictx, icancel := context.WithCancel(context.Background())
	defer icancel()
	if err := indexerService.Start(ictx); err != nil {
		return err
	}
	defer func() {
		if err := indexerService.Stop(); err != nil {
			logger.Error("stopping indexer", "err", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("serving ABCI application",
		"addr", conf.ProxyApp,
		"transport", conf.ABCI,
		"chain_id", state.ChainID,
		"height", state.Height)

	g.Go(func() error {
		<-ctx.Done()
		return srv.Stop()
	})

	if conf.Instrumentation.Prometheus {
		metricsSrv := &http.Server{
			Addr:              conf.Instrumentation.PrometheusListenAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(sctx)
		})
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}
