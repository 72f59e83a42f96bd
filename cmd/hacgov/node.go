package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calehh/hac-gov/agent"
	"github.com/calehh/hac-gov/app"
	"github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "hacgov",
	Short: "hacgov runs the app governance chain",
	Long: `A cometbft chain that collects, votes on and settles
governance proposals for registered apps.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&homeDir, types.FlagHome, "d", "", "home directory")
}

func newRegistry(cfg *config.AppConfig, logger cmtlog.Logger) (agent.Registry, error) {
	if cfg.RegistryURL == "" {
		logger.Info("no registry url configured, using empty mock registry")
		return agent.NewMockRegistry(), nil
	}
	return agent.NewRPCRegistry(cfg.RegistryURL, cfg.RegistryTimeout, logger)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(homeDir)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		cfg.PrivValidatorKeyFile(),
		cfg.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(cfg.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("failed to load node's key: %w", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	registry, err := newRegistry(cfg.App, logger)
	if err != nil {
		return fmt.Errorf("new registry: %w", err)
	}
	govApp, err := app.NewGovApp(cfg, registry, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	node, err := nm.NewNode(
		cfg.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(govApp),
		nm.DefaultGenesisDocProviderFunc(cfg.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(cfg.Instrumentation),
		logger,
	)
	if err != nil {
		govApp.Stop()
		return fmt.Errorf("creating node: %w", err)
	}

	if err = govApp.Start(node.BlockStore()); err != nil {
		govApp.Stop()
		return err
	}
	if err = node.Start(); err != nil {
		govApp.Stop()
		return fmt.Errorf("start comet node: %w", err)
	}

	stopIndexer := func() {}
	if cfg.App.IndexerEnabled {
		stopIndexer, err = startIndexer(cfg, logger)
		if err != nil {
			logger.Error("indexer not started", "err", err)
			stopIndexer = func() {}
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	done := make(chan struct{})
	go func() {
		defer close(done)
		stopIndexer()
		if err := node.Stop(); err != nil {
			logger.Error("stop comet node", "err", err)
		}
		node.Wait()
		govApp.Stop()
	}()
	select {
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %v", shutdownTimeout)
	case <-done:
		return nil
	}
}

// startIndexer follows the local node's rpc and serves the read model. The
// returned func stops both and closes the indexer db.
func startIndexer(cfg *config.Config, logger cmtlog.Logger) (stop func(), err error) {
	rpcUrl, err := url.Parse(cfg.RPC.ListenAddress)
	if err != nil {
		return
	}
	rpcUrl.Scheme = "http"
	dbPath := filepath.Join(cfg.RootDir, "indexer.db")
	indexer, err := agent.NewChainIndexer(logger, dbPath, rpcUrl.String(), cfg.App.IndexerPollInterval)
	if err != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	indexed := make(chan struct{})
	go func() {
		defer close(indexed)
		indexer.Start(ctx)
	}()

	service := agent.NewService(cfg.App.IndexerListenAddr, indexer, logger)
	go func() {
		if err := service.Start(); err != nil {
			logger.Error("service stopped", "err", err)
		}
	}()

	stop = func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := service.Stop(sctx); err != nil {
			logger.Error("stop service", "err", err)
		}
		cancel()
		<-indexed
		if err := indexer.Close(); err != nil {
			logger.Error("close indexer", "err", err)
		}
	}
	return
}
