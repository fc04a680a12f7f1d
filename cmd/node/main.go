// Command node runs a nanochain node: it serves the node wire protocol,
// persists its blockchain state periodically, and optionally exposes
// Prometheus metrics. Flag parsing deliberately stays stdlib flag — CLI
// ergonomics are out of scope, this just needs to exercise the library
// surface underneath it.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/maxmynter/nanochain/internal/chain"
	"github.com/maxmynter/nanochain/internal/metrics"
	"github.com/maxmynter/nanochain/internal/node"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

func main() {
	listenAddr := flag.String("listen", "0.0.0.0:9420", "address to listen for peer connections on")
	dataFile := flag.String("data", "nanochain.db", "path to the persisted blockchain snapshot (bbolt database)")
	peers := flag.String("peers", "", "comma-separated list of peer addresses to sync from on startup")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	genesisTarget := flag.String("genesis-target", chainhash.MaxU256().String(), "initial difficulty target for a fresh chain, base 10")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	target, err := chainhash.U256FromString(*genesisTarget)
	if err != nil {
		logger.Fatal("invalid genesis target", zap.Error(err))
	}

	bc := chain.NewBlockchain(target)
	store, err := node.LoadOrInit(bc, *dataFile)
	if err != nil {
		logger.Fatal("load blockchain state", zap.Error(err), zap.String("path", *dataFile))
	}
	defer store.Close()

	n := node.New(bc, logger)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var peerAddrs []string
	if *peers != "" {
		peerAddrs = strings.Split(*peers, ",")
	}

	logger.Info("nanochain node starting",
		zap.String("listen", *listenAddr),
		zap.Int("height", bc.Height()),
		zap.Int("peers", len(peerAddrs)))

	if err := n.RunTasks(ctx, *listenAddr, store, peerAddrs); err != nil {
		logger.Error("node stopped", zap.Error(err))
	}
}
