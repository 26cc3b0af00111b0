// main.go - dpcd, the devnet transaction node.
//
// The daemon wires the pieces together: it loads or generates public
// parameters, opens the ledger, joins the gossip network and serves the
// ops endpoints. The proof systems are the development stand-ins; a
// production deployment swaps in Groth16 instances with real circuits.
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/scipr-lab/zexe/internal/dpc"
	"github.com/scipr-lab/zexe/internal/ledger"
	"github.com/scipr-lab/zexe/internal/nizk"
	"github.com/scipr-lab/zexe/internal/wallet"
	"github.com/scipr-lab/zexe/p2p"
)

const version = "0.1.0"

// ledgerParameters identify the devnet accumulator instance. Every node of
// one network must agree on them.
var ledgerParameters = []byte("zexe-devnet-ledger-v1")

func main() {
	configPath := flag.String("config", "dpcd.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	log, err := newLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("dpcd starting", zap.String("version", version), zap.String("node", cfg.NodeID))

	scheme := dpc.NewScheme(dpc.DefaultComponents(
		cfg.NumInputRecords, cfg.NumOutputRecords,
		nizk.NewInsecure(), nizk.NewInsecure(), nizk.NewInsecure(),
	), log.Named("dpc"))

	params, err := loadOrSetupParameters(scheme, cfg.ParamsPath, log)
	if err != nil {
		log.Fatal("parameters", zap.Error(err))
	}

	ldg, err := ledger.Open(cfg.LedgerPath, ledgerParameters, log.Named("ledger"))
	if err != nil {
		log.Fatal("open ledger", zap.Error(err))
	}
	defer ldg.Close()

	w, err := loadOrCreateWallet(scheme, params, cfg.WalletPath, log)
	if err != nil {
		log.Fatal("wallet", zap.Error(err))
	}
	if _, err := w.SyncWithLedger(scheme, params, ldg); err != nil {
		log.Warn("wallet sync", zap.Error(err))
	}

	limiter := NewPeerRateLimiter(cfg.RateLimitTokens, cfg.RateLimitRefill)
	var wg sync.WaitGroup
	node := p2p.NewNode(cfg.NodeID, cfg.ListenAddr, cfg.Peers, scheme, params, ldg, limiter, &wg, log.Named("p2p"))
	ready := make(chan struct{}, 1)
	if err := node.StartServer(ready); err != nil {
		log.Fatal("start p2p server", zap.Error(err))
	}
	<-ready

	metrics := NewMetricsCollector()
	health := NewHealthChecker(version)
	health.RegisterComponent("ledger", func() error {
		_, err := ldg.Digest()
		return err
	})

	opsServer := startOpsServer(cfg.OpsAddr, ldg, metrics, health, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := node.Stop(ctx); err != nil {
		log.Warn("p2p shutdown", zap.Error(err))
	}
	if err := opsServer.Shutdown(ctx); err != nil {
		log.Warn("ops shutdown", zap.Error(err))
	}
	wg.Wait()

	if err := w.Save(cfg.WalletPath); err != nil {
		log.Warn("wallet save", zap.Error(err))
	}
	log.Info("dpcd stopped")
}

// loadOrSetupParameters reads persisted public parameters, generating and
// persisting them on first boot.
func loadOrSetupParameters(scheme *dpc.Scheme, path string, log *zap.Logger) (*dpc.PublicParameters, error) {
	if _, err := os.Stat(path); err == nil {
		log.Info("loading parameters", zap.String("path", path))
		return dpc.LoadParameters(path)
	}
	log.Info("generating parameters", zap.String("path", path))
	params, err := scheme.Setup(rand.Reader)
	if err != nil {
		return nil, err
	}
	if err := dpc.SaveParameters(params, path); err != nil {
		return nil, err
	}
	return params, nil
}

// loadOrCreateWallet reads the node's wallet, creating a fresh address on
// first boot.
func loadOrCreateWallet(scheme *dpc.Scheme, params *dpc.PublicParameters, path string, log *zap.Logger) (*wallet.Wallet, error) {
	if _, err := os.Stat(path); err == nil {
		return wallet.Load(path, log.Named("wallet"))
	}
	address, err := scheme.CreateAddress(params, nil, rand.Reader)
	if err != nil {
		return nil, err
	}
	w := wallet.New(address, log.Named("wallet"))
	if err := w.Save(path); err != nil {
		return nil, err
	}
	log.Info("wallet created", zap.String("path", path))
	return w, nil
}

// startOpsServer serves /health and /metrics.
func startOpsServer(addr string, ldg *ledger.Ledger, metrics *MetricsCollector, health *HealthChecker, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		metrics.IncrementCounter("ops_health_requests")
		h := health.CheckHealth()
		w.Header().Set("Content-Type", "application/json")
		if h.OverallStatus != Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.IncrementCounter("ops_metrics_requests")
		metrics.SetGauge("ledger_commitments", float64(ldg.Len()))
		metrics.SetGauge("ledger_transactions", float64(ldg.TransactionCount()))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(metrics.Summary()))
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info("ops server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("ops server failed", zap.Error(err))
		}
	}()
	return server
}
