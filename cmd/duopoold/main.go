// Package main provides the duopoold daemon — a host simulator for the
// binary-outcome prediction pool program, exposed over HTTP and WebSocket.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/klingon-exchange/duopool/internal/config"
	"github.com/klingon-exchange/duopool/internal/host"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/journal"
	"github.com/klingon-exchange/duopool/internal/rpc"
	"github.com/klingon-exchange/duopool/internal/testidentity"
	"github.com/klingon-exchange/duopool/internal/tokenmodule"
	"github.com/klingon-exchange/duopool/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

// demoMnemonic seeds the program and token-module identities used when no
// explicit --program-id/--token-module-id is supplied, so a fresh local run
// always boots against the same pair of addresses.
const demoMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"

func main() {
	var (
		dataDir       = flag.String("data-dir", "~/.duopool", "Data directory")
		rpcAddr       = flag.String("rpc", "", "RPC listen address, overrides config")
		testnet       = flag.Bool("testnet", true, "Run on testnet")
		programID     = flag.String("program-id", "", "Program identity (base58), default derived from a fixed demo seed")
		tokenModuleID = flag.String("token-module-id", "", "Token module identity (base58), default derived from a fixed demo seed")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion   = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{Level: *logLevel, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("duopoold %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	effectiveDataDir := expandPath(*dataDir)
	if *testnet {
		effectiveDataDir = filepath.Join(effectiveDataDir, "testnet")
	}
	if err := os.MkdirAll(effectiveDataDir, 0o700); err != nil {
		log.Fatal("failed to create data directory", "error", err)
	}

	cfg, err := config.LoadHostConfig(effectiveDataDir)
	if err != nil {
		log.Fatal("failed to load host config", "error", err)
	}
	if *testnet {
		cfg.Network = config.Testnet
	} else {
		cfg.Network = config.Mainnet
	}
	if *rpcAddr != "" {
		cfg.RPCAddr = *rpcAddr
	}
	if cfg.JournalPath != "" {
		cfg.JournalPath = filepath.Join(effectiveDataDir, filepath.Base(cfg.JournalPath))
	}
	log.Info("config loaded", "path", config.HostConfigPath(effectiveDataDir), "network", cfg.Network)

	programAddr, err := resolveIdentity(*programID, 0)
	if err != nil {
		log.Fatal("failed to resolve program identity", "error", err)
	}
	tokenModuleAddr, err := resolveIdentity(*tokenModuleID, 1)
	if err != nil {
		log.Fatal("failed to resolve token module identity", "error", err)
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Fatal("failed to open journal", "error", err)
	}
	defer j.Close()
	log.Info("journal opened", "path", cfg.JournalPath)

	registry := tokenmodule.NewRegistry()
	sim := tokenmodule.NewAudited(tokenmodule.NewSimulator(), "tokenmodule")
	registry.Register("simulator", sim)
	registry.Use("simulator")
	log.Info("token module registered", "active", registry.List())

	h, err := host.New(registry, j)
	if err != nil {
		log.Fatal("failed to create host", "error", err)
	}

	server := rpc.NewServer(h, rpc.Config{ProgramID: programAddr, TokenModuleID: tokenModuleAddr})
	if err := server.Start(cfg.RPCAddr); err != nil {
		log.Fatal("failed to start rpc server", "error", err)
	}

	printBanner(log, cfg, programAddr, tokenModuleAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutting down...")
	case <-ctx.Done():
	}

	if err := server.Stop(); err != nil {
		log.Error("error stopping rpc server", "error", err)
	}
	log.Info("goodbye")
}

// resolveIdentity parses raw as a base58 address when non-empty, otherwise
// derives a stable demo identity at index from the fixed demo mnemonic.
func resolveIdentity(raw string, index uint32) (identity.Address, error) {
	if raw != "" {
		return identity.Parse(raw)
	}
	wallet, err := testidentity.NewWallet(demoMnemonic, "")
	if err != nil {
		return identity.Address{}, err
	}
	kp, err := wallet.Derive(index)
	if err != nil {
		return identity.Address{}, err
	}
	return kp.Address, nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

func printBanner(log *logging.Logger, cfg *config.HostConfig, programID, tokenModuleID identity.Address) {
	networkLabel := "mainnet"
	if !cfg.IsMainnet() {
		networkLabel = "testnet"
	}

	log.Info("")
	log.Info("=================================================")
	log.Infof("  duopool host (%s)", networkLabel)
	log.Infof("  version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  program id:      %s", programID)
	log.Infof("  token module id: %s", tokenModuleID)
	log.Info("")
	log.Infof("  api: http://%s", cfg.RPCAddr)
	log.Infof("  ws:  ws://%s/ws", cfg.RPCAddr)
	log.Info("")
	log.Info("=================================================")
	log.Info("")
}
