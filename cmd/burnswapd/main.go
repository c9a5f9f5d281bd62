package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"burnswap/config"
	"burnswap/core"
	"burnswap/crypto"
	"burnswap/observability/logging"
	"burnswap/rpc"
	"burnswap/storage"
)

const ownerPassEnv = "BURNSWAP_OWNER_PASS"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	env := strings.TrimSpace(os.Getenv("BURNSWAP_ENV"))
	logger := logging.Setup("burnswapd", env, logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	ownerKey, err := crypto.LoadFromKeystore(cfg.OwnerKeystorePath, os.Getenv(ownerPassEnv))
	if err != nil {
		panic(fmt.Sprintf("Failed to load owner key: %v", err))
	}
	ownerAddr := ownerKey.PubKey().Address()

	node, err := core.NewNode(db, cfg.SourceToken, cfg.DestinationToken, logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to create node: %v", err))
	}

	allocs, err := genesisAllocs(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse genesis accounts: %v", err))
	}
	liquidity, err := cfg.InitialLiquidityAmount()
	if err != nil {
		panic(fmt.Sprintf("Failed to parse initial liquidity: %v", err))
	}
	if err := node.InitGenesis(ownerAddr.Raw(), allocs, liquidity); err != nil {
		panic(fmt.Sprintf("Failed to apply genesis: %v", err))
	}

	logger.Info("node ready",
		slog.String("owner", ownerAddr.String()),
		slog.String("sourceToken", cfg.SourceToken),
		slog.String("destinationToken", cfg.DestinationToken),
		slog.String("rpc", cfg.RPCAddress))

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func genesisAllocs(cfg *config.Config) ([]core.GenesisAlloc, error) {
	allocs := make([]core.GenesisAlloc, 0, len(cfg.Genesis))
	for _, account := range cfg.Genesis {
		addr, err := crypto.DecodeAddress(account.Address)
		if err != nil {
			return nil, err
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(account.Amount), 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("invalid genesis amount %q", account.Amount)
		}
		allocs = append(allocs, core.GenesisAlloc{
			Token:   account.Token,
			Address: addr.Raw(),
			Amount:  amount,
		})
	}
	return allocs, nil
}
