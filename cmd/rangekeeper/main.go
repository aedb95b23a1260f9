package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"rangekeeper/internal/config"
	"rangekeeper/internal/logger"
	"rangekeeper/internal/monitor"
	"rangekeeper/internal/planner"
	"rangekeeper/internal/rebalancer"
	"rangekeeper/internal/types"
	"rangekeeper/internal/venue"
	"rangekeeper/internal/web"
)

// main is the entry point for the rangekeeper daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Rangekeeper starting...")

	// The signer may legitimately differ from the monitored owner; say so
	// loudly but keep going.
	if config.SignerAddress != "" && config.SignerAddress != config.OwnerAddress {
		log.Warn().
			Str("signer", config.SignerAddress).
			Str("owner", config.OwnerAddress).
			Msg("Signer address differs from monitored owner address")
	}

	// --- 2. Venue Gateway Client ---
	gateway, err := venue.NewClient(config.GatewayAPI, config.GatewayAPIKey, config.SigningKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize venue gateway client")
	}
	log.Info().Str("endpoint", config.GatewayAPI).Msg("Venue gateway connected")

	// --- 3. Component Wiring with Dependency Injection ---
	liquidityPlanner, err := planner.New(gateway, gateway, config.SwapSafeMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create liquidity planner")
	}

	orchestrator, err := rebalancer.New(rebalancer.Config{
		Owner:           config.OwnerAddress,
		SlippagePercent: config.SlippagePercent,
		RangeHalfWidth:  config.RangeHalfWidth,
	}, gateway, liquidityPlanner)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rebalance orchestrator")
	}

	positionMonitor, err := monitor.New(monitor.Config{
		Owner:    config.OwnerAddress,
		PoolID:   types.PoolID(config.PoolID),
		Interval: time.Duration(config.PollIntervalMs) * time.Millisecond,
	}, gateway, orchestrator)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create position monitor")
	}

	// --- 4. Status Server ---
	webServer := web.NewWebServer(config.WebPort, positionMonitor)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Status server failed")
		}
	}()

	// --- 5. Main Loop ---
	log.Info().
		Int64("pollIntervalMs", config.PollIntervalMs).
		Str("pool", config.PoolID).
		Msg("Starting monitor loop")

	positionMonitor.RunLoop(context.Background())
}
