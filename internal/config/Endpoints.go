package config

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// GatewayAPI is the JSON-RPC endpoint of the venue gateway.
	GatewayAPI string
	// GatewayAPIKey is an optional credential sent with every gateway request.
	GatewayAPIKey string
	// WebPort is the port for the operational status server.
	WebPort string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	GatewayAPI, err = getEnv("GATEWAY_API")
	if err != nil {
		return err
	}

	GatewayAPIKey = os.Getenv("GATEWAY_API_KEY")

	WebPort = os.Getenv("WEB_PORT")
	if WebPort == "" {
		WebPort = "8080"
	}

	log.Debug().
		Str("GatewayAPI", GatewayAPI).
		Str("WebPort", WebPort).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
