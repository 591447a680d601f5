package main

import (
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hubdex-protocol/solvercore/internal/config"
	"github.com/hubdex-protocol/solvercore/internal/logger"
	"github.com/hubdex-protocol/solvercore/internal/state"
	"github.com/hubdex-protocol/solvercore/internal/web"
)

const (
	DEFAULT_FEE_CONFIG_NAME    = "default"
	DEFAULT_FEE_CONFIG_VERSION = 1
)

// main is the entry point for the solver service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	log.Info().Msg("Solver Core Starting...")

	// Initialize Database Connection (fee parameters and run history)
	dbCfg := state.DBConfig{
		Host: config.DBHost, Port: config.DBPort,
		User: config.DBUser, Password: config.DBPassword,
		DBName: config.DBName, SSLMode: config.DBSSLMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load Fee Parameters
	if _, err := state.LoadActiveFeeParameters(DEFAULT_FEE_CONFIG_NAME); err != nil {
		log.Warn().Err(err).Msg("Failed to load active fee parameters, using defaults and saving.")
		if _, err := state.SaveFeeParameters(config.DefaultFeeParameters, DEFAULT_FEE_CONFIG_NAME, DEFAULT_FEE_CONFIG_VERSION, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default fee parameters.")
		}
	}
	log.Info().Msg("Fee parameters loaded successfully.")

	// --- 2. Start Web Server ---
	webPort := strconv.Itoa(config.WebPort)
	webServer := web.NewWebServer(webPort)

	log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting solver API server")
	if err := webServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Web server failed")
	}
}
