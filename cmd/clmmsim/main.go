package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rangebound/clmm-simulator/internal/config"
	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/simulator"
	"github.com/rangebound/clmm-simulator/internal/state"
	"github.com/rangebound/clmm-simulator/internal/web"
)

// main is the entry point for the position simulator service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Position Simulator Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load Simulation Parameters
	simParams, err := state.LoadActiveSimulationParameters(simulator.DEFAULT_PARAMS_CONFIG_NAME)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load active simulation parameters, using defaults and saving.")
		defaultParams := config.DefaultSimulationParameters
		if _, err := state.SaveSimulationParameters(defaultParams, simulator.DEFAULT_PARAMS_CONFIG_NAME, simulator.DEFAULT_PARAMS_CONFIG_VERSION, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default simulation parameters.")
		}
		simParams = &defaultParams
	}
	log.Info().Msg("Simulation parameters loaded successfully.")

	// --- 2. Create Simulator Instance with Dependency Injection ---
	simConfig := simulator.Config{
		Params:          simParams,
		GasCostPerTxUSD: config.GasCostPerTxUSD,
		ConfigName:      simulator.DEFAULT_PARAMS_CONFIG_NAME,
		ConfigVersion:   simulator.DEFAULT_PARAMS_CONFIG_VERSION,
	}

	sim, err := simulator.New(simConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create simulator instance")
	}

	log.Info().Msg("Simulator instance created successfully")

	// --- 3. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, sim)
	log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting simulator API server")
	if err := webServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Web server failed")
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
