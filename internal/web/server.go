package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/rangebound/clmm-simulator/internal/datafetcher"
	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/simulator"
	"github.com/rangebound/clmm-simulator/internal/state"
	"github.com/rangebound/clmm-simulator/internal/types"
	"github.com/rangebound/clmm-simulator/internal/utils"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the simulator over a JSON API
type WebServer struct {
	router *mux.Router
	port   string
	sim    *simulator.Simulator
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, sim *simulator.Simulator) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		sim:    sim,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/simulate", ws.handleSimulate).Methods("POST")
	api.HandleFunc("/curve", ws.handleCurve).Methods("POST")
	api.HandleFunc("/rebalance", ws.handleRebalance).Methods("POST")
	api.HandleFunc("/parameters", ws.handleGetParameters).Methods("GET")
	api.HandleFunc("/snapshots", ws.handleGetSnapshots).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	if !dbHealthy {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "clmm-position-simulator",
			"version": "1.0.0",
		},
		"database_healthy": dbHealthy,
	}

	statusCode := http.StatusOK
	if !dbHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// decodeRequest parses a simulation request body and fills in the pool
// snapshot from the stats API when only a pool ID was supplied.
func (ws *WebServer) decodeRequest(r *http.Request) (types.SimulationRequest, error) {
	var req types.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New("invalid JSON body: " + err.Error())
	}

	if req.Pool.CurrentPrice == 0 && req.Pool.PoolID != "" {
		snapshot, err := datafetcher.FetchPoolSnapshot(r.Context(), req.Pool.PoolID)
		if err != nil {
			return req, err
		}
		req.Pool = *snapshot

		// The stats API may omit the quote token's USD price; try the
		// price API before falling back to treating quote as the numeraire.
		if req.Pool.TokenQuote.PriceUSD == 0 {
			price, err := datafetcher.FetchTokenPriceUSD(r.Context(), req.Pool.TokenQuote.Symbol)
			if err != nil {
				webLogger.Warn().Err(err).Str("symbol", req.Pool.TokenQuote.Symbol).Msg("Could not resolve quote token USD price")
			} else {
				req.Pool.TokenQuote.PriceUSD = price
			}
		}
	}

	// Raw on-chain amounts override the float fields once the pool's token
	// decimals are known.
	if req.AmountBaseRaw != "" {
		amount, err := rawToTokenUnits(req.AmountBaseRaw, req.Pool.TokenBase.Decimals)
		if err != nil {
			return req, fmt.Errorf("invalid amount_base_raw: %w", err)
		}
		req.AmountBase = amount
	}
	if req.AmountQuoteRaw != "" {
		amount, err := rawToTokenUnits(req.AmountQuoteRaw, req.Pool.TokenQuote.Decimals)
		if err != nil {
			return req, fmt.Errorf("invalid amount_quote_raw: %w", err)
		}
		req.AmountQuote = amount
	}
	return req, nil
}

func rawToTokenUnits(raw string, decimals int) (float64, error) {
	amount, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return 0, errors.New("not a valid integer: " + raw)
	}
	return utils.RawAmountToFloat64(amount, decimals)
}

// handleSimulate runs a full simulation and returns the snapshot.
// Pass ?persist=true to also record the result.
func (ws *WebServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, err := ws.decodeRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := ws.sim.RunSnapshot(req)
	if err != nil {
		if errors.Is(err, simulator.ErrInvalidRequest) {
			ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		webLogger.Error().Err(err).Str("poolId", req.Pool.PoolID).Msg("Simulation run failed")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Simulation failed")
		return
	}

	if r.URL.Query().Get("persist") == "true" {
		snapshotID, err := ws.sim.RecordSnapshot(*snapshot)
		if err != nil {
			webLogger.Error().Err(err).Msg("Failed to persist snapshot")
		} else {
			snapshot.SnapshotID = snapshotID
		}
	}

	ws.writeJSONResponse(w, http.StatusOK, snapshot)
}

// handleCurve runs a simulation and returns only the IL curve
func (ws *WebServer) handleCurve(w http.ResponseWriter, r *http.Request) {
	req, err := ws.decodeRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := ws.sim.RunSnapshot(req)
	if err != nil {
		if errors.Is(err, simulator.ErrInvalidRequest) {
			ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		webLogger.Error().Err(err).Str("poolId", req.Pool.PoolID).Msg("Curve generation failed")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Curve generation failed")
		return
	}

	response := map[string]interface{}{
		"pool_id": snapshot.PoolID,
		"range":   snapshot.Position.Range,
		"curve":   snapshot.Curve,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleRebalance evaluates a rebalance scenario; the request must carry a
// candidate range
func (ws *WebServer) handleRebalance(w http.ResponseWriter, r *http.Request) {
	req, err := ws.decodeRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Candidate == nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Rebalance evaluation requires a candidate range")
		return
	}

	snapshot, err := ws.sim.RunSnapshot(req)
	if err != nil {
		if errors.Is(err, simulator.ErrInvalidRequest) {
			ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		webLogger.Error().Err(err).Str("poolId", req.Pool.PoolID).Msg("Rebalance evaluation failed")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Rebalance evaluation failed")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, snapshot.Rebalance)
}

// handleGetParameters returns the active simulation parameters
func (ws *WebServer) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"parameters": ws.sim.Params(),
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetSnapshots returns recent persisted snapshots
func (ws *WebServer) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}
	poolID := r.URL.Query().Get("pool_id")

	snapshots, err := state.GetRecentSnapshots(poolID, limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent snapshots")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve snapshots")
		return
	}

	response := map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
		"limit":     limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
