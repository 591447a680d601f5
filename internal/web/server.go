package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hubdex-protocol/solvercore/internal/logger"
	"github.com/hubdex-protocol/solvercore/internal/solver"
	"github.com/hubdex-protocol/solvercore/internal/state"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// feeParamsConfigName is the config the API reads fee parameters from.
const feeParamsConfigName = "default"

// WebServer handles HTTP requests for solving and run inspection
type WebServer struct {
	router *mux.Router
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
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
	api.HandleFunc("/solve", ws.handleSolve).Methods("POST")
	api.HandleFunc("/runs", ws.handleGetRuns).Methods("GET")
	api.HandleFunc("/runs/latest", ws.handleGetLatestRun).Methods("GET")
	api.HandleFunc("/runs/{id}", ws.handleGetRun).Methods("GET")
	api.HandleFunc("/fee-parameters", ws.handleGetFeeParameters).Methods("GET")

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

// SolveRequest is the payload for POST /api/solve.
type SolveRequest struct {
	Intents  []types.IntentWithID `json:"intents"`
	Snapshot types.PoolSnapshot   `json:"snapshot"`
}

// SolveResponse pairs the solution with the persisted run ID.
type SolveResponse struct {
	RunID    uuid.UUID      `json:"run_id"`
	Solution types.Solution `json:"solution"`
}

// handleSolve resolves a batch of intents against the posted snapshot and
// records the run.
func (ws *WebServer) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	run := state.SolveRun{
		RunID:       uuid.New(),
		Timestamp:   time.Now().UTC(),
		IntentCount: len(req.Intents),
		Intents:     req.Intents,
		Snapshot:    &req.Snapshot,
	}

	start := time.Now()
	solution, err := solver.Solve(req.Intents, req.Snapshot)
	run.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		run.Success = false
		run.Message = err.Error()
		if saveErr := state.SaveSolveRun(run); saveErr != nil {
			webLogger.Error().Err(saveErr).Msg("Failed to persist failed solve run")
		}
		ws.writeErrorResponse(w, http.StatusUnprocessableEntity, "Solve failed: "+err.Error())
		return
	}

	run.Success = true
	run.ResolvedCount = len(solution.ResolvedIntents)
	run.InstructionCount = len(solution.TradeInstructions)
	run.Score = solution.Score
	run.Solution = &solution
	if saveErr := state.SaveSolveRun(run); saveErr != nil {
		webLogger.Error().Err(saveErr).Msg("Failed to persist solve run")
	}

	ws.writeJSONResponse(w, http.StatusOK, SolveResponse{RunID: run.RunID, Solution: solution})
}

// handleHealth returns comprehensive server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Get runtime memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var hasErrors bool

	// Get latest run information
	latestRuns, runErr := state.GetRecentSolveRuns(1)
	var runInfo map[string]interface{}
	if runErr == nil && len(latestRuns) > 0 {
		run := latestRuns[0]
		runInfo = map[string]interface{}{
			"last_run_id":      run.RunID,
			"last_run_time":    run.Timestamp,
			"last_run_success": run.Success,
			"last_run_score":   run.Score,
		}
		hasErrors = !run.Success
	} else {
		runInfo = map[string]interface{}{
			"last_run_id":      nil,
			"last_run_time":    nil,
			"last_run_success": nil,
			"last_run_score":   0,
		}
	}

	// Get database connection status
	dbHealthy := true
	if dbErr := state.TestDBConnection(); dbErr != nil {
		dbHealthy = false
		hasErrors = true
	}

	// Determine overall status
	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":            runtime.Version(),
			"goroutines_count":   runtime.NumGoroutine(),
			"total_alloc_bytes":  memStats.TotalAlloc,
			"heap_objects_count": memStats.HeapObjects,
			"alloc_bytes":        memStats.Alloc,
			"sys_bytes":          memStats.Sys,
			"gc_cycles":          memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "solvercore-intent-solver",
			"version": "1.0.0",
		},
		"solver_status": map[string]interface{}{
			"database_healthy":  dbHealthy,
			"has_recent_errors": hasErrors,
			"run_info":          runInfo,
		},
	}

	// Set appropriate HTTP status code
	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetRuns returns paginated solve run data
func (ws *WebServer) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	runs, err := state.GetRecentSolveRuns(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent solve runs")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	response := map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
		"limit": limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetRun returns a specific solve run by ID
func (ws *WebServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := uuid.Parse(idStr)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, err := state.GetSolveRun(id)
	if err != nil {
		webLogger.Error().Err(err).Str("runId", idStr).Msg("Failed to get solve run")
		ws.writeErrorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, run)
}

// handleGetLatestRun returns the most recent solve run
func (ws *WebServer) handleGetLatestRun(w http.ResponseWriter, r *http.Request) {
	runs, err := state.GetRecentSolveRuns(1)
	if err != nil || len(runs) == 0 {
		webLogger.Error().Err(err).Msg("Failed to get latest solve run")
		ws.writeErrorResponse(w, http.StatusNotFound, "No runs found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, runs[0])
}

// handleGetFeeParameters returns current dynamic fee parameters
func (ws *WebServer) handleGetFeeParameters(w http.ResponseWriter, r *http.Request) {
	params, err := state.LoadActiveFeeParameters(feeParamsConfigName)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get fee parameters")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve fee parameters")
		return
	}

	response := map[string]interface{}{
		"parameters": params,
		"timestamp":  time.Now().UTC(),
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
