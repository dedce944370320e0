// Package api exposes a read-only HTTP port over a running evaluation engine:
// JSON snapshots of its state, Prometheus metrics and a WebSocket stream of
// published signals.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// EngineView is the read-only part of the engine served over HTTP.
type EngineView interface {
	Readings() map[types.IndicatorType]types.IndicatorReading
	Performance() types.StrategyPerformance
	Config() (strategy.StrategyConfig, error)
	Context() strategy.StrategyContext
	SignalHistory() []types.StrategySignal
}

// ContextSummary is the strategy context without its candle and signal windows.
type ContextSummary struct {
	Symbol          string                `json:"symbol"`
	Timeframe       string                `json:"timeframe"`
	MarketCondition types.MarketCondition `json:"market_condition"`
	Session         types.TradingSession  `json:"session"`
	Candles         int                   `json:"candles"`
	LastCandle      *types.Candle         `json:"last_candle,omitempty"`
}

// Server serves an EngineView.
type Server struct {
	engine   EngineView
	gatherer prometheus.Gatherer
	logger   *logger.Logger

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	// WebSocket connections
	upgrader      websocket.Upgrader
	wsConnections map[*websocket.Conn]bool
	wsMu          sync.Mutex
}

// NewServer creates a server. gatherer may be nil, in which case /metrics is not served.
func NewServer(engine EngineView, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Server{
		engine:     engine,
		gatherer:   gatherer,
		logger:     log,
		httpServer: nil,
		listener:   nil,
		//nolint:exhaustruct // defaults for everything but the origin check
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		wsConnections: make(map[*websocket.Conn]bool),
		wsMu:          sync.Mutex{},
	}
}

// Handler returns the router with every endpoint registered.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/performance", s.handlePerformance).Methods(http.MethodGet)
	router.HandleFunc("/api/readings", s.handleReadings).Methods(http.MethodGet)
	router.HandleFunc("/api/config", s.handleConfig).Methods(http.MethodGet)
	router.HandleFunc("/api/context", s.handleContext).Methods(http.MethodGet)
	router.HandleFunc("/api/signals", s.handleSignals).Methods(http.MethodGet)

	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet) //nolint:exhaustruct // defaults
	}

	// WebSocket endpoint
	router.HandleFunc("/ws/signals", s.handleWebSocket)

	return router
}

// Start listens on address (":0" picks a free port) and serves in the background.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to listen on %s", address)
	}

	s.listener = listener

	//nolint:exhaustruct // defaults for the remaining timeouts
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server started", zap.String("address", s.Address()))

	return nil
}

// Stop closes every WebSocket connection and shuts the HTTP server down.
func (s *Server) Stop() error {
	s.wsMu.Lock()
	for conn := range s.wsConnections {
		conn.Close()
	}

	s.wsConnections = make(map[*websocket.Conn]bool)
	s.wsMu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *Server) BaseURL() string {
	return "http://" + s.Address()
}

// WebSocketURL returns the signal stream URL.
func (s *Server) WebSocketURL() string {
	return "ws://" + s.Address() + "/ws/signals"
}

// Broadcast sends a signal to every WebSocket client. Clients that cannot be
// written to are dropped. It fits engine.OnSignalCallback.
func (s *Server) Broadcast(signal types.StrategySignal) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for conn := range s.wsConnections {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := conn.WriteJSON(signal); err != nil {
			s.logger.Debug("Dropping WebSocket client", zap.Error(err))
			conn.Close()
			delete(s.wsConnections, conn)
		}
	}
}

// Connections returns the number of connected WebSocket clients.
func (s *Server) Connections() int {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	return len(s.wsConnections)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePerformance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Performance())
}

func (s *Server) handleReadings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Readings())
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	config, err := s.engine.Config()
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, config)
}

func (s *Server) handleContext(w http.ResponseWriter, _ *http.Request) {
	ctx := s.engine.Context()

	summary := ContextSummary{
		Symbol:          ctx.Symbol,
		Timeframe:       ctx.Timeframe,
		MarketCondition: ctx.MarketCondition,
		Session:         ctx.Session,
		Candles:         len(ctx.Candles),
		LastCandle:      nil,
	}

	if n := len(ctx.Candles); n > 0 {
		summary.LastCandle = &ctx.Candles[n-1]
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleSignals returns the signal history, newest last. ?limit=n keeps the latest n.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	signals := s.engine.SignalHistory()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "invalid limit %q", raw))

			return
		}

		if limit < len(signals) {
			signals = signals[len(signals)-limit:]
		}
	}

	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.wsMu.Lock()
	s.wsConnections[conn] = true
	s.wsMu.Unlock()

	defer func() {
		s.wsMu.Lock()
		delete(s.wsConnections, conn)
		s.wsMu.Unlock()
		conn.Close()
	}()

	// clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	writeJSON(w, statusFor(code), errorResponse{Code: int(code), Message: err.Error()})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeStrategyNotSet:
		return http.StatusNotFound
	case errors.ErrCodeEngineClosed:
		return http.StatusServiceUnavailable
	case errors.ErrCodeInvalidParameter:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
