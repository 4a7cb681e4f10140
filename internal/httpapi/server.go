package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coinlizard/config"
	"coinlizard/internal/domain"
	"coinlizard/internal/metrics"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CoinService is the resolution core the handlers call into.
type CoinService interface {
	ListCoins() []domain.Coin
	GetCurrentPrice(ctx context.Context, coinID, quote string, exchange *domain.Exchange) ([]domain.CurrentPrice, error)
	GetPriceHistory(ctx context.Context, coinID, quote string, interval domain.PriceInterval,
		exchange *domain.Exchange, start, end *time.Time, limit *int) (domain.PriceHistory, error)
}

// PairLister serves the trading pairs of one exchange.
type PairLister interface {
	Get(ctx context.Context, ex domain.Exchange) ([]domain.TradingPair, error)
	LoadedAt(ex domain.Exchange) (time.Time, bool)
}

// HealthCheck reports the state of one dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(cfg config.ServerConfig, svc CoinService, pairs PairLister, checks map[string]HealthCheck, logger *zap.Logger) *Server {
	h := &handlers{svc: svc, pairs: pairs, checks: checks, logger: logger}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      newRouter(h),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// newRouter mounts every route. CORS wraps the router so preflight requests
// are answered before method matching.
func newRouter(h *handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware(h.logger), metrics.InstrumentHandler)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/coins", h.listCoins).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/price", h.getCurrentPrice).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/history/daily", h.getPriceHistory).Methods(http.MethodGet)
	api.HandleFunc("/exchanges/{exchange}/pairs", h.listPairs).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})

	return corsMiddleware(r)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
