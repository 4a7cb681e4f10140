package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coinlizard/internal/domain"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const defaultCurrency = "USD"

type handlers struct {
	svc    CoinService
	pairs  PairLister
	checks map[string]HealthCheck
	logger *zap.Logger
}

func (h *handlers) listCoins(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListCoins())
}

func (h *handlers) getCurrentPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	exchange, err := parseExchange(q)
	if err != nil {
		writeError(w, err)
		return
	}

	prices, err := h.svc.GetCurrentPrice(r.Context(), mux.Vars(r)["id"], currency(q), exchange)
	if err != nil {
		h.logFailure(r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (h *handlers) getPriceHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	exchange, err := parseExchange(q)
	if err != nil {
		writeError(w, err)
		return
	}

	interval := domain.OneDay
	if raw := q.Get("interval"); raw != "" {
		if interval, err = domain.ParseInterval(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	start, err := parseTime(q, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseTime(q, "end")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := parseLimit(q)
	if err != nil {
		writeError(w, err)
		return
	}

	history, err := h.svc.GetPriceHistory(r.Context(), mux.Vars(r)["id"], currency(q), interval, exchange, start, end, limit)
	if err != nil {
		h.logFailure(r, err)
		writeError(w, err)
		return
	}
	if history.Data == nil {
		history.Data = []domain.PriceHistoryPoint{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handlers) listPairs(w http.ResponseWriter, r *http.Request) {
	exchange, err := domain.ParseExchange(mux.Vars(r)["exchange"])
	if err != nil {
		writeError(w, err)
		return
	}

	pairs, err := h.pairs.Get(r.Context(), exchange)
	if err != nil {
		h.logFailure(r, err)
		writeError(w, err)
		return
	}
	if loaded, ok := h.pairs.LoadedAt(exchange); ok {
		w.Header().Set("Last-Modified", loaded.UTC().Format(http.TimeFormat))
	}
	writeJSON(w, http.StatusOK, pairs)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = "down: " + err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	writeJSON(w, status, resp)
}

func (h *handlers) logFailure(r *http.Request, err error) {
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r.Context())),
		zap.Error(err),
	}
	if statusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
		return
	}
	h.logger.Debug("request rejected", fields...)
}

func currency(q url.Values) string {
	if c := q.Get("currency"); c != "" {
		return c
	}
	return defaultCurrency
}

func parseExchange(q url.Values) (*domain.Exchange, error) {
	raw := q.Get("exchange")
	if raw == "" {
		return nil, nil
	}
	ex, err := domain.ParseExchange(raw)
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func parseTime(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q, expected RFC3339", domain.ErrParse, key, raw)
	}
	t = t.UTC()
	return &t, nil
}

func parseLimit(q url.Values) (*int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: invalid limit %q, expected a positive integer", domain.ErrParse, raw)
	}
	return &n, nil
}
