package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/namisearch/nami/internal/cache"
	"github.com/namisearch/nami/internal/search"
)

type searchRequest struct {
	Query      string `json:"query"`
	NumResults *int   `json:"num_results"`
}

// search serves POST /search: cache lookup, then fan-out aggregation on a
// miss, storing the composed response before returning it.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required", s.logger)
		return
	}
	numResults := s.cfg.Search.DefaultNumResults
	if req.NumResults != nil {
		numResults = *req.NumResults
	}
	if numResults <= 0 {
		writeError(w, http.StatusBadRequest, "num_results must be > 0", s.logger)
		return
	}
	if numResults > s.cfg.Search.MaxResults {
		numResults = s.cfg.Search.MaxResults
	}

	key := cache.Key{Query: req.Query, NumResults: numResults}
	if resp, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, resp, s.logger)
		return
	}

	resp, err := s.aggregator.Aggregate(r.Context(), req.Query, numResults)
	if err != nil {
		status := http.StatusInternalServerError
		var exhausted *search.ExhaustedError
		switch {
		case search.IsRateLimited(err):
			status = http.StatusTooManyRequests
		case errors.As(err, &exhausted):
			status = http.StatusBadGateway
		}
		s.logger.Warn("aggregation failed",
			zap.String("query", req.Query),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeError(w, status, err.Error(), s.logger)
		return
	}

	s.cache.Put(key, resp)
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": msg}, logger)
}
