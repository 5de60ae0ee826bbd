package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cryptolens/womtracker/internal/domain"
)

// volumeWindow is the trailing window for the post-volume endpoint.
const volumeWindow = 6 * time.Hour

// TokenHandler serves tracked-token read endpoints. Snapshot reads go
// through the cache when one is configured and fall back to the store.
type TokenHandler struct {
	tokens domain.TokenStore
	posts  domain.PostStore
	cache  domain.TokenCache
	logger *slog.Logger
}

// NewTokenHandler creates a TokenHandler. posts and cache may be nil.
func NewTokenHandler(tokens domain.TokenStore, posts domain.PostStore, cache domain.TokenCache, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokens: tokens,
		posts:  posts,
		cache:  cache,
		logger: logger.With(slog.String("handler", "tokens")),
	}
}

// ListTokens returns every tracked token with its current wom score.
// GET /api/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		if tokens, err := h.cache.GetSnapshot(ctx); err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens, "cached": true})
			return
		} else if !errors.Is(err, domain.ErrNotFound) {
			h.logger.WarnContext(ctx, "snapshot cache read failed", slog.String("error", err.Error()))
		}
	}

	tokens, err := h.tokens.GetAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "token list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens, "cached": false})
}

// ListPosts returns stored posts for one token, newest first.
// GET /api/tokens/{symbol}/posts?limit=50
func (h *TokenHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	if h.posts == nil {
		writeError(w, http.StatusNotImplemented, "post storage is not configured")
		return
	}

	sym := symbolParam(r)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	posts, err := h.posts.ListByToken(r.Context(), sym, parseLimit(r, 50))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "post list failed",
			slog.String("symbol", sym),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": sym, "posts": posts})
}

// PostVolume returns the number of stored posts for one token within the
// trailing six-hour window.
// GET /api/tokens/{symbol}/volume
func (h *TokenHandler) PostVolume(w http.ResponseWriter, r *http.Request) {
	if h.posts == nil {
		writeError(w, http.StatusNotImplemented, "post storage is not configured")
		return
	}

	sym := symbolParam(r)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	count, err := h.posts.CountRecent(r.Context(), sym, volumeWindow)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "post volume failed",
			slog.String("symbol", sym),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count posts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":       sym,
		"window_hours": int(volumeWindow.Hours()),
		"post_count":   count,
	})
}
