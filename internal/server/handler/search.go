package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cryptolens/womtracker/internal/domain"
	"github.com/cryptolens/womtracker/internal/platform/dexscreener"
)

// TokenLookup resolves a token by chain and contract address.
type TokenLookup interface {
	GetToken(ctx context.Context, chainID, address string) (dexscreener.TokenInfo, error)
}

// SearchHandler serves the on-demand token lookup endpoint.
type SearchHandler struct {
	lookup TokenLookup
	logger *slog.Logger
}

// NewSearchHandler creates a SearchHandler backed by the given lookup.
func NewSearchHandler(lookup TokenLookup, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		lookup: lookup,
		logger: logger.With(slog.String("handler", "search")),
	}
}

// SearchToken looks up a token by chain and address.
// GET /api/search/{chain}/{address}
func (h *SearchHandler) SearchToken(w http.ResponseWriter, r *http.Request) {
	chain := strings.ToLower(strings.TrimSpace(r.PathValue("chain")))
	address := strings.TrimSpace(r.PathValue("address"))
	if chain == "" || address == "" {
		writeError(w, http.StatusBadRequest, "chain and address are required")
		return
	}

	info, err := h.lookup.GetToken(r.Context(), chain, address)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "no pair found for address")
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "token lookup failed",
			slog.String("chain", chain),
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "token lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, info)
}
