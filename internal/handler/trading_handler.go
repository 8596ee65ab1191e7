package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/service"
)

// maxMarketSymbols bounds one market data request.
const maxMarketSymbols = 50

// TradingHandler serves orders, named watchlists and market data.
type TradingHandler struct {
	trading *service.TradingService
	market  *service.MarketService
	logger  zerolog.Logger
}

// NewTradingHandler creates a new TradingHandler.
func NewTradingHandler(trading *service.TradingService, market *service.MarketService, logger zerolog.Logger) *TradingHandler {
	return &TradingHandler{
		trading: trading,
		market:  market,
		logger:  logger.With().Str("handler", "trading").Logger(),
	}
}

// ListOrders handles GET /api/orders?status=&limit=.
func (h *TradingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	orders, err := h.trading.ListOrders(r.Context(), userID, r.URL.Query().Get("status"), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// CreateOrder handles POST /api/orders.
func (h *TradingHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var input service.CreateOrderInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	input.Source = "api"
	input.IPAddress = clientIP(r)
	input.UserAgent = r.UserAgent()

	order, err := h.trading.CreateOrder(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListWatchlists handles GET /api/watchlists.
func (h *TradingHandler) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	lists, err := h.trading.ListWatchlists(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateWatchlist handles POST /api/watchlists.
func (h *TradingHandler) CreateWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var input service.WatchlistInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.trading.CreateWatchlist(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// UpdateWatchlist handles PUT /api/watchlists/{id}.
func (h *TradingHandler) UpdateWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	var patch domain.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.trading.UpdateWatchlist(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteWatchlist handles DELETE /api/watchlists/{id}.
func (h *TradingHandler) DeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAuthContext(r.Context()).Subject

	if err := h.trading.DeleteWatchlist(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMarket handles GET /api/market?symbols=AAPL,MSFT. Without symbols
// every stored tick is returned.
func (h *TradingHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, s := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) > maxMarketSymbols {
		writeError(w, r, h.logger, domain.NewValidationError("too many symbols", "symbols"))
		return
	}

	ticks, err := h.market.GetTicks(r.Context(), symbols)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticks)
}
