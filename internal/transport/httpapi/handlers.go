package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	"github.com/vladislavdragonenkov/shopcart/internal/service/cart"
	"github.com/vladislavdragonenkov/shopcart/internal/service/notify"
)

// CartPresenter — операции корзины в форме для слоя отображения.
type CartPresenter interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID int)
	RemoveProduct(ctx context.Context, productID int)
	UpdateProductAmount(ctx context.Context, req cart.UpdateProductAmount)
}

// NotificationSource отдаёт накопленные уведомления.
type NotificationSource interface {
	Drain() []notify.Entry
}

// CartResponse — состояние корзины и уведомления, возникшие с прошлого чтения.
type CartResponse struct {
	Items         []domain.Product `json:"items"`
	LineItems     int              `json:"line_items"`
	Units         int              `json:"units"`
	Notifications []notify.Entry   `json:"notifications"`
}

// UpdateAmountRequest — тело PUT /cart/products/{id}.
type UpdateAmountRequest struct {
	Amount *int `json:"amount"`
}

// ErrorResponse описывает ошибку запроса.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CartHandler обслуживает HTTP API корзины.
type CartHandler struct {
	presenter     CartPresenter
	notifications NotificationSource
	timeout       time.Duration
	logger        *log.Entry
}

// NewCartHandler создаёт handler.
func NewCartHandler(presenter CartPresenter, notifications NotificationSource, timeout time.Duration, logger *log.Entry) *CartHandler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &CartHandler{
		presenter:     presenter,
		notifications: notifications,
		timeout:       timeout,
		logger:        logger,
	}
}

// GetCart возвращает корзину.
func (h *CartHandler) GetCart(w http.ResponseWriter, _ *http.Request) {
	h.respondCart(w, http.StatusOK)
}

// AddProduct добавляет единицу товара.
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.presenter.AddProduct(ctx, productID)
	h.respondCart(w, http.StatusOK)
}

// RemoveProduct удаляет позицию.
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	h.presenter.RemoveProduct(r.Context(), productID)
	h.respondCart(w, http.StatusOK)
}

// UpdateProductAmount выставляет количество позиции.
func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Amount == nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// amount <= 0 не отсекается здесь: отказ оформляется уведомлением, как и остальные.
	h.presenter.UpdateProductAmount(ctx, cart.UpdateProductAmount{ProductID: productID, Amount: *req.Amount})
	h.respondCart(w, http.StatusOK)
}

// Notifications забирает ожидающие уведомления.
func (h *CartHandler) Notifications(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.notifications.Drain())
}

func (h *CartHandler) productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int) {
	items := h.presenter.Cart()
	respondJSON(w, status, CartResponse{
		Items:         items,
		LineItems:     len(items),
		Units:         items.TotalUnits(),
		Notifications: h.notifications.Drain(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
