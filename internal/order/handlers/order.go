package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"order-system/internal/domain"
	"order-system/internal/logger"
	"order-system/internal/order/service"
)

type OrderHandler struct {
	service service.OrderService
	lg      *logger.Logger
}

func NewOrderHandler(s service.OrderService, lg *logger.Logger) *OrderHandler {
	return &OrderHandler{service: s, lg: lg}
}

func (oh *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", oh.Create)
	mux.HandleFunc("GET /orders", oh.FindAll)
	mux.HandleFunc("GET /orders/{id}", oh.FindOne)
	mux.HandleFunc("GET /users/{userId}/orders", oh.FindByUser)
	mux.HandleFunc("PATCH /orders/{id}", oh.Update)
	mux.HandleFunc("PATCH /orders/{id}/status", oh.UpdateStatus)
	mux.HandleFunc("DELETE /orders/{id}", oh.Remove)
	mux.HandleFunc("POST /orders/{id}/items", oh.AddItem)
	mux.HandleFunc("DELETE /orders/{id}/items/{itemId}", oh.RemoveItem)
}

func (oh *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := oh.service.Create(r.Context(), req)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (oh *OrderHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	orders, err := oh.service.FindAll(r.Context())
	if err != nil {
		oh.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (oh *OrderHandler) FindOne(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := oh.service.FindOne(r.Context(), id)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (oh *OrderHandler) FindByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userId")
	if !ok {
		return
	}
	orders, err := oh.service.FindByUser(r.Context(), userID)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (oh *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := oh.service.Update(r.Context(), id, req)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (oh *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := oh.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (oh *OrderHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := oh.service.Remove(r.Context(), id)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (oh *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.AddOrderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := oh.service.AddOrUpdateItem(r.Context(), id, req)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (oh *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	order, err := oh.service.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// writeError maps the domain error taxonomy to HTTP statuses; anything
// unexpected is surfaced generically.
func (oh *OrderHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		stockErr      *domain.InsufficientStockError
		conflictErr   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeJSONError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &stockErr):
		writeJSONError(w, http.StatusConflict, stockErr.Error())
	case errors.As(err, &conflictErr):
		writeJSONError(w, http.StatusConflict, conflictErr.Error())
	default:
		oh.lg.Error("request_failed", err, nil)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
