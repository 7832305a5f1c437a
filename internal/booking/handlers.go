package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/qdclab/booking-api/internal/catalog"
	"github.com/qdclab/booking-api/internal/common"
	"github.com/qdclab/booking-api/internal/events"
)

// Handler wires booking sessions to HTTP. Every state-changing endpoint
// responds with the full render state so the client repaints from scratch.
type Handler struct {
	Store    *Store
	Catalog  *catalog.Service
	Orders   OrderCreator
	Events   *events.Bus
	Validate *validator.Validate
}

type createPayload struct {
	PatientID int64 `json:"patientId" validate:"required,gt=0"`
}

type addItemPayload struct {
	TestID int64 `json:"testId" validate:"required,gt=0"`
}

type billingPayload struct {
	Discount *string `json:"discount"`
	CashPaid *string `json:"cashPaid"`
	DoctorID *string `json:"doctorId"`
}

// Create opens a new booking session for a patient.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking store not configured", nil)
		return
	}
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "patientId is required", nil)
		return
	}
	id, flow := h.Store.Create(payload.PatientID)
	recordSessionStarted(h.Store.Len())
	h.emit(r, events.TopicSessionStarted, id, map[string]any{"patientId": payload.PatientID})
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"sessionId": id,
			"render":    flow.Render(),
		},
	})
}

// Get returns the current render state for a session.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.resolve(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": flow.Render()})
}

// AddItem resolves the test in the catalog and adds it to the cart. The
// catalog is the pricing authority; the client only supplies the test id.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "testId is required", nil)
		return
	}
	test, err := h.Catalog.Get(r.Context(), payload.TestID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "UNKNOWN_TEST", "test is not orderable", nil)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "unable to load test catalog", nil)
		return
	}
	render, err := flow.AddItem(LineItem{ID: test.ID, Name: test.Name, Price: test.Price})
	recordCartMutation("add", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": render})
}

// RemoveItem deletes the cart entry at the given position.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.resolve(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart index", nil)
		return
	}
	render, err := flow.RemoveItem(index)
	recordCartMutation("remove", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": render})
}

// UpdateBilling records raw discount, cash and doctor inputs. Absent fields
// are left untouched so the client can send only what changed.
func (h *Handler) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var payload billingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	render := flow.Render()
	if payload.Discount != nil {
		render = flow.SetDiscount(*payload.Discount)
	}
	if payload.CashPaid != nil {
		render = flow.SetCash(*payload.CashPaid)
	}
	if payload.DoctorID != nil {
		render = flow.SetDoctor(*payload.DoctorID)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": render})
}

// Submit finalises the booking into an upstream order. On success the session
// is discarded and the response points at the receipt; on failure the session
// survives untouched for a retry.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order client not configured", nil)
		return
	}
	sessionID := chi.URLParam(r, "id")
	start := time.Now()
	render, err := flow.Submit(r.Context(), h.Orders)
	recordSubmit(start, err)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "select at least one test before submitting", nil)
		case errors.Is(err, ErrSubmitInFlight):
			common.JSONError(w, http.StatusConflict, "SUBMIT_IN_FLIGHT", "a submission is already in progress", nil)
		default:
			h.emit(r, events.TopicOrderFailed, sessionID, map[string]any{
				"patientId": flow.PatientID(),
				"reason":    err.Error(),
			})
			common.JSONError(w, http.StatusBadGateway, "SUBMISSION_FAILED", err.Error(), nil)
		}
		return
	}
	h.emit(r, events.TopicOrderCreated, sessionID, map[string]any{
		"patientId": flow.PatientID(),
		"orderId":   render.OrderID,
		"total":     render.Net,
	})
	h.Store.Delete(sessionID)
	recordSessionsActive(h.Store.Len())
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"orderId":    render.OrderID,
			"receiptUrl": fmt.Sprintf("/orders/receipt/%d", render.OrderID),
			"render":     render,
		},
	})
}

// ListTests serves the catalog feeding the selection dropdown.
func (h *Handler) ListTests(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	tests, err := h.Catalog.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "unable to load test catalog", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tests})
}

// Routes mounts the booking endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tests", h.ListTests)
	r.Route("/bookings", func(b chi.Router) {
		b.Post("/", h.Create)
		b.Route("/{id}", func(s chi.Router) {
			s.Get("/", h.Get)
			s.Post("/items", h.AddItem)
			s.Delete("/items/{index}", h.RemoveItem)
			s.Put("/billing", h.UpdateBilling)
			s.Post("/submit", h.Submit)
		})
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*Flow, bool) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking store not configured", nil)
		return nil, false
	}
	flow, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "booking session not found or expired", nil)
		return nil, false
	}
	return flow, true
}

func (h *Handler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateItem):
		common.JSONError(w, http.StatusConflict, "DUPLICATE_TEST", "this test is already in the list", nil)
	case errors.Is(err, ErrIndexOutOfRange):
		common.JSONError(w, http.StatusConflict, "STALE_CART", "cart changed since last render, refresh and retry", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusBadRequest
			}
			common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	}
}

func (h *Handler) emit(r *http.Request, topic, aggregateID string, payload map[string]any) {
	if h.Events == nil {
		return
	}
	_, _ = h.Events.Emit(r.Context(), topic, aggregateID, payload)
}
