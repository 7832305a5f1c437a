package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/qdclab/booking-api/internal/booking"
	"github.com/qdclab/booking-api/internal/catalog"
	"github.com/qdclab/booking-api/internal/events"
)

type stubLister struct {
	tests []catalog.TestDefinition
	err   error
}

func (s *stubLister) ListTests(context.Context) ([]catalog.TestDefinition, error) {
	return s.tests, s.err
}

type stubOrders struct {
	orderID  int64
	err      error
	requests []booking.OrderRequest
}

func (s *stubOrders) CreateOrder(_ context.Context, req booking.OrderRequest) (int64, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return 0, s.err
	}
	return s.orderID, nil
}

type testEnv struct {
	router *chi.Mux
	orders *stubOrders
	store  *events.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	lister := &stubLister{tests: []catalog.TestDefinition{
		{ID: 1, Name: "CBC", Price: 500},
		{ID: 2, Name: "X-Ray", Price: 1200},
	}}
	orders := &stubOrders{orderID: 555}
	eventStore := events.NewMemoryStore(16)
	handler := &booking.Handler{
		Store:    booking.NewStore(time.Minute),
		Catalog:  &catalog.Service{Source: lister},
		Orders:   orders,
		Events:   &events.Bus{Store: eventStore},
		Validate: validator.New(),
	}
	router := chi.NewRouter()
	router.Route("/api/v1", handler.Routes)
	return &testEnv{router: router, orders: orders, store: eventStore}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{"patientId": 12})
	require.Equal(t, http.StatusCreated, rec.Code)
	var out struct {
		Data struct {
			SessionID string `json:"sessionId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.SessionID)
	return out.Data.SessionID
}

func decodeRender(t *testing.T, rec *httptest.ResponseRecorder) booking.RenderState {
	t.Helper()
	var out struct {
		Data booking.RenderState `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Error.Code
}

func TestCreateRequiresPatient(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingFlowEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	base := "/api/v1/bookings/" + id

	rec := env.do(t, http.MethodPost, base+"/items", map[string]any{"testId": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, base+"/items", map[string]any{"testId": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	render := decodeRender(t, rec)
	require.Len(t, render.Items, 2)
	require.EqualValues(t, 1700, render.Subtotal)

	rec = env.do(t, http.MethodPut, base+"/billing", map[string]any{
		"discount": "200",
		"cashPaid": "1000",
		"doctorId": "4",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	render = decodeRender(t, rec)
	require.EqualValues(t, 1500, render.Net)
	require.Equal(t, "500 (Due)", render.BalanceDisplay)

	rec = env.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out struct {
		Data struct {
			OrderID    int64  `json:"orderId"`
			ReceiptURL string `json:"receiptUrl"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.EqualValues(t, 555, out.Data.OrderID)
	require.Equal(t, "/orders/receipt/555", out.Data.ReceiptURL)

	require.Len(t, env.orders.requests, 1)
	req := env.orders.requests[0]
	require.EqualValues(t, 12, req.PatientID)
	require.Equal(t, []int64{1, 2}, req.TestIDs)
	require.NotNil(t, req.DoctorID)
	require.EqualValues(t, 4, *req.DoctorID)

	// the session is discarded after a successful submission
	rec = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	topics := make([]string, 0)
	for _, ev := range env.store.Recent() {
		topics = append(topics, ev.Topic)
	}
	require.Contains(t, topics, events.TopicSessionStarted)
	require.Contains(t, topics, events.TopicOrderCreated)
}

func TestAddDuplicateTest(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	base := "/api/v1/bookings/" + id

	rec := env.do(t, http.MethodPost, base+"/items", map[string]any{"testId": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, base+"/items", map[string]any{"testId": 1})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "DUPLICATE_TEST", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, base, nil)
	require.Len(t, decodeRender(t, rec).Items, 1)
}

func TestAddUnknownTest(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	rec := env.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/items", map[string]any{"testId": 999})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "UNKNOWN_TEST", errorCode(t, rec))
}

func TestRemoveStaleIndex(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	base := "/api/v1/bookings/" + id

	rec := env.do(t, http.MethodPost, base+"/items", map[string]any{"testId": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, base+"/items/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeRender(t, rec).Empty)

	rec = env.do(t, http.MethodDelete, base+"/items/0", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "STALE_CART", errorCode(t, rec))
}

func TestSubmitEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	rec := env.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "EMPTY_CART", errorCode(t, rec))
	require.Empty(t, env.orders.requests, "collaborator must not be called for an empty cart")
}

func TestSubmitFailureAllowsRetry(t *testing.T) {
	env := newTestEnv(t)
	env.orders.err = errors.New("lims unavailable")
	id := env.createSession(t)
	base := "/api/v1/bookings/" + id

	rec := env.do(t, http.MethodPost, base+"/items", map[string]any{"testId": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "SUBMISSION_FAILED", errorCode(t, rec))

	// the session survives the failure with its cart intact
	rec = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	render := decodeRender(t, rec)
	require.Len(t, render.Items, 1)
	require.Equal(t, "idle", render.SubmitState)

	env.orders.err = nil
	rec = env.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, env.orders.requests, 2)

	topics := fmt.Sprint(env.store.Recent())
	require.Contains(t, topics, events.TopicOrderFailed)
}

func TestListTests(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/tests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data []catalog.TestDefinition `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 2)
	require.Equal(t, "CBC", out.Data[0].Name)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/bookings/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
