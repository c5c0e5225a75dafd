package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/orders"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type stubOrdersService struct {
	created   *models.Order
	lastActor uuid.UUID
	err       error
}

func (s *stubOrdersService) Create(ctx context.Context, actorID uuid.UUID, req orders.CreateRequest) (*models.Order, error) {
	s.lastActor = actorID
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubOrdersService) List(ctx context.Context, query orders.ListQuery) (*pagination.Page[models.Order], error) {
	return pagination.NewPage[models.Order](nil, query.Pagination, 0), nil
}

func (s *stubOrdersService) Complete(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	s.lastActor = actorID
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubOrdersService) Cancel(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.Complete(ctx, actorID, orderID)
}

func (s *stubOrdersService) Return(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.Complete(ctx, actorID, orderID)
}

func (s *stubOrdersService) Delete(ctx context.Context, actorID, orderID uuid.UUID) error {
	s.lastActor = actorID
	return s.err
}

func authedRequest(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, "staff")
	return req.WithContext(ctx)
}

func TestOrderCreatePassesActorFromContext(t *testing.T) {
	actor := uuid.New()
	svc := &stubOrdersService{created: &models.Order{
		ID:        uuid.New(),
		InvoiceNo: "INV-0000000001",
		Status:    enums.OrderStatusPending,
		Total:     decimal.NewFromInt(100),
		OrderDate: time.Now(),
	}}
	handler := OrderCreate(svc, nil)

	payload := orders.CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines: []orders.LineInput{
			{ProductID: uuid.New(), Quantity: 2},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req = authedRequest(req, actor)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastActor != actor {
		t.Fatalf("expected actor %s got %s", actor, svc.lastActor)
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.InvoiceNo != "INV-0000000001" {
		t.Fatalf("unexpected invoice %s", envelope.Data.InvoiceNo)
	}
}

func TestOrderCreateRejectsMissingAuth(t *testing.T) {
	handler := OrderCreate(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestOrderCompleteSurfacesStateConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot transition order from cancel to complete")}
	handler := OrderComplete(svc, nil)

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/complete", nil)
	req = authedRequest(req, uuid.New())

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestOrderListRejectsUnknownStatus(t *testing.T) {
	handler := OrderList(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=finished", nil)
	req = authedRequest(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}
