package record

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/billing-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/billingcycle"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// MockService реализует интерфейс record.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Record(ctx context.Context, subscriptionID int, createdBy string, req models.DummyPayment) (*models.Payment, *models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, createdBy, req)
	payment, _ := args.Get(0).(*models.Payment)
	sub, _ := args.Get(1).(*models.Subscription)
	return payment, sub, args.Error(2)
}

func TestRecordHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	paymentDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	payment := &models.Payment{
		ID:             11,
		SubscriptionID: 5,
		Amount:         decimal.RequireFromString("149.99"),
		Currency:       "USD",
		PaymentDate:    paymentDate,
		Status:         models.PaymentCompleted,
		CreatedAt:      paymentDate,
	}
	sub := &models.Subscription{
		ID:              5,
		ClientID:        1,
		ProjectID:       2,
		Plan:            "premium",
		MonthlyPrice:    decimal.RequireFromString("149.99"),
		Currency:        "USD",
		BillingCycle:    billingcycle.Monthly,
		StartDate:       start,
		NextBillingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:          models.StatusActive,
		TotalPaid:       decimal.RequireFromString("149.99"),
		CreatedAt:       start,
		UpdatedAt:       paymentDate,
	}

	validBody := `{"amount": "149.99", "payment_date": "2024-01-31", "transaction_id": "txn-1"}`

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная запись платежа",
			id:   "5",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, 5, "uid-1", mock.MatchedBy(func(req models.DummyPayment) bool {
					return req.Amount == "149.99" && req.TransactionID == "txn-1"
				})).Return(payment, sub, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"next_billing_date":"2024-03-01"`,
		},
		{
			name:           "некорректный id",
			id:             "abc",
			body:           validBody,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid id`,
		},
		{
			name:           "отсутствует дата платежа",
			id:             "5",
			body:           `{"amount": "149.99"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field PaymentDate`,
		},
		{
			name: "дубликат transaction_id",
			id:   "5",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, 5, "uid-1", mock.Anything).
					Return(nil, nil, apperr.ErrConflict)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `transaction_id already recorded`,
		},
		{
			name: "подписка не найдена",
			id:   "404",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, 404, "uid-1", mock.Anything).
					Return(nil, nil, apperr.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `subscription not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions/"+tt.id+"/payments", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
