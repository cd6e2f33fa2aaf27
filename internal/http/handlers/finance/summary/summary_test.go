package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/billing-core/internal/models"
)

// MockService реализует интерфейс summary.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Summarize(ctx context.Context, start, end *time.Time) (models.Summary, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(models.Summary), args.Error(1)
}

func TestSummaryHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	filled := models.Summary{
		TotalRevenue:        decimal.RequireFromString("3282.83"),
		TotalExpenses:       decimal.RequireFromString("200.50"),
		ExpectedRevenue:     decimal.RequireFromString("6500"),
		NetProfit:           decimal.RequireFromString("3082.33"),
		SubscriptionRevenue: decimal.RequireFromString("282.83"),
		ProjectRevenue:      decimal.RequireFromString("3000"),
		ActiveSubscriptions: 2,
		CompletedProjects:   1,
	}

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "сводка без явного периода",
			query: "",
			setupMock: func(m *MockService) {
				m.On("Summarize", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).
					Return(filled, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_revenue":"3282.83"`,
		},
		{
			name:  "сводка за явный период",
			query: "?start_date=2024-01-01&end_date=2024-01-31",
			setupMock: func(m *MockService) {
				start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
				end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
				m.On("Summarize", mock.Anything, &start, &end).Return(filled, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"net_profit":"3082.33"`,
		},
		{
			name:           "некорректная дата начала",
			query:          "?start_date=31-01-2024",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid start_date`,
		},
		{
			name:  "ошибка сервиса",
			query: "",
			setupMock: func(m *MockService) {
				m.On("Summarize", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).
					Return(models.Summary{}, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not build financial summary`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/finance/summary"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
