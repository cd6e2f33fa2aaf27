package finance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-core/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) SumCompletedPayments(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *RepoMock) SumPendingPayments(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *RepoMock) CompletedProjectRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, int, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Int(1), args.Error(2)
}
func (m *RepoMock) ExpectedProjectRevenue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *RepoMock) SumApprovedExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *RepoMock) CountActiveSubscriptions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListPaymentTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}
func (m *RepoMock) ListProjectTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}
func (m *RepoMock) ListExpenseTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func newService(repo *RepoMock, now time.Time) *Service {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	svc := New(repo, slog.New(h))
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_Summarize(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	svc := newService(repo, now)

	// Период по умолчанию: с первого числа текущего месяца по сегодня
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	repo.On("SumCompletedPayments", mock.Anything, from, to).
		Return(decimal.RequireFromString("282.83"), nil)
	repo.On("CompletedProjectRevenue", mock.Anything, from, to).
		Return(decimal.RequireFromString("3000"), 2, nil)
	repo.On("SumApprovedExpenses", mock.Anything, from, to).
		Return(decimal.RequireFromString("200.50"), nil)
	repo.On("ExpectedProjectRevenue", mock.Anything).
		Return(decimal.RequireFromString("6500"), nil)
	repo.On("SumPendingPayments", mock.Anything).
		Return(decimal.RequireFromString("99.99"), nil)
	repo.On("CountActiveSubscriptions", mock.Anything).Return(4, nil)

	summary, err := svc.Summarize(context.Background(), nil, nil)
	require.NoError(t, err)

	// Суммы точные, без плавающей точки
	assert.True(t, summary.SubscriptionRevenue.Equal(decimal.RequireFromString("282.83")))
	assert.True(t, summary.ProjectRevenue.Equal(decimal.RequireFromString("3000")))
	assert.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("3282.83")))
	assert.True(t, summary.TotalExpenses.Equal(decimal.RequireFromString("200.50")))
	assert.True(t, summary.NetProfit.Equal(decimal.RequireFromString("3082.33")))
	assert.True(t, summary.ExpectedRevenue.Equal(decimal.RequireFromString("6500")))
	assert.True(t, summary.PendingPaymentsAmount.Equal(decimal.RequireFromString("99.99")))
	assert.Equal(t, 4, summary.ActiveSubscriptions)
	assert.Equal(t, 2, summary.CompletedProjects)
	repo.AssertExpectations(t)
}

func TestService_Summarize_EmptyPeriod(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := newService(repo, now)

	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC)

	repo.On("SumCompletedPayments", mock.Anything, from, to).Return(decimal.Zero, nil)
	repo.On("CompletedProjectRevenue", mock.Anything, from, to).Return(decimal.Zero, 0, nil)
	repo.On("SumApprovedExpenses", mock.Anything, from, to).Return(decimal.Zero, nil)
	repo.On("ExpectedProjectRevenue", mock.Anything).Return(decimal.Zero, nil)
	repo.On("SumPendingPayments", mock.Anything).Return(decimal.Zero, nil)
	repo.On("CountActiveSubscriptions", mock.Anything).Return(0, nil)

	summary, err := svc.Summarize(context.Background(), &from, &to)
	require.NoError(t, err)

	// Пустой период — нулевая сводка, не ошибка
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.NetProfit.IsZero())
	assert.Equal(t, 0, summary.ActiveSubscriptions)
}

func TestService_Summarize_Idempotent(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := newService(repo, now)

	repo.On("SumCompletedPayments", mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.RequireFromString("100"), nil)
	repo.On("CompletedProjectRevenue", mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.Zero, 0, nil)
	repo.On("SumApprovedExpenses", mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.Zero, nil)
	repo.On("ExpectedProjectRevenue", mock.Anything).Return(decimal.Zero, nil)
	repo.On("SumPendingPayments", mock.Anything).Return(decimal.Zero, nil)
	repo.On("CountActiveSubscriptions", mock.Anything).Return(1, nil)

	first, err := svc.Summarize(context.Background(), nil, nil)
	require.NoError(t, err)
	second, err := svc.Summarize(context.Background(), nil, nil)
	require.NoError(t, err)

	// Чтение отчёта не меняет данные: повторный вызов даёт тот же результат
	assert.Equal(t, first, second)
}

func TestService_MonthlyComparison(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := newService(repo, now)

	repo.On("SumCompletedPayments", mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.RequireFromString("10"), nil)
	repo.On("CompletedProjectRevenue", mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.Zero, 0, nil)
	repo.On("SumApprovedExpenses", mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.Zero, nil)
	repo.On("ExpectedProjectRevenue", mock.Anything).Return(decimal.Zero, nil)
	repo.On("SumPendingPayments", mock.Anything).Return(decimal.Zero, nil)
	repo.On("CountActiveSubscriptions", mock.Anything).Return(0, nil)

	result, err := svc.MonthlyComparison(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, result, DefaultComparisonMonths)

	// Хронологический порядок, текущий месяц последним
	assert.Equal(t, "2023-10", result[0].Month)
	assert.Equal(t, "2024-03", result[5].Month)
	assert.Equal(t, "March 2024", result[5].MonthName)
	for _, m := range result {
		assert.True(t, m.Summary.TotalRevenue.Equal(decimal.RequireFromString("10")))
	}
}

func TestService_Transactions(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := newService(repo, now)

	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	payments := []models.Transaction{
		{ID: "sub_pay_1", Date: d(10), Type: models.TransactionIncome, Source: "subscription"},
	}
	projects := []models.Transaction{
		{ID: "project_1", Date: d(20), Type: models.TransactionIncome, Source: "project"},
	}
	expenses := []models.Transaction{
		{ID: "expense_1", Date: d(15), Type: models.TransactionExpense, Source: "expense"},
	}

	repo.On("ListPaymentTransactions", mock.Anything, mock.Anything, mock.Anything).Return(payments, nil)
	repo.On("ListProjectTransactions", mock.Anything, mock.Anything, mock.Anything).Return(projects, nil)
	repo.On("ListExpenseTransactions", mock.Anything, mock.Anything, mock.Anything).Return(expenses, nil)

	all, err := svc.Transactions(context.Background(), models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "project_1", all[0].ID)
	assert.Equal(t, "expense_1", all[1].ID)
	assert.Equal(t, "sub_pay_1", all[2].ID)

	onlyIncome, err := svc.Transactions(context.Background(), models.TransactionFilter{
		Type: models.TransactionIncome,
	})
	require.NoError(t, err)
	require.Len(t, onlyIncome, 2)
	for _, tx := range onlyIncome {
		assert.Equal(t, models.TransactionIncome, tx.Type)
	}
}
