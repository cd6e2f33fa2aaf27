// Package finance агрегирует выручку, расходы и единый журнал транзакций.
package finance

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-core/internal/lib/month"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// DefaultComparisonMonths — число месяцев в сравнении по умолчанию.
const DefaultComparisonMonths = 6

// Repository определяет агрегирующие запросы финансовой отчётности.
type Repository interface {
	SumCompletedPayments(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	SumPendingPayments(ctx context.Context) (decimal.Decimal, error)
	CompletedProjectRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, int, error)
	ExpectedProjectRevenue(ctx context.Context) (decimal.Decimal, error)
	SumApprovedExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	CountActiveSubscriptions(ctx context.Context) (int, error)
	ListPaymentTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error)
	ListProjectTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error)
	ListExpenseTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error)
}

// Service реализует бизнес-логику финансовой отчётности.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Summarize возвращает финансовую сводку за период.
// Nil-границы заменяются началом текущего месяца и сегодняшним днём.
func (s *Service) Summarize(ctx context.Context, start, end *time.Time) (models.Summary, error) {
	today := s.now().Truncate(24 * time.Hour)
	from := month.FirstOfMonth(today)
	to := today
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	return s.summarize(ctx, from, to)
}

func (s *Service) summarize(ctx context.Context, from, to time.Time) (models.Summary, error) {
	summary := models.ZeroSummary()

	subRevenue, err := s.repo.SumCompletedPayments(ctx, from, to)
	if err != nil {
		return summary, err
	}
	projRevenue, completed, err := s.repo.CompletedProjectRevenue(ctx, from, to)
	if err != nil {
		return summary, err
	}
	expenses, err := s.repo.SumApprovedExpenses(ctx, from, to)
	if err != nil {
		return summary, err
	}
	expected, err := s.repo.ExpectedProjectRevenue(ctx)
	if err != nil {
		return summary, err
	}
	pending, err := s.repo.SumPendingPayments(ctx)
	if err != nil {
		return summary, err
	}
	activeSubs, err := s.repo.CountActiveSubscriptions(ctx)
	if err != nil {
		return summary, err
	}

	summary.SubscriptionRevenue = subRevenue
	summary.ProjectRevenue = projRevenue
	summary.TotalRevenue = subRevenue.Add(projRevenue)
	summary.TotalExpenses = expenses
	summary.NetProfit = summary.TotalRevenue.Sub(expenses)
	summary.ExpectedRevenue = expected
	summary.PendingPaymentsAmount = pending
	summary.ActiveSubscriptions = activeSubs
	summary.CompletedProjects = completed
	return summary, nil
}

// MonthlyComparison возвращает сводки последних months календарных месяцев
// в хронологическом порядке. Неположительное значение months заменяется
// значением по умолчанию.
func (s *Service) MonthlyComparison(ctx context.Context, months int) ([]models.MonthSummary, error) {
	if months <= 0 {
		months = DefaultComparisonMonths
	}

	windows := month.TrailingWindows(s.now(), months)
	result := make([]models.MonthSummary, 0, len(windows))
	for _, w := range windows {
		summary, err := s.summarize(ctx, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		result = append(result, models.MonthSummary{
			Month:     w.Key,
			MonthName: w.Label,
			Summary:   summary,
		})
	}
	return result, nil
}

// Transactions возвращает единый журнал транзакций из трёх источников,
// отсортированный по дате от новых к старым.
func (s *Service) Transactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	payments, err := s.repo.ListPaymentTransactions(ctx, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}
	projects, err := s.repo.ListProjectTransactions(ctx, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenseTransactions(ctx, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}

	merged := make([]models.Transaction, 0, len(payments)+len(projects)+len(expenses))
	merged = append(merged, payments...)
	merged = append(merged, projects...)
	merged = append(merged, expenses...)

	if filter.Type != "" {
		filtered := merged[:0]
		for _, t := range merged {
			if t.Type == filter.Type {
				filtered = append(filtered, t)
			}
		}
		merged = filtered
	}

	// Свежие сверху; при равных датах порядок фиксируется по ID
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date) {
			return merged[i].Date.After(merged[j].Date)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged, nil
}
