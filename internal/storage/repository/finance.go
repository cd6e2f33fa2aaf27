package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Агрегирующие запросы движка финансовой отчётности. Все методы здесь —
// чистое чтение; согласованность на уровне снимка или read-committed
// достаточна, строгая сериализуемость для отчётов не требуется.

// SumCompletedPayments возвращает сумму завершённых платежей за период.
func (s *Storage) SumCompletedPayments(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	const op = "storage.SumCompletedPayments"
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM subscription_payments
			  WHERE status = 'completed' AND payment_date >= $1 AND payment_date <= $2`
	if err := s.DB.QueryRowContext(ctx, query, start, end).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// SumPendingPayments возвращает сумму платежей в статусе pending.
// Снимок: периодом не ограничивается.
func (s *Storage) SumPendingPayments(ctx context.Context) (decimal.Decimal, error) {
	const op = "storage.SumPendingPayments"
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM subscription_payments WHERE status = 'pending'`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// CompletedProjectRevenue возвращает сумму бюджетов и число завершённых
// проектов, созданных в заданном периоде. Проект "зарабатывает" бюджет
// только после перехода в статус completed.
func (s *Storage) CompletedProjectRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, int, error) {
	const op = "storage.CompletedProjectRevenue"
	var (
		total decimal.Decimal
		count int
	)
	query := `SELECT COALESCE(SUM(budget), 0), COUNT(*) FROM projects
			  WHERE status = 'completed' AND budget IS NOT NULL
			    AND created_at >= $1 AND created_at < $2`
	// Верхняя граница — конец дня end
	if err := s.DB.QueryRowContext(ctx, query, start, end.AddDate(0, 0, 1)).Scan(&total, &count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, count, nil
}

// ExpectedProjectRevenue возвращает сумму бюджетов активных и
// приостановленных проектов. Прогнозная величина: периодом не ограничена
// и в реализованную выручку не входит.
func (s *Storage) ExpectedProjectRevenue(ctx context.Context) (decimal.Decimal, error) {
	const op = "storage.ExpectedProjectRevenue"
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(budget), 0) FROM projects
			  WHERE status IN ('active', 'on_hold') AND budget IS NOT NULL`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// SumApprovedExpenses возвращает сумму одобренных расходов за период.
func (s *Storage) SumApprovedExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	const op = "storage.SumApprovedExpenses"
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses
			  WHERE status = 'approved' AND expense_date >= $1 AND expense_date <= $2`
	if err := s.DB.QueryRowContext(ctx, query, start, end).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// CountActiveSubscriptions возвращает число активных подписок на момент запроса.
func (s *Storage) CountActiveSubscriptions(ctx context.Context) (int, error) {
	const op = "storage.CountActiveSubscriptions"
	var count int
	query := `SELECT COUNT(*) FROM subscriptions WHERE status = 'active'`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListPaymentTransactions возвращает платежи по подпискам в виде записей
// единого журнала транзакций. Nil-границы периода отключают фильтр.
func (s *Storage) ListPaymentTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error) {
	const op = "storage.ListPaymentTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id, p.payment_date, sub.subscription_plan, c.name, pr.name, p.amount,
			      CASE WHEN p.status = 'completed' THEN 'paid' ELSE 'pending' END
			  FROM subscription_payments p
			  JOIN subscriptions sub ON sub.id = p.subscription_id
			  JOIN clients c ON c.id = sub.client_id
			  JOIN projects pr ON pr.id = sub.project_id
			  WHERE 1=1`
	var args []any
	if start != nil && end != nil {
		args = append(args, *start, *end)
		query += ` AND p.payment_date >= $1 AND p.payment_date <= $2`
	}
	query += ` ORDER BY p.payment_date DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Transaction
	for rows.Next() {
		var (
			id   int
			t    models.Transaction
			plan string
		)
		if err := rows.Scan(&id, &t.Date, &plan, &t.Client, &t.Project, &t.Amount, &t.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.ID = "sub_pay_" + strconv.Itoa(id)
		t.Type = models.TransactionIncome
		t.Description = "Subscription payment - " + plan
		t.Source = "subscription"
		t.DateString = t.Date.Format(models.DateLayout)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListProjectTransactions возвращает проекты с ненулевым бюджетом как записи
// журнала: завершённые — как оплаченные поступления, остальные — как ожидаемые.
func (s *Storage) ListProjectTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error) {
	const op = "storage.ListProjectTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id, p.created_at, p.name, COALESCE(c.name, 'Unassigned'), p.budget,
			      CASE WHEN p.status = 'completed' THEN 'paid' ELSE 'expected' END
			  FROM projects p
			  LEFT JOIN clients c ON c.id = p.client_id
			  WHERE p.budget IS NOT NULL AND p.budget > 0`
	var args []any
	if start != nil && end != nil {
		args = append(args, *start, end.AddDate(0, 0, 1))
		query += ` AND p.created_at >= $1 AND p.created_at < $2`
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Transaction
	for rows.Next() {
		var (
			id   int
			t    models.Transaction
			name string
		)
		if err := rows.Scan(&id, &t.Date, &name, &t.Client, &t.Amount, &t.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.ID = "project_" + strconv.Itoa(id)
		t.Type = models.TransactionIncome
		t.Description = "Project: " + name
		t.Project = name
		t.Source = "project"
		t.DateString = t.Date.Format(models.DateLayout)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListExpenseTransactions возвращает расходы как записи журнала.
func (s *Storage) ListExpenseTransactions(ctx context.Context, start, end *time.Time) ([]models.Transaction, error) {
	const op = "storage.ListExpenseTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, expense_date, description, COALESCE(category, 'general'), amount,
			      CASE WHEN status = 'approved' THEN 'paid' ELSE 'pending' END
			  FROM expenses WHERE 1=1`
	var args []any
	if start != nil && end != nil {
		args = append(args, *start, *end)
		query += ` AND expense_date >= $1 AND expense_date <= $2`
	}
	query += ` ORDER BY expense_date DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Transaction
	for rows.Next() {
		var (
			id       int
			t        models.Transaction
			category string
		)
		if err := rows.Scan(&id, &t.Date, &t.Description, &category, &t.Amount, &t.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.ID = "expense_" + strconv.Itoa(id)
		t.Type = models.TransactionExpense
		t.Client = "Expense"
		t.Project = category
		t.Source = "expense"
		t.DateString = t.Date.Format(models.DateLayout)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
