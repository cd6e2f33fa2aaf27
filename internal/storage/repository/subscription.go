package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// subscriptionColumns — единый список колонок подписки для SELECT-запросов,
// порядок согласован со scanSubscription.
const subscriptionColumns = `id, client_id, project_id, subscription_plan, monthly_price,
        currency, billing_cycle, start_date, end_date, trial_end_date, next_billing_date,
        status, payment_method, user_limit, storage_limit_gb, features_enabled,
        custom_domain, total_paid, last_payment_date, last_payment_amount,
        failed_payment_count, notes, contract_reference, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubscription читает одну строку таблицы subscriptions в доменную модель.
func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		s                 models.Subscription
		endDate           sql.NullTime
		trialEndDate      sql.NullTime
		lastPaymentDate   sql.NullTime
		paymentMethod     sql.NullString
		userLimit         sql.NullInt64
		storageLimit      sql.NullInt64
		features          []byte
		customDomain      sql.NullString
		lastPaymentAmount decimal.NullDecimal
		notes             sql.NullString
		contractRef       sql.NullString
	)

	err := row.Scan(&s.ID, &s.ClientID, &s.ProjectID, &s.Plan, &s.MonthlyPrice,
		&s.Currency, &s.BillingCycle, &s.StartDate, &endDate, &trialEndDate,
		&s.NextBillingDate, &s.Status, &paymentMethod, &userLimit, &storageLimit,
		&features, &customDomain, &s.TotalPaid, &lastPaymentDate, &lastPaymentAmount,
		&s.FailedPaymentCount, &notes, &contractRef, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		s.EndDate = &endDate.Time
	}
	if trialEndDate.Valid {
		s.TrialEndDate = &trialEndDate.Time
	}
	if lastPaymentDate.Valid {
		s.LastPaymentDate = &lastPaymentDate.Time
	}
	if lastPaymentAmount.Valid {
		s.LastPaymentAmount = lastPaymentAmount.Decimal
	}
	s.PaymentMethod = paymentMethod.String
	s.CustomDomain = customDomain.String
	s.Notes = notes.String
	s.ContractReference = contractRef.String
	if userLimit.Valid {
		v := int(userLimit.Int64)
		s.UserLimit = &v
	}
	if storageLimit.Valid {
		v := int(storageLimit.Int64)
		s.StorageLimitGB = &v
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &s.Features); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
	}
	return &s, nil
}

// CreateSubscription вставляет новую подписку и возвращает её ID.
// Частичный уникальный индекс по (client_id, project_id) для активных подписок
// превращает гонку двух создающих запросов в ErrConflict.
func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(sub.Features)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO subscriptions (client_id, project_id, subscription_plan, monthly_price,
			      currency, billing_cycle, start_date, end_date, trial_end_date,
			      next_billing_date, status, payment_method, user_limit, storage_limit_gb,
			      features_enabled, custom_domain, notes, contract_reference)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		sub.ClientID, sub.ProjectID, sub.Plan, sub.MonthlyPrice, sub.Currency,
		sub.BillingCycle, sub.StartDate, sub.EndDate, sub.TrialEndDate,
		sub.NextBillingDate, sub.Status, nullString(sub.PaymentMethod),
		sub.UserLimit, sub.StorageLimitGB, features, nullString(sub.CustomDomain),
		nullString(sub.Notes), nullString(sub.ContractReference)).Scan(&newID)
	if err != nil {
		return 0, mapError(op, err)
	}
	return newID, nil
}

// GetSubscription возвращает подписку по её ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return sub, nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(sub.Features)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE subscriptions
			  SET subscription_plan = $1, monthly_price = $2, currency = $3,
			      billing_cycle = $4, end_date = $5, trial_end_date = $6,
			      next_billing_date = $7, status = $8, payment_method = $9,
			      user_limit = $10, storage_limit_gb = $11, features_enabled = $12,
			      custom_domain = $13, total_paid = $14, last_payment_date = $15,
			      last_payment_amount = $16, failed_payment_count = $17,
			      notes = $18, contract_reference = $19, updated_at = now()
			  WHERE id = $20`
	result, err := s.DB.ExecContext(ctx, query,
		sub.Plan, sub.MonthlyPrice, sub.Currency, sub.BillingCycle, sub.EndDate,
		sub.TrialEndDate, sub.NextBillingDate, sub.Status, nullString(sub.PaymentMethod),
		sub.UserLimit, sub.StorageLimitGB, features, nullString(sub.CustomDomain),
		sub.TotalPaid, sub.LastPaymentDate, nullDecimal(sub.LastPaymentAmount),
		sub.FailedPaymentCount, nullString(sub.Notes), nullString(sub.ContractReference), sub.ID)
	if err != nil {
		return mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// ListSubscriptions возвращает подписки по фильтру.
func (s *Storage) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.ProjectID > 0 {
		args = append(args, filter.ProjectID)
		query += ` AND project_id = $` + strconv.Itoa(len(args))
	}
	if filter.ClientID > 0 {
		args = append(args, filter.ClientID)
		query += ` AND client_id = $` + strconv.Itoa(len(args))
	}
	if filter.OverdueOnly {
		query += ` AND status = 'active' AND next_billing_date < CURRENT_DATE`
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExistsActiveSubscription сообщает, есть ли у пары (клиент, проект)
// активная подписка.
func (s *Storage) ExistsActiveSubscription(ctx context.Context, clientID, projectID int) (bool, error) {
	const op = "storage.ExistsActiveSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions
			  WHERE client_id = $1 AND project_id = $2 AND status = 'active')`
	if err := s.DB.QueryRowContext(ctx, query, clientID, projectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ClientExists проверяет существование клиента.
func (s *Storage) ClientExists(ctx context.Context, clientID int) (bool, error) {
	const op = "storage.ClientExists"
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`
	if err := s.DB.QueryRowContext(ctx, query, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ProjectExists проверяет существование проекта.
func (s *Storage) ProjectExists(ctx context.Context, projectID int) (bool, error) {
	const op = "storage.ProjectExists"
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`
	if err := s.DB.QueryRowContext(ctx, query, projectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// AvailableClientsForProject возвращает активных клиентов без активной
// подписки на проект и краткие сведения о самом проекте.
// Если проект не найден, возвращает ErrNotFound.
func (s *Storage) AvailableClientsForProject(ctx context.Context, projectID int) ([]*models.Client, *models.ProjectInfo, error) {
	const op = "storage.AvailableClientsForProject"
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	project := &models.ProjectInfo{}
	query := `SELECT id, name FROM projects WHERE id = $1`
	if err := s.DB.QueryRowContext(ctx, query, projectID).Scan(&project.ID, &project.Name); err != nil {
		return nil, nil, mapError(op, err)
	}

	query = `SELECT c.id, c.name, COALESCE(c.email, ''), COALESCE(c.company, ''), c.status
			 FROM clients c
			 WHERE c.status = 'active'
			   AND NOT EXISTS (
				   SELECT 1 FROM subscriptions sub
				   WHERE sub.client_id = c.id AND sub.project_id = $1 AND sub.status = 'active')
			 ORDER BY c.name`
	rows, err := s.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	clients := make([]*models.Client, 0)
	for rows.Next() {
		c := &models.Client{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.Status); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, project, nil
}

// DeleteSubscriptionPermanently безвозвратно удаляет отменённую подписку
// вместе с её журналом платежей в одной транзакции.
// Для неотменённой подписки возвращает ErrInvalidState.
func (s *Storage) DeleteSubscriptionPermanently(ctx context.Context, id int) error {
	const op = "storage.DeleteSubscriptionPermanently"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status models.SubscriptionStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM subscriptions WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		return mapError(op, err)
	}
	if status != models.StatusCancelled {
		return fmt.Errorf("%s: %w: only cancelled subscriptions can be permanently deleted", op, apperr.ErrInvalidState)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM subscription_payments WHERE subscription_id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SubscriptionStatistics возвращает сводные показатели по подпискам:
// количество по статусам, пробные и просроченные, прогноз месячной выручки
// и суммарную выручку по завершённым платежам за всё время.
func (s *Storage) SubscriptionStatistics(ctx context.Context, today time.Time) (*models.Statistics, error) {
	const op = "storage.SubscriptionStatistics"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	stats := &models.Statistics{
		MonthlyRevenue: decimal.Zero,
		TotalRevenue:   decimal.Zero,
	}

	query := `SELECT
			      COUNT(*),
			      COUNT(*) FILTER (WHERE status = 'active'),
			      COUNT(*) FILTER (WHERE status = 'paused'),
			      COUNT(*) FILTER (WHERE status = 'cancelled'),
			      COUNT(*) FILTER (WHERE status = 'active' AND trial_end_date IS NOT NULL AND trial_end_date >= $1),
			      COUNT(*) FILTER (WHERE status = 'active' AND next_billing_date < $1),
			      COALESCE(SUM(monthly_price) FILTER (WHERE status = 'active'), 0)
			  FROM subscriptions`
	err := s.DB.QueryRowContext(ctx, query, today).Scan(&stats.Total, &stats.Active,
		&stats.Paused, &stats.Cancelled, &stats.Trial, &stats.Overdue, &stats.MonthlyRevenue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM subscription_payments WHERE status = 'completed'`).
		Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: !d.IsZero()}
}
