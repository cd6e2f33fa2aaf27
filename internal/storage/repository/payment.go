package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

const paymentColumns = `id, subscription_id, amount, currency, payment_date, payment_method,
        status, transaction_id, invoice_number, receipt_url, billing_period_start,
        billing_period_end, notes, created_by, created_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p             models.Payment
		method        sql.NullString
		transactionID sql.NullString
		invoiceNumber sql.NullString
		receiptURL    sql.NullString
		periodStart   sql.NullTime
		periodEnd     sql.NullTime
		notes         sql.NullString
		createdBy     sql.NullString
	)
	err := row.Scan(&p.ID, &p.SubscriptionID, &p.Amount, &p.Currency, &p.PaymentDate,
		&method, &p.Status, &transactionID, &invoiceNumber, &receiptURL,
		&periodStart, &periodEnd, &notes, &createdBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Method = method.String
	p.TransactionID = transactionID.String
	p.InvoiceNumber = invoiceNumber.String
	p.ReceiptURL = receiptURL.String
	p.Notes = notes.String
	p.CreatedBy = createdBy.String
	if periodStart.Valid {
		p.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		p.PeriodEnd = &periodEnd.Time
	}
	return &p, nil
}

// lockSubscription читает подписку под FOR UPDATE внутри транзакции.
// Блокировка строки сериализует конкурентные платёжные операции
// по одной подписке: next_billing_date и failed_payment_count
// изменяются по схеме "прочитать-изменить-записать".
func lockSubscription(ctx context.Context, tx *sql.Tx, id int) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 FOR UPDATE`
	return scanSubscription(tx.QueryRowContext(ctx, query, id))
}

// writePaymentState записывает агрегатные платёжные поля подписки внутри транзакции.
func writePaymentState(ctx context.Context, tx *sql.Tx, sub *models.Subscription) error {
	query := `UPDATE subscriptions
			  SET total_paid = $1, last_payment_date = $2, last_payment_amount = $3,
			      failed_payment_count = $4, next_billing_date = $5, status = $6,
			      updated_at = now()
			  WHERE id = $7`
	_, err := tx.ExecContext(ctx, query, sub.TotalPaid, sub.LastPaymentDate,
		nullDecimal(sub.LastPaymentAmount), sub.FailedPaymentCount,
		sub.NextBillingDate, sub.Status, sub.ID)
	return err
}

// ApplyPayment атомарно регистрирует успешный платёж: вставляет запись журнала
// со статусом completed и применяет платёж к агрегатам подписки.
// Либо происходит и то и другое, либо ничего.
//
// Уникальный индекс по transaction_id превращает повторную доставку
// (например, дубликат вебхука) в ErrConflict вместо двойного списания.
func (s *Storage) ApplyPayment(ctx context.Context, p *models.Payment) (*models.Payment, *models.Subscription, error) {
	const op = "storage.ApplyPayment"
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sub, err := lockSubscription(ctx, tx, p.SubscriptionID)
	if err != nil {
		return nil, nil, mapError(op, err)
	}

	if p.Currency == "" {
		p.Currency = sub.Currency
	}
	if err := sub.RecordPayment(p.Amount, p.PaymentDate); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	p.Status = models.PaymentCompleted
	query := `INSERT INTO subscription_payments (subscription_id, amount, currency,
			      payment_date, payment_method, status, transaction_id, invoice_number,
			      receipt_url, billing_period_start, billing_period_end, notes, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		p.SubscriptionID, p.Amount, p.Currency, p.PaymentDate, nullString(p.Method),
		p.Status, nullString(p.TransactionID), nullString(p.InvoiceNumber),
		nullString(p.ReceiptURL), p.PeriodStart, p.PeriodEnd, nullString(p.Notes),
		nullString(p.CreatedBy)).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, nil, mapError(op, err)
	}

	if err = writePaymentState(ctx, tx, sub); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, sub, nil
}

// ApplyFailedPayment атомарно регистрирует неудачную попытку платежа:
// вставляет запись журнала со статусом failed и увеличивает счётчик неудач
// подписки; на третьей неудаче подряд подписка приостанавливается.
func (s *Storage) ApplyFailedPayment(ctx context.Context, subscriptionID int, date time.Time, createdBy string) (*models.Subscription, error) {
	const op = "storage.ApplyFailedPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sub, err := lockSubscription(ctx, tx, subscriptionID)
	if err != nil {
		return nil, mapError(op, err)
	}
	if err := sub.RecordFailedPayment(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO subscription_payments (subscription_id, amount, currency,
			      payment_date, status, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.ExecContext(ctx, query, subscriptionID, sub.MonthlyPrice, sub.Currency,
		date, models.PaymentFailed, nullString(createdBy))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = writePaymentState(ctx, tx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// RefundPayment помечает завершённый платёж как возвращённый.
// Единственная допустимая мутация записи журнала после вставки.
// total_paid подписки при этом не корректируется.
func (s *Storage) RefundPayment(ctx context.Context, paymentID int) (*models.Payment, error) {
	const op = "storage.RefundPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE subscription_payments SET status = 'refunded' WHERE id = $1 AND status = 'completed'`,
		paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		var status models.PaymentStatus
		err = s.DB.QueryRowContext(ctx,
			`SELECT status FROM subscription_payments WHERE id = $1`, paymentID).Scan(&status)
		if err != nil {
			return nil, mapError(op, err)
		}
		return nil, fmt.Errorf("%s: %w: only completed payments can be refunded, current status %s",
			op, apperr.ErrInvalidState, status)
	}

	return s.GetPayment(ctx, paymentID)
}

// GetPayment возвращает запись журнала по её ID.
func (s *Storage) GetPayment(ctx context.Context, paymentID int) (*models.Payment, error) {
	const op = "storage.GetPayment"
	query := `SELECT ` + paymentColumns + ` FROM subscription_payments WHERE id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// ListPayments возвращает историю платежей подписки, новые сверху.
func (s *Storage) ListPayments(ctx context.Context, subscriptionID int) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM subscription_payments
			  WHERE subscription_id = $1
			  ORDER BY payment_date DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
