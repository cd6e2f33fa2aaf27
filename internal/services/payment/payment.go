// Package payment содержит бизнес-логику платёжного журнала подписок.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Repository определяет операции платёжного журнала в хранилище.
type Repository interface {
	// ApplyPayment атомарно записывает платёж и обновляет агрегаты подписки.
	ApplyPayment(ctx context.Context, p *models.Payment) (*models.Payment, *models.Subscription, error)
	// ApplyFailedPayment атомарно записывает неудачную попытку платежа.
	ApplyFailedPayment(ctx context.Context, subscriptionID int, date time.Time, createdBy string) (*models.Subscription, error)
	// RefundPayment переводит завершённый платёж в refunded.
	RefundPayment(ctx context.Context, paymentID int) (*models.Payment, error)
	// GetPayment возвращает запись журнала по ID.
	GetPayment(ctx context.Context, paymentID int) (*models.Payment, error)
	// ListPayments возвращает платежи подписки от новых к старым.
	ListPayments(ctx context.Context, subscriptionID int) ([]*models.Payment, error)
}

// Cache описывает инвалидацию кеша подписок.
type Cache interface {
	Invalidate(key string) error
}

// EventPublisher публикует платёжные события.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service реализует бизнес-логику платёжного журнала.
type Service struct {
	repo      Repository
	cache     Cache
	publisher EventPublisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// Record проводит платёж по подписке: добавляет запись в журнал
// и обновляет агрегаты подписки в одной транзакции.
func (s *Service) Record(ctx context.Context, subscriptionID int, createdBy string, req models.DummyPayment) (*models.Payment, *models.Subscription, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be a positive number", apperr.ErrValidation)
	}

	paymentDate, err := time.Parse(models.DateLayout, req.PaymentDate)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid payment date", apperr.ErrValidation)
	}

	var periodStart, periodEnd *time.Time
	if req.PeriodStart != "" {
		d, err := time.Parse(models.DateLayout, req.PeriodStart)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid billing period start", apperr.ErrValidation)
		}
		periodStart = &d
	}
	if req.PeriodEnd != "" {
		d, err := time.Parse(models.DateLayout, req.PeriodEnd)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid billing period end", apperr.ErrValidation)
		}
		periodEnd = &d
	}
	if periodStart != nil && periodEnd != nil && periodEnd.Before(*periodStart) {
		return nil, nil, fmt.Errorf("%w: billing period end before start", apperr.ErrValidation)
	}

	payment := &models.Payment{
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Currency:       strings.ToUpper(req.Currency),
		PaymentDate:    paymentDate,
		Method:         req.Method,
		TransactionID:  req.TransactionID,
		InvoiceNumber:  req.InvoiceNumber,
		ReceiptURL:     req.ReceiptURL,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Notes:          req.Notes,
		CreatedBy:      createdBy,
	}

	payment, sub, err := s.repo.ApplyPayment(ctx, payment)
	if err != nil {
		return nil, nil, err
	}
	s.invalidate(subscriptionID)

	s.log.Info("payment recorded",
		slog.Int("subscription_id", subscriptionID),
		slog.Int("payment_id", payment.ID),
		slog.String("amount", payment.Amount.String()))

	event := rabbitmq.PaymentRecordedEvent{
		SubscriptionID:  subscriptionID,
		PaymentID:       payment.ID,
		Amount:          payment.Amount.String(),
		Currency:        payment.Currency,
		PaymentDate:     payment.PaymentDate.Format(models.DateLayout),
		NextBillingDate: sub.NextBillingDate.Format(models.DateLayout),
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyPaymentRecorded, event); err != nil {
		s.log.Warn("failed to publish payment event", sl.Err(err))
	}

	return payment, sub, nil
}

// RecordFailure регистрирует неудачную попытку платежа. Дата по умолчанию — сегодня.
func (s *Service) RecordFailure(ctx context.Context, subscriptionID int, date string, createdBy string) (*models.Subscription, error) {
	paymentDate := time.Now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		d, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid payment date", apperr.ErrValidation)
		}
		paymentDate = d
	}

	sub, err := s.repo.ApplyFailedPayment(ctx, subscriptionID, paymentDate, createdBy)
	if err != nil {
		return nil, err
	}
	s.invalidate(subscriptionID)

	s.log.Info("failed payment recorded",
		slog.Int("subscription_id", subscriptionID),
		slog.Int("failed_payment_count", sub.FailedPaymentCount))

	event := rabbitmq.PaymentFailedEvent{
		SubscriptionID:     subscriptionID,
		FailedPaymentCount: sub.FailedPaymentCount,
		Paused:             sub.Status == models.StatusPaused,
		PaymentDate:        paymentDate.Format(models.DateLayout),
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyPaymentFailed, event); err != nil {
		s.log.Warn("failed to publish payment event", sl.Err(err))
	}

	return sub, nil
}

// Refund переводит завершённый платёж в refunded.
// Запись остаётся в журнале, агрегаты подписки не пересчитываются.
func (s *Service) Refund(ctx context.Context, paymentID int) (*models.Payment, error) {
	payment, err := s.repo.RefundPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment refunded", slog.Int("payment_id", paymentID))
	return payment, nil
}

// List возвращает историю платежей подписки от новых к старым.
func (s *Service) List(ctx context.Context, subscriptionID int) ([]*models.Payment, error) {
	return s.repo.ListPayments(ctx, subscriptionID)
}

func (s *Service) invalidate(subscriptionID int) {
	key := fmt.Sprintf("subscription:%d", subscriptionID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}
