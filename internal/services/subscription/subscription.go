// Package subscription содержит бизнес-логику жизненного цикла подписок
// и кеширование их чтения.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/billingcycle"
	"github.com/magabrotheeeer/billing-core/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Repository определяет методы для работы с подписками в хранилище.
type Repository interface {
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub *models.Subscription) (int, error)
	// GetSubscription возвращает подписку по ID.
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	// UpdateSubscription перезаписывает изменяемые поля подписки.
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	// ListSubscriptions возвращает подписки по фильтру.
	ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error)
	// ExistsActiveSubscription сообщает, есть ли активная подписка у пары (клиент, проект).
	ExistsActiveSubscription(ctx context.Context, clientID, projectID int) (bool, error)
	// ClientExists проверяет существование клиента.
	ClientExists(ctx context.Context, clientID int) (bool, error)
	// ProjectExists проверяет существование проекта.
	ProjectExists(ctx context.Context, projectID int) (bool, error)
	// DeleteSubscriptionPermanently удаляет отменённую подписку вместе с платежами.
	DeleteSubscriptionPermanently(ctx context.Context, id int) error
	// SubscriptionStatistics возвращает сводные показатели по подпискам.
	SubscriptionStatistics(ctx context.Context, today time.Time) (*models.Statistics, error)
	// AvailableClientsForProject возвращает активных клиентов без активной подписки на проект.
	AvailableClientsForProject(ctx context.Context, projectID int) ([]*models.Client, *models.ProjectInfo, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// EventPublisher публикует события жизненного цикла подписки.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service реализует бизнес-логику работы с подписками.
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

func cacheKey(id int) string {
	return fmt.Sprintf("subscription:%d", id)
}

// Create создает новую подписку и возвращает её ID.
//
// Подписка начинается в статусе active, дата первого списания отстоит
// от даты начала на один платёжный цикл.
func (s *Service) Create(ctx context.Context, req models.DummySubscription) (int, error) {
	startDate, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid start date", apperr.ErrValidation)
	}

	price, err := decimal.NewFromString(req.MonthlyPrice)
	if err != nil || !price.IsPositive() {
		return 0, fmt.Errorf("%w: monthly price must be a positive number", apperr.ErrValidation)
	}

	cycle := billingcycle.Cycle(req.BillingCycle)
	if req.BillingCycle == "" {
		cycle = billingcycle.Monthly
	}
	if !cycle.Valid() {
		return 0, fmt.Errorf("%w: unknown billing cycle %q", apperr.ErrValidation, req.BillingCycle)
	}

	features, err := models.ParseFeatures(req.Features)
	if err != nil {
		return 0, err
	}

	var endDate, trialEndDate *time.Time
	if req.EndDate != "" {
		d, err := time.Parse(models.DateLayout, req.EndDate)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid end date", apperr.ErrValidation)
		}
		endDate = &d
	}
	if req.TrialEndDate != "" {
		d, err := time.Parse(models.DateLayout, req.TrialEndDate)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid trial end date", apperr.ErrValidation)
		}
		trialEndDate = &d
	}

	exists, err := s.repo.ClientExists(ctx, req.ClientID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: client %d", apperr.ErrNotFound, req.ClientID)
	}
	exists, err = s.repo.ProjectExists(ctx, req.ProjectID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: project %d", apperr.ErrNotFound, req.ProjectID)
	}

	hasActive, err := s.repo.ExistsActiveSubscription(ctx, req.ClientID, req.ProjectID)
	if err != nil {
		return 0, err
	}
	if hasActive {
		return 0, fmt.Errorf("%w: client %d already has an active subscription for project %d",
			apperr.ErrConflict, req.ClientID, req.ProjectID)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	sub := &models.Subscription{
		ClientID:          req.ClientID,
		ProjectID:         req.ProjectID,
		Plan:              req.Plan,
		MonthlyPrice:      price,
		Currency:          currency,
		BillingCycle:      cycle,
		StartDate:         startDate,
		EndDate:           endDate,
		TrialEndDate:      trialEndDate,
		NextBillingDate:   billingcycle.Next(startDate, cycle),
		Status:            models.StatusActive,
		PaymentMethod:     req.PaymentMethod,
		UserLimit:         req.UserLimit,
		StorageLimitGB:    req.StorageLimitGB,
		Features:          features,
		CustomDomain:      req.CustomDomain,
		TotalPaid:         decimal.Zero,
		LastPaymentAmount: decimal.Zero,
		Notes:             req.Notes,
		ContractReference: req.ContractRef,
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, err
	}
	sub.ID = id

	s.log.Info("created new subscription", slog.Int("id", id))

	if err := s.cache.Set(cacheKey(id), sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(id)), sl.Err(err))
	}

	return id, nil
}

// Read возвращает подписку по ID, используя кеш или репозиторий.
func (s *Service) Read(ctx context.Context, id int) (*models.Subscription, error) {
	var result *models.Subscription
	found, err := s.cache.Get(cacheKey(id), &result)
	if err != nil {
		s.log.Warn("cache lookup failed", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	if found && result != nil {
		return result, nil
	}

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey(id), sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	return sub, nil
}

// Update изменяет описательные поля подписки. Поля запроса,
// оставленные nil, не трогаются; статус и платёжные агрегаты
// через Update изменить нельзя. У отменённой подписки можно
// править только заметки.
func (s *Service) Update(ctx context.Context, id int, req models.DummySubscriptionUpdate) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.StatusCancelled && !req.NotesOnly() {
		return nil, fmt.Errorf("%w: cancelled subscription allows notes changes only", apperr.ErrInvalidState)
	}

	if req.Plan != nil {
		sub.Plan = *req.Plan
	}
	if req.MonthlyPrice != nil {
		price, err := decimal.NewFromString(*req.MonthlyPrice)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("%w: monthly price must be a positive number", apperr.ErrValidation)
		}
		sub.MonthlyPrice = price
	}
	if req.Currency != nil {
		sub.Currency = strings.ToUpper(*req.Currency)
	}
	if req.BillingCycle != nil {
		cycle := billingcycle.Cycle(*req.BillingCycle)
		if !cycle.Valid() {
			return nil, fmt.Errorf("%w: unknown billing cycle %q", apperr.ErrValidation, *req.BillingCycle)
		}
		sub.BillingCycle = cycle
	}
	if req.EndDate != nil {
		d, err := time.Parse(models.DateLayout, *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end date", apperr.ErrValidation)
		}
		sub.EndDate = &d
	}
	if req.TrialEndDate != nil {
		d, err := time.Parse(models.DateLayout, *req.TrialEndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid trial end date", apperr.ErrValidation)
		}
		sub.TrialEndDate = &d
	}
	if req.PaymentMethod != nil {
		sub.PaymentMethod = *req.PaymentMethod
	}
	if req.UserLimit != nil {
		sub.UserLimit = req.UserLimit
	}
	if req.StorageLimitGB != nil {
		sub.StorageLimitGB = req.StorageLimitGB
	}
	if req.Features != nil {
		features, err := models.ParseFeatures(req.Features)
		if err != nil {
			return nil, err
		}
		sub.Features = features
	}
	if req.CustomDomain != nil {
		sub.CustomDomain = *req.CustomDomain
	}
	if req.Notes != nil {
		sub.Notes = *req.Notes
	}
	if req.ContractRef != nil {
		sub.ContractReference = *req.ContractRef
	}

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.invalidate(id)
	return sub, nil
}

// Cancel отменяет подписку с указанием причины.
func (s *Service) Cancel(ctx context.Context, id int, reason string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := sub.Cancel(reason, today); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.invalidate(id)

	s.log.Info("subscription cancelled", slog.Int("id", id), slog.String("reason", reason))
	event := rabbitmq.SubscriptionCancelledEvent{
		SubscriptionID: id,
		Reason:         reason,
		EndDate:        sub.EndDate.Format(models.DateLayout),
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeySubscriptionCancelled, event); err != nil {
		s.log.Warn("failed to publish cancellation event", sl.Err(err))
	}

	return sub, nil
}

// Reactivate возвращает приостановленную или отменённую подписку в active.
func (s *Service) Reactivate(ctx context.Context, id int) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := sub.Reactivate(today); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.invalidate(id)

	s.log.Info("subscription reactivated", slog.Int("id", id))
	return sub, nil
}

// ChangePlan меняет тариф и цену подписки. Новая цена действует
// со следующего списания, проведённые платежи не пересчитываются.
func (s *Service) ChangePlan(ctx context.Context, id int, req models.DummyPlanChange) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(req.MonthlyPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: monthly price must be a number", apperr.ErrValidation)
	}
	if err := sub.UpdatePlan(req.Plan, price); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.invalidate(id)
	return sub, nil
}

// Remove навсегда удаляет отменённую подписку вместе с её платежами.
func (s *Service) Remove(ctx context.Context, id int) error {
	if err := s.repo.DeleteSubscriptionPermanently(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	s.log.Info("subscription permanently deleted", slog.Int("id", id))
	return nil
}

// List возвращает подписки по фильтру.
func (s *Service) List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptions(ctx, filter)
}

// Statistics возвращает сводные показатели по подпискам.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	return s.repo.SubscriptionStatistics(ctx, time.Now().UTC())
}

// AvailableClients возвращает активных клиентов, которым можно оформить
// подписку на проект, вместе со сведениями о проекте.
func (s *Service) AvailableClients(ctx context.Context, projectID int) ([]*models.Client, *models.ProjectInfo, error) {
	return s.repo.AvailableClientsForProject(ctx, projectID)
}

func (s *Service) invalidate(id int) {
	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
}
