// Package models содержит доменные структуры биллингового ядра:
// подписку клиента с машиной состояний, записи платёжного журнала,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/billingcycle"
)

// DateLayout — формат календарных дат во внешнем API (ISO-8601).
const DateLayout = "2006-01-02"

// SubscriptionStatus — хранимый статус подписки.
// "Истекла" и "пробный период" не хранятся, а вычисляются из дат.
type SubscriptionStatus string

const (
	// StatusActive — подписка действует и подлежит списаниям.
	StatusActive SubscriptionStatus = "active"
	// StatusPaused — списания приостановлены после трёх неудачных платежей подряд.
	StatusPaused SubscriptionStatus = "paused"
	// StatusCancelled — подписка отменена; терминальное состояние до явной реактивации.
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Valid сообщает, является ли значение известным хранимым статусом.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

// Feature — известный признак тарифа. Домен конечен,
// поэтому вместо произвольного JSON-набора используется перечисление.
type Feature string

const (
	FeatureAPIAccess       Feature = "api_access"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureCustomReports   Feature = "custom_reports"
	FeatureSSO             Feature = "sso"
	FeatureAuditLog        Feature = "audit_log"
)

// ParseFeatures преобразует список строк в признаки тарифа,
// отклоняя неизвестные значения.
func ParseFeatures(raw []string) ([]Feature, error) {
	known := map[Feature]bool{
		FeatureAPIAccess:       true,
		FeaturePrioritySupport: true,
		FeatureCustomReports:   true,
		FeatureSSO:             true,
		FeatureAuditLog:        true,
	}
	features := make([]Feature, 0, len(raw))
	for _, r := range raw {
		f := Feature(r)
		if !known[f] {
			return nil, fmt.Errorf("%w: unknown feature %q", apperr.ErrValidation, r)
		}
		features = append(features, f)
	}
	return features, nil
}

// FailedPaymentsBeforePause — число неудачных платежей подряд,
// после которого подписка приостанавливается.
const FailedPaymentsBeforePause = 3

// Subscription представляет повторяющееся обязательство клиента
// оплачивать проект по выбранному тарифу и циклу списаний.
//
// Методы изменения состояния — чистые: они не выполняют никакого I/O.
// Атомарность записи в журнал платежей и обновления агрегатов подписки
// обеспечивает слой хранилища.
type Subscription struct {
	ID        int // Идентификатор подписки
	ClientID  int // Клиент-подписчик
	ProjectID int // Проект, на который оформлена подписка

	Plan         string             // Название тарифа: basic, premium, enterprise
	MonthlyPrice decimal.Decimal    // Цена за месяц, фиксированная точка
	Currency     string             // Код валюты по ISO 4217
	BillingCycle billingcycle.Cycle // Периодичность списаний

	StartDate       time.Time  // Дата начала подписки
	EndDate         *time.Time // Дата окончания; nil для бессрочной
	TrialEndDate    *time.Time // Конец пробного периода, если он есть
	NextBillingDate time.Time  // Дата следующего списания

	Status        SubscriptionStatus
	PaymentMethod string // credit_card, bank_transfer, check

	UserLimit      *int      // Лимит пользователей тарифа
	StorageLimitGB *int      // Лимит хранилища в гигабайтах
	Features       []Feature // Включённые признаки тарифа
	CustomDomain   string

	TotalPaid          decimal.Decimal // Сумма всех завершённых платежей
	LastPaymentDate    *time.Time
	LastPaymentAmount  decimal.Decimal
	FailedPaymentCount int // Неудачные платежи подряд; сбрасывается успешным

	Notes             string
	ContractReference string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordPayment применяет успешный платёж: обновляет агрегаты,
// сбрасывает счётчик неудач, продвигает дату следующего списания
// от текущей next_billing_date и снимает паузу, если она была.
func (s *Subscription) RecordPayment(amount decimal.Decimal, paymentDate time.Time) error {
	if s.Status == StatusCancelled {
		return fmt.Errorf("%w: subscription is cancelled", apperr.ErrInvalidState)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", apperr.ErrValidation)
	}

	s.LastPaymentDate = &paymentDate
	s.LastPaymentAmount = amount
	s.TotalPaid = s.TotalPaid.Add(amount)
	s.FailedPaymentCount = 0
	s.NextBillingDate = billingcycle.Next(s.NextBillingDate, s.BillingCycle)

	if s.Status == StatusPaused {
		s.Status = StatusActive
	}
	return nil
}

// RecordFailedPayment увеличивает счётчик неудачных платежей
// и приостанавливает подписку на третьей неудаче подряд.
func (s *Subscription) RecordFailedPayment() error {
	if s.Status == StatusCancelled {
		return fmt.Errorf("%w: subscription is cancelled", apperr.ErrInvalidState)
	}
	s.FailedPaymentCount++
	if s.FailedPaymentCount >= FailedPaymentsBeforePause {
		s.Status = StatusPaused
	}
	return nil
}

// Cancel отменяет подписку: статус становится cancelled,
// датой окончания фиксируется today, причина добавляется в заметки.
// Повторная отмена — ошибка состояния.
func (s *Subscription) Cancel(reason string, today time.Time) error {
	if s.Status == StatusCancelled {
		return fmt.Errorf("%w: subscription is already cancelled", apperr.ErrInvalidState)
	}
	s.Status = StatusCancelled
	s.EndDate = &today
	if reason != "" {
		note := "Cancelled: " + reason
		if s.Notes != "" {
			s.Notes = s.Notes + "\n" + note
		} else {
			s.Notes = note
		}
	}
	return nil
}

// Reactivate возвращает приостановленную или отменённую подписку в работу:
// сбрасывает счётчик неудач и пересчитывает дату списания от today.
func (s *Subscription) Reactivate(today time.Time) error {
	if s.Status != StatusPaused && s.Status != StatusCancelled {
		return fmt.Errorf("%w: only paused or cancelled subscriptions can be reactivated", apperr.ErrInvalidState)
	}
	s.Status = StatusActive
	s.FailedPaymentCount = 0
	s.EndDate = nil
	s.NextBillingDate = billingcycle.Next(today, s.BillingCycle)
	return nil
}

// UpdatePlan меняет тариф и цену без перехода состояния.
func (s *Subscription) UpdatePlan(newPlan string, newPrice decimal.Decimal) error {
	if s.Status == StatusCancelled {
		return fmt.Errorf("%w: cancelled subscription is immutable", apperr.ErrInvalidState)
	}
	if strings.TrimSpace(newPlan) == "" {
		return fmt.Errorf("%w: plan is required", apperr.ErrValidation)
	}
	if !newPrice.IsPositive() {
		return fmt.Errorf("%w: price must be positive", apperr.ErrValidation)
	}
	s.Plan = newPlan
	s.MonthlyPrice = newPrice
	return nil
}

// IsTrial сообщает, идёт ли пробный период на дату today.
func (s *Subscription) IsTrial(today time.Time) bool {
	return s.TrialEndDate != nil && !today.After(*s.TrialEndDate)
}

// IsExpired сообщает, истекла ли подписка на дату today,
// независимо от хранимого статуса.
func (s *Subscription) IsExpired(today time.Time) bool {
	return s.EndDate != nil && today.After(*s.EndDate)
}

// IsOverdue сообщает, просрочен ли очередной платёж активной подписки.
func (s *Subscription) IsOverdue(today time.Time) bool {
	return s.Status == StatusActive && today.After(s.NextBillingDate)
}

// DaysUntilBilling возвращает число дней до следующего списания;
// отрицательное значение означает просрочку.
func (s *Subscription) DaysUntilBilling(today time.Time) int {
	return int(s.NextBillingDate.Sub(today).Hours() / 24)
}

// DurationMonths возвращает длительность подписки в месяцах:
// дни от начала до окончания (или до today), делённые на 30.
func (s *Subscription) DurationMonths(today time.Time) int {
	end := today
	if s.EndDate != nil {
		end = *s.EndDate
	}
	days := int(end.Sub(s.StartDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 30
}

// MonthlyRevenueProjection возвращает прогноз месячной выручки:
// цену тарифа для активной подписки, ноль для остальных.
func (s *Subscription) MonthlyRevenueProjection() decimal.Decimal {
	if s.Status == StatusActive {
		return s.MonthlyPrice
	}
	return decimal.Zero
}
