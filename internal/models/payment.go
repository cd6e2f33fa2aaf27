package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus — статус записи платёжного журнала.
type PaymentStatus string

const (
	// PaymentCompleted — платёж завершён и учтён в total_paid подписки.
	PaymentCompleted PaymentStatus = "completed"
	// PaymentFailed — неудачная попытка платежа.
	PaymentFailed PaymentStatus = "failed"
	// PaymentPending — платёж ожидает подтверждения.
	PaymentPending PaymentStatus = "pending"
	// PaymentRefunded — возвращённый платёж; единственный допустимый
	// переход после вставки (completed -> refunded).
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment — одна запись журнала платежей подписки.
// Журнал только дополняется: записи не изменяются после вставки,
// за исключением перехода completed -> refunded.
type Payment struct {
	ID             int
	SubscriptionID int

	Amount      decimal.Decimal
	Currency    string
	PaymentDate time.Time
	Method      string

	Status        PaymentStatus
	TransactionID string // Внешний идентификатор транзакции; уникален, если задан
	InvoiceNumber string
	ReceiptURL    string

	// Оплачиваемый период, если известен
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	Notes     string
	CreatedBy string // UID пользователя, зарегистрировавшего платёж

	CreatedAt time.Time
}
