package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary — финансовая сводка за период.
//
// Реализованная выручка складывается из двух непересекающихся источников:
// завершённых платежей по подпискам и бюджетов завершённых проектов.
// Ожидаемая выручка (бюджеты активных и приостановленных проектов)
// в реализованную не входит и периодом не ограничивается.
type Summary struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalExpenses       decimal.Decimal `json:"total_expenses"`
	ExpectedRevenue     decimal.Decimal `json:"expected_revenue"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	SubscriptionRevenue decimal.Decimal `json:"subscription_revenue"`
	ProjectRevenue      decimal.Decimal `json:"project_revenue"`

	// Снимки на момент запроса, периодом не ограничены
	ActiveSubscriptions   int             `json:"active_subscriptions"`
	CompletedProjects     int             `json:"completed_projects"`
	PendingPaymentsAmount decimal.Decimal `json:"pending_payments"`
}

// ZeroSummary возвращает сводку с нулевыми суммами.
// Пустой период — не ошибка, а нулевая сводка.
func ZeroSummary() Summary {
	return Summary{
		TotalRevenue:          decimal.Zero,
		TotalExpenses:         decimal.Zero,
		ExpectedRevenue:       decimal.Zero,
		NetProfit:             decimal.Zero,
		SubscriptionRevenue:   decimal.Zero,
		ProjectRevenue:        decimal.Zero,
		PendingPaymentsAmount: decimal.Zero,
	}
}

// MonthSummary — сводка одного календарного месяца для сравнения по месяцам.
type MonthSummary struct {
	Month     string  `json:"month"`      // Машинный ключ, 2006-01
	MonthName string  `json:"month_name"` // Человекочитаемая подпись
	Summary   Summary `json:"summary"`
}

// TransactionType — тип транзакции в едином журнале.
type TransactionType string

const (
	// TransactionIncome — поступление: платёж по подписке или бюджет проекта.
	TransactionIncome TransactionType = "income"
	// TransactionExpense — расход.
	TransactionExpense TransactionType = "expense"
)

// Transaction — нормализованная запись единого журнала транзакций.
// Источник кодируется в префиксе ID (sub_pay_, project_, expense_),
// поэтому записи разных источников не могут совпасть по идентификатору.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"-"`
	DateString  string          `json:"date"` // ISO-8601 календарная дата
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Client      string          `json:"client"`
	Project     string          `json:"project"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"` // paid, pending, expected
	Source      string          `json:"source"` // subscription, project, expense
}
