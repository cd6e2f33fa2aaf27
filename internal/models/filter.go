// Здесь определены параметры фильтрации для выборок подписок и транзакций.
// Фильтры заполняются HTTP-слоем из query-параметров и передаются
// в бизнес-логику уже провалидированными.
package models

import "time"

// SubscriptionFilter — параметры выборки подписок.
// Нулевые значения означают отсутствие фильтра.
type SubscriptionFilter struct {
	Status      SubscriptionStatus // Фильтр по хранимому статусу
	ProjectID   int                // Фильтр по проекту
	ClientID    int                // Фильтр по клиенту
	OverdueOnly bool               // Только подписки с просроченным платежом
	Limit       int
	Offset      int
}

// TransactionFilter — параметры выборки единого журнала транзакций.
// Nil-даты означают выборку без ограничения по периоду.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      TransactionType // income, expense или пусто (все)
}
