// Package billingcycle содержит расчёт даты следующего списания по подписке.
//
// Смещения фиксированные (30/90/365 дней), без учёта календарных месяцев
// и високосных лет. Это осознанное упрощение: при ежемесячном цикле дата
// списания постепенно смещается относительно календарного месяца.
package billingcycle

import "time"

// Cycle определяет периодичность списаний по подписке.
type Cycle string

const (
	// Monthly — ежемесячный цикл (+30 дней).
	Monthly Cycle = "monthly"
	// Quarterly — ежеквартальный цикл (+90 дней).
	Quarterly Cycle = "quarterly"
	// Yearly — ежегодный цикл (+365 дней).
	Yearly Cycle = "yearly"
)

// Valid сообщает, является ли значение известным циклом.
func (c Cycle) Valid() bool {
	switch c {
	case Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Next возвращает дату следующего списания, отсчитанную от current.
// Передавать сюда нужно текущую next_billing_date подписки, а не "сегодня":
// тогда повторные платежи продвигают расписание детерминированно,
// независимо от момента их регистрации.
func Next(current time.Time, cycle Cycle) time.Time {
	switch cycle {
	case Monthly:
		return current.AddDate(0, 0, 30)
	case Quarterly:
		return current.AddDate(0, 0, 90)
	case Yearly:
		return current.AddDate(0, 0, 365)
	}
	return current
}
