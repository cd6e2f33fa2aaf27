// Package month содержит календарные помощники для помесячных финансовых отчётов.
package month

import "time"

// Window описывает один календарный месяц: границы периода и подписи для отчёта.
type Window struct {
	Start time.Time // Первый день месяца
	End   time.Time // Последний день месяца
	Key   string    // Машинный ключ в формате 2006-01
	Label string    // Человекочитаемая подпись, например "January 2006"
}

// TrailingWindows возвращает count последних календарных месяцев,
// включая текущий, в хронологическом порядке. Окно текущего месяца
// заканчивается его последним днём, даже если он ещё не наступил.
func TrailingWindows(now time.Time, count int) []Window {
	if count <= 0 {
		return nil
	}

	firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	windows := make([]Window, 0, count)
	for i := count - 1; i >= 0; i-- {
		start := firstOfCurrent.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		windows = append(windows, Window{
			Start: start,
			End:   end,
			Key:   start.Format("2006-01"),
			Label: start.Format("January 2006"),
		})
	}
	return windows
}

// FirstOfMonth возвращает первый день месяца, в котором лежит t.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
