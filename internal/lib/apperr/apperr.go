// Package apperr определяет ошибки бизнес-уровня, различимые вызывающей стороной.
//
// Ошибки оборачиваются через fmt.Errorf с %w и проверяются через errors.Is,
// поэтому HTTP-слой может выбрать корректный статус ответа,
// не разбирая текст сообщения.
package apperr

import "errors"

var (
	// ErrValidation — некорректные входные данные: неверный формат даты,
	// отсутствующее обязательное поле, неизвестное значение перечисления.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound — запрошенная сущность не существует.
	ErrNotFound = errors.New("not found")

	// ErrConflict — операция нарушает уникальность,
	// например вторая активная подписка для пары (клиент, проект).
	ErrConflict = errors.New("conflict")

	// ErrInvalidState — недопустимый переход состояния:
	// повторная отмена, реактивация активной подписки и т.п.
	ErrInvalidState = errors.New("invalid state")
)
