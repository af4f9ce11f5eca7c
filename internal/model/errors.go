package model

import "errors"

var (
	// ErrValidation - некорректный запрос, отклоняется до любых изменений состояния
	ErrValidation = errors.New("validation error")
	// ErrConfig - некорректная конфигурация розыгрыша, фатально при старте
	ErrConfig = errors.New("config error")
	// ErrPersistence - транзакция не прошла после всех попыток, можно повторить с тем же ключом
	ErrPersistence = errors.New("persistence error")
	// ErrConcurrencyConflict - у пользователя уже выполняется другой запрос
	ErrConcurrencyConflict = errors.New("concurrent pull in progress")
	// ErrBatchExists - партия с таким ID уже записана в историю
	ErrBatchExists = errors.New("batch already exists")
	// ErrNotFound - запись не найдена
	ErrNotFound = errors.New("not found")
)

// IsRetryable - стоит ли клиенту повторить запрос с тем же ключом идемпотентности
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrConcurrencyConflict)
}
