package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decode читает JSON тела запроса в T. Неизвестные поля и лишние данные после объекта - ошибка.
func Decode[T any](body io.Reader) (T, error) {
	var payload T
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return payload, errors.New("empty request body")
		}
		return payload, fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return payload, errors.New("invalid json: unexpected data after object")
	}
	return payload, nil
}
