package lookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus сервис ответил статусом вне диапазона 2xx
	ErrUnexpectedStatus = errors.New("unexpected downstream status")
	// ErrMalformedResponse успешный ответ сервиса не является JSON
	ErrMalformedResponse = errors.New("malformed downstream response")
	// ErrResponseTooLarge ответ сервиса превышает MaxResponseBytes
	ErrResponseTooLarge = errors.New("downstream response too large")
)

// DownstreamError описывает неудачный вызов сервиса поиска номеров.
// StatusCode равен 0, если ответа не было (соединение, таймаут, отмена).
// Detail содержит тело ошибки сервиса, если оно было.
type DownstreamError struct {
	StatusCode int
	Detail     any
	Err        error
}

func (e *DownstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("downstream returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("downstream request failed: %v", e.Err)
}

func (e *DownstreamError) Unwrap() error {
	return e.Err
}

// DetailOrMessage возвращает тело ошибки сервиса, а при его отсутствии текст локальной ошибки.
func (e *DownstreamError) DetailOrMessage() any {
	if e.Detail != nil {
		return e.Detail
	}
	return e.Error()
}

// errorDetail превращает тело ответа с ошибкой в значение для поля detalhe:
// корректный JSON передается как есть, иначе как строка.
func errorDetail(body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
