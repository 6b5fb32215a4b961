// Package models описывает транзитные запросы и ответы ретранслятора.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Ошибки валидации входных данных
var (
	// ErrNumeroRequired возвращается, когда в запросе нет номера
	ErrNumeroRequired = errors.New("numero is required")
	// ErrNotArray возвращается, когда тело пакетного запроса не является JSON массивом
	ErrNotArray = errors.New("batch body must be a JSON array")
)

// LookupRequest представляет запрос на поиск одного номера
type LookupRequest struct {
	Numero string `json:"numero"`
	Geo    bool   `json:"geo,omitempty"`
}

// BatchLookupRequest хранит исходный JSON массив номеров без изменений
type BatchLookupRequest struct {
	Raw json.RawMessage
	Len int
}

// ParseLookupRequest разбирает тело запроса на поиск одного номера.
// Номер принимается строкой или числом (берется исходная запись числа).
// Пустая строка, null, отсутствующее поле и тело, не являющееся JSON объектом,
// дают ErrNumeroRequired.
func ParseLookupRequest(body []byte) (LookupRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return LookupRequest{}, ErrNumeroRequired
	}

	numero, ok := identifier(fields["numero"])
	if !ok {
		return LookupRequest{}, ErrNumeroRequired
	}

	req := LookupRequest{Numero: numero}
	if raw, ok := fields["geo"]; ok {
		// geo необязателен, некорректное значение игнорируется
		_ = json.Unmarshal(raw, &req.Geo)
	}
	return req, nil
}

func identifier(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

// ParseBatchRequest проверяет, что тело является JSON массивом.
// Raw содержит тело в точности таким, каким оно пришло.
func ParseBatchRequest(body []byte) (BatchLookupRequest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return BatchLookupRequest{}, ErrNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return BatchLookupRequest{}, ErrNotArray
	}

	return BatchLookupRequest{Raw: json.RawMessage(body), Len: len(items)}, nil
}
