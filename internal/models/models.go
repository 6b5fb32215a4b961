package models

// StatusResponse ответ эндпоинта состояния
type StatusResponse struct {
	Status            string `json:"status"`
	DownstreamAddress string `json:"downstream_address"`
	Version           string `json:"version"`
}

// ErrorResponse тело ответа с ошибкой.
// Detalhe содержит тело ошибки сервиса поиска номеров либо описание локальной ошибки.
type ErrorResponse struct {
	Erro    string `json:"erro"`
	Detalhe any    `json:"detalhe,omitempty"`
}
