package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/InQaaaaGit/telefone-relay/internal/buildinfo"
	"github.com/InQaaaaGit/telefone-relay/internal/config"
	"github.com/InQaaaaGit/telefone-relay/internal/lookup"
	"github.com/InQaaaaGit/telefone-relay/internal/middleware"
	"github.com/InQaaaaGit/telefone-relay/internal/models"
	"go.uber.org/zap"
)

const (
	contentTypeJSON = "application/json"
	statusOnline    = "online"

	numeroRequiredMessage   = "Número é obrigatório"
	notArrayMessage         = "Envie um array de números"
	lookupFailedMessage     = "Erro na consulta"
	batchFailedMessage      = "Erro na consulta em lote"
	bodyTooLargeMessage     = "Corpo da requisição muito grande"
	notFoundMessage         = "Rota não encontrada"
	methodNotAllowedMessage = "Método não permitido"

	// maxRequestBytes ограничивает размер тела входящего запроса
	maxRequestBytes = 1 << 20
)

// Lookuper определяет интерфейс вызовов сервиса поиска номеров
type Lookuper interface {
	Lookup(ctx context.Context, numero string, geo bool) (*lookup.Response, error)
	LookupBatch(ctx context.Context, numeros json.RawMessage) (*lookup.Response, error)
}

// Handler обслуживает HTTP эндпоинты ретранслятора
type Handler struct {
	lookup Lookuper
	cfg    *config.Config
	logger *zap.Logger
	build  *buildinfo.Info
}

// NewHandler создает обработчик. Если build равен nil, используется buildinfo.DefaultInfo().
func NewHandler(client Lookuper, cfg *config.Config, logger *zap.Logger, build *buildinfo.Info) *Handler {
	if build == nil {
		build = buildinfo.DefaultInfo()
	}
	return &Handler{
		lookup: client,
		cfg:    cfg,
		logger: logger,
		build:  build,
	}
}

// HandleStatus обрабатывает GET / и возвращает состояние сервиса и адрес сервиса поиска номеров
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, models.StatusResponse{
		Status:            statusOnline,
		DownstreamAddress: h.cfg.DownstreamURL,
		Version:           h.build.Version,
	})
}

// HandleLookup обрабатывает POST /telefone: проверяет номер и передает его сервису поиска номеров
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	req, err := models.ParseLookupRequest(body)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, numeroRequiredMessage, nil)
		return
	}

	resp, err := h.lookup.Lookup(r.Context(), req.Numero, req.Geo)
	if err != nil {
		h.writeDownstreamError(w, r, lookupFailedMessage, err)
		return
	}

	h.writeRaw(w, r, resp.StatusCode, resp.Body)
}

// HandleBatchLookup обрабатывает POST /telefone/lote: проверяет, что тело является массивом,
// и передает его сервису поиска номеров без изменений
func (h *Handler) HandleBatchLookup(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	batch, err := models.ParseBatchRequest(body)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, notArrayMessage, nil)
		return
	}

	h.logger.Debug("Forwarding batch lookup",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Int("batch_size", batch.Len))

	resp, err := h.lookup.LookupBatch(r.Context(), batch.Raw)
	if err != nil {
		h.writeDownstreamError(w, r, batchFailedMessage, err)
		return
	}

	h.writeRaw(w, r, resp.StatusCode, resp.Body)
}

// HandleNotFound отвечает JSON ошибкой на неизвестный маршрут
func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, notFoundMessage, nil)
}

// HandleMethodNotAllowed отвечает JSON ошибкой на неподдерживаемый метод
func (h *Handler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusMethodNotAllowed, methodNotAllowedMessage, nil)
}

// readBody читает тело запроса с ограничением размера.
// При ошибке ответ уже записан и возвращается false.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer func() {
		if err := r.Body.Close(); err != nil {
			h.logger.Error("Error closing request body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err == nil {
		return body, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, r, http.StatusRequestEntityTooLarge, bodyTooLargeMessage, nil)
		return nil, false
	}

	// Нечитаемое тело обрабатывается как пустое: сработает проверка формы запроса
	h.logger.Info("Error reading request body",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Error(err))
	return nil, true
}

func (h *Handler) writeDownstreamError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var detail any = err.Error()
	statusCode := 0

	var downstreamErr *lookup.DownstreamError
	if errors.As(err, &downstreamErr) {
		detail = downstreamErr.DetailOrMessage()
		statusCode = downstreamErr.StatusCode
	}

	h.logger.Error("Downstream lookup failed",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("downstream_status", statusCode),
		zap.Error(err))

	h.writeError(w, r, http.StatusInternalServerError, message, detail)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string, detail any) {
	h.writeJSON(w, r, status, models.ErrorResponse{Erro: message, Detalhe: detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error writing JSON response",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}

// writeRaw передает тело ответа сервиса поиска номеров без изменений
func (h *Handler) writeRaw(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("Error writing response",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}
