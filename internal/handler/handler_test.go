package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/InQaaaaGit/telefone-relay/internal/buildinfo"
	"github.com/InQaaaaGit/telefone-relay/internal/config"
	"github.com/InQaaaaGit/telefone-relay/internal/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// downstream имитирует сервис поиска номеров и считает вызовы
type downstream struct {
	server    *httptest.Server
	calls     atomic.Int32
	lastQuery atomic.Value
	lastBody  atomic.Value
	status    int
	response  string
}

func newDownstream(t *testing.T, status int, response string) *downstream {
	t.Helper()
	d := &downstream{status: status, response: response}
	d.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.calls.Add(1)
		d.lastQuery.Store(r.URL.Path + "?" + r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		d.lastBody.Store(string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(d.status)
		w.Write([]byte(d.response))
	}))
	t.Cleanup(d.server.Close)
	return d
}

func newTestHandler(t *testing.T, baseURL string) *Handler {
	t.Helper()
	cfg := config.Default()
	cfg.DownstreamURL = baseURL
	cfg.DownstreamTimeout = 2 * time.Second
	return NewHandler(lookup.NewClient(cfg, zap.NewNop()), cfg, zap.NewNop(), buildinfo.NewInfo("v1.0.0", "", ""))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHandleStatus(t *testing.T) {
	for _, baseURL := range []string{"http://localhost:8000", "http://lookup.internal:9000"} {
		h := newTestHandler(t, baseURL)

		rr := httptest.NewRecorder()
		h.HandleStatus(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t,
			`{"status":"online","downstream_address":"`+baseURL+`","version":"v1.0.0"}`,
			rr.Body.String())
	}
}

func TestHandleLookupValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "Empty object", body: `{}`},
		{name: "Empty numero", body: `{"numero":""}`},
		{name: "Null numero", body: `{"numero":null}`},
		{name: "Empty body", body: ``},
		{name: "Invalid JSON", body: `{"numero":`},
		{name: "Array body", body: `["5551234"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDownstream(t, http.StatusOK, `{}`)
			h := newTestHandler(t, d.server.URL)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/telefone", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			h.HandleLookup(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"erro":"Número é obrigatório"}`, rr.Body.String())
			assert.Equal(t, int32(0), d.calls.Load())
		})
	}
}

func TestHandleLookupForwardsVerbatim(t *testing.T) {
	d := newDownstream(t, http.StatusOK, `{"nome":"Alice"}`)
	h := newTestHandler(t, d.server.URL)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/telefone", strings.NewReader(`{"numero":"5551234"}`))
	req.Header.Set("Content-Type", "application/json")
	h.HandleLookup(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"nome":"Alice"}`, rr.Body.String())
	assert.Equal(t, int32(1), d.calls.Load())
	assert.Equal(t, "/consulta?numero=5551234", d.lastQuery.Load())
}

func TestHandleLookupDownstreamErrors(t *testing.T) {
	t.Run("Downstream error payload is forwarded as detail", func(t *testing.T) {
		d := newDownstream(t, http.StatusBadRequest, `{"detail":"Número inválido"}`)
		h := newTestHandler(t, d.server.URL)

		rr := httptest.NewRecorder()
		h.HandleLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone", strings.NewReader(`{"numero":"abc"}`)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"erro":"Erro na consulta","detalhe":{"detail":"Número inválido"}}`, rr.Body.String())
		assert.Equal(t, int32(1), d.calls.Load())
	})

	t.Run("Connection failure is described locally", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		h := newTestHandler(t, server.URL)

		rr := httptest.NewRecorder()
		h.HandleLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone", strings.NewReader(`{"numero":"5551234"}`)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Erro na consulta", body["erro"])
		assert.Contains(t, body["detalhe"], "connection refused")
	})
}

func TestHandleBatchLookupValidation(t *testing.T) {
	for _, body := range []string{`"not-an-array"`, `{"numeros":["111"]}`, `42`, ``, `[`} {
		t.Run(body, func(t *testing.T) {
			d := newDownstream(t, http.StatusOK, `{}`)
			h := newTestHandler(t, d.server.URL)

			rr := httptest.NewRecorder()
			h.HandleBatchLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone/lote", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"erro":"Envie um array de números"}`, rr.Body.String())
			assert.Equal(t, int32(0), d.calls.Load())
		})
	}
}

func TestHandleBatchLookupForwardsArrayUnmodified(t *testing.T) {
	for _, body := range []string{`["111","222"]`, `[]`, `[ 83993437321, "11 98765-4321" ]`} {
		t.Run(body, func(t *testing.T) {
			d := newDownstream(t, http.StatusOK, `{"total":0,"resultados":[]}`)
			h := newTestHandler(t, d.server.URL)

			rr := httptest.NewRecorder()
			h.HandleBatchLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone/lote", strings.NewReader(body)))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, `{"total":0,"resultados":[]}`, rr.Body.String())
			assert.Equal(t, int32(1), d.calls.Load())
			assert.Equal(t, "/consulta/lote?", d.lastQuery.Load())
			assert.Equal(t, body, d.lastBody.Load())
		})
	}
}

func TestHandleBatchLookupConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	h := newTestHandler(t, server.URL)

	rr := httptest.NewRecorder()
	h.HandleBatchLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone/lote", strings.NewReader(`["111","222"]`)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, "Erro na consulta em lote", body["erro"])
	assert.Contains(t, body["detalhe"], "connection refused")
}

// fakeLookuper реализует Lookuper для тестов без сети
type fakeLookuper struct {
	lookupFunc func(ctx context.Context, numero string, geo bool) (*lookup.Response, error)
	batchFunc  func(ctx context.Context, numeros json.RawMessage) (*lookup.Response, error)
}

func (f *fakeLookuper) Lookup(ctx context.Context, numero string, geo bool) (*lookup.Response, error) {
	if f.lookupFunc != nil {
		return f.lookupFunc(ctx, numero, geo)
	}
	return nil, errors.New("not implemented")
}

func (f *fakeLookuper) LookupBatch(ctx context.Context, numeros json.RawMessage) (*lookup.Response, error) {
	if f.batchFunc != nil {
		return f.batchFunc(ctx, numeros)
	}
	return nil, errors.New("not implemented")
}

func TestHandleLookupWithFake(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		lookupFunc func(ctx context.Context, numero string, geo bool) (*lookup.Response, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "Geo flag and downstream status are passed through",
			body: `{"numero":"83993437321","geo":true}`,
			lookupFunc: func(_ context.Context, numero string, geo bool) (*lookup.Response, error) {
				if numero != "83993437321" || !geo {
					return nil, errors.New("unexpected arguments")
				}
				return &lookup.Response{StatusCode: http.StatusAccepted, Body: json.RawMessage(`{"valido":true}`)}, nil
			},
			wantStatus: http.StatusAccepted,
			wantBody:   `{"valido":true}`,
		},
		{
			name: "Plain error is wrapped with its message",
			body: `{"numero":"1"}`,
			lookupFunc: func(context.Context, string, bool) (*lookup.Response, error) {
				return nil, errors.New("boom")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"erro":"Erro na consulta","detalhe":"boom"}`,
		},
		{
			name: "Downstream error without detail falls back to message",
			body: `{"numero":"1"}`,
			lookupFunc: func(context.Context, string, bool) (*lookup.Response, error) {
				return nil, &lookup.DownstreamError{StatusCode: http.StatusServiceUnavailable, Err: lookup.ErrUnexpectedStatus}
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"erro":"Erro na consulta","detalhe":"downstream returned status 503: unexpected downstream status"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeLookuper{lookupFunc: tt.lookupFunc}, config.Default(), zap.NewNop(), nil)

			rr := httptest.NewRecorder()
			h.HandleLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestHandleLookupBodyTooLarge(t *testing.T) {
	h := NewHandler(&fakeLookuper{}, config.Default(), zap.NewNop(), nil)

	body := `{"numero":"` + strings.Repeat("9", maxRequestBytes) + `"}`
	rr := httptest.NewRecorder()
	h.HandleLookup(rr, httptest.NewRequest(http.MethodPost, "/telefone", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.JSONEq(t, `{"erro":"Corpo da requisição muito grande"}`, rr.Body.String())
}

func TestHandleNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewHandler(&fakeLookuper{}, config.Default(), zap.NewNop(), nil)

	rr := httptest.NewRecorder()
	h.HandleNotFound(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"erro":"Rota não encontrada"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.HandleMethodNotAllowed(rr, httptest.NewRequest(http.MethodGet, "/telefone", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.JSONEq(t, `{"erro":"Método não permitido"}`, rr.Body.String())
}
