package ctxrequest

import (
	"context"
	"net/http"
	"strings"
)

func lookup(ctx context.Context, client *http.Client) {
	http.NewRequest(http.MethodGet, "http://localhost:8000/consulta", nil) // want "http.NewRequest does not carry a context; use http.NewRequestWithContext"
	http.Get("http://localhost:8000/")                                      // want "http.Get does not carry a context"
	http.Post("http://localhost:8000/consulta/lote", "application/json", strings.NewReader("[]")) // want "http.Post does not carry a context"

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost:8000/consulta", nil)
	client.Do(req)
	client.Get("http://localhost:8000/")
}
