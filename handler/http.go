package handler

import (
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

// ServeHTTP serves the relay on a plain net/http server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Info("failed to read request body", "err", err)
		body = nil
	}

	resp := h.serve(r.Context(), request{
		method:        r.Method,
		origin:        r.Header.Get("Origin"),
		correlationID: r.Header.Get(correlationHeader),
		body:          body,
	})

	for k, v := range resp.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.status)
	if resp.body != "" {
		_, _ = io.WriteString(w, resp.body)
	}
}
