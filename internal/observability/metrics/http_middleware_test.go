package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePreservesHijacker(t *testing.T) {
	handler := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("instrumented writer does not implement http.Hijacker")
			return
		}
		conn, bufrw, err := hj.Hijack()
		if err != nil {
			t.Errorf("Hijack failed: %v", err)
			return
		}
		defer conn.Close()
		bufrw.WriteString("HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n")
		bufrw.Flush()
	}))

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 from the hijacked connection, got %d", resp.StatusCode)
	}
}
