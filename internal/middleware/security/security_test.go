package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"plain read", http.MethodGet, "/records/EMS", "Mozilla/5.0", false},
		{"cli client", http.MethodGet, "/records/EMS", "curl/8.5.0", false},
		{"path traversal", http.MethodGet, "/records/../../etc/passwd", "", true},
		{"dotenv probe", http.MethodGet, "/.env", "", true},
		{"traversal in query", http.MethodGet, "/records/EMS?date=../../etc/passwd", "", true},
		{"scanner agent", http.MethodGet, "/health", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/health", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", tt.agent)
			if got := d.DetectSuspiciousRequest(req); got != tt.want {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
		})
	}
	if d.GetMetrics().SuspiciousRequests != 5 {
		t.Errorf("SuspiciousRequests = %d, want 5", d.GetMetrics().SuspiciousRequests)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	if got := d.ExtractClientIP(req); got != "203.0.113.9" {
		t.Errorf("trusted proxy: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := d.ExtractClientIP(req); got != "198.51.100.7" {
		t.Errorf("untrusted peer must not be able to spoof, got %q", got)
	}

	if err := d.AddTrustedProxy("198.51.100.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}
	if got := d.ExtractClientIP(req); got != "203.0.113.9" {
		t.Errorf("added proxy: got %q", got)
	}
	if err := d.AddTrustedProxy("nope"); err == nil {
		t.Error("expected error for invalid CIDR")
	}
}

func TestDetectorMiddlewareServesFlaggedRequests(t *testing.T) {
	d := NewDetector()
	flagged := 0
	h := d.Middleware(func(*http.Request) { flagged++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.git/config", nil))

	if rec.Code != http.StatusNoContent || flagged != 1 {
		t.Errorf("code=%d flagged=%d", rec.Code, flagged)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig().WithCrossOriginClients()).Middleware(NoStore(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/EMS", nil))

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Cross-Origin-Resource-Policy": "cross-origin",
		"Cache-Control":                "no-store",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if _, ok := rec.Header()["Cross-Origin-Embedder-Policy"]; ok {
		t.Error("empty policies must not be sent")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS only applies to TLS requests")
	}

	req := httptest.NewRequest(http.MethodGet, "/records/EMS", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") != "max-age=31536000; includeSubDomains" {
		t.Errorf("unexpected HSTS: %q", rec.Header().Get("Strict-Transport-Security"))
	}
}
