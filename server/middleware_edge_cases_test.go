package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anamnesportalen/anamnese-api/config"
)

func TestRealIPMiddleware_SingleIP(t *testing.T) {
	// X-Forwarded-For with single IP (no comma)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	req.RemoteAddr = "192.168.1.1:12345"

	rr := httptest.NewRecorder()
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rr.Header().Set("X-Real-IP", r.RemoteAddr)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK, got %d", rr.Code)
	}

	realIP := rr.Header().Get("X-Real-IP")
	if realIP != "203.0.113.1" {
		t.Errorf("Expected RemoteAddr to be '203.0.113.1', got '%s'", realIP)
	}
}

func TestRealIPMiddleware_CommaSeparatedList(t *testing.T) {
	// The first entry is the client, the rest are intermediate proxies.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.2, 10.0.0.3")
	req.RemoteAddr = "10.0.0.3:12345"

	rr := httptest.NewRecorder()
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rr.Header().Set("X-Real-IP", r.RemoteAddr)
	}))
	handler.ServeHTTP(rr, req)

	if realIP := rr.Header().Get("X-Real-IP"); realIP != "203.0.113.1" {
		t.Errorf("Expected first forwarded IP, got '%s'", realIP)
	}
}

func TestRealIPMiddleware_WithoutXForwardedFor(t *testing.T) {
	// Request without X-Forwarded-For header keeps the original RemoteAddr
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	rr := httptest.NewRecorder()
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rr.Header().Set("X-Original-RemoteAddr", r.RemoteAddr)
	}))
	handler.ServeHTTP(rr, req)

	if addr := rr.Header().Get("X-Original-RemoteAddr"); addr != "192.168.1.1:12345" {
		t.Errorf("Expected untouched RemoteAddr, got '%s'", addr)
	}
}

func TestBlockDirectAccessMiddleware_LocalhostIPv4(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	rr := httptest.NewRecorder()
	handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK for localhost, got %d", rr.Code)
	}
}

func TestBlockDirectAccessMiddleware_LocalhostIPv6(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[::1]:12345"

	rr := httptest.NewRecorder()
	handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK for localhost IPv6, got %d", rr.Code)
	}
}

func TestBlockDirectAccessMiddleware_DirectIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	rr := httptest.NewRecorder()
	handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status Forbidden for direct access, got %d", rr.Code)
	}
}

func TestBlockDirectAccessMiddleware_WithProxyHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"X-Forwarded-For", "X-Forwarded-For"},
		{"X-Real-IP", "X-Real-IP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(tt.header, "192.168.1.1")
			req.RemoteAddr = "192.168.1.1:12345"

			rr := httptest.NewRecorder()
			handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status OK when proxied, got %d", rr.Code)
			}
		})
	}
}

func TestRequestSizeMiddleware_ExceedsMaxSize(t *testing.T) {
	req := httptest.NewRequest("POST", "/forms/x/draft", nil)
	req.Header.Set("Content-Length", "2000000") // 2MB, larger than 1MB default

	rr := httptest.NewRecorder()
	cfg := config.Config{MaxRequestBody: 1024 * 1024, MaxHeaderSize: 1024 * 1024}
	handler := RequestSizeMiddleware(&cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413 for large Content-Length, got %d", rr.Code)
	}
}

func TestRequestSizeMiddleware_ExactlyMaxSize(t *testing.T) {
	// The middleware uses > (not >=), so exact max size is allowed
	req := httptest.NewRequest("POST", "/forms/x/draft", nil)
	req.Header.Set("Content-Length", "1048576")

	rr := httptest.NewRecorder()
	cfg := config.Config{MaxRequestBody: 1024 * 1024, MaxHeaderSize: 1024 * 1024}
	handler := RequestSizeMiddleware(&cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK for Content-Length at exact max size, got %d", rr.Code)
	}
}

func TestRequestSizeMiddleware_HeadersTooLarge(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Big", string(make([]byte, 512)))

	rr := httptest.NewRecorder()
	cfg := config.Config{MaxRequestBody: 1024 * 1024, MaxHeaderSize: 256}
	handler := RequestSizeMiddleware(&cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("Expected status 431 for oversized headers, got %d", rr.Code)
	}
}

func TestRequestSizeMiddleware_NoContentLength(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	rr := httptest.NewRecorder()
	cfg := config.Config{MaxRequestBody: 1024 * 1024, MaxHeaderSize: 1024 * 1024}
	handler := RequestSizeMiddleware(&cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK when no Content-Length, got %d", rr.Code)
	}
}
