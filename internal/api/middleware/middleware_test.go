package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/moneyflow/internal/auth"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	tokens map[string]string
	err    error
}

func (f fakeVerifier) Verify(token string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return "", auth.ErrUnauthorized
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"user_id": UserID(r.Context())})
}

func TestAuth(t *testing.T) {
	v := fakeVerifier{tokens: map[string]string{"good": "user-1"}}
	h := Auth(v)(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		path       string
		method     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "/api/accounts", http.MethodGet, "Bearer good", http.StatusOK, "user-1"},
		{"missing header", "/api/accounts", http.MethodGet, "", http.StatusUnauthorized, "Missing token"},
		{"wrong scheme", "/api/accounts", http.MethodGet, "Basic good", http.StatusUnauthorized, "Missing token"},
		{"bad token", "/api/accounts", http.MethodGet, "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"health is public", "/health", http.MethodGet, "", http.StatusOK, ""},
		{"preflight is public", "/api/accounts", http.MethodOptions, "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAuth_VerifierFailureIsServerError(t *testing.T) {
	h := Auth(fakeVerifier{err: errors.New("key store down")})(http.HandlerFunc(echoUser))
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogger_RecordsRequestAndUser(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewWithWriter(buf)
	v := fakeVerifier{tokens: map[string]string{"good": "user-9"}}
	h := RequestID(Logger(log)(Auth(v)(http.HandlerFunc(echoUser))))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP request", entry["message"])
	assert.Equal(t, "user-9", entry["user_id"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.EqualValues(t, 200, entry["status"])
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewWithWriter(&bytes.Buffer{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/accounts", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
