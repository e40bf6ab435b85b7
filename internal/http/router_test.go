package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	cart     *mockCartService
	checkout *mockCheckout
	orders   *mockOrderStore
	quoter   *mockQuoter
	importer *mockImporter
}

func newTestRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()
	d := &testDeps{
		cart:     newMockCartService(),
		checkout: &mockCheckout{},
		orders:   newMockOrderStore(),
		quoter:   &mockQuoter{},
		importer: &mockImporter{},
	}
	router := NewRouter(RouterDeps{
		Cart:           d.cart,
		Checkout:       d.checkout,
		Orders:         d.orders,
		Delivery:       d.quoter,
		Importer:       d.importer,
		Auth:           NewAuthenticator(testSecret, testIssuer, testAudience),
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 20,
	})
	return router, d
}

func do(t *testing.T, h http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	do(t, router, http.MethodGet, "/health", "", nil)

	rec := do(t, router, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRequestIDEchoed(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, router, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSandboxMountedWhenConfigured(t *testing.T) {
	sandbox := chi.NewRouter()
	sandbox.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(RouterDeps{
		Auth:           NewAuthenticator(testSecret, testIssuer, testAudience),
		Sandbox:        sandbox,
		RequestTimeout: time.Second,
		MaxBodyBytes:   1 << 20,
	})

	rec := do(t, router, http.MethodGet, "/sandbox/ping", "", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/cart", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_request"`)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	router, _ := newTestRouter(t)

	sign := func(claims Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return "Bearer " + s
	}
	valid := func() Claims {
		return Claims{
			Role: RoleUser,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				Issuer:    testIssuer,
				Audience:  jwt.ClaimStrings{testAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	noSubject := valid()
	noSubject.Subject = ""

	tests := map[string]string{
		"expired":        sign(expired, testSecret),
		"wrong issuer":   sign(wrongIssuer, testSecret),
		"wrong audience": sign(wrongAudience, testSecret),
		"no expiry":      sign(noExpiry, testSecret),
		"wrong secret":   sign(valid(), "not-the-secret"),
		"no subject":     sign(noSubject, testSecret),
		"garbage":        "Bearer not.a.jwt",
	}
	for name, auth := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/v1/cart", auth, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "invalid_token", decodeError(t, rec).Code)
		})
	}
}

func TestAuth_RoleNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/order/seller", token(t, "u1", RoleUser), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient_scope", decodeError(t, rec).Code)
}
