package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/config"
	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwtKey = []byte("test-secret-key-123456789012345")

var testSession = config.Session{CookieName: "farm_session", TTL: 72 * time.Hour, Secure: true}

func createTestToken(userID uuid.UUID, email string, duration time.Duration, key any, method jwt.SigningMethod) (string, error) {
	claims := &models.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(method, claims)

	return token.SignedString(key)
}

func newRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return req.WithContext(middleware.WithLogger(req.Context(), logger))
}

func TestOwnerMiddleware_Resolve_Bearer(t *testing.T) {
	// Arrange
	mw := middleware.NewOwnerMiddleware(testJwtKey, testSession)
	userID := uuid.New()
	userEmail := "grower@example.com"

	var resolved models.Owner

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := middleware.OwnerFromContext(r.Context())
		require.True(t, ok, "owner should be in context")
		resolved = owner

		claims, ok := middleware.ClaimsFromContext(r.Context())
		require.True(t, ok, "claims should be in context")
		assert.Equal(t, userEmail, claims.Email)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"success": true}`))
		require.NoError(t, err)
	})

	tests := []struct {
		name           string
		authHeader     func() string
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Success - Valid Token",
			authHeader: func() string {
				token, err := createTestToken(userID, userEmail, time.Hour, testJwtKey, jwt.SigningMethodHS256)
				require.NoError(t, err)
				return "Bearer " + token
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success": true}`,
		},
		{
			name:           "Fail - Invalid Authorization Header Format (No Bearer)",
			authHeader:     func() string { return "InvalidTokenFormat" },
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid authorization format"}}`,
		},
		{
			name:           "Fail - Malformed Token",
			authHeader:     func() string { return "Bearer not.a.valid.token" },
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name: "Fail - Wrong Signing Key",
			authHeader: func() string {
				token, err := createTestToken(userID, userEmail, time.Hour, []byte("different-secret-key-0987654321"), jwt.SigningMethodHS256)
				require.NoError(t, err)
				return "Bearer " + token
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name: "Fail - Unsigned Token",
			authHeader: func() string {
				token, err := createTestToken(userID, userEmail, time.Hour, jwt.UnsafeAllowNoneSignatureType, jwt.SigningMethodNone)
				require.NoError(t, err)
				return "Bearer " + token
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
		{
			name: "Fail - Expired Token",
			authHeader: func() string {
				token, err := createTestToken(userID, userEmail, -time.Hour, testJwtKey, jwt.SigningMethodHS256)
				require.NoError(t, err)
				return "Bearer " + token
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Invalid or expired token"}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolved = models.Owner{}

			req := newRequest(http.MethodGet, "/api/v1/carts")
			req.Header.Set("Authorization", tc.authHeader())

			rr := httptest.NewRecorder()

			// Act
			mw.Resolve(next).ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tc.expectedStatus, rr.Code, "Unexpected status code")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Unexpected response body")

			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, "user:"+userID.String(), resolved.Key)
				assert.False(t, resolved.Anonymous())
				assert.Empty(t, rr.Result().Cookies(), "signed-in users get no session cookie")
			}
		})
	}
}

func TestOwnerMiddleware_Resolve_Session(t *testing.T) {
	mw := middleware.NewOwnerMiddleware(testJwtKey, testSession)

	capture := func(dst *models.Owner) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, ok := middleware.OwnerFromContext(r.Context())
			require.True(t, ok)
			*dst = owner
			_, hasClaims := middleware.ClaimsFromContext(r.Context())
			assert.False(t, hasClaims, "anonymous requests carry no claims")
			w.WriteHeader(http.StatusNoContent)
		})
	}

	t.Run("Issues a cookie on first contact", func(t *testing.T) {
		// Arrange
		var owner models.Owner
		rr := httptest.NewRecorder()

		// Act
		mw.Resolve(capture(&owner)).ServeHTTP(rr, newRequest(http.MethodGet, "/api/v1/carts"))

		// Assert
		assert.Equal(t, http.StatusNoContent, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "farm_session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, int((72 * time.Hour).Seconds()), cookies[0].MaxAge)
		assert.Equal(t, "session:"+cookies[0].Value, owner.Key)
		assert.True(t, owner.Anonymous())
	})

	t.Run("Reuses an existing cookie and refreshes its lifetime", func(t *testing.T) {
		// Arrange
		var owner models.Owner
		sessionID := uuid.New()
		req := newRequest(http.MethodGet, "/api/v1/carts")
		req.AddCookie(&http.Cookie{Name: "farm_session", Value: sessionID.String()})
		rr := httptest.NewRecorder()

		// Act
		mw.Resolve(capture(&owner)).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, "session:"+sessionID.String(), owner.Key)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, sessionID.String(), cookies[0].Value, "the session id must not change")
		assert.Equal(t, int((72 * time.Hour).Seconds()), cookies[0].MaxAge)
	})

	t.Run("Replaces a tampered cookie", func(t *testing.T) {
		// Arrange
		var owner models.Owner
		req := newRequest(http.MethodGet, "/api/v1/carts")
		req.AddCookie(&http.Cookie{Name: "farm_session", Value: "user:someone-else"})
		rr := httptest.NewRecorder()

		// Act
		mw.Resolve(capture(&owner)).ServeHTTP(rr, req)

		// Assert
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		_, err := uuid.Parse(cookies[0].Value)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(owner.Key, "session:"))
	})
}

func TestOwnerMiddleware_RequireUser(t *testing.T) {
	mw := middleware.NewOwnerMiddleware(testJwtKey, testSession)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})
	handler := mw.Resolve(mw.RequireUser(next))

	t.Run("Anonymous is rejected", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, newRequest(http.MethodPost, "/api/v1/products"))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Authorization header is required"}}`, rr.Body.String())
		assert.False(t, called)
	})

	t.Run("User passes", func(t *testing.T) {
		called = false
		token, err := createTestToken(uuid.New(), "grower@example.com", time.Hour, testJwtKey, jwt.SigningMethodHS256)
		require.NoError(t, err)

		req := newRequest(http.MethodPost, "/api/v1/products")
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.True(t, called)
	})
}

func TestOwnerMiddleware_ExpireSession(t *testing.T) {
	mw := middleware.NewOwnerMiddleware(testJwtKey, testSession)
	rr := httptest.NewRecorder()

	mw.ExpireSession(rr)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "farm_session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestOwnerMiddleware_ExpireSessionAfterResolve(t *testing.T) {
	mw := middleware.NewOwnerMiddleware(testJwtKey, testSession)
	sessionID := uuid.New()

	logout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "theme", Value: "dark"})
		mw.ExpireSession(w)
		w.WriteHeader(http.StatusNoContent)
	})

	req := newRequest(http.MethodPost, "/api/v1/session/logout")
	req.AddCookie(&http.Cookie{Name: "farm_session", Value: sessionID.String()})
	rr := httptest.NewRecorder()

	mw.Resolve(logout).ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 2, "the refreshed session cookie is replaced, other cookies stay")
	assert.Equal(t, "theme", cookies[0].Name)
	assert.Equal(t, "farm_session", cookies[1].Name)
	assert.Empty(t, cookies[1].Value)
	assert.Less(t, cookies[1].MaxAge, 0)
}

func TestLogging(t *testing.T) {
	t.Run("Propagates the request id and status", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotNil(t, middleware.LoggerFromContext(r.Context()))
			w.WriteHeader(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rr := httptest.NewRecorder()

		middleware.Logging(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
	})

	t.Run("Generates a request id", func(t *testing.T) {
		rr := httptest.NewRecorder()

		middleware.Logging(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(rr.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("Logs the matched route at a level for the status", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		previous := slog.Default()
		slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
		t.Cleanup(func() { slog.SetDefault(previous) })

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		rr := httptest.NewRecorder()

		// Act
		middleware.Logging(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/7", nil))

		// Assert
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)

		var completed map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &completed))
		assert.Equal(t, "Request Completed", completed["msg"])
		assert.Equal(t, "WARN", completed["level"])
		assert.Equal(t, "GET /api/v1/products/{id}", completed["http_route"])
		assert.Equal(t, "/api/v1/products/7", completed["http_path"])
		assert.InDelta(t, http.StatusNotFound, completed["http_status"], 0)
	})
}
