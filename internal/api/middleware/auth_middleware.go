package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/farmsmart/farm-smart/internal/config"
	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/farmsmart/farm-smart/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserContextKey  = contextKey("user")
	OwnerContextKey = contextKey("owner")
)

type OwnerMiddleware struct {
	jwtKey  []byte
	session config.Session
}

func NewOwnerMiddleware(jwtKey []byte, session config.Session) *OwnerMiddleware {
	return &OwnerMiddleware{jwtKey: jwtKey, session: session}
}

/*
Resolve attaches the cart owner to the request context.

A bearer token identifies a signed-in user. Without one the request belongs
to the anonymous session named by the session cookie, which is issued on
first contact and re-issued with a fresh lifetime on every request after.
*/
func (m *OwnerMiddleware) Resolve(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {

			claims, appErr := m.parseBearer(logger, authHeader)
			if appErr != nil {
				response.Error(w, appErr)
				return
			}

			owner := models.UserOwner(claims.UserID, claims.Email)

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			ctx = context.WithValue(ctx, OwnerContextKey, owner)

			requestScopedLogger := logger.With(slog.String("userId", claims.UserID.String()))
			ctx = WithLogger(ctx, requestScopedLogger)

			requestScopedLogger.Debug("User authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		sessionID, ok := m.sessionFromCookie(r)
		if !ok {
			sessionID = uuid.New()
			logger.Debug("Issued anonymous session")
		}

		// sliding expiry, so the cookie outlives the sweeper's idle window
		http.SetCookie(w, m.sessionCookie(sessionID.String(), int(m.session.TTL.Seconds())))

		owner := models.SessionOwner(sessionID)

		ctx := context.WithValue(r.Context(), OwnerContextKey, owner)
		ctx = WithLogger(ctx, logger.With(slog.String("sessionId", sessionID.String())))

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireUser rejects requests that did not present a valid bearer token.
// It must run after Resolve.
func (m *OwnerMiddleware) RequireUser(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		if _, ok := r.Context().Value(UserContextKey).(*models.Claims); !ok {
			LoggerFromContext(r.Context()).Warn("Missing authorization header")
			response.Error(w, errors.UnauthorizedError("Authorization header is required"))
			return
		}

		next.ServeHTTP(w, r)
	}
}

// ExpireSession tells the browser to drop the anonymous session cookie,
// replacing any refresh Resolve already queued on this response.
func (m *OwnerMiddleware) ExpireSession(w http.ResponseWriter) {

	prefix := m.session.CookieName + "="

	var kept []string
	for _, c := range w.Header().Values("Set-Cookie") {
		if !strings.HasPrefix(c, prefix) {
			kept = append(kept, c)
		}
	}

	if kept == nil {
		w.Header().Del("Set-Cookie")
	} else {
		w.Header()["Set-Cookie"] = kept
	}

	http.SetCookie(w, m.sessionCookie("", -1))
}

func (m *OwnerMiddleware) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.session.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *OwnerMiddleware) sessionFromCookie(r *http.Request) (uuid.UUID, bool) {

	cookie, err := r.Cookie(m.session.CookieName)
	if err != nil {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(cookie.Value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}

	return id, true
}

func (m *OwnerMiddleware) parseBearer(logger *slog.Logger, authHeader string) (*models.Claims, *errors.AppError) {

	// Token is of format : "Bearer <token>"
	tokenParts := strings.Split(authHeader, " ")

	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		logger.Warn("Invalid authorization header format")
		return nil, errors.UnauthorizedError("Invalid authorization format")
	}

	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenParts[1], claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Error("Unexpected signing method used in JWT", slog.Any("alg", t.Header["alg"]))
			return nil, errors.BadRequestError("unexpected signing method")
		}
		return m.jwtKey, nil
	})

	if err != nil {
		logger.Warn("JWT parsing failed", slog.String("error", err.Error()))
		return nil, errors.UnauthorizedError("Invalid or expired token")
	}

	if !token.Valid {
		logger.Warn("Invalid token")
		return nil, errors.UnauthorizedError("Invalid token")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		logger.Warn("Expired token", slog.String("userId", claims.UserID.String()))
		return nil, errors.UnauthorizedError("Token expired")
	}

	if claims.UserID == uuid.Nil {
		logger.Warn("Token without a user id")
		return nil, errors.UnauthorizedError("Invalid token")
	}

	return claims, nil
}

func OwnerFromContext(ctx context.Context) (models.Owner, bool) {
	owner, ok := ctx.Value(OwnerContextKey).(models.Owner)
	return owner, ok
}

func ClaimsFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}
