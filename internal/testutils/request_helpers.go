package testutils

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/models"
	"github.com/google/uuid"
)

const TestEmail = "grower@example.com"

// CreateTestRequestWithUser builds a request as OwnerMiddleware.Resolve
// leaves it for a signed-in user.
func CreateTestRequestWithUser(method, target string, body io.Reader, userID uuid.UUID, pathParams map[string]string) *http.Request {
	req := CreateTestRequestWithoutContext(method, target, body, pathParams)

	claims := &models.Claims{UserID: userID, Email: TestEmail}

	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	ctx = context.WithValue(ctx, middleware.OwnerContextKey, models.UserOwner(userID, TestEmail))

	return req.WithContext(ctx)
}

// CreateTestRequestWithSession builds a request for an anonymous shopper.
func CreateTestRequestWithSession(method, target string, body io.Reader, sessionID uuid.UUID, pathParams map[string]string) *http.Request {
	req := CreateTestRequestWithoutContext(method, target, body, pathParams)

	ctx := context.WithValue(req.Context(), middleware.OwnerContextKey, models.SessionOwner(sessionID))

	return req.WithContext(ctx)
}

func CreateTestRequestWithoutContext(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.WithLogger(req.Context(), logger)

	return req.WithContext(ctx)
}
