package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// revokeTokenRequest is the request body for POST /auth/revoke.
type revokeTokenRequest struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id,omitempty"`
}

// revocationListResponse is the response for GET /auth/revocations.
type revocationListResponse struct {
	Count   int              `json:"count"`
	Entries []RevocationInfo `json:"entries"`
}

// RegisterRevocationRoutes registers session revocation management endpoints
// for operators: force-revoking a session by JTI and inspecting the active
// revocation list. All endpoints require the "admin" role.
func RegisterRevocationRoutes(g *echo.Group, store RevocationStore) {
	authGroup := g.Group("/auth", RequireRole("admin"))

	authGroup.POST("/revoke", handleRevokeToken(store))
	authGroup.GET("/revocations", handleListRevocations(store))
}

func handleRevokeToken(store RevocationStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req revokeTokenRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		if req.JTI == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "jti is required")
		}

		if req.ExpiresAt.IsZero() {
			// Without a known expiry, hold the revocation for a full day.
			req.ExpiresAt = time.Now().Add(24 * time.Hour)
		}

		if err := store.Revoke(c.Request().Context(), req.JTI, req.UserID, req.ExpiresAt); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to revoke token")
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func handleListRevocations(store RevocationStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries, err := store.Entries(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list revocations")
		}
		return c.JSON(http.StatusOK, revocationListResponse{
			Count:   len(entries),
			Entries: entries,
		})
	}
}
