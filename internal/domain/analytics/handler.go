package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehms/ehms/internal/platform/auth"
)

// Handler serves the read-only dashboards and the analytics overview. There
// is no service layer: these are plain aggregation reads with no domain
// rules beyond the role gates.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the dashboard and analytics routes. The admin
// dashboard and the overview are admin-only; the employee dashboard is open
// to every authenticated role.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	anyRole := auth.RequireRole("admin", "doctor", "technician", "employee")

	api.GET("/dashboard/admin", h.AdminDashboard, auth.RequireRole("admin"))
	api.GET("/dashboard/employee", h.EmployeeDashboard, anyRole)
	api.GET("/analytics", h.Overview, auth.RequireRole("admin"))
}

func (h *Handler) AdminDashboard(c echo.Context) error {
	d, err := h.repo.AdminDashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build dashboard")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) EmployeeDashboard(c echo.Context) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	d, err := h.repo.EmployeeDashboard(c.Request().Context(), claims.EmployeeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build dashboard")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Overview(c echo.Context) error {
	o, err := h.repo.Overview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build analytics")
	}
	return c.JSON(http.StatusOK, o)
}
