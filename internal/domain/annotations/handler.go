package annotations

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehms/ehms/internal/platform/auth"
)

// Handler provides HTTP handlers for one annotation register. The register's
// value travels under its own field name (allergy_name, condition_name,
// notes_name), so responses are rendered through present().
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the register under the given prefix. Writes are for
// doctors and admins; reads are open to every authenticated role.
func (h *Handler) RegisterRoutes(api *echo.Group, prefix string) {
	write := auth.RequireRole("doctor")
	anyRole := auth.RequireRole("admin", "doctor", "technician", "employee")

	g := api.Group(prefix)
	g.POST("", h.Create, write)
	g.GET("/:employeeId", h.List, anyRole)
	g.GET("/latest/:employeeId", h.Latest, anyRole)
	g.PUT("/:id", h.Update, write)
}

// present renders an annotation with the register-specific value field.
func (h *Handler) present(a *Annotation) echo.Map {
	m := echo.Map{
		"id":          a.ID,
		"employee_id": a.EmployeeID,
		"created_by":  a.CreatedBy,
		"created_at":  a.CreatedAt,
		"updated_by":  a.UpdatedBy,
		"updated_at":  a.UpdatedAt,
	}
	m[h.svc.Register().Column] = a.Value
	return m
}

// bindValue extracts the register's value from a request body that may carry
// it under the register field name or a generic "value" key.
func (h *Handler) bindValue(body map[string]interface{}) string {
	if v, ok := body[h.svc.Register().Column].(string); ok {
		return v
	}
	v, _ := body["value"].(string)
	return v
}

func (h *Handler) Create(c echo.Context) error {
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	employeeID, _ := body["employeeId"].(string)
	if employeeID == "" {
		employeeID, _ = body["employee_id"].(string)
	}

	createdBy := ""
	if claims := auth.ClaimsFrom(c); claims != nil {
		createdBy = claims.EmployeeID
	}

	a, err := h.svc.Create(c.Request().Context(), employeeID, h.bindValue(body), createdBy)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create "+h.svc.Register().Name)
	}
	return c.JSON(http.StatusCreated, h.present(a))
}

func (h *Handler) List(c echo.Context) error {
	result, err := h.svc.List(c.Request().Context(), c.Param("employeeId"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list entries")
	}

	out := make([]echo.Map, 0, len(result))
	for _, a := range result {
		out = append(out, h.present(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Latest(c echo.Context) error {
	a, err := h.svc.Latest(c.Request().Context(), c.Param("employeeId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrAnnotationNotFound):
			// An empty register is an empty object, not a 404.
			return c.JSON(http.StatusOK, echo.Map{})
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch latest entry")
		}
	}
	return c.JSON(http.StatusOK, h.present(a))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updatedBy := ""
	if claims := auth.ClaimsFrom(c); claims != nil {
		updatedBy = claims.EmployeeID
	}

	a, err := h.svc.Update(c.Request().Context(), id, h.bindValue(body), updatedBy)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAnnotationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, h.svc.Register().Name+" not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update entry")
		}
	}
	return c.JSON(http.StatusOK, h.present(a))
}
