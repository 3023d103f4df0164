package directory

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehms/ehms/internal/platform/auth"
)

// Handler provides HTTP handlers for the identity directory.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the directory routes. Reads are open to every
// authenticated role; create and update are admin-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := auth.RequireRole("admin")
	anyRole := auth.RequireRole("admin", "doctor", "technician", "employee")

	api.GET("/allemployees", h.ListEmployees, anyRole)
	api.GET("/checkAccess", h.CheckAccess, anyRole)

	api.POST("/employee", h.AddEmployee, admin)
	api.PUT("/employee/:employeeId", h.UpdateEmployee, admin)
	api.GET("/employee/:employeeId", h.GetSubject, anyRole)
	api.GET("/employee/:employeeId/family", h.GetFamily, anyRole)

	api.GET("/doctors", h.ListDoctors, anyRole)
	api.GET("/technicians", h.ListTechnicians, auth.RequireRole("admin", "technician", "doctor"))
}

func (h *Handler) GetSubject(c echo.Context) error {
	subject, err := h.svc.GetSubject(c.Request().Context(), c.Param("employeeId"))
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "employee or dependent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve subject")
	}
	if subject.Kind == SubjectDependent {
		return c.JSON(http.StatusOK, subject.Dependent)
	}
	return c.JSON(http.StatusOK, subject.Employee)
}

func (h *Handler) ListEmployees(c echo.Context) error {
	listings, err := h.svc.ListEmployees(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list employees")
	}
	if len(listings) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no employees found")
	}
	return c.JSON(http.StatusOK, listings)
}

func (h *Handler) AddEmployee(c echo.Context) error {
	var in EmployeeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.AddEmployee(c.Request().Context(), &in); err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateEmployee):
			return echo.NewHTTPError(http.StatusConflict, "employee id already exists")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create employee")
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":              true,
		"employee_id":          in.EmployeeID,
		"family_members_added": len(in.FamilyMembers),
	})
}

func (h *Handler) UpdateEmployee(c echo.Context) error {
	var in EmployeeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.UpdateEmployee(c.Request().Context(), c.Param("employeeId"), &in); err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSubjectNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update employee")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":              true,
		"message":              "employee and family members updated",
		"updatedFamilyMembers": len(in.FamilyMembers),
	})
}

func (h *Handler) GetFamily(c echo.Context) error {
	family, err := h.svc.FamilyMembers(c.Request().Context(), c.Param("employeeId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch family members")
	}
	if family == nil {
		family = []*Dependent{}
	}
	return c.JSON(http.StatusOK, family)
}

func (h *Handler) CheckAccess(c echo.Context) error {
	employeeID := c.QueryParam("employee_id")
	dependentID := c.QueryParam("dependent_id")

	ok, err := h.svc.CheckFamilyAccess(c.Request().Context(), employeeID, dependentID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "missing required parameters")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "error checking family member access")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"isFamilyMember": ok,
		"employeeId":     employeeID,
		"dependentId":    dependentID,
	})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return h.listByRole(c, "DOCTOR", "no doctors found")
}

func (h *Handler) ListTechnicians(c echo.Context) error {
	return h.listByRole(c, "TECHNICIAN", "no technicians found")
}

func (h *Handler) listByRole(c echo.Context, role, emptyMsg string) error {
	employees, err := h.svc.ListByRole(c.Request().Context(), role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list employees")
	}
	if len(employees) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, emptyMsg)
	}
	return c.JSON(http.StatusOK, employees)
}
