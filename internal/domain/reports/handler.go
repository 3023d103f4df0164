package reports

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehms/ehms/internal/domain/directory"
	"github.com/ehms/ehms/internal/platform/auth"
)

const (
	maxUploadFiles    = 10
	maxUploadFileSize = 3 << 20 // 3MB per file
)

// Handler provides HTTP handlers for the report store and instruction log.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the report routes. Upload is reserved for
// technicians, deletion for technicians and admins, instruction writes for
// doctors; reads are open to every authenticated role.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	anyRole := auth.RequireRole("admin", "doctor", "technician", "employee")

	api.POST("/reports/upload", h.Upload, auth.RequireRole("technician"))
	api.GET("/reports/:employeeId", h.Fetch, anyRole)
	api.GET("/reports/view/:reportId/:employeeId", h.View, anyRole)
	api.GET("/reports/metadata/:reportId", h.Metadata, auth.RequireRole("admin", "technician"))
	api.DELETE("/reports/delete/:reportId", h.Delete, auth.RequireRole("admin", "technician"))

	api.POST("/instructions", h.AddInstruction, auth.RequireRole("doctor"))
	api.GET("/instructions/:reportId", h.ListInstructions, anyRole)
	api.GET("/instructions/latest/:employeeId", h.LatestInstructions, anyRole)
}

func (h *Handler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files supplied")
	}
	if len(headers) > maxUploadFiles {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("at most %d files per upload", maxUploadFiles))
	}
	for _, fh := range headers {
		if fh.Size > maxUploadFileSize {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("file %s exceeds the 3MB limit", fh.Filename))
		}
		if !isPDF(fh) {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("file %s is not a PDF", fh.Filename))
		}
	}

	uploadedBy := c.FormValue("uploaded_by")
	if uploadedBy == "" {
		if claims := auth.ClaimsFrom(c); claims != nil {
			uploadedBy = claims.EmployeeID
		}
	}

	in := &UploadInput{
		SubjectID:     c.FormValue("employeeId"),
		ReportType:    c.FormValue("report_type"),
		ReportSubtype: c.FormValue("report_subtype"),
		UploadedBy:    uploadedBy,
		Notes:         c.FormValue("notes"),
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("failed to read file %s", fh.Filename))
		}
		defer f.Close()
		in.Files = append(in.Files, UploadFile{Name: fh.Filename, Content: f})
	}

	committed, err := h.svc.Upload(c.Request().Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, directory.ErrSubjectNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "employee or dependent not found")
		case errors.Is(err, ErrUpload):
			// Files committed before the failure stay committed.
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"success":  false,
				"message":  err.Error(),
				"uploaded": committed,
			})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to upload reports")
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":  true,
		"uploaded": committed,
	})
}

// isPDF accepts a part only when its declared media type is application/pdf.
// The filename is not consulted: a .pdf extension on a non-PDF part does not
// get it through.
func isPDF(fh *multipart.FileHeader) bool {
	mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/pdf"
}

func (h *Handler) Fetch(c echo.Context) error {
	result, err := h.svc.Fetch(c.Request().Context(), c.Param("employeeId"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch reports")
	}
	if result == nil {
		result = []*Report{}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) View(c echo.Context) error {
	reportID, err := parseReportID(c.Param("reportId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}

	rep, rc, err := h.svc.View(c.Request().Context(), reportID, c.Param("employeeId"))
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open report")
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("inline; filename=%q", rep.FileName))
	return c.Stream(http.StatusOK, "application/pdf", rc)
}

func (h *Handler) Metadata(c echo.Context) error {
	reportID, err := parseReportID(c.Param("reportId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}

	rep, err := h.svc.Metadata(c.Request().Context(), reportID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch report metadata")
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) Delete(c echo.Context) error {
	reportID, err := parseReportID(c.Param("reportId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}

	var body struct {
		DeletedBy    string `json:"deleted_by"`
		DeleteReason string `json:"delete_reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.DeletedBy == "" {
		if claims := auth.ClaimsFrom(c); claims != nil {
			body.DeletedBy = claims.EmployeeID
		}
	}

	if err := h.svc.Delete(c.Request().Context(), reportID, body.DeletedBy, body.DeleteReason); err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrReportNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete report")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "report deleted",
	})
}

func (h *Handler) AddInstruction(c echo.Context) error {
	var body struct {
		ReportID    int64  `json:"reportId"`
		Instruction string `json:"instruction"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	createdBy := ""
	if claims := auth.ClaimsFrom(c); claims != nil {
		createdBy = claims.EmployeeID
	}

	in, err := h.svc.AddInstruction(c.Request().Context(), body.ReportID, body.Instruction, createdBy)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrReportNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to add instruction")
		}
	}
	return c.JSON(http.StatusCreated, in)
}

func (h *Handler) ListInstructions(c echo.Context) error {
	reportID, err := parseReportID(c.Param("reportId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}

	result, err := h.svc.Instructions(c.Request().Context(), reportID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch instructions")
	}
	if result == nil {
		result = []*Instruction{}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) LatestInstructions(c echo.Context) error {
	result, err := h.svc.LatestInstructions(c.Request().Context(), c.Param("employeeId"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch instructions")
	}
	if result == nil {
		result = []*Instruction{}
	}
	return c.JSON(http.StatusOK, result)
}

func parseReportID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}
