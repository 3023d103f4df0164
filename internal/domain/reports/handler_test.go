package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehms/ehms/internal/platform/auth"
	"github.com/ehms/ehms/internal/platform/filestore"
)

func newHandlerTest() (*Handler, *mockRepo, *filestore.MemStore, *echo.Echo) {
	repo := newMockRepo()
	store := filestore.NewMemStore()
	resolver := &mockResolver{known: map[string]bool{"L100001": true, "L100001WF": true}}
	svc := NewService(repo, store, resolver)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC).
			Add(time.Duration(tick) * time.Millisecond)
	}
	return NewHandler(svc), repo, store, echo.New()
}

type uploadPart struct {
	name        string
	contentType string
	content     string
}

func pdfPart(name, content string) uploadPart {
	return uploadPart{name: name, contentType: "application/pdf", content: content}
}

func multipartUpload(t *testing.T, fields map[string]string, parts []uploadPart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename=%q`, p.name))
		hdr.Set("Content-Type", p.contentType)
		fw, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part %s: %v", p.name, err)
		}
		if _, err := fw.Write([]byte(p.content)); err != nil {
			t.Fatalf("write file %s: %v", p.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func technicianContext(e *echo.Echo, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("claims", &auth.Claims{EmployeeID: "T300001", Name: "Tara", Role: "TECHNICIAN"})
	c.Set("employee_id", "T300001")
	c.Set("role", "TECHNICIAN")
	return c, rec
}

func assertReportHTTPError(t *testing.T, err error, wantCode int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != wantCode {
		t.Fatalf("expected status %d, got %d (%v)", wantCode, he.Code, he.Message)
	}
}

func TestHandlerUpload_TwoPDFs(t *testing.T) {
	h, repo, store, e := newHandlerTest()

	body, contentType := multipartUpload(t, map[string]string{
		"employeeId":     "L100001WF",
		"report_type":    "Lab",
		"report_subtype": "Blood Test",
	}, []uploadPart{
		pdfPart("a.pdf", "first"),
		pdfPart("b.pdf", "second"),
	})
	req := httptest.NewRequest(http.MethodPost, "/reports/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, rec := technicianContext(e, req)

	if err := h.Upload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.reports) != 2 || store.Len() != 2 {
		t.Errorf("expected 2 rows and 2 documents, got %d/%d", len(repo.reports), store.Len())
	}
	for _, r := range repo.reports {
		if r.UploadedBy != "T300001" {
			t.Errorf("expected uploader from token, got %s", r.UploadedBy)
		}
	}
}

func TestHandlerUpload_RejectsNonPDF(t *testing.T) {
	h, _, store, e := newHandlerTest()

	body, contentType := multipartUpload(t, map[string]string{
		"employeeId":     "L100001",
		"report_type":    "Lab",
		"report_subtype": "Blood Test",
	}, []uploadPart{
		{name: "notes.txt", contentType: "text/plain", content: "plain text"},
	})
	req := httptest.NewRequest(http.MethodPost, "/reports/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, _ := technicianContext(e, req)

	assertReportHTTPError(t, h.Upload(c), http.StatusBadRequest)
	if store.Len() != 0 {
		t.Error("expected nothing stored for a rejected upload")
	}
}

func TestHandlerUpload_RejectsPDFExtensionWithWrongContentType(t *testing.T) {
	h, _, store, e := newHandlerTest()

	body, contentType := multipartUpload(t, map[string]string{
		"employeeId":     "L100001",
		"report_type":    "Lab",
		"report_subtype": "Blood Test",
	}, []uploadPart{
		{name: "report.pdf", contentType: "text/plain", content: "not a pdf"},
	})
	req := httptest.NewRequest(http.MethodPost, "/reports/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, _ := technicianContext(e, req)

	assertReportHTTPError(t, h.Upload(c), http.StatusBadRequest)
	if store.Len() != 0 {
		t.Error("expected nothing stored for a rejected upload")
	}
}

func TestHandlerUpload_TooManyFiles(t *testing.T) {
	h, _, _, e := newHandlerTest()

	files := make([]uploadPart, 0, maxUploadFiles+1)
	for i := 0; i <= maxUploadFiles; i++ {
		files = append(files, pdfPart("file"+strings.Repeat("x", i)+".pdf", "doc"))
	}
	body, contentType := multipartUpload(t, map[string]string{
		"employeeId":     "L100001",
		"report_type":    "Lab",
		"report_subtype": "Blood Test",
	}, files)
	req := httptest.NewRequest(http.MethodPost, "/reports/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, _ := technicianContext(e, req)

	assertReportHTTPError(t, h.Upload(c), http.StatusBadRequest)
}

func TestHandlerUpload_UnknownSubject(t *testing.T) {
	h, _, _, e := newHandlerTest()

	body, contentType := multipartUpload(t, map[string]string{
		"employeeId":     "NOBODY",
		"report_type":    "Lab",
		"report_subtype": "Blood Test",
	}, []uploadPart{pdfPart("a.pdf", "doc")})
	req := httptest.NewRequest(http.MethodPost, "/reports/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, _ := technicianContext(e, req)

	assertReportHTTPError(t, h.Upload(c), http.StatusNotFound)
}

func TestHandlerFetch_EmptyList(t *testing.T) {
	h, _, _, e := newHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/reports/L100001", nil)
	c, rec := technicianContext(e, req)
	c.SetParamNames("employeeId")
	c.SetParamValues("L100001")

	if err := h.Fetch(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestHandlerView_StreamsInline(t *testing.T) {
	h, repo, store, e := newHandlerTest()

	if _, err := store.Save("L100001/Lab/L100001_x_1.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	repo.reports[1] = &Report{
		ID: 1, EmployeeID: "L100001", ReportType: "Lab", ReportSubtype: "x",
		FileName: "L100001_x_1.pdf", FilePath: "L100001/Lab/L100001_x_1.pdf",
	}

	req := httptest.NewRequest(http.MethodGet, "/reports/view/1/L100001", nil)
	c, rec := technicianContext(e, req)
	c.SetParamNames("reportId", "employeeId")
	c.SetParamValues("1", "L100001")

	if err := h.View(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(got, "application/pdf") {
		t.Errorf("expected application/pdf, got %s", got)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.HasPrefix(got, "inline;") {
		t.Errorf("expected inline disposition, got %s", got)
	}
	if rec.Body.String() != "%PDF" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHandlerView_WrongSubject(t *testing.T) {
	h, repo, _, e := newHandlerTest()
	repo.reports[1] = &Report{ID: 1, EmployeeID: "L100001", FilePath: "L100001/Lab/x.pdf"}

	req := httptest.NewRequest(http.MethodGet, "/reports/view/1/L200002", nil)
	c, _ := technicianContext(e, req)
	c.SetParamNames("reportId", "employeeId")
	c.SetParamValues("1", "L200002")

	assertReportHTTPError(t, h.View(c), http.StatusNotFound)
}

func TestHandlerDelete_SoftDeletes(t *testing.T) {
	h, repo, _, e := newHandlerTest()
	repo.reports[1] = &Report{ID: 1, EmployeeID: "L100001"}

	req := httptest.NewRequest(http.MethodDelete, "/reports/delete/1",
		strings.NewReader(`{"delete_reason": "misfiled"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := technicianContext(e, req)
	c.SetParamNames("reportId")
	c.SetParamValues("1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	r := repo.reports[1]
	if !r.IsDeleted || r.DeletedBy == nil || *r.DeletedBy != "T300001" {
		t.Error("expected soft delete stamped with the token actor")
	}
}

func TestHandlerDelete_AlreadyDeleted(t *testing.T) {
	h, repo, _, e := newHandlerTest()
	deletedBy := "A400001"
	repo.reports[1] = &Report{ID: 1, EmployeeID: "L100001", IsDeleted: true, DeletedBy: &deletedBy}

	req := httptest.NewRequest(http.MethodDelete, "/reports/delete/1",
		strings.NewReader(`{"deleted_by": "A400002"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := technicianContext(e, req)
	c.SetParamNames("reportId")
	c.SetParamValues("1")

	assertReportHTTPError(t, h.Delete(c), http.StatusNotFound)
	if *repo.reports[1].DeletedBy != "A400001" {
		t.Error("second delete must not restamp the row")
	}
}

func TestHandlerMetadata_IncludesDeleted(t *testing.T) {
	h, repo, _, e := newHandlerTest()
	repo.reports[1] = &Report{ID: 1, EmployeeID: "L100001", IsDeleted: true}

	req := httptest.NewRequest(http.MethodGet, "/reports/metadata/1", nil)
	c, rec := technicianContext(e, req)
	c.SetParamNames("reportId")
	c.SetParamValues("1")

	if err := h.Metadata(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["is_deleted"] != true {
		t.Error("expected deleted row visible through the metadata view")
	}
}

func TestHandlerAddInstruction(t *testing.T) {
	h, repo, _, e := newHandlerTest()
	repo.reports[1] = &Report{ID: 1, EmployeeID: "L100001"}

	req := httptest.NewRequest(http.MethodPost, "/instructions",
		strings.NewReader(`{"reportId": 1, "instruction": "repeat after two weeks"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := technicianContext(e, req)

	if err := h.AddInstruction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(repo.instructions) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(repo.instructions))
	}
	if repo.instructions[0].CreatedBy != "T300001" {
		t.Errorf("expected creator from token, got %s", repo.instructions[0].CreatedBy)
	}
}

func TestHandlerAddInstruction_UnknownReport(t *testing.T) {
	h, _, _, e := newHandlerTest()

	req := httptest.NewRequest(http.MethodPost, "/instructions",
		strings.NewReader(`{"reportId": 42, "instruction": "x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := technicianContext(e, req)

	assertReportHTTPError(t, h.AddInstruction(c), http.StatusNotFound)
}

func TestHandlerListInstructions_Empty(t *testing.T) {
	h, repo, _, e := newHandlerTest()
	repo.reports[1] = &Report{ID: 1, EmployeeID: "L100001"}

	req := httptest.NewRequest(http.MethodGet, "/instructions/1", nil)
	c, rec := technicianContext(e, req)
	c.SetParamNames("reportId")
	c.SetParamValues("1")

	if err := h.ListInstructions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}
