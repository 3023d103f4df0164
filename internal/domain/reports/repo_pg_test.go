package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRepoPG_SoftDelete_AlreadyDeleted(t *testing.T) {
	mock := newMockPool(t)

	// The WHERE clause excludes already-deleted rows, so the update touches
	// nothing.
	mock.ExpectExec("UPDATE reports_metadata").
		WithArgs(int64(7), "A400001", "misfiled").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepoPG(mock)
	err := repo.SoftDeleteReport(context.Background(), 7, "A400001", "misfiled")
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepoPG_GetReportForSubject_NotFound(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery("SELECT (.+) FROM reports_metadata").
		WithArgs(int64(7), "L100001").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	repo := NewRepoPG(mock)
	_, err := repo.GetReportForSubject(context.Background(), 7, "L100001")
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepoPG_CreateReport_FillsGeneratedFields(t *testing.T) {
	mock := newMockPool(t)

	uploadedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO reports_metadata").
		WithArgs("L100001", "Lab", "Blood Test", "L100001_Blood-Test_1.pdf",
			"L100001/Lab/L100001_Blood-Test_1.pdf", pgxmock.AnyArg(), "T300001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "uploaded_at"}).
			AddRow(int64(11), uploadedAt))

	repo := NewRepoPG(mock)
	rep := &Report{
		EmployeeID:    "L100001",
		ReportType:    "Lab",
		ReportSubtype: "Blood Test",
		FileName:      "L100001_Blood-Test_1.pdf",
		FilePath:      "L100001/Lab/L100001_Blood-Test_1.pdf",
		UploadedBy:    "T300001",
	}
	if err := repo.CreateReport(context.Background(), rep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ID != 11 {
		t.Errorf("expected generated id 11, got %d", rep.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
