package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ehms/ehms/internal/domain/directory"
	"github.com/ehms/ehms/internal/platform/filestore"
)

// SubjectResolver confirms that an id belongs to a known employee or
// dependent. The directory service satisfies it.
type SubjectResolver interface {
	GetSubject(ctx context.Context, id string) (*directory.Subject, error)
}

// Service provides the report lifecycle: upload with document placement,
// scoped retrieval, soft delete, the metadata audit view, and the
// per-report instruction log.
type Service struct {
	repo     Repository
	store    filestore.Store
	subjects SubjectResolver
	now      func() time.Time
}

func NewService(repo Repository, store filestore.Store, subjects SubjectResolver) *Service {
	return &Service{repo: repo, store: store, subjects: subjects, now: time.Now}
}

// UploadFile is one document of an upload batch.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// UploadInput carries one upload request. Files must already have passed the
// transport-level count/size/content-type checks.
type UploadInput struct {
	SubjectID     string
	ReportType    string
	ReportSubtype string
	UploadedBy    string
	Notes         string
	Files         []UploadFile
}

// UploadedReport describes one successfully committed file of a batch.
type UploadedReport struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
}

// Upload places each file in the document store and records its metadata
// row. Files are independent units: a failure aborts the batch but does not
// roll back files already committed.
func (s *Service) Upload(ctx context.Context, in *UploadInput) ([]UploadedReport, error) {
	if strings.TrimSpace(in.SubjectID) == "" || strings.TrimSpace(in.ReportSubtype) == "" {
		return nil, fmt.Errorf("%w: employee id and report subtype are required", ErrValidation)
	}
	reportType, ok := NormalizeReportType(in.ReportType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, in.ReportType)
	}
	if len(in.Files) == 0 {
		return nil, fmt.Errorf("%w: no files supplied", ErrValidation)
	}

	// The owner may be an employee or a dependent; both live in the same
	// id namespace.
	if _, err := s.subjects.GetSubject(ctx, in.SubjectID); err != nil {
		return nil, err
	}

	committed := make([]UploadedReport, 0, len(in.Files))
	for _, f := range in.Files {
		rep, err := s.placeFile(ctx, in, reportType, f)
		if err != nil {
			return committed, err
		}
		committed = append(committed, UploadedReport{
			ID:       rep.ID,
			FileName: rep.FileName,
			FilePath: rep.FilePath,
		})
	}
	return committed, nil
}

// placeFile writes one document and its metadata row. When the metadata
// insert fails the document is removed again so the store never holds an
// orphaned file.
func (s *Service) placeFile(ctx context.Context, in *UploadInput, reportType string, f UploadFile) (*Report, error) {
	ext := filepath.Ext(f.Name)
	if ext == "" {
		ext = ".pdf"
	}
	fileName := fmt.Sprintf("%s_%s_%s%s",
		in.SubjectID, sanitizeSubtype(in.ReportSubtype), uploadStamp(s.now()), ext)
	relPath := path.Join(in.SubjectID, reportType, fileName)

	if _, err := s.store.Save(relPath, f.Content); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpload, f.Name, err)
	}

	rep := &Report{
		EmployeeID:    in.SubjectID,
		ReportType:    reportType,
		ReportSubtype: in.ReportSubtype,
		FileName:      fileName,
		FilePath:      relPath,
		Notes:         optionalNotes(in.Notes),
		UploadedBy:    in.UploadedBy,
	}
	if err := s.repo.CreateReport(ctx, rep); err != nil {
		if rmErr := s.store.Remove(relPath); rmErr != nil && !errors.Is(rmErr, filestore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v (orphan cleanup failed: %v)", ErrUpload, f.Name, err, rmErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpload, f.Name, err)
	}
	return rep, nil
}

// uploadStamp renders a millisecond timestamp safe for filenames.
func uploadStamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format("20060102T150405.000"), ".", "") + "Z"
}

func sanitizeSubtype(subtype string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(subtype))
	if clean == "" {
		return "report"
	}
	return clean
}

func optionalNotes(notes string) *string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil
	}
	return &notes
}

// Fetch returns a subject's live reports. An empty result is not an error.
func (s *Service) Fetch(ctx context.Context, subjectID string) ([]*Report, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrValidation)
	}
	return s.repo.ListReports(ctx, subjectID)
}

// View resolves a live report scoped to the subject and opens its document.
// The caller owns the returned reader.
func (s *Service) View(ctx context.Context, reportID int64, subjectID string) (*Report, io.ReadCloser, error) {
	rep, err := s.repo.GetReportForSubject(ctx, reportID, subjectID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(rep.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open report document %s: %w", rep.FilePath, err)
	}
	return rep, rc, nil
}

// Delete marks a live report deleted. The row and the document stay.
func (s *Service) Delete(ctx context.Context, reportID int64, deletedBy, reason string) error {
	if strings.TrimSpace(deletedBy) == "" {
		return fmt.Errorf("%w: deleted_by is required", ErrValidation)
	}
	return s.repo.SoftDeleteReport(ctx, reportID, deletedBy, reason)
}

// Metadata returns the raw row regardless of deletion state.
func (s *Service) Metadata(ctx context.Context, reportID int64) (*Report, error) {
	return s.repo.GetReportMetadata(ctx, reportID)
}

// AddInstruction attaches an instruction to an existing report.
func (s *Service) AddInstruction(ctx context.Context, reportID int64, instruction, createdBy string) (*Instruction, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("%w: instruction text is required", ErrValidation)
	}
	if _, err := s.repo.GetReportMetadata(ctx, reportID); err != nil {
		return nil, err
	}
	in := &Instruction{
		ReportID:    reportID,
		Instruction: strings.TrimSpace(instruction),
		CreatedBy:   createdBy,
	}
	if err := s.repo.CreateInstruction(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Instructions returns a report's full instruction log, newest first.
func (s *Service) Instructions(ctx context.Context, reportID int64) ([]*Instruction, error) {
	return s.repo.ListInstructions(ctx, reportID)
}

// LatestInstructions returns the most recent instruction of each live report
// belonging to the subject.
func (s *Service) LatestInstructions(ctx context.Context, subjectID string) ([]*Instruction, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrValidation)
	}
	return s.repo.LatestInstructions(ctx, subjectID)
}
