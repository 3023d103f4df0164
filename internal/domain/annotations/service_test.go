package annotations

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockRepo struct {
	rows   []*Annotation
	nextID int64
}

func (m *mockRepo) Create(_ context.Context, a *Annotation) error {
	m.nextID++
	a.ID = m.nextID
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.UpdatedBy = a.CreatedBy
	cp := *a
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *mockRepo) ListByEmployee(_ context.Context, employeeID string) ([]*Annotation, error) {
	var result []*Annotation
	for _, a := range m.rows {
		if a.EmployeeID == employeeID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockRepo) Latest(_ context.Context, employeeID string) (*Annotation, error) {
	var latest *Annotation
	for _, a := range m.rows {
		if a.EmployeeID != employeeID {
			continue
		}
		if latest == nil || a.UpdatedAt.After(latest.UpdatedAt) ||
			(a.UpdatedAt.Equal(latest.UpdatedAt) && a.ID > latest.ID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, ErrAnnotationNotFound
	}
	return latest, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, value, updatedBy string) (*Annotation, error) {
	for _, a := range m.rows {
		if a.ID == id {
			a.Value = value
			a.UpdatedBy = updatedBy
			a.UpdatedAt = time.Now()
			return a, nil
		}
	}
	return nil, ErrAnnotationNotFound
}

func newTestService() (*Service, *mockRepo) {
	repo := &mockRepo{}
	return NewService(repo, Allergies), repo
}

func TestCreate_AppendsEntry(t *testing.T) {
	svc, repo := newTestService()

	a, err := svc.Create(context.Background(), "L100001", "  Penicillin ", "D200001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Value != "Penicillin" {
		t.Errorf("expected trimmed value, got %q", a.Value)
	}
	if a.UpdatedBy != "D200001" {
		t.Errorf("expected updated_by stamped from creator, got %q", a.UpdatedBy)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.rows))
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", "Penicillin", "D200001"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing employee id, got %v", err)
	}
	if _, err := svc.Create(ctx, "L100001", "   ", "D200001"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank value, got %v", err)
	}
}

func TestLatest_EmptyRegister(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Latest(context.Background(), "L100001")
	if !errors.Is(err, ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound, got %v", err)
	}
}

func TestLatest_TieBreaksOnID(t *testing.T) {
	svc, repo := newTestService()

	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	repo.rows = []*Annotation{
		{ID: 1, EmployeeID: "L100001", Value: "Penicillin", UpdatedAt: ts},
		{ID: 2, EmployeeID: "L100001", Value: "Sulfa", UpdatedAt: ts},
	}

	a, err := svc.Latest(context.Background(), "L100001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != 2 {
		t.Errorf("expected highest id to win the tie, got %d", a.ID)
	}
}

func TestUpdate_OverwritesInPlace(t *testing.T) {
	svc, repo := newTestService()

	a, err := svc.Create(context.Background(), "L100001", "Penicillin", "D200001")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), a.ID, "Amoxicillin", "D200002")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Value != "Amoxicillin" || updated.UpdatedBy != "D200002" {
		t.Errorf("unexpected updated row: %+v", updated)
	}
	if len(repo.rows) != 1 {
		t.Errorf("update must not append, got %d rows", len(repo.rows))
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Update(context.Background(), 42, "Amoxicillin", "D200001")
	if !errors.Is(err, ErrAnnotationNotFound) {
		t.Fatalf("expected ErrAnnotationNotFound, got %v", err)
	}
}
