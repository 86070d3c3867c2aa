package window

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
)

func newFactory(t *testing.T, now time.Time) (*Factory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	f := NewFactory(repo.NewWindowRepo(db, time.UTC))
	f.Now = func() time.Time { return now }
	return f, mock
}

func TestFactory_Create_Validation(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		targetType string
		targetID   int
		duration   int
		wantField  string
	}{
		{"bad target type", "cluster", 1, 60, "target_type"},
		{"zero target id", "host", 0, 60, "target_id"},
		{"negative target id", "host", -3, 60, "target_id"},
		{"zero duration", "host", 1, 0, "duration"},
		{"negative duration", "host", 1, -10, "duration"},
		{"duration over cap", "host", 1, MaxDurationMinutes + 1, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, mock := newFactory(t, now)
			_, _, err := f.Create(context.Background(), tt.targetType, tt.targetID, tt.duration, "", "alice")

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("storage touched on invalid input: %v", err)
			}
		})
	}
}

func TestFactory_Create_Host(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	f, mock := newFactory(t, now)

	until := now.Add(90 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maintenance_windows").
		WithArgs(until, "patching db1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec("INSERT INTO maintenance_window_host_map").
		WithArgs(42, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, expires, err := f.Create(context.Background(), "host", 7, 90, "patching db1", "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if !expires.Equal(until) {
		t.Errorf("expires = %v, want %v", expires, until)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFactory_Create_GroupWithDefaultDescription(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	f, mock := newFactory(t, now)

	until := now.Add(time.Duration(MaxDurationMinutes) * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maintenance_windows").
		WithArgs(until, DefaultDescription, "bob").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("INSERT INTO maintenance_window_host_group_map").
		WithArgs(9, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, _, err := f.Create(context.Background(), "group", 3, MaxDurationMinutes, "   ", "bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 9 {
		t.Errorf("id = %d, want 9", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFactory_Create_RollsBackOnMappingFailure(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	f, mock := newFactory(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maintenance_windows").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO maintenance_window_host_map").
		WillReturnError(errors.New("host does not exist"))
	mock.ExpectRollback()

	_, _, err := f.Create(context.Background(), "host", 999, 60, "", "alice")
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
