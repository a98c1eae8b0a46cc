package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/gradebook/internal/model"
)

var teacherCols = []string{"id", "first_name", "last_name", "email", "subject", "password_hash", "created_at", "updated_at"}

func TestPostgresTeacherRepo_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM teachers WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(teacherCols).AddRow(5, "Grace", "Hopper", "grace@example.com", "Math", "$2a$10$hash", now, now))

	got, err := NewPostgresTeacherRepo(db).FindByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected teacher")
	}
	if got.Subject != model.SubjectMath {
		t.Errorf("Subject = %q, want %q", got.Subject, model.SubjectMath)
	}
	if got.PasswordHash == nil || *got.PasswordHash != "$2a$10$hash" {
		t.Errorf("PasswordHash = %v, want hash", got.PasswordHash)
	}
}

func TestPostgresTeacherRepo_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM teachers WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	got, err := NewPostgresTeacherRepo(db).FindByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestPostgresTeacherRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM teachers ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(teacherCols).
			AddRow(5, "Grace", "Hopper", "grace@example.com", "Math", nil, now, now).
			AddRow(6, "Jane", "Austen", "jane@example.com", "English", nil, now, now))

	got, err := NewPostgresTeacherRepo(db).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Subject != model.SubjectEnglish {
		t.Errorf("Subject = %q, want %q", got[1].Subject, model.SubjectEnglish)
	}
}

func TestPostgresTeacherRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO teachers`).
		WithArgs("Grace", "Hopper", "grace@example.com", "Math", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, now, now))

	teacher := &model.Teacher{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Subject: model.SubjectMath}
	if err := NewPostgresTeacherRepo(db).Create(context.Background(), teacher); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if teacher.ID != 5 {
		t.Errorf("ID = %d, want 5", teacher.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
