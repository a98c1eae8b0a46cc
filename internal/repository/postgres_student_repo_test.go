package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var studentCols = []string{"id", "first_name", "last_name", "email", "password_hash", "created_at", "updated_at"}

func TestPostgresStudentRepo_FindByID_NullPasswordHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM students WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow(1, "Ada", "Lovelace", "ada@example.com", nil, now, now))

	s, err := NewPostgresStudentRepo(db).FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if s == nil {
		t.Fatal("expected student")
	}
	if s.PasswordHash != nil {
		t.Errorf("PasswordHash = %q, want nil", *s.PasswordHash)
	}
	if s.FullName() != "Ada Lovelace" {
		t.Errorf("FullName() = %q, want %q", s.FullName(), "Ada Lovelace")
	}
}

func TestPostgresStudentRepo_FindByIDs_EmptyInputSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	got, err := NewPostgresStudentRepo(db).FindByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStudentRepo_FindByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM students WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(studentCols).
			AddRow(1, "Ada", "Lovelace", "ada@example.com", "$2a$10$hash", now, now).
			AddRow(2, "Alan", "Turing", "alan@example.com", nil, now, now))

	got, err := NewPostgresStudentRepo(db).FindByIDs(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].PasswordHash == nil {
		t.Error("first student should carry a password hash")
	}
}

func TestPostgresStudentRepo_UpdatePasswordHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE students SET password_hash = \$1`).
		WithArgs("$2a$10$new", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPostgresStudentRepo(db).UpdatePasswordHash(context.Background(), 1, "$2a$10$new"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
}

func TestPostgresStudentRepo_FindByID_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM students WHERE id = \$1`).WillReturnError(boom)

	_, err = NewPostgresStudentRepo(db).FindByID(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
