package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gradebook/internal/model"
	"github.com/lib/pq"
)

const studentColumns = `id, first_name, last_name, email, password_hash, created_at, updated_at`

// PostgresStudentRepo はPostgreSQLを使用した生徒リポジトリ。
type PostgresStudentRepo struct {
	db *sql.DB
}

// NewPostgresStudentRepo はPostgresStudentRepoを生成する。
func NewPostgresStudentRepo(db *sql.DB) *PostgresStudentRepo {
	return &PostgresStudentRepo{db: db}
}

func scanStudent(row rowScanner) (*model.Student, error) {
	s := &model.Student{}
	var hash sql.NullString
	if err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &hash, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if hash.Valid {
		s.PasswordHash = &hash.String
	}
	return s, nil
}

// FindByID は指定IDの生徒を取得する。見つからない場合はnilを返す。
func (r *PostgresStudentRepo) FindByID(ctx context.Context, id int64) (*model.Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find student by ID: %w", err)
	}
	return s, nil
}

// FindByIDs は指定IDの生徒をまとめて取得する。
func (r *PostgresStudentRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

// List は全生徒をID順に返す。
func (r *PostgresStudentRepo) List(ctx context.Context) ([]*model.Student, error) {
	return r.query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
}

func (r *PostgresStudentRepo) query(ctx context.Context, q string, args ...any) ([]*model.Student, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

// Create は生徒を作成する。
func (r *PostgresStudentRepo) Create(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO students (first_name, last_name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		s.FirstName, s.LastName, s.Email, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	return nil
}

// Update は生徒の氏名とメールアドレスを更新する。
func (r *PostgresStudentRepo) Update(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE students SET first_name = $1, last_name = $2, email = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING updated_at`,
		s.FirstName, s.LastName, s.Email, s.ID,
	).Scan(&s.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("student %d: %w", s.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// UpdatePasswordHash は生徒のパスワードハッシュを置き換える。
func (r *PostgresStudentRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE students SET password_hash = $1, updated_at = now() WHERE id = $2`,
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return expectOneRow(result, "student", id)
}

// DeleteByID は指定IDの生徒を削除する。
func (r *PostgresStudentRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return expectOneRow(result, "student", id)
}

// expectOneRow は更新系クエリが1行に作用したことを確認する。
// 0行の場合はErrNotFoundをラップして返す。
func expectOneRow(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

// compile-time interface check
var _ StudentRepository = (*PostgresStudentRepo)(nil)
