package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gradebook/internal/model"
	"github.com/lib/pq"
)

const teacherColumns = `id, first_name, last_name, email, subject, password_hash, created_at, updated_at`

// PostgresTeacherRepo はPostgreSQLを使用した教員リポジトリ。
type PostgresTeacherRepo struct {
	db *sql.DB
}

// NewPostgresTeacherRepo はPostgresTeacherRepoを生成する。
func NewPostgresTeacherRepo(db *sql.DB) *PostgresTeacherRepo {
	return &PostgresTeacherRepo{db: db}
}

func scanTeacher(row rowScanner) (*model.Teacher, error) {
	t := &model.Teacher{}
	var hash sql.NullString
	var subject string
	if err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Email, &subject, &hash, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Subject = model.Subject(subject)
	if hash.Valid {
		t.PasswordHash = &hash.String
	}
	return t, nil
}

// FindByID は指定IDの教員を取得する。見つからない場合はnilを返す。
func (r *PostgresTeacherRepo) FindByID(ctx context.Context, id int64) (*model.Teacher, error) {
	t, err := scanTeacher(r.db.QueryRowContext(ctx,
		`SELECT `+teacherColumns+` FROM teachers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find teacher by ID: %w", err)
	}
	return t, nil
}

// FindByIDs は指定IDの教員をまとめて取得する。
func (r *PostgresTeacherRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Teacher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+teacherColumns+` FROM teachers WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

// List は全教員をID順に返す。
func (r *PostgresTeacherRepo) List(ctx context.Context) ([]*model.Teacher, error) {
	return r.query(ctx, `SELECT `+teacherColumns+` FROM teachers ORDER BY id`)
}

func (r *PostgresTeacherRepo) query(ctx context.Context, q string, args ...any) ([]*model.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teachers: %w", err)
	}
	return teachers, nil
}

// Create は教員を作成する。
func (r *PostgresTeacherRepo) Create(ctx context.Context, t *model.Teacher) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO teachers (first_name, last_name, email, subject, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.FirstName, t.LastName, t.Email, string(t.Subject), t.PasswordHash,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert teacher: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TeacherRepository = (*PostgresTeacherRepo)(nil)
