package teacher

import (
	"context"
	"strings"
	"testing"

	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/repository"
)

// --- モック ---

type mockTeacherRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.Teacher, error)
	listFn     func(ctx context.Context) ([]*model.Teacher, error)
	createFn   func(ctx context.Context, t *model.Teacher) error
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id int64) (*model.Teacher, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockTeacherRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Teacher, error) {
	return nil, nil
}
func (m *mockTeacherRepo) List(ctx context.Context) ([]*model.Teacher, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockTeacherRepo) Create(ctx context.Context, t *model.Teacher) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

type mockSectionRepo struct {
	listFn func(ctx context.Context, filter repository.SectionFilter) ([]*model.Section, error)
}

func (m *mockSectionRepo) FindByID(ctx context.Context, id int64) (*model.Section, error) {
	return nil, nil
}
func (m *mockSectionRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Section, error) {
	return nil, nil
}
func (m *mockSectionRepo) List(ctx context.Context, filter repository.SectionFilter) ([]*model.Section, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}
func (m *mockSectionRepo) Create(ctx context.Context, s *model.Section) error { return nil }
func (m *mockSectionRepo) Update(ctx context.Context, s *model.Section) error { return nil }
func (m *mockSectionRepo) DeleteByID(ctx context.Context, id int64) error     { return nil }

type mockHasher struct{}

func (mockHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

type trimCleaner struct{}

func (trimCleaner) Clean(raw string) string { return strings.TrimSpace(raw) }

// --- テスト ---

// TestService_Create は教科とパスワード付きで教員を作成できることを検証する。
func TestService_Create(t *testing.T) {
	repo := &mockTeacherRepo{
		createFn: func(_ context.Context, tc *model.Teacher) error {
			tc.ID = 5
			return nil
		},
	}
	svc := NewService(repo, &mockSectionRepo{}, mockHasher{}, trimCleaner{})

	pw := "chalk"
	got, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Subject:   model.SubjectMath,
		Password:  &pw,
	}, nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if got.ID != 5 {
		t.Errorf("ID = %d, want 5", got.ID)
	}
	if got.PasswordHash == nil || *got.PasswordHash != "hashed:chalk" {
		t.Errorf("PasswordHash = %v, want hashed:chalk", got.PasswordHash)
	}
}

// TestService_Create_Invalid は不正な教科やメールアドレスがINVALID_REQUESTになることを検証する。
func TestService_Create_Invalid(t *testing.T) {
	base := CreateInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Subject: model.SubjectMath}

	tests := []struct {
		name   string
		modify func(in *CreateInput)
	}{
		{"unknown subject", func(in *CreateInput) { in.Subject = "Chemistry" }},
		{"empty subject", func(in *CreateInput) { in.Subject = "" }},
		{"bad email", func(in *CreateInput) { in.Email = "grace" }},
		{"blank name", func(in *CreateInput) { in.LastName = "  " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.modify(&in)
			svc := NewService(&mockTeacherRepo{}, &mockSectionRepo{}, mockHasher{}, trimCleaner{})
			_, err := svc.Create(context.Background(), in, nil)
			if !model.HasCode(err, model.ErrCodeInvalidRequest) {
				t.Errorf("err = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

// TestService_Create_RequiresTeacherOnceStaffed は教員が存在する場合に未認証の作成を拒否することを検証する。
func TestService_Create_RequiresTeacherOnceStaffed(t *testing.T) {
	created := 0
	repo := &mockTeacherRepo{
		listFn: func(context.Context) ([]*model.Teacher, error) {
			return []*model.Teacher{{ID: 5, FirstName: "Grace", LastName: "Hopper"}}, nil
		},
		createFn: func(_ context.Context, tc *model.Teacher) error {
			created++
			tc.ID = 6
			return nil
		},
	}
	svc := NewService(repo, &mockSectionRepo{}, mockHasher{}, trimCleaner{})
	in := CreateInput{FirstName: "Edsger", LastName: "Dijkstra", Email: "edsger@example.com", Subject: model.SubjectMath}

	if _, err := svc.Create(context.Background(), in, nil); !model.HasCode(err, model.ErrCodeUnauthorized) {
		t.Errorf("err = %v, want UNAUTHORIZED", err)
	}
	if created != 0 {
		t.Fatalf("Create called %d times, want 0", created)
	}

	got, err := svc.Create(context.Background(), in, &model.Teacher{ID: 5})
	if err != nil {
		t.Fatalf("Create by teacher returned error: %v", err)
	}
	if got.ID != 6 {
		t.Errorf("ID = %d, want 6", got.ID)
	}
}

// TestService_Get_NotFound は存在しない教員がTEACHER_NOT_FOUNDになることを検証する。
func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockTeacherRepo{}, &mockSectionRepo{}, mockHasher{}, trimCleaner{})

	_, err := svc.Get(context.Background(), 42)
	if !model.IsNotFound(err, model.EntityTeacher) {
		t.Errorf("err = %v, want teacher not found", err)
	}
}

// TestService_ListSections は担当教員IDで絞り込むことを検証する。
func TestService_ListSections(t *testing.T) {
	var gotFilter repository.SectionFilter
	sections := &mockSectionRepo{
		listFn: func(_ context.Context, f repository.SectionFilter) ([]*model.Section, error) {
			gotFilter = f
			return nil, nil
		},
	}
	svc := NewService(&mockTeacherRepo{}, sections, mockHasher{}, trimCleaner{})

	got, err := svc.ListSections(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListSections returned error: %v", err)
	}
	if got == nil {
		t.Error("ListSections should return an empty slice, not nil")
	}
	if gotFilter.TeacherID == nil || *gotFilter.TeacherID != 5 {
		t.Errorf("TeacherID filter = %v, want 5", gotFilter.TeacherID)
	}
	if gotFilter.CourseID != nil {
		t.Errorf("CourseID filter = %v, want nil", *gotFilter.CourseID)
	}
}
