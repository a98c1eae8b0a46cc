package enrollment

import (
	"context"
	"fmt"
	"sort"

	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/repository"
)

// --- インメモリリポジトリ ---

type memStudents struct {
	rows map[int64]*model.Student
}

func (m *memStudents) FindByID(_ context.Context, id int64) (*model.Student, error) {
	return m.rows[id], nil
}
func (m *memStudents) FindByIDs(_ context.Context, ids []int64) ([]*model.Student, error) {
	var out []*model.Student
	for _, id := range uniqueSorted(ids) {
		if s, ok := m.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *memStudents) List(context.Context) ([]*model.Student, error) { return nil, nil }
func (m *memStudents) Create(context.Context, *model.Student) error { return nil }
func (m *memStudents) Update(context.Context, *model.Student) error { return nil }
func (m *memStudents) UpdatePasswordHash(context.Context, int64, string) error {
	return nil
}
func (m *memStudents) DeleteByID(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

type memTeachers struct {
	rows map[int64]*model.Teacher
}

func (m *memTeachers) FindByID(_ context.Context, id int64) (*model.Teacher, error) {
	return m.rows[id], nil
}
func (m *memTeachers) FindByIDs(_ context.Context, ids []int64) ([]*model.Teacher, error) {
	var out []*model.Teacher
	for _, id := range uniqueSorted(ids) {
		if t, ok := m.rows[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTeachers) List(context.Context) ([]*model.Teacher, error) { return nil, nil }
func (m *memTeachers) Create(context.Context, *model.Teacher) error { return nil }

type memCourses struct {
	rows map[int64]*model.Course
}

func (m *memCourses) FindByID(_ context.Context, id int64) (*model.Course, error) {
	return m.rows[id], nil
}
func (m *memCourses) FindByIDs(_ context.Context, ids []int64) ([]*model.Course, error) {
	var out []*model.Course
	for _, id := range uniqueSorted(ids) {
		if c, ok := m.rows[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memCourses) List(context.Context) ([]*model.Course, error) { return nil, nil }
func (m *memCourses) Create(context.Context, *model.Course) error { return nil }

type memSections struct {
	rows map[int64]*model.Section
}

func (m *memSections) FindByID(_ context.Context, id int64) (*model.Section, error) {
	return m.rows[id], nil
}
func (m *memSections) FindByIDs(_ context.Context, ids []int64) ([]*model.Section, error) {
	var out []*model.Section
	for _, id := range uniqueSorted(ids) {
		if s, ok := m.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *memSections) List(context.Context, repository.SectionFilter) ([]*model.Section, error) {
	return nil, nil
}
func (m *memSections) Create(context.Context, *model.Section) error { return nil }
func (m *memSections) Update(context.Context, *model.Section) error { return nil }
func (m *memSections) DeleteByID(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

// memEnrollments は(student_id, section_id)の一意制約を再現する。
type memEnrollments struct {
	rows   map[int64]*model.Enrollment
	nextID int64
}

func (m *memEnrollments) FindByID(_ context.Context, id int64) (*model.Enrollment, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}
func (m *memEnrollments) FindByStudentAndSection(_ context.Context, studentID, sectionID int64) (*model.Enrollment, error) {
	for _, e := range m.rows {
		if e.StudentID == studentID && e.SectionID == sectionID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}
func (m *memEnrollments) Create(_ context.Context, e *model.Enrollment) error {
	for _, existing := range m.rows {
		if existing.StudentID == e.StudentID && existing.SectionID == e.SectionID {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}
func (m *memEnrollments) DeleteByID(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("enrollment %d: %w", id, repository.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}
func (m *memEnrollments) ListByStudentID(_ context.Context, studentID int64) ([]*model.Enrollment, error) {
	return m.filter(func(e *model.Enrollment) bool { return e.StudentID == studentID }), nil
}
func (m *memEnrollments) ListBySectionID(_ context.Context, sectionID int64) ([]*model.Enrollment, error) {
	return m.filter(func(e *model.Enrollment) bool { return e.SectionID == sectionID }), nil
}
func (m *memEnrollments) UpdateGrade(_ context.Context, id int64, grade *string) error {
	e, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("enrollment %d: %w", id, repository.ErrNotFound)
	}
	if grade == nil {
		e.Grade = nil
		return nil
	}
	g := *grade
	e.Grade = &g
	return nil
}

func (m *memEnrollments) filter(keep func(*model.Enrollment) bool) []*model.Enrollment {
	var out []*model.Enrollment
	for _, e := range m.rows {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memEnrollments) count(studentID, sectionID int64) int {
	n := 0
	for _, e := range m.rows {
		if e.StudentID == studentID && e.SectionID == sectionID {
			n++
		}
	}
	return n
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// passthroughCleaner は空文字列をnilにするだけのTextCleaner。
type passthroughCleaner struct{}

func (passthroughCleaner) CleanPtr(raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	v := *raw
	return &v
}

// fixture は生徒1、教員5と6、科目100、クラス10（教員5担当）を持つ状態を作る。
type fixture struct {
	students    *memStudents
	teachers    *memTeachers
	courses     *memCourses
	sections    *memSections
	enrollments *memEnrollments
	svc         *Service
}

func newFixture() *fixture {
	f := &fixture{
		students: &memStudents{rows: map[int64]*model.Student{
			1: {ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			2: {ID: 2, FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
		}},
		teachers: &memTeachers{rows: map[int64]*model.Teacher{
			5: {ID: 5, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Subject: model.SubjectMath},
			6: {ID: 6, FirstName: "Edsger", LastName: "Dijkstra", Email: "edsger@example.com", Subject: model.SubjectMath},
		}},
		courses: &memCourses{rows: map[int64]*model.Course{
			100: {ID: 100, Title: "Algebra I"},
		}},
		sections: &memSections{rows: map[int64]*model.Section{
			10: {ID: 10, Name: "Period 1", CourseID: 100, TeacherID: 5},
		}},
		enrollments: &memEnrollments{rows: map[int64]*model.Enrollment{}},
	}
	f.svc = NewService(f.enrollments, f.students, f.sections, f.courses, f.teachers, passthroughCleaner{}, nil, Config{})
	return f
}
