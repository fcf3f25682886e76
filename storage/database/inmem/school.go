package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

type schoolRepository struct {
	schools  *schoolTable
	students *studentTable
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{schools: db.school, students: db.student}
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.schools.Lock()
	defer repo.schools.Unlock()

	for _, s := range repo.schools.table {
		if strings.EqualFold(s.Code, sch.Code) {
			return school.School{}, school.ErrCodeExists
		}
	}
	repo.schools.table[sch.ID] = &sch
	repo.schools.seq[sch.ID] = len(repo.schools.seq) + 1
	return sch, nil
}

func (repo *schoolRepository) GetSchool(_ context.Context, id string) (school.School, error) {
	repo.schools.RLock()
	defer repo.schools.RUnlock()

	if sch, ok := repo.schools.table[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) GetSchoolByCode(_ context.Context, code string) (school.School, error) {
	repo.schools.RLock()
	defer repo.schools.RUnlock()

	for _, sch := range repo.schools.table {
		if strings.EqualFold(sch.Code, code) {
			return *sch, nil
		}
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) QuerySchools(_ context.Context, filter school.QueryFilter) ([]school.School, error) {
	repo.schools.RLock()
	defer repo.schools.RUnlock()

	search := strings.ToLower(filter.Search)
	schools := make([]school.School, 0, len(repo.schools.table))
	for _, sch := range repo.schools.table {
		if filter.IsActive != nil && sch.IsActive != *filter.IsActive {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(sch.Code), search) &&
			!strings.Contains(strings.ToLower(sch.Name), search) &&
			!strings.Contains(strings.ToLower(sch.City), search) {
			continue
		}
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool {
		if schools[i].Name == schools[j].Name {
			return schools[i].Code < schools[j].Code
		}
		return schools[i].Name < schools[j].Name
	})
	return schools, nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, std school.Student) (school.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	repo.students.table[std.ID] = &std
	repo.students.seq[std.ID] = len(repo.students.seq) + 1
	return std, nil
}

func (repo *schoolRepository) GetStudent(_ context.Context, id string) (school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	if std, ok := repo.students.table[id]; ok {
		return *std, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QueryStudents(_ context.Context, schoolID string) ([]school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	students := make([]school.Student, 0)
	for _, std := range repo.students.table {
		if std.SchoolID == schoolID {
			students = append(students, *std)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		return repo.students.seq[students[i].ID] < repo.students.seq[students[j].ID]
	})
	return students, nil
}
