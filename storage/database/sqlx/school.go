package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database"
)

const (
	schoolColumns  = "id, code, name, city, is_active, created_at"
	studentColumns = "id, school_id, given_name, family_name, class_name, is_active, created_at"
)

type schoolRepository struct {
	repo
	schools  string
	students string
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB, br *database.Breaker, tables core.TableNames) *schoolRepository {
	return &schoolRepository{
		repo:     repo{db: db, br: br},
		schools:  pq.QuoteIdentifier(tables.Schools),
		students: pq.QuoteIdentifier(tables.Students),
	}
}

func (r *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6) RETURNING %s`,
		r.schools, schoolColumns, schoolColumns)

	var created school.School
	if err := r.get(ctx, &created, q, sch.ID, sch.Code, sch.Name, sch.City, sch.IsActive, sch.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return school.School{}, school.ErrCodeExists
		}
		return school.School{}, err
	}
	created.CreatedAt = created.CreatedAt.UTC()
	return created, nil
}

func (r *schoolRepository) getSchoolBy(ctx context.Context, col, val string) (school.School, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", schoolColumns, r.schools, col)

	var sch school.School
	if err := r.get(ctx, &sch, q, val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, err
	}
	sch.CreatedAt = sch.CreatedAt.UTC()
	return sch, nil
}

func (r *schoolRepository) GetSchool(ctx context.Context, id string) (school.School, error) {
	return r.getSchoolBy(ctx, "id", id)
}

func (r *schoolRepository) GetSchoolByCode(ctx context.Context, code string) (school.School, error) {
	return r.getSchoolBy(ctx, "upper(code)", code)
}

func (r *schoolRepository) QuerySchools(ctx context.Context, filter school.QueryFilter) ([]school.School, error) {
	var w where
	if filter.Search != "" {
		pattern := w.arg(containsPattern(filter.Search))
		w.add(fmt.Sprintf("(lower(code) LIKE %[1]s OR lower(name) LIKE %[1]s OR lower(city) LIKE %[1]s)", pattern))
	}
	if filter.IsActive != nil {
		w.add("is_active = " + w.arg(*filter.IsActive))
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY name, code", schoolColumns, r.schools, w.String())

	schools := make([]school.School, 0)
	if err := r.selectAll(ctx, &schools, q, w.args...); err != nil {
		return nil, err
	}
	for i := range schools {
		schools[i].CreatedAt = schools[i].CreatedAt.UTC()
	}
	return schools, nil
}

func (r *schoolRepository) CreateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s`,
		r.students, studentColumns, studentColumns)

	var created school.Student
	err := r.get(ctx, &created, q,
		std.ID, std.SchoolID, std.GivenName, std.FamilyName, std.ClassName, std.IsActive, std.CreatedAt,
	)
	if err != nil {
		return school.Student{}, err
	}
	created.CreatedAt = created.CreatedAt.UTC()
	return created, nil
}

func (r *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", studentColumns, r.students)

	var std school.Student
	if err := r.get(ctx, &std, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, err
	}
	std.CreatedAt = std.CreatedAt.UTC()
	return std, nil
}

func (r *schoolRepository) QueryStudents(ctx context.Context, schoolID string) ([]school.Student, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE school_id = $1 ORDER BY created_at, id", studentColumns, r.students)

	students := make([]school.Student, 0)
	if err := r.selectAll(ctx, &students, q, schoolID); err != nil {
		return nil, err
	}
	for i := range students {
		students[i].CreatedAt = students[i].CreatedAt.UTC()
	}
	return students, nil
}
