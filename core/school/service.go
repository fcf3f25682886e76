package school

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

var (
	// errors
	ErrNotFound        = errors.New("school not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrCodeExists      = errors.New("a school with this code already exists")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchool(ctx context.Context, id string) (School, error)
		GetSchoolByCode(ctx context.Context, code string) (School, error)
		// QuerySchools returns schools ordered by name.
		// QueryFilter.Search does a case-insensitive match on one of School.Code, School.Name or School.City.
		QuerySchools(ctx context.Context, filter QueryFilter) ([]School, error)
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, schoolID string) ([]Student, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return School{}, err
	}
	sch, err := svc.repo.CreateSchool(ctx, School{
		ID:        ulid.Make().String(),
		Code:      ns.Code,
		Name:      ns.Name,
		City:      ns.City,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrCodeExists) {
			return School{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return School{}, errors.Wrap(err, "creating school")
	}
	return sch, nil
}

// Get returns the School identified by id or a core.NotFoundError.
func (svc *Service) Get(ctx context.Context, id string) (School, error) {
	sch, err := svc.repo.GetSchool(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return School{}, core.NewNotFoundError("school", id)
		}
		return School{}, errors.Wrap(err, "getting school")
	}
	return sch, nil
}

func (svc *Service) GetByCode(ctx context.Context, code string) (School, error) {
	code = strings.ToUpper(core.CleanString(code))
	sch, err := svc.repo.GetSchoolByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return School{}, core.NewNotFoundError("school", code)
		}
		return School{}, errors.Wrap(err, "getting school by code")
	}
	return sch, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]School, error) {
	filter.Clean()
	return svc.repo.QuerySchools(ctx, filter)
}

// AddStudent enrols a new Student at the School identified by schoolID.
func (svc *Service) AddStudent(ctx context.Context, schoolID string, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if _, err := svc.Get(ctx, schoolID); err != nil {
		return Student{}, err
	}
	std, err := svc.repo.CreateStudent(ctx, Student{
		ID:         ulid.Make().String(),
		SchoolID:   schoolID,
		GivenName:  ns.GivenName,
		FamilyName: ns.FamilyName,
		ClassName:  ns.ClassName,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	})
	return std, errors.Wrap(err, "creating student")
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return Student{}, core.NewNotFoundError("student", id)
		}
		return Student{}, errors.Wrap(err, "getting student")
	}
	return std, nil
}

func (svc *Service) QueryStudents(ctx context.Context, schoolID string) ([]Student, error) {
	if _, err := svc.Get(ctx, schoolID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudents(ctx, schoolID)
}
