package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pensezy/EduTrack-CM-sub003/apps/di"
	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
	"github.com/Pensezy/EduTrack-CM-sub003/services/email"
	"github.com/Pensezy/EduTrack-CM-sub003/services/events"
	"github.com/Pensezy/EduTrack-CM-sub003/services/logger"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database/inmem"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/sessions"
)

// Env holds the services of the application wired over in-memory storage.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *inmemdb.DB
	Mail       *emailsvc.ConsoleServiceMock
	Events     *eventsvc.RecordingPublisher
	Sessions   *sessions.MemoryStore

	SchoolRepo school.Repository
	PersonRepo person.Repository
	LinkRepo   link.Repository

	Schools    *school.Service
	Registry   *person.Registry
	Links      *link.Aggregator
	Onboarding *onboarding.Workflow
}

func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
}

// NewEnv returns a fresh Env; m may be nil.
func NewEnv(m core.Metrics) *Env {
	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	validate, translator := di.NewValidator()
	db := inmemdb.Open()

	env := &Env{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		DB:         db,
		Mail:       emailsvc.NewConsoleServiceMock(conf, logger),
		Events:     eventsvc.NewRecordingPublisher(),
		Sessions:   sessions.NewMemoryStore(conf.Redis.SessionTTL),
		SchoolRepo: inmemdb.NewSchoolRepository(db),
		PersonRepo: inmemdb.NewPersonRepository(db),
		LinkRepo:   inmemdb.NewLinkRepository(db),
	}

	env.Schools = school.NewService(env.SchoolRepo, validate)
	env.Registry = person.NewRegistry(env.PersonRepo, env.Schools, person.Deps{
		Validate:   validate,
		Translator: translator,
		Events:     env.Events,
		Metrics:    m,
		Logger:     logger,
	}, conf.Registry)
	env.Links = link.NewAggregator(env.LinkRepo, env.Registry, env.Schools, link.Deps{
		Validate: validate,
		MailSvc:  env.Mail,
		Events:   env.Events,
		Metrics:  m,
		Logger:   logger,
	}, conf.Registry)
	env.Onboarding = onboarding.NewWorkflow(env.Sessions, env.Registry, env.Links, env.Schools, onboarding.Deps{
		Validate: validate,
		Metrics:  m,
		Logger:   logger,
	})
	return env
}

// StaffContext returns a context carrying a secretary of schoolID.
func StaffContext(schoolID string) context.Context {
	return core.WithActor(context.Background(), core.Actor{
		ID:       uuid.NewString(),
		Name:     "Staff",
		Email:    "staff@test.cm",
		SchoolID: schoolID,
		Roles:    []string{"secretary:"},
	})
}

func CreateSchool(t *testing.T, repo school.Repository, code, name string) school.School {
	t.Helper()
	sch, err := repo.CreateSchool(context.Background(), school.School{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		City:      "Douala",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateStudent(t *testing.T, repo school.Repository, schoolID, givenName, familyName string) school.Student {
	t.Helper()
	std, err := repo.CreateStudent(context.Background(), school.Student{
		ID:         uuid.NewString(),
		SchoolID:   schoolID,
		GivenName:  givenName,
		FamilyName: familyName,
		ClassName:  "CM2",
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreatePerson(t *testing.T, repo person.Repository, givenName, familyName, email, phone string) person.Person {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreatePerson(context.Background(), person.Person{
		GlobalID:        uuid.NewString(),
		GivenName:       givenName,
		FamilyName:      familyName,
		Email:           email,
		Phone:           phone,
		Specializations: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreatePerson() failed: %v", err)
	}
	return p
}
