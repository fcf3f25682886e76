package tests

import (
	"context"
	"database/sql/driver"
	"net/http"
	"testing"

	. "github.com/Pensezy/EduTrack-CM-sub003/apps/api/echo"
	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/services/metrics"
	"github.com/Pensezy/EduTrack-CM-sub003/tests"
)

// downPeople is a person store whose backend cannot be reached.
type downPeople struct {
	person.Repository
}

func (downPeople) QueryPeople(context.Context, person.QueryFilter, int) ([]person.Person, error) {
	return nil, core.NewBackendUnavailableError(driver.ErrBadConn)
}

func (downPeople) GetPerson(context.Context, string) (person.Person, error) {
	return person.Person{}, core.NewBackendUnavailableError(driver.ErrBadConn)
}

func TestServer_backendUnavailable(t *testing.T) {
	env := testutil.NewEnv(nil)
	registry := person.NewRegistry(&downPeople{env.PersonRepo}, env.Schools, person.Deps{
		Validate:   env.Validate,
		Translator: env.Translator,
		Events:     env.Events,
		Logger:     env.Logger,
	}, env.Conf.Registry)
	app := NewServer(ServerDeps{
		Conf:       env.Conf,
		Logger:     env.Logger,
		Validate:   env.Validate,
		Translator: env.Translator,
		Schools:    env.Schools,
		Registry:   registry,
		Links:      env.Links,
		Onboarding: env.Onboarding,
		Metrics:    metricsvc.NewPrometheus(),
	})
	t.Cleanup(func() { _ = app.Close() })

	token := adminToken(t, env)
	wantData := marshalObj(t, httpErr{Error: "service temporarily unavailable, please retry"})

	tests := []httpTest{
		{name: "search", path: "/v1/people?search=mbar", token: token},
		{
			name: "resolve", method: http.MethodPost, path: "/v1/people", token: token,
			body: marshalObj(t, person.Candidate{Email: "a@b.com", Phone: "123"}),
		},
		{
			name: "check duplicate", method: http.MethodPost, path: "/v1/people/check-duplicate", token: token,
			body: marshalObj(t, person.Contact{Email: "a@b.com"}),
		},
		{name: "retrieve", path: "/v1/people/0b3e0c6e-2f0a-4d5e-9a3b-6d1c1f2e3a4b", token: token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.wantCode = http.StatusServiceUnavailable
			tt.wantData = wantData
			checkCodeAndData(t, tt, do(app, tt))
		})
	}
}
