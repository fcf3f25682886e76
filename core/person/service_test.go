package person_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/tests"
)

type metricsMock struct {
	mu       sync.Mutex
	resolved map[bool]int
}

func (m *metricsMock) PersonResolved(created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved == nil {
		m.resolved = make(map[bool]int)
	}
	m.resolved[created]++
}
func (m *metricsMock) LinkCreated(string)        {}
func (m *metricsMock) OnboardingFinished(string) {}

func countPeople(t *testing.T, repo person.Repository) int {
	t.Helper()
	people, err := repo.QueryPeople(context.Background(), person.QueryFilter{}, 0)
	require.NoError(t, err)
	return len(people)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent match", func(t *testing.T) {
		env := testutil.NewEnv(nil)
		cand := person.Candidate{GivenName: "Jean", FamilyName: "Mbarga", Email: "jean@mail.cm", Phone: "+237 699 00 00 01"}

		first, created, err := env.Registry.GetOrCreate(ctx, cand)
		require.NoError(t, err)
		require.True(t, created)
		for i := 0; i < 3; i++ {
			p, created, err := env.Registry.GetOrCreate(ctx, cand)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, first.GlobalID, p.GlobalID)
		}
		assert.Equal(t, 1, countPeople(t, env.PersonRepo))
		assert.Equal(t, []string{core.EventPersonCreated}, env.Events.Types())
	})

	t.Run("disjoint creation", func(t *testing.T) {
		env := testutil.NewEnv(nil)
		x, created, err := env.Registry.GetOrCreate(ctx, person.Candidate{Email: "a@b.com", Phone: "123"})
		require.NoError(t, err)
		require.True(t, created)
		assert.Empty(t, x.FullName())
		y, created, err := env.Registry.GetOrCreate(ctx, person.Candidate{Email: "c@d.com", Phone: "456"})
		require.NoError(t, err)
		require.True(t, created)
		assert.NotEqual(t, x.GlobalID, y.GlobalID)
		assert.Equal(t, 2, countPeople(t, env.PersonRepo))
	})

	t.Run("inclusive-or matching", func(t *testing.T) {
		env := testutil.NewEnv(nil)
		existing := testutil.CreatePerson(t, env.PersonRepo, "Paul", "Nkomo", "p.nkomo@gmail.com", "+237 6 78 90 12 34")

		tests := []struct {
			name string
			cand person.Candidate
		}{
			{name: "same email, other phone", cand: person.Candidate{GivenName: "Paul", Email: "P.Nkomo@Gmail.com", Phone: "+237 6 00 00 00 00"}},
			{name: "same phone, other email", cand: person.Candidate{GivenName: "Paul", Email: "paul@other.cm", Phone: "237678901234"}},
			{name: "same phone only", cand: person.Candidate{GivenName: "P.", Phone: "(237) 678-90-12-34"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p, created, err := env.Registry.GetOrCreate(ctx, tt.cand)
				require.NoError(t, err)
				assert.False(t, created)
				assert.Equal(t, existing, p, "the stored identity is returned unchanged")
			})
		}
		assert.Equal(t, 1, countPeople(t, env.PersonRepo))
	})

	t.Run("phone punctuation styles", func(t *testing.T) {
		env := testutil.NewEnv(nil)
		existing := testutil.CreatePerson(t, env.PersonRepo, "Paul", "Nkomo", "", "237678901234")

		phones := []string{
			"+237/678/90/12/34",
			"237,678,901,234",
			"+237 678 90 12 34",
			"237.678.901.234",
		}
		for _, phone := range phones {
			t.Run(phone, func(t *testing.T) {
				p, created, err := env.Registry.GetOrCreate(ctx, person.Candidate{Phone: phone})
				require.NoError(t, err)
				assert.False(t, created)
				assert.Equal(t, existing.GlobalID, p.GlobalID)

				dup, found, err := env.Registry.CheckDuplicate(ctx, person.Contact{Phone: phone})
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, existing.GlobalID, dup.GlobalID)
			})
		}

		p, created, err := env.Registry.GetOrCreate(ctx, person.Candidate{Phone: "+237 699 11 22 33 ext 45"})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "23769911223345", p.PhoneKey())
		assert.Equal(t, 2, countPeople(t, env.PersonRepo))
	})

	t.Run("invalid candidate", func(t *testing.T) {
		env := testutil.NewEnv(nil)
		_, _, err := env.Registry.GetOrCreate(ctx, person.Candidate{GivenName: "Nobody", Email: "  "})
		require.Error(t, err)
		assert.ErrorIs(t, err, person.ErrInvalidCandidate)

		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		fields := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, f.Field)
		}
		assert.ElementsMatch(t, []string{"email", "phone"}, fields)
		assert.Equal(t, 0, countPeople(t, env.PersonRepo))
	})

	t.Run("local id from origin school", func(t *testing.T) {
		env := testutil.NewEnv(nil)
		sch := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")

		p, _, err := env.Registry.GetOrCreate(ctx, person.Candidate{SchoolID: sch.ID, GivenName: "Awa", Email: "awa@mail.cm"})
		require.NoError(t, err)
		assert.Equal(t, person.LocalID("LBD", p.GlobalID), p.LocalID)
		assert.Equal(t, sch.ID, p.OriginSchoolID)

		_, _, err = env.Registry.GetOrCreate(ctx, person.Candidate{SchoolID: "nope", GivenName: "Eve", Email: "eve@mail.cm"})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("metrics", func(t *testing.T) {
		m := new(metricsMock)
		env := testutil.NewEnv(m)
		cand := person.Candidate{GivenName: "Jean", Email: "jean@mail.cm"}
		for i := 0; i < 2; i++ {
			_, _, err := env.Registry.GetOrCreate(ctx, cand)
			require.NoError(t, err)
		}
		assert.Equal(t, map[bool]int{true: 1, false: 1}, m.resolved)
	})
}

// staleRepo misses the contact lookups, as a concurrent creation would.
type staleRepo struct {
	person.Repository
}

func (r staleRepo) QueryPeople(ctx context.Context, filter person.QueryFilter, limit int) ([]person.Person, error) {
	if filter.HasContact() {
		return nil, nil
	}
	return r.Repository.QueryPeople(ctx, filter, limit)
}

func TestRegistry_GetOrCreate_conflict(t *testing.T) {
	env := testutil.NewEnv(nil)
	existing := testutil.CreatePerson(t, env.PersonRepo, "Jean", "Mbarga", "jean@mail.cm", "")

	reg := person.NewRegistry(&staleRepo{env.PersonRepo}, env.Schools, person.Deps{
		Validate:   env.Validate,
		Translator: env.Translator,
		Logger:     env.Logger,
	}, env.Conf.Registry)

	// the store refuses the duplicate and the lookup keeps missing it
	_, created, err := reg.GetOrCreate(context.Background(), person.Candidate{GivenName: "Jean", Email: "JEAN@mail.cm"})
	assert.False(t, created)
	assert.ErrorIs(t, err, person.ErrContactExists)
	assert.Equal(t, 1, countPeople(t, env.PersonRepo))

	// the stored identity wins once visible
	p, created, err := env.Registry.GetOrCreate(context.Background(), person.Candidate{GivenName: "Jean", Email: "JEAN@mail.cm"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.GlobalID, p.GlobalID)
}

func TestRegistry_FindByContact(t *testing.T) {
	env := testutil.NewEnv(nil)
	ctx := context.Background()
	p := testutil.CreatePerson(t, env.PersonRepo, "Paul", "Nkomo", "p.nkomo@gmail.com", "+237 6 78 90 12 34")

	tests := []struct {
		name         string
		email, phone string
		wantFound    bool
		wantErr      error
	}{
		{name: "phone normalization", phone: "237678901234", wantFound: true},
		{name: "email case", email: "P.NKOMO@gmail.com", wantFound: true},
		{name: "no match", email: "x@y.cm", phone: "111", wantFound: false},
		{name: "empty contact", wantErr: person.ErrInvalidCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := env.Registry.FindByContact(ctx, tt.email, tt.phone)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if found {
				assert.Equal(t, p.GlobalID, got.GlobalID)
			}
		})
	}
}

func TestRegistry_Search(t *testing.T) {
	env := testutil.NewEnv(nil)
	ctx := context.Background()
	mbarga := testutil.CreatePerson(t, env.PersonRepo, "Jean", "Mbarga", "jean@mail.cm", "+237 699 11 22 33")
	testutil.CreatePerson(t, env.PersonRepo, "Marie", "Ngono", "marie@mail.cm", "")

	got, err := env.Registry.Search(ctx, "mbar")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mbarga.GlobalID, got[0].GlobalID)

	got, err = env.Registry.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, err = env.Registry.Search(ctx, "99 11 22")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// bounded result, in insertion order
	first := testutil.CreatePerson(t, env.PersonRepo, "Teacher", "Fotso", "fotso0@mail.cm", "")
	for i := 1; i < 15; i++ {
		testutil.CreatePerson(t, env.PersonRepo, "Teacher", "Fotso", fmt.Sprintf("fotso%d@mail.cm", i), "")
	}
	got, err = env.Registry.Search(ctx, "FOTSO")
	require.NoError(t, err)
	require.Len(t, got, env.Conf.Registry.SearchLimit)
	assert.Equal(t, first.GlobalID, got[0].GlobalID)
}
