package school_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
	"github.com/Pensezy/EduTrack-CM-sub003/tests"
)

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		ns        school.NewSchool
		wantCode  string
		wantField string
	}{
		{name: "ok", ns: school.NewSchool{Code: " lbd ", Name: " Lycee Bilingue de Deido ", City: "Douala"}, wantCode: "LBD"},
		{name: "duplicate code", ns: school.NewSchool{Code: "LBD", Name: "Other"}, wantField: "code"},
		{name: "code not alphanumeric", ns: school.NewSchool{Code: "L-B", Name: "Other"}, wantField: "code"},
		{name: "blank name", ns: school.NewSchool{Code: "X1", Name: "   "}, wantField: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sch, err := env.Schools.Create(ctx, tt.ns)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCode, sch.Code)
				assert.Equal(t, "Lycee Bilingue de Deido", sch.Name)
				assert.True(t, sch.IsActive)
				return
			}

			require.Error(t, err)
			var fields []string
			switch e := err.(type) {
			case *core.ValidationError:
				for _, f := range e.Fields {
					fields = append(fields, f.Field)
				}
			case validator.ValidationErrors:
				for _, f := range e {
					fields = append(fields, f.Field())
				}
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(nil)
	ctx := context.Background()
	lbd := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")
	cetic := testutil.CreateSchool(t, env.SchoolRepo, "CETIC", "CETIC Bepanda")

	all, err := env.Schools.Query(ctx, school.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, cetic.ID, all[0].ID, "ordered by name")

	found, err := env.Schools.Query(ctx, school.QueryFilter{Search: " deido "})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, lbd.ID, found[0].ID)

	byCode, err := env.Schools.GetByCode(ctx, "cetic")
	require.NoError(t, err)
	assert.Equal(t, cetic.ID, byCode.ID)

	_, err = env.Schools.Get(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))
}

func TestService_students(t *testing.T) {
	env := testutil.NewEnv(nil)
	ctx := context.Background()
	sch := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")

	std, err := env.Schools.AddStudent(ctx, sch.ID, school.NewStudent{GivenName: " Junior ", FamilyName: "Nkomo", ClassName: "6e A"})
	require.NoError(t, err)
	assert.Equal(t, "Junior Nkomo", std.FullName())
	assert.Equal(t, sch.ID, std.SchoolID)

	got, err := env.Schools.GetStudent(ctx, std.ID)
	require.NoError(t, err)
	assert.Equal(t, std.ID, got.ID)

	students, err := env.Schools.QueryStudents(ctx, sch.ID)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = env.Schools.AddStudent(ctx, "unknown", school.NewStudent{GivenName: "X"})
	assert.True(t, core.IsNotFound(err))
	_, err = env.Schools.GetStudent(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))
	_, err = env.Schools.QueryStudents(ctx, "unknown")
	assert.True(t, core.IsNotFound(err))
}
