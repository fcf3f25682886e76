package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
	"github.com/Pensezy/EduTrack-CM-sub003/tests"
)

func Test_schoolApi_schoolCreate(t *testing.T) {
	app, env := setUp(t)
	existing := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")
	token := adminToken(t, env)

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/schools",
			body:     marshalObj(t, school.NewSchool{Code: "CETIC", Name: "CETIC Bepanda"}),
			token:    secretaryToken(t, env, existing.ID),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Invalid code", method: http.MethodPost, path: "/v1/schools", token: token,
			body:     marshalObj(t, school.NewSchool{Code: "LB-D", Name: "Lycee"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Code taken", method: http.MethodPost, path: "/v1/schools", token: token,
			body:     marshalObj(t, school.NewSchool{Code: " lbd ", Name: "Another Lycee"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"code": school.ErrCodeExists.Error()}),
		},
		{
			name: "Created", method: http.MethodPost, path: "/v1/schools", token: token,
			body:     marshalObj(t, school.NewSchool{Code: "cetic", Name: "CETIC Bepanda", City: "Douala"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(app, tt))
		})
	}

	var got []school.School
	decode(t, do(app, httpTest{path: "/v1/schools?search=cetic", token: token}), &got)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "CETIC", got[0].Code)
	}
}

func Test_schoolApi_schoolRetrieve(t *testing.T) {
	app, env := setUp(t)
	sch := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")
	token := secretaryToken(t, env, sch.ID)

	tests := []httpTest{
		{name: "Found", path: "/v1/schools/" + sch.ID, token: token, wantCode: http.StatusOK, wantData: marshalObj(t, sch)},
		{
			name: "Not found", path: "/v1/schools/unknown", token: token, wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "school not found: unknown"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(app, tt))
		})
	}
}

func Test_schoolApi_studentCreate(t *testing.T) {
	app, env := setUp(t)
	sch := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")
	other := testutil.CreateSchool(t, env.SchoolRepo, "CETIC", "CETIC Bepanda")
	path := "/v1/schools/" + sch.ID + "/students"
	body := marshalObj(t, school.NewStudent{GivenName: "Amina", FamilyName: "Njoya", ClassName: "6e"})

	tests := []httpTest{
		{
			name: "Other school's staff", method: http.MethodPost, path: path, body: body,
			token: secretaryToken(t, env, other.ID), wantCode: http.StatusForbidden,
		},
		{
			name: "Blank name", method: http.MethodPost, path: path, token: secretaryToken(t, env, sch.ID),
			body: marshalObj(t, school.NewStudent{GivenName: "  "}), wantCode: http.StatusBadRequest,
		},
		{name: "Created", method: http.MethodPost, path: path, body: body, token: secretaryToken(t, env, sch.ID), wantCode: http.StatusCreated},
		{name: "Admin anywhere", method: http.MethodPost, path: path, body: body, token: adminToken(t, env), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(app, tt))
		})
	}

	var got []school.Student
	decode(t, do(app, httpTest{path: path, token: adminToken(t, env)}), &got)
	assert.Len(t, got, 2)
}
