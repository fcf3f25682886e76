package onboarding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
	"github.com/Pensezy/EduTrack-CM-sub003/tests"
)

type fixture struct {
	env     *testutil.Env
	ctx     context.Context
	school  school.School
	student school.Student
}

func newFixture(t *testing.T) fixture {
	env := testutil.NewEnv(nil)
	sch := testutil.CreateSchool(t, env.SchoolRepo, "LBD", "Lycee Bilingue de Deido")
	return fixture{
		env:     env,
		ctx:     testutil.StaffContext(sch.ID),
		school:  sch,
		student: testutil.CreateStudent(t, env.SchoolRepo, sch.ID, "Junior", "Nkomo"),
	}
}

func (f fixture) start(t *testing.T, linkType string) onboarding.Session {
	t.Helper()
	ns := onboarding.NewSession{SchoolID: f.school.ID, LinkType: linkType}
	if linkType == link.TypeGuardian {
		ns.StudentID = f.student.ID
	}
	sess, err := f.env.Onboarding.Start(f.ctx, ns)
	require.NoError(t, err)
	return sess
}

func TestWorkflow_Start(t *testing.T) {
	f := newFixture(t)
	other := testutil.CreateSchool(t, f.env.SchoolRepo, "CETIC", "CETIC Bepanda")

	tests := []struct {
		name         string
		ns           onboarding.NewSession
		wantNotFound bool
		wantErr      bool
	}{
		{name: "guardian", ns: onboarding.NewSession{SchoolID: f.school.ID, LinkType: "Guardian", StudentID: f.student.ID}},
		{name: "assignment", ns: onboarding.NewSession{SchoolID: f.school.ID, LinkType: link.TypeAssignment}},
		{name: "unknown link type", ns: onboarding.NewSession{SchoolID: f.school.ID, LinkType: "janitor"}, wantErr: true},
		{name: "unknown school", ns: onboarding.NewSession{SchoolID: "nope", LinkType: link.TypeAssignment}, wantNotFound: true},
		{
			name: "student of another school", ns: onboarding.NewSession{SchoolID: other.ID, LinkType: link.TypeGuardian, StudentID: f.student.ID},
			wantNotFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := f.env.Onboarding.Start(f.ctx, tt.ns)
			switch {
			case tt.wantNotFound:
				assert.True(t, core.IsNotFound(err))
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, onboarding.StateIdle, sess.State)
				assert.NotEmpty(t, sess.ID)
				assert.NotEmpty(t, sess.StaffID)

				stored, err := f.env.Onboarding.Get(f.ctx, sess.ID)
				require.NoError(t, err)
				assert.Equal(t, sess.ID, stored.ID)
			}
		})
	}
}

func TestWorkflow_existingPerson(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreatePerson(t, f.env.PersonRepo, "Pierre", "Nkomo", "p.nkomo@gmail.com", "")
	sess := f.start(t, link.TypeGuardian)

	sess, err := f.env.Onboarding.Search(f.ctx, sess.ID, " nkomo ")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateReviewing, sess.State)
	assert.Equal(t, "nkomo", sess.Term)
	require.Len(t, sess.Candidates, 1)

	stranger := testutil.CreatePerson(t, f.env.PersonRepo, "Eve", "Stranger", "eve@mail.cm", "")
	_, err = f.env.Onboarding.SelectExisting(f.ctx, sess.ID, stranger.GlobalID)
	assert.ErrorIs(t, err, onboarding.ErrNotACandidate)
	stored, err := f.env.Onboarding.Get(f.ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateReviewing, stored.State, "a failure leaves the state unchanged")
	assert.NotEmpty(t, stored.LastError)

	sess, err = f.env.Onboarding.SelectExisting(f.ctx, sess.ID, p.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateConfirmedExisting, sess.State)
	assert.Empty(t, sess.LastError)
	require.NotNil(t, sess.Summary)
	assert.Equal(t, p.GlobalID, sess.Summary.Person.GlobalID)

	sess, err = f.env.Onboarding.Submit(f.ctx, sess.ID, link.Details{IsPrimaryContact: true})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCompleted, sess.State)
	require.NotNil(t, sess.Result)
	assert.False(t, sess.Result.Created)
	assert.Equal(t, f.student.ID, sess.Result.Link.StudentID)
	assert.True(t, sess.Result.Link.IsPrimaryContact)

	view, err := f.env.Links.Aggregate(f.ctx, p.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalLinks)

	// completed sessions are frozen
	_, err = f.env.Onboarding.Search(f.ctx, sess.ID, "nkomo")
	assert.ErrorIs(t, err, onboarding.ErrInvalidTransition)
	_, err = f.env.Onboarding.CheckForDuplicate(f.ctx, sess.ID, person.Contact{Email: "x@y.cm"})
	assert.ErrorIs(t, err, onboarding.ErrInvalidTransition)
}

func TestWorkflow_newPerson(t *testing.T) {
	f := newFixture(t)
	sess := f.start(t, link.TypeAssignment)

	sess, err := f.env.Onboarding.DeclareNew(f.ctx, sess.ID, person.Candidate{
		GivenName:       "Claire",
		FamilyName:      "Ewane",
		Phone:           "+237 677 12 34 56",
		Specializations: []string{"Physics"},
	})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCreatingNew, sess.State)
	require.NotNil(t, sess.Draft)
	assert.Equal(t, f.school.ID, sess.Draft.SchoolID)
	assert.Nil(t, sess.DuplicateWarning)

	// type mismatch is refused and recorded
	_, err = f.env.Onboarding.Submit(f.ctx, sess.ID, link.Details{Type: link.TypeGuardian})
	assert.Error(t, err)

	sess, err = f.env.Onboarding.Submit(f.ctx, sess.ID, link.Details{Subjects: []string{"Physics"}, WeeklyHours: 8})
	require.NoError(t, err)
	require.NotNil(t, sess.Result)
	assert.True(t, sess.Result.Created)
	assert.Equal(t, person.LocalID("LBD", sess.Result.Person.GlobalID), sess.Result.Person.LocalID)
	assert.Equal(t, 8.0, sess.Result.Link.WeeklyHours)
}

func TestWorkflow_duplicateWarning(t *testing.T) {
	f := newFixture(t)
	existing := testutil.CreatePerson(t, f.env.PersonRepo, "Pierre", "Nkomo", "p.nkomo@gmail.com", "+237 699 99 99 99")
	sess := f.start(t, link.TypeGuardian)

	// declared new, but the email is known
	sess, err := f.env.Onboarding.DeclareNew(f.ctx, sess.ID, person.Candidate{
		GivenName: "Pierre", FamilyName: "Nkomo", Email: "P.Nkomo@gmail.com", Phone: "+237 6 00 00 00 00",
	})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCreatingNew, sess.State)
	require.NotNil(t, sess.DuplicateWarning)
	assert.Equal(t, existing.GlobalID, sess.DuplicateWarning.GlobalID)
	require.Len(t, sess.SimilarNames, 1)

	// the manual check works at any point before submission
	sess, err = f.env.Onboarding.CheckForDuplicate(f.ctx, sess.ID, person.Contact{Phone: "237699999999"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateCreatingNew, sess.State)
	require.NotNil(t, sess.DuplicateWarning)

	// only the warned identity can be selected from creating_new
	other := testutil.CreatePerson(t, f.env.PersonRepo, "Other", "Person", "other@mail.cm", "")
	_, err = f.env.Onboarding.SelectExisting(f.ctx, sess.ID, other.GlobalID)
	assert.ErrorIs(t, err, onboarding.ErrInvalidTransition)

	sess, err = f.env.Onboarding.SelectExisting(f.ctx, sess.ID, existing.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateConfirmedExisting, sess.State)
	assert.Nil(t, sess.Draft)

	sess, err = f.env.Onboarding.Submit(f.ctx, sess.ID, link.Details{})
	require.NoError(t, err)
	assert.False(t, sess.Result.Created)
	assert.Equal(t, existing.GlobalID, sess.Result.Person.GlobalID)
}

func TestWorkflow_selectWarnedFromIdle(t *testing.T) {
	f := newFixture(t)
	existing := testutil.CreatePerson(t, f.env.PersonRepo, "Marie", "Ebode", "marie.ebode@mail.cm", "")
	sess := f.start(t, link.TypeGuardian)

	sess, err := f.env.Onboarding.CheckForDuplicate(f.ctx, sess.ID, person.Contact{Email: "Marie.Ebode@mail.cm"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateIdle, sess.State)
	require.NotNil(t, sess.DuplicateWarning)

	other := testutil.CreatePerson(t, f.env.PersonRepo, "Other", "Person", "other@mail.cm", "")
	_, err = f.env.Onboarding.SelectExisting(f.ctx, sess.ID, other.GlobalID)
	assert.ErrorIs(t, err, onboarding.ErrInvalidTransition)

	sess, err = f.env.Onboarding.SelectExisting(f.ctx, sess.ID, existing.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StateConfirmedExisting, sess.State)
	require.NotNil(t, sess.Selected)
	assert.Equal(t, existing.GlobalID, sess.Selected.GlobalID)
}

func TestWorkflow_transitions(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		op   func(id string) error
	}{
		{name: "submit from idle", op: func(id string) error {
			_, err := f.env.Onboarding.Submit(f.ctx, id, link.Details{})
			return err
		}},
		{name: "select from idle", op: func(id string) error {
			_, err := f.env.Onboarding.SelectExisting(f.ctx, id, "x")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := f.start(t, link.TypeAssignment)
			err := tt.op(sess.ID)
			assert.ErrorIs(t, err, onboarding.ErrInvalidTransition)

			stored, err := f.env.Onboarding.Get(f.ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, onboarding.StateIdle, stored.State)
			assert.Empty(t, stored.LastError)
		})
	}

	t.Run("declare new after reviewing", func(t *testing.T) {
		sess := f.start(t, link.TypeAssignment)
		sess, err := f.env.Onboarding.Search(f.ctx, sess.ID, "nobody")
		require.NoError(t, err)
		assert.Empty(t, sess.Candidates)

		sess, err = f.env.Onboarding.DeclareNew(f.ctx, sess.ID, person.Candidate{GivenName: "New", Email: "new@mail.cm"})
		require.NoError(t, err)
		assert.Equal(t, onboarding.StateCreatingNew, sess.State)

		// back to searching is allowed
		sess, err = f.env.Onboarding.Search(f.ctx, sess.ID, "new")
		require.NoError(t, err)
		assert.Equal(t, onboarding.StateReviewing, sess.State)
	})

	t.Run("invalid candidate is recorded", func(t *testing.T) {
		sess := f.start(t, link.TypeAssignment)
		_, err := f.env.Onboarding.DeclareNew(f.ctx, sess.ID, person.Candidate{GivenName: "No contact"})
		require.Error(t, err)

		stored, err := f.env.Onboarding.Get(f.ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, onboarding.StateIdle, stored.State)
		assert.NotEmpty(t, stored.LastError)
	})

	t.Run("cancel", func(t *testing.T) {
		sess := f.start(t, link.TypeAssignment)
		require.NoError(t, f.env.Onboarding.Cancel(f.ctx, sess.ID))
		_, err := f.env.Onboarding.Get(f.ctx, sess.ID)
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(f.env.Onboarding.Cancel(f.ctx, sess.ID)))
	})
}
