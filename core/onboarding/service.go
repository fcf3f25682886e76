package onboarding

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

var (
	// errors
	ErrSessionNotFound   = errors.New("onboarding session not found")
	ErrInvalidTransition = errors.New("invalid onboarding transition")
	ErrNotACandidate     = errors.New("this person is not among the reviewed candidates")
)

// Outcomes of a completed session
const (
	OutcomeExisting = "existing"
	OutcomeCreated  = "created"
)

type (
	// SessionStore persists sessions between staff requests.
	SessionStore interface {
		Save(ctx context.Context, sess Session) error
		// Get returns ErrSessionNotFound for unknown or expired sessions.
		Get(ctx context.Context, id string) (Session, error)
		Delete(ctx context.Context, id string) error
	}

	Registry interface {
		Search(ctx context.Context, term string) ([]person.Person, error)
		CheckDuplicate(ctx context.Context, c person.Contact) (person.Person, bool, error)
		GetOrCreate(ctx context.Context, cand person.Candidate) (person.Person, bool, error)
		Get(ctx context.Context, globalID string) (person.Person, error)
		FindSimilar(ctx context.Context, cand person.Candidate) ([]person.Similar, error)
	}

	Aggregator interface {
		AddLink(ctx context.Context, personGlobalID, schoolID string, d link.Details) (link.Link, error)
		Aggregate(ctx context.Context, personGlobalID string) (link.View, error)
	}

	SchoolGetter interface {
		Get(ctx context.Context, id string) (school.School, error)
		GetStudent(ctx context.Context, id string) (school.Student, error)
	}

	Deps struct {
		Validate *validator.Validate
		Metrics  core.Metrics
		Logger   core.Logger
	}

	// Workflow drives staff through finding or creating an identity, then linking it to their school.
	Workflow struct {
		store    SessionStore
		registry Registry
		links    Aggregator
		schools  SchoolGetter
		deps     Deps
	}
)

func NewWorkflow(store SessionStore, registry Registry, links Aggregator, schools SchoolGetter, deps Deps) *Workflow {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(registry, "registry"),
		vala.IsNotNil(links, "links"),
		vala.IsNotNil(schools, "schools"),
		vala.IsNotNil(deps.Validate, "deps.Validate"),
		vala.IsNotNil(deps.Logger, "deps.Logger"),
	).CheckAndPanic()

	if deps.Metrics == nil {
		deps.Metrics = core.NopMetrics
	}
	return &Workflow{store: store, registry: registry, links: links, schools: schools, deps: deps}
}

func invalidTransition(op string, from State) error {
	return errors.Wrapf(ErrInvalidTransition, "cannot %s from %s", op, from)
}

func stateIn(st State, allowed ...State) bool {
	for _, a := range allowed {
		if st == a {
			return true
		}
	}
	return false
}

func (wf *Workflow) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	return errors.Wrap(wf.store.Save(ctx, *sess), "saving onboarding session")
}

// fail records err on the session without touching its state, then returns err.
func (wf *Workflow) fail(ctx context.Context, sess *Session, err error) error {
	sess.LastError = err.Error()
	if sErr := wf.save(ctx, sess); sErr != nil {
		actor, _ := core.ActorFrom(ctx)
		wf.deps.Logger.Error("recording onboarding failure", sErr, actor)
	}
	return err
}

// Start opens a new session for the school (and student, for guardians).
func (wf *Workflow) Start(ctx context.Context, ns NewSession) (Session, error) {
	if err := ns.Validate(wf.deps.Validate); err != nil {
		return Session{}, err
	}
	if _, err := wf.schools.Get(ctx, ns.SchoolID); err != nil {
		return Session{}, err
	}
	if ns.StudentID != "" {
		std, err := wf.schools.GetStudent(ctx, ns.StudentID)
		if err != nil {
			return Session{}, err
		}
		if std.SchoolID != ns.SchoolID {
			return Session{}, core.NewNotFoundError("student", ns.StudentID)
		}
	}

	now := time.Now().UTC()
	sess := Session{
		ID:         ulid.Make().String(),
		SchoolID:   ns.SchoolID,
		LinkType:   ns.LinkType,
		StudentID:  ns.StudentID,
		State:      StateIdle,
		Candidates: []person.Person{},
		CreatedAt:  now,
	}
	if actor, ok := core.ActorFrom(ctx); ok {
		sess.StaffID = actor.ID
	}
	if err := wf.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get returns the session identified by id or a core.NotFoundError.
func (wf *Workflow) Get(ctx context.Context, id string) (Session, error) {
	sess, err := wf.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Session{}, core.NewNotFoundError("onboarding session", id)
		}
		return Session{}, errors.Wrap(err, "getting onboarding session")
	}
	return sess, nil
}

// Search looks up candidates for term and moves the session to reviewing_candidates.
func (wf *Workflow) Search(ctx context.Context, id, term string) (Session, error) {
	sess, err := wf.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !stateIn(sess.State, StateIdle, StateReviewing, StateConfirmedExisting, StateCreatingNew) {
		return sess, invalidTransition("search", sess.State)
	}

	prev := sess.State
	sess.State = StateSearching
	candidates, err := wf.registry.Search(ctx, term)
	if err != nil {
		sess.State = prev
		return sess, wf.fail(ctx, &sess, err)
	}

	sess.State = StateReviewing
	sess.Term = core.CleanString(term)
	sess.Candidates = candidates
	sess.Selected, sess.Summary = nil, nil
	sess.LastError = ""
	if err = wf.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// SelectExisting confirms an existing identity: one of the reviewed candidates, or the identity a
// duplicate check warned about. Its cross-school summary is attached to the session.
func (wf *Workflow) SelectExisting(ctx context.Context, id, globalID string) (Session, error) {
	sess, err := wf.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	warned := sess.DuplicateWarning != nil && sess.DuplicateWarning.GlobalID == globalID
	switch {
	case sess.State == StateReviewing:
		if !warned && !hasCandidate(sess.Candidates, globalID) {
			return sess, wf.fail(ctx, &sess, core.NewValidationError(
				ErrNotACandidate,
				core.FieldError{Field: "global_id", Error: ErrNotACandidate.Error()},
			))
		}
	case (sess.State == StateIdle || sess.State == StateCreatingNew) && warned:
	default:
		return sess, invalidTransition("select an existing person", sess.State)
	}

	p, err := wf.registry.Get(ctx, globalID)
	if err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}
	summary, err := wf.links.Aggregate(ctx, globalID)
	if err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}

	sess.State = StateConfirmedExisting
	sess.Selected = &p
	sess.Summary = &summary
	sess.Draft = nil
	sess.LastError = ""
	if err = wf.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func hasCandidate(candidates []person.Person, globalID string) bool {
	for _, c := range candidates {
		if c.GlobalID == globalID {
			return true
		}
	}
	return false
}

// DeclareNew records the details of a person to create on submit.
// Identities with a similar name are listed as hints; a contact match is recorded as a duplicate warning.
func (wf *Workflow) DeclareNew(ctx context.Context, id string, cand person.Candidate) (Session, error) {
	sess, err := wf.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !stateIn(sess.State, StateIdle, StateReviewing, StateCreatingNew) {
		return sess, invalidTransition("declare a new person", sess.State)
	}

	cand.SchoolID = sess.SchoolID
	if err = cand.Validate(wf.deps.Validate); err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}
	similar, err := wf.registry.FindSimilar(ctx, cand)
	if err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}
	dup, found, err := wf.registry.CheckDuplicate(ctx, cand.Contact())
	if err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}

	sess.State = StateCreatingNew
	sess.Draft = &cand
	sess.SimilarNames = similar
	sess.DuplicateWarning = nil
	if found {
		sess.DuplicateWarning = &dup
	}
	sess.Selected, sess.Summary = nil, nil
	sess.LastError = ""
	if err = wf.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// CheckForDuplicate looks up an identity holding the given contact details, without changing state.
// A match is recorded as the session's duplicate warning.
func (wf *Workflow) CheckForDuplicate(ctx context.Context, id string, c person.Contact) (Session, error) {
	sess, err := wf.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateCompleted {
		return sess, invalidTransition("check for duplicates", sess.State)
	}

	dup, found, err := wf.registry.CheckDuplicate(ctx, c)
	if err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}
	sess.DuplicateWarning = nil
	if found {
		sess.DuplicateWarning = &dup
	}
	sess.LastError = ""
	if err = wf.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Submit links the confirmed (or newly created) identity to the session's school and completes the session.
func (wf *Workflow) Submit(ctx context.Context, id string, d link.Details) (Session, error) {
	sess, err := wf.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !stateIn(sess.State, StateConfirmedExisting, StateCreatingNew) {
		return sess, invalidTransition("submit", sess.State)
	}

	if d.Type == "" {
		d.Type = sess.LinkType
	}
	if d.Type != sess.LinkType {
		return sess, wf.fail(ctx, &sess, core.NewValidationError(nil,
			core.FieldError{Field: "type", Error: "link type must be " + sess.LinkType},
		))
	}
	if d.StudentID == "" {
		d.StudentID = sess.StudentID
	}

	var (
		p       person.Person
		created bool
	)
	switch sess.State {
	case StateConfirmedExisting:
		p = *sess.Selected
	case StateCreatingNew:
		p, created, err = wf.registry.GetOrCreate(ctx, *sess.Draft)
		if err != nil {
			return sess, wf.fail(ctx, &sess, err)
		}
	}

	l, err := wf.links.AddLink(ctx, p.GlobalID, sess.SchoolID, d)
	if err != nil {
		return sess, wf.fail(ctx, &sess, err)
	}

	sess.State = StateCompleted
	sess.Result = &Result{Person: p, Created: created, Link: l}
	sess.LastError = ""
	if err = wf.save(ctx, &sess); err != nil {
		return Session{}, err
	}

	outcome := OutcomeExisting
	if created {
		outcome = OutcomeCreated
	}
	wf.deps.Metrics.OnboardingFinished(outcome)
	return sess, nil
}

// Cancel drops the session.
func (wf *Workflow) Cancel(ctx context.Context, id string) error {
	if _, err := wf.Get(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(wf.store.Delete(ctx, id), "deleting onboarding session")
}
