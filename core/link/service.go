package link

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

var (
	// errors
	ErrNotFound = errors.New("link not found")
)

const linkCreatedTemplate = "link_created"

type (
	Repository interface {
		CreateLink(ctx context.Context, l Link) (Link, error)
		GetLink(ctx context.Context, id string) (Link, error)
		// QueryLinks returns the links matching filter, in insertion order.
		QueryLinks(ctx context.Context, filter QueryFilter) ([]Link, error)
		// UpdateLink overwrites the stored link (matched on ID).
		UpdateLink(ctx context.Context, l Link) (Link, error)
	}

	PersonGetter interface {
		Get(ctx context.Context, globalID string) (person.Person, error)
	}

	SchoolGetter interface {
		Get(ctx context.Context, id string) (school.School, error)
		GetStudent(ctx context.Context, id string) (school.Student, error)
	}

	Deps struct {
		Validate *validator.Validate
		MailSvc  core.EmailService
		Events   core.EventPublisher
		Metrics  core.Metrics
		Logger   core.Logger
	}

	// Aggregator records the per-school links of identities and summarizes them across schools.
	Aggregator struct {
		repo         Repository
		people       PersonGetter
		schools      SchoolGetter
		deps         Deps
		hoursCeiling float64
	}
)

func NewAggregator(repo Repository, people PersonGetter, schools SchoolGetter, deps Deps, conf core.RegistryConfig) *Aggregator {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(people, "people"),
		vala.IsNotNil(schools, "schools"),
		vala.IsNotNil(deps.Validate, "deps.Validate"),
		vala.IsNotNil(deps.Logger, "deps.Logger"),
	).CheckAndPanic()

	if deps.Metrics == nil {
		deps.Metrics = core.NopMetrics
	}
	return &Aggregator{
		repo:         repo,
		people:       people,
		schools:      schools,
		deps:         deps,
		hoursCeiling: conf.WeeklyHoursCeiling,
	}
}

// checkReferences makes sure the school exists and, for guardian links, that the student is enrolled there.
func (agg *Aggregator) checkReferences(ctx context.Context, schoolID string, d Details) (school.School, school.Student, error) {
	sch, err := agg.schools.Get(ctx, schoolID)
	if err != nil {
		return school.School{}, school.Student{}, err
	}
	if d.Type != TypeGuardian {
		return sch, school.Student{}, nil
	}
	std, err := agg.schools.GetStudent(ctx, d.StudentID)
	if err != nil {
		return school.School{}, school.Student{}, err
	}
	if std.SchoolID != schoolID {
		return school.School{}, school.Student{}, core.NewNotFoundError("student", d.StudentID)
	}
	return sch, std, nil
}

// AddLink appends a relationship link between an identity and a school.
// Equivalent links may coexist; they are reported as a warning.
func (agg *Aggregator) AddLink(ctx context.Context, personGlobalID, schoolID string, d Details) (Link, error) {
	if err := d.Validate(agg.deps.Validate); err != nil {
		return Link{}, err
	}
	p, err := agg.people.Get(ctx, personGlobalID)
	if err != nil {
		return Link{}, err
	}
	sch, std, err := agg.checkReferences(ctx, schoolID, d)
	if err != nil {
		return Link{}, err
	}

	active := true
	dups, err := agg.repo.QueryLinks(ctx, QueryFilter{
		PersonGlobalID: personGlobalID,
		SchoolID:       schoolID,
		StudentID:      d.StudentID,
		Type:           d.Type,
		IsActive:       &active,
	})
	if err != nil {
		return Link{}, errors.Wrap(err, "querying equivalent links")
	}
	if len(dups) > 0 {
		actor, _ := core.ActorFrom(ctx)
		agg.deps.Logger.Warn("adding a link equivalent to an active one", map[string]interface{}{
			"person_global_id": personGlobalID,
			"school_id":        schoolID,
			"type":             d.Type,
			"existing_link_id": dups[0].ID,
		}, actor)
	}

	now := time.Now().UTC()
	l := d.apply(Link{
		ID:             ulid.Make().String(),
		PersonGlobalID: personGlobalID,
		SchoolID:       schoolID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	l, err = agg.repo.CreateLink(ctx, l)
	if err != nil {
		return Link{}, errors.Wrap(err, "creating link")
	}

	agg.deps.Metrics.LinkCreated(l.Type)
	agg.publish(ctx, core.EventLinkCreated, l)
	agg.notify(ctx, p, sch, std, l)
	return l, nil
}

// Get returns the link identified by id or a core.NotFoundError.
func (agg *Aggregator) Get(ctx context.Context, id string) (Link, error) {
	l, err := agg.repo.GetLink(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Link{}, core.NewNotFoundError("link", id)
		}
		return Link{}, errors.Wrap(err, "getting link")
	}
	return l, nil
}

// Update overwrites the details of a link in place. The link type cannot change.
func (agg *Aggregator) Update(ctx context.Context, id string, d Details) (Link, error) {
	l, err := agg.Get(ctx, id)
	if err != nil {
		return Link{}, err
	}
	if d.Type == "" {
		d.Type = l.Type
	}
	if err = d.Validate(agg.deps.Validate); err != nil {
		return Link{}, err
	}
	if d.Type != l.Type {
		return Link{}, core.NewValidationError(nil, core.FieldError{Field: "type", Error: typeLockedText})
	}
	if _, _, err = agg.checkReferences(ctx, l.SchoolID, d); err != nil {
		return Link{}, err
	}

	l = d.apply(l)
	l.UpdatedAt = time.Now().UTC()
	l, err = agg.repo.UpdateLink(ctx, l)
	return l, errors.Wrap(err, "updating link")
}

// Deactivate ends a link without deleting it. Assignments without an end date end today.
func (agg *Aggregator) Deactivate(ctx context.Context, id string) (Link, error) {
	l, err := agg.Get(ctx, id)
	if err != nil {
		return Link{}, err
	}
	if !l.IsActive {
		return l, nil
	}

	now := time.Now().UTC()
	l.IsActive = false
	l.DeactivatedAt = null.TimeFrom(now)
	if l.IsAssignment() && !l.EndDate.Valid {
		l.EndDate = null.TimeFrom(now.Truncate(24 * time.Hour))
	}
	l.UpdatedAt = now

	l, err = agg.repo.UpdateLink(ctx, l)
	if err != nil {
		return Link{}, errors.Wrap(err, "deactivating link")
	}
	agg.publish(ctx, core.EventLinkDeactivated, l)
	return l, nil
}

// ListLinksForPerson returns every link (active or not) of an identity, in creation order.
func (agg *Aggregator) ListLinksForPerson(ctx context.Context, personGlobalID string) ([]Link, error) {
	if _, err := agg.people.Get(ctx, personGlobalID); err != nil {
		return nil, err
	}
	links, err := agg.repo.QueryLinks(ctx, QueryFilter{PersonGlobalID: personGlobalID})
	return links, errors.Wrap(err, "querying person links")
}

func (agg *Aggregator) ListLinksForSchool(ctx context.Context, schoolID string, activeOnly bool) ([]Link, error) {
	if _, err := agg.schools.Get(ctx, schoolID); err != nil {
		return nil, err
	}
	filter := QueryFilter{SchoolID: schoolID}
	if activeOnly {
		active := true
		filter.IsActive = &active
	}
	links, err := agg.repo.QueryLinks(ctx, filter)
	return links, errors.Wrap(err, "querying school links")
}

// Aggregate summarizes the active links of an identity across schools.
// An identity without links gets a zero view.
func (agg *Aggregator) Aggregate(ctx context.Context, personGlobalID string) (View, error) {
	p, err := agg.people.Get(ctx, personGlobalID)
	if err != nil {
		return View{}, err
	}

	active := true
	links, err := agg.repo.QueryLinks(ctx, QueryFilter{PersonGlobalID: personGlobalID, IsActive: &active})
	if err != nil {
		return View{}, errors.Wrap(err, "querying active links")
	}

	view := View{
		Person:       p,
		HoursCeiling: agg.hoursCeiling,
		Schools:      make([]SchoolSummary, 0),
	}
	// {schoolID: index in view.Schools}
	idx := make(map[string]int)
	schoolStudents := make(map[string]map[string]bool)
	allStudents := make(map[string]bool)

	for _, l := range links {
		i, ok := idx[l.SchoolID]
		if !ok {
			summary := SchoolSummary{SchoolID: l.SchoolID, Types: make([]string, 0, 2)}
			if sch, err := agg.schools.Get(ctx, l.SchoolID); err == nil {
				summary.SchoolCode = sch.Code
				summary.SchoolName = sch.Name
			} else if !core.IsNotFound(err) {
				return View{}, err
			}
			view.Schools = append(view.Schools, summary)
			i = len(view.Schools) - 1
			idx[l.SchoolID] = i
			schoolStudents[l.SchoolID] = make(map[string]bool)
		}

		summary := &view.Schools[i]
		summary.Links++
		if !containsString(summary.Types, l.Type) {
			summary.Types = append(summary.Types, l.Type)
		}
		switch l.Type {
		case TypeGuardian:
			if l.StudentID != "" && !schoolStudents[l.SchoolID][l.StudentID] {
				schoolStudents[l.SchoolID][l.StudentID] = true
				summary.Students++
			}
			allStudents[l.StudentID] = true
		case TypeAssignment:
			summary.WeeklyHours += l.WeeklyHours
			view.TotalWeeklyHours += l.WeeklyHours
		}
		view.TotalLinks++
	}

	view.TotalSchools = len(view.Schools)
	delete(allStudents, "")
	view.TotalStudents = len(allStudents)
	view.OverCommitted = view.TotalWeeklyHours > view.HoursCeiling
	if available := view.HoursCeiling - view.TotalWeeklyHours; available > 0 {
		view.AvailableHours = available
	}
	return view, nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func (agg *Aggregator) publish(ctx context.Context, typ string, payload interface{}) {
	if agg.deps.Events == nil {
		return
	}
	if err := agg.deps.Events.Publish(ctx, core.NewEvent(ctx, typ, payload)); err != nil {
		actor, _ := core.ActorFrom(ctx)
		agg.deps.Logger.Error("publishing "+typ, errors.Wrap(err, "publishing event"), actor)
	}
}

type linkCreatedData struct {
	RecipientName string
	SchoolName    string
	Role          string
	StudentName   string
	LocalID       string
	TotalSchools  int
}

// notify tells the identity it has been linked to a school, when it has an email.
func (agg *Aggregator) notify(ctx context.Context, p person.Person, sch school.School, std school.Student, l Link) {
	if agg.deps.MailSvc == nil || p.Email == "" {
		return
	}

	active := true
	links, err := agg.repo.QueryLinks(ctx, QueryFilter{PersonGlobalID: p.GlobalID, IsActive: &active})
	if err != nil {
		actor, _ := core.ActorFrom(ctx)
		agg.deps.Logger.Error("counting schools for link email", errors.Wrap(err, "querying links"), actor)
	}
	schools := make(map[string]bool, len(links))
	for _, lnk := range links {
		schools[lnk.SchoolID] = true
	}

	role := "teacher"
	if l.IsGuardian() {
		role = l.RelationshipType
	}
	agg.deps.MailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.FullName(), Address: p.Email}},
		Subject:      "You have been linked to " + sch.Name,
		TemplateName: linkCreatedTemplate,
		TemplateData: linkCreatedData{
			RecipientName: p.GivenName,
			SchoolName:    sch.Name,
			Role:          role,
			StudentName:   std.FullName(),
			LocalID:       p.LocalID,
			TotalSchools:  len(schools),
		},
	})
}
