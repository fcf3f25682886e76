package person

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

var (
	// errors
	ErrNotFound         = errors.New("person not found")
	ErrContactExists    = errors.New("a person with this email or phone already exists")
	ErrInvalidCandidate = errors.New("a candidate needs an email or a phone number")
)

const defaultLocalPrefix = "EDU"

type (
	Repository interface {
		// CreatePerson stores a new identity. It returns ErrContactExists when the normalized email
		// or phone is already held by another identity.
		CreatePerson(ctx context.Context, p Person) (Person, error)
		// QueryPeople returns at most limit identities matching filter, in insertion order.
		// A limit <= 0 means no limit.
		QueryPeople(ctx context.Context, filter QueryFilter, limit int) ([]Person, error)
		GetPerson(ctx context.Context, globalID string) (Person, error)
		// UpdatePerson overwrites the stored attributes of p (matched on GlobalID).
		UpdatePerson(ctx context.Context, p Person) (Person, error)
	}

	// SchoolGetter resolves the originating school of a candidate.
	SchoolGetter interface {
		Get(ctx context.Context, id string) (school.School, error)
	}

	Deps struct {
		Validate   *validator.Validate
		Translator ut.Translator
		Events     core.EventPublisher
		Metrics    core.Metrics
		Logger     core.Logger
	}

	// Registry owns the canonical identities and matches candidates on their contact details.
	Registry struct {
		repo         Repository
		schools      SchoolGetter
		deps         Deps
		searchLimit  int
		similarRatio float64
	}
)

func NewRegistry(repo Repository, schools SchoolGetter, deps Deps, conf core.RegistryConfig) *Registry {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(schools, "schools"),
		vala.IsNotNil(deps.Validate, "deps.Validate"),
		vala.IsNotNil(deps.Translator, "deps.Translator"),
		vala.IsNotNil(deps.Logger, "deps.Logger"),
	).CheckAndPanic()

	if deps.Metrics == nil {
		deps.Metrics = core.NopMetrics
	}
	searchLimit := conf.SearchLimit
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Registry{
		repo:         repo,
		schools:      schools,
		deps:         deps,
		searchLimit:  searchLimit,
		similarRatio: conf.SimilarNameRatio,
	}
}

// FindByContact returns the first identity (in insertion order) whose normalized email or phone
// equals the given one. Either may be empty, not both.
func (reg *Registry) FindByContact(ctx context.Context, email, phone string) (Person, bool, error) {
	emailKey, phoneKey := NormalizeEmail(email), NormalizePhone(phone)
	if emailKey == "" && phoneKey == "" {
		return Person{}, false, missingContactError()
	}

	people, err := reg.repo.QueryPeople(ctx, QueryFilter{Email: emailKey, Phone: phoneKey}, 1)
	if err != nil {
		return Person{}, false, errors.Wrap(err, "querying people by contact")
	}
	if len(people) == 0 {
		return Person{}, false, nil
	}
	return people[0], true, nil
}

// CheckDuplicate validates c and looks up an identity already holding one of its details.
func (reg *Registry) CheckDuplicate(ctx context.Context, c Contact) (Person, bool, error) {
	if err := c.Validate(reg.deps.Validate); err != nil {
		return Person{}, false, invalidCandidate(err, reg.deps.Translator)
	}
	return reg.FindByContact(ctx, c.Email, c.Phone)
}

// Search returns at most the configured search limit of identities matching term (see MatchesTerm).
// An empty term yields an empty result.
func (reg *Registry) Search(ctx context.Context, term string) ([]Person, error) {
	term = core.CleanString(term)
	if term == "" {
		return []Person{}, nil
	}
	people, err := reg.repo.QueryPeople(ctx, QueryFilter{Search: term}, reg.searchLimit)
	if err != nil {
		return nil, errors.Wrap(err, "searching people")
	}
	return people, nil
}

// GetOrCreate returns the identity matching the candidate's contact details, unchanged, or creates it.
// created reports whether a new identity was stored.
func (reg *Registry) GetOrCreate(ctx context.Context, cand Candidate) (p Person, created bool, err error) {
	if err = cand.Validate(reg.deps.Validate); err != nil {
		return Person{}, false, invalidCandidate(err, reg.deps.Translator)
	}

	p, found, err := reg.FindByContact(ctx, cand.Email, cand.Phone)
	if err != nil {
		return Person{}, false, err
	}
	if found {
		reg.deps.Metrics.PersonResolved(false)
		return p, false, nil
	}

	newP, err := reg.newPerson(ctx, cand)
	if err != nil {
		return Person{}, false, err
	}
	p, err = reg.repo.CreatePerson(ctx, newP)
	if err != nil {
		if !errors.Is(err, ErrContactExists) {
			return Person{}, false, errors.Wrap(err, "creating person")
		}
		// lost a race against a concurrent creation: the stored identity wins
		p, found, err = reg.FindByContact(ctx, cand.Email, cand.Phone)
		if err != nil {
			return Person{}, false, err
		}
		if !found {
			return Person{}, false, errors.Wrap(ErrContactExists, "resolving contact conflict")
		}
		reg.deps.Metrics.PersonResolved(false)
		return p, false, nil
	}

	reg.deps.Metrics.PersonResolved(true)
	reg.publish(ctx, core.EventPersonCreated, p)
	return p, true, nil
}

func (reg *Registry) newPerson(ctx context.Context, cand Candidate) (Person, error) {
	prefix := defaultLocalPrefix
	if cand.SchoolID != "" {
		sch, err := reg.schools.Get(ctx, cand.SchoolID)
		if err != nil {
			return Person{}, err
		}
		prefix = sch.Code
	}

	now := time.Now().UTC()
	globalID := uuid.New().String()
	specs := cand.Specializations
	if specs == nil {
		specs = []string{}
	}
	return Person{
		GlobalID:        globalID,
		LocalID:         LocalID(prefix, globalID),
		OriginSchoolID:  cand.SchoolID,
		GivenName:       cand.GivenName,
		FamilyName:      cand.FamilyName,
		Email:           cand.Email,
		Phone:           cand.Phone,
		Address:         cand.Address,
		Occupation:      cand.Occupation,
		Specializations: specs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// LocalID derives the school-scoped code of an identity: the school code and the head of its global ID.
func LocalID(schoolCode, globalID string) string {
	head := strings.ReplaceAll(globalID, "-", "")
	if len(head) > 8 {
		head = head[:8]
	}
	return fmt.Sprintf("%s-%s", strings.ToUpper(schoolCode), strings.ToUpper(head))
}

// Get returns the identity with globalID or a core.NotFoundError.
func (reg *Registry) Get(ctx context.Context, globalID string) (Person, error) {
	p, err := reg.repo.GetPerson(ctx, globalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Person{}, core.NewNotFoundError("person", globalID)
		}
		return Person{}, errors.Wrap(err, "getting person")
	}
	return p, nil
}

func (reg *Registry) checkContactUniqueness(ctx context.Context, p Person) error {
	if p.EmailKey() == "" && p.PhoneKey() == "" {
		return missingContactError()
	}
	others, err := reg.repo.QueryPeople(ctx, QueryFilter{
		Email:      p.EmailKey(),
		Phone:      p.PhoneKey(),
		ExcludeIDs: []string{p.GlobalID},
	}, 0)
	if err != nil {
		return errors.Wrap(err, "checking contact uniqueness")
	}

	var flds []core.FieldError
	for _, other := range others {
		if p.EmailKey() != "" && other.EmailKey() == p.EmailKey() {
			flds = append(flds, core.FieldError{Field: "email", Error: contactTakenText["email"]})
		}
		if p.PhoneKey() != "" && other.PhoneKey() == p.PhoneKey() {
			flds = append(flds, core.FieldError{Field: "phone", Error: contactTakenText["phone"]})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrContactExists, flds...)
	}
	return nil
}

// Update amends the attributes of an identity. Its GlobalID never changes.
func (reg *Registry) Update(ctx context.Context, globalID string, up UpdatePerson) (Person, error) {
	if err := up.Validate(reg.deps.Validate); err != nil {
		return Person{}, err
	}
	orig, err := reg.Get(ctx, globalID)
	if err != nil {
		return Person{}, err
	}

	p := up.apply(orig)
	if p.EmailKey() != orig.EmailKey() || p.PhoneKey() != orig.PhoneKey() {
		if err = reg.checkContactUniqueness(ctx, p); err != nil {
			return Person{}, err
		}
	}
	p.UpdatedAt = time.Now().UTC()

	p, err = reg.repo.UpdatePerson(ctx, p)
	if err != nil {
		if errors.Is(err, ErrContactExists) {
			return Person{}, core.NewValidationError(err,
				core.FieldError{Field: "email", Error: err.Error()},
				core.FieldError{Field: "phone", Error: err.Error()},
			)
		}
		return Person{}, errors.Wrap(err, "updating person")
	}
	return p, nil
}

// Similar is an identity whose name resembles a candidate's.
type Similar struct {
	Person Person  `json:"person"`
	Ratio  float64 `json:"ratio"`
}

// FindSimilar returns identities whose full name resembles the candidate's, most similar first.
// It is advisory only: matching stays on contact details.
func (reg *Registry) FindSimilar(ctx context.Context, cand Candidate) ([]Similar, error) {
	name := strings.ToLower(strings.TrimSpace(cand.GivenName + " " + cand.FamilyName))
	if name == "" || reg.similarRatio <= 0 {
		return nil, nil
	}

	// narrow down on the first letters of the family (or given) name
	key := []rune(core.CleanString(cand.FamilyName))
	if len(key) == 0 {
		key = []rune(core.CleanString(cand.GivenName))
	}
	if len(key) > 3 {
		key = key[:3]
	}
	people, err := reg.repo.QueryPeople(ctx, QueryFilter{Search: string(key)}, reg.searchLimit*5)
	if err != nil {
		return nil, errors.Wrap(err, "querying similar people")
	}

	similar := make([]Similar, 0)
	for _, p := range people {
		ratio := nameRatio(name, strings.ToLower(p.FullName()))
		if ratio >= reg.similarRatio {
			similar = append(similar, Similar{Person: p, Ratio: ratio})
		}
	}
	sort.SliceStable(similar, func(i, j int) bool { return similar[i].Ratio > similar[j].Ratio })
	if len(similar) > reg.searchLimit {
		similar = similar[:reg.searchLimit]
	}
	return similar, nil
}

func nameRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

func (reg *Registry) publish(ctx context.Context, typ string, payload interface{}) {
	if reg.deps.Events == nil {
		return
	}
	if err := reg.deps.Events.Publish(ctx, core.NewEvent(ctx, typ, payload)); err != nil {
		actor, _ := core.ActorFrom(ctx)
		reg.deps.Logger.Error("publishing "+typ, errors.Wrap(err, "publishing event"), actor)
	}
}
