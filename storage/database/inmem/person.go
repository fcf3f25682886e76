package inmemdb

import (
	"context"
	"sort"

	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
)

type personRepository struct {
	db *personTable
}

var _ person.Repository = (*personRepository)(nil)

func NewPersonRepository(db *DB) *personRepository {
	return &personRepository{db: db.person}
}

// query returns every row in insertion order. Callers hold the lock.
func (repo *personRepository) query() []person.Person {
	people := make([]person.Person, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		cp := *p
		cp.Specializations = copyStrings(p.Specializations)
		people = append(people, cp)
	}
	sort.Slice(people, func(i, j int) bool {
		return repo.db.seq[people[i].GlobalID] < repo.db.seq[people[j].GlobalID]
	})
	return people
}

// contactTaken mirrors the unique indexes on the normalized email and phone.
func (repo *personRepository) contactTaken(p person.Person) bool {
	for _, other := range repo.db.table {
		if other.GlobalID == p.GlobalID {
			continue
		}
		if p.EmailKey() != "" && other.EmailKey() == p.EmailKey() {
			return true
		}
		if p.PhoneKey() != "" && other.PhoneKey() == p.PhoneKey() {
			return true
		}
	}
	return false
}

func (repo *personRepository) CreatePerson(_ context.Context, p person.Person) (person.Person, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.contactTaken(p) {
		return person.Person{}, person.ErrContactExists
	}
	p.Specializations = copyStrings(p.Specializations)
	repo.db.table[p.GlobalID] = &p
	repo.db.seq[p.GlobalID] = len(repo.db.seq) + 1
	return p, nil
}

func (repo *personRepository) QueryPeople(_ context.Context, filter person.QueryFilter, limit int) ([]person.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	people := make([]person.Person, 0)
	for _, p := range repo.query() {
		if !filter.Matches(p) {
			continue
		}
		people = append(people, p)
		if limit > 0 && len(people) == limit {
			break
		}
	}
	return people, nil
}

func (repo *personRepository) GetPerson(_ context.Context, globalID string) (person.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[globalID]; ok {
		cp := *p
		cp.Specializations = copyStrings(p.Specializations)
		return cp, nil
	}
	return person.Person{}, person.ErrNotFound
}

func (repo *personRepository) UpdatePerson(_ context.Context, p person.Person) (person.Person, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[p.GlobalID]
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	if repo.contactTaken(p) {
		return person.Person{}, person.ErrContactExists
	}
	p.LocalID = orig.LocalID
	p.OriginSchoolID = orig.OriginSchoolID
	p.CreatedAt = orig.CreatedAt
	p.Specializations = copyStrings(p.Specializations)
	repo.db.table[p.GlobalID] = &p
	return p, nil
}
