package inmemdb

import (
	"context"
	"sort"

	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
)

type linkRepository struct {
	db *linkTable
}

var _ link.Repository = (*linkRepository)(nil)

func NewLinkRepository(db *DB) *linkRepository {
	return &linkRepository{db: db.link}
}

func cloneLink(l link.Link) link.Link {
	l.Subjects = copyStrings(l.Subjects)
	l.Classes = copyStrings(l.Classes)
	return l
}

func (repo *linkRepository) CreateLink(_ context.Context, l link.Link) (link.Link, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l = cloneLink(l)
	repo.db.table[l.ID] = &l
	repo.db.seq[l.ID] = len(repo.db.seq) + 1
	return l, nil
}

func (repo *linkRepository) GetLink(_ context.Context, id string) (link.Link, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.table[id]; ok {
		return cloneLink(*l), nil
	}
	return link.Link{}, link.ErrNotFound
}

func (repo *linkRepository) QueryLinks(_ context.Context, filter link.QueryFilter) ([]link.Link, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	links := make([]link.Link, 0)
	for _, l := range repo.db.table {
		if filter.Matches(*l) {
			links = append(links, cloneLink(*l))
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return repo.db.seq[links[i].ID] < repo.db.seq[links[j].ID]
	})
	return links, nil
}

func (repo *linkRepository) UpdateLink(_ context.Context, l link.Link) (link.Link, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[l.ID]
	if !ok {
		return link.Link{}, link.ErrNotFound
	}
	l = cloneLink(l)
	l.PersonGlobalID = orig.PersonGlobalID
	l.SchoolID = orig.SchoolID
	l.CreatedAt = orig.CreatedAt
	repo.db.table[l.ID] = &l
	return l, nil
}
