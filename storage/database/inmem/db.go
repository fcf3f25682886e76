package inmemdb

import (
	"sync"

	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

type (
	// DB is a record store kept in memory. Rows keep their insertion sequence.
	DB struct {
		school  *schoolTable
		student *studentTable
		person  *personTable
		link    *linkTable
	}

	schoolTable struct {
		sync.RWMutex
		table map[string]*school.School
		seq   map[string]int
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*school.Student
		seq   map[string]int
	}

	personTable struct {
		sync.RWMutex
		table map[string]*person.Person
		seq   map[string]int
	}

	linkTable struct {
		sync.RWMutex
		table map[string]*link.Link
		seq   map[string]int
	}
)

func Open() *DB {
	return &DB{
		school:  &schoolTable{table: make(map[string]*school.School), seq: make(map[string]int)},
		student: &studentTable{table: make(map[string]*school.Student), seq: make(map[string]int)},
		person:  &personTable{table: make(map[string]*person.Person), seq: make(map[string]int)},
		link:    &linkTable{table: make(map[string]*link.Link), seq: make(map[string]int)},
	}
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	cp := make([]string, len(ss))
	copy(cp, ss)
	return cp
}
