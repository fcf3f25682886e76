package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database"
)

const personColumns = `global_id, local_id, origin_school_id, given_name, family_name, email, phone,
	address, occupation, specializations, created_at, updated_at`

type personRow struct {
	GlobalID        string         `db:"global_id"`
	LocalID         string         `db:"local_id"`
	OriginSchoolID  null.String    `db:"origin_school_id"`
	GivenName       string         `db:"given_name"`
	FamilyName      string         `db:"family_name"`
	Email           null.String    `db:"email"`
	Phone           null.String    `db:"phone"`
	Address         string         `db:"address"`
	Occupation      string         `db:"occupation"`
	Specializations pq.StringArray `db:"specializations"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (row personRow) toPerson() person.Person {
	specs := []string(row.Specializations)
	if specs == nil {
		specs = []string{}
	}
	return person.Person{
		GlobalID:        row.GlobalID,
		LocalID:         row.LocalID,
		OriginSchoolID:  row.OriginSchoolID.String,
		GivenName:       row.GivenName,
		FamilyName:      row.FamilyName,
		Email:           row.Email.String,
		Phone:           row.Phone.String,
		Address:         row.Address,
		Occupation:      row.Occupation,
		Specializations: specs,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

// nullKey stores blank contact keys as NULL so they stay out of the unique indexes.
func nullKey(s string) null.String {
	return null.NewString(s, s != "")
}

type personRepository struct {
	repo
	table string
}

var _ person.Repository = (*personRepository)(nil)

func NewPersonRepository(db *sqlx.DB, br *database.Breaker, tables core.TableNames) *personRepository {
	return &personRepository{repo: repo{db: db, br: br}, table: pq.QuoteIdentifier(tables.People)}
}

func (r *personRepository) CreatePerson(ctx context.Context, p person.Person) (person.Person, error) {
	q := fmt.Sprintf(`INSERT INTO %s (global_id, local_id, origin_school_id, given_name, family_name,
		email, email_key, phone, phone_key, address, occupation, specializations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING %s`, r.table, personColumns)

	var row personRow
	err := r.get(ctx, &row, q,
		p.GlobalID, p.LocalID, nullKey(p.OriginSchoolID), p.GivenName, p.FamilyName,
		nullKey(p.Email), nullKey(p.EmailKey()), nullKey(p.Phone), nullKey(p.PhoneKey()),
		p.Address, p.Occupation, pq.StringArray(p.Specializations), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return person.Person{}, person.ErrContactExists
		}
		return person.Person{}, err
	}
	return row.toPerson(), nil
}

func (r *personRepository) QueryPeople(ctx context.Context, filter person.QueryFilter, limit int) ([]person.Person, error) {
	var w where
	if filter.HasContact() {
		switch {
		case filter.Email != "" && filter.Phone != "":
			w.add(fmt.Sprintf("(email_key = %s OR phone_key = %s)", w.arg(filter.Email), w.arg(filter.Phone)))
		case filter.Email != "":
			w.add("email_key = " + w.arg(filter.Email))
		default:
			w.add("phone_key = " + w.arg(filter.Phone))
		}
	}
	if filter.Search != "" {
		pattern := w.arg(containsPattern(filter.Search))
		cond := fmt.Sprintf(`(lower(trim(given_name || ' ' || family_name)) LIKE %[1]s
			OR email_key LIKE %[1]s
			OR EXISTS (SELECT 1 FROM unnest(specializations) AS spec WHERE lower(spec) LIKE %[1]s)`, pattern)
		if digits := core.Digits(filter.Search); digits != "" {
			cond += " OR phone_key LIKE " + w.arg(containsPattern(digits))
		}
		w.add(cond + ")")
	}
	if len(filter.ExcludeIDs) > 0 {
		w.add("global_id::text <> ALL(" + w.arg(pq.StringArray(filter.ExcludeIDs)) + ")")
	}

	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY seq", personColumns, r.table, w.String())
	if limit > 0 {
		q += " LIMIT " + strconv.Itoa(limit)
	}

	rows := make([]personRow, 0)
	if err := r.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, err
	}
	people := make([]person.Person, 0, len(rows))
	for _, row := range rows {
		people = append(people, row.toPerson())
	}
	return people, nil
}

func (r *personRepository) GetPerson(ctx context.Context, globalID string) (person.Person, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE global_id = $1", personColumns, r.table)

	var row personRow
	if err := r.get(ctx, &row, q, globalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, err
	}
	return row.toPerson(), nil
}

func (r *personRepository) UpdatePerson(ctx context.Context, p person.Person) (person.Person, error) {
	q := fmt.Sprintf(`UPDATE %s SET given_name = $2, family_name = $3, email = $4, email_key = $5,
		phone = $6, phone_key = $7, address = $8, occupation = $9, specializations = $10, updated_at = $11
		WHERE global_id = $1
		RETURNING %s`, r.table, personColumns)

	var row personRow
	err := r.get(ctx, &row, q,
		p.GlobalID, p.GivenName, p.FamilyName,
		nullKey(p.Email), nullKey(p.EmailKey()), nullKey(p.Phone), nullKey(p.PhoneKey()),
		p.Address, p.Occupation, pq.StringArray(p.Specializations), p.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), isInvalidText(err):
			return person.Person{}, person.ErrNotFound
		case isUniqueViolation(err):
			return person.Person{}, person.ErrContactExists
		}
		return person.Person{}, err
	}
	return row.toPerson(), nil
}
