package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/storage/database"
)

const linkColumns = `id, person_global_id, school_id, type, student_id, relationship_type,
	is_primary_contact, can_pickup, emergency_contact, subjects, classes, weekly_hours, start_date, end_date,
	is_active, deactivated_at, created_at, updated_at`

type linkRow struct {
	ID               string         `db:"id"`
	PersonGlobalID   string         `db:"person_global_id"`
	SchoolID         string         `db:"school_id"`
	Type             string         `db:"type"`
	StudentID        null.String    `db:"student_id"`
	RelationshipType null.String    `db:"relationship_type"`
	IsPrimaryContact bool           `db:"is_primary_contact"`
	CanPickup        bool           `db:"can_pickup"`
	EmergencyContact bool           `db:"emergency_contact"`
	Subjects         pq.StringArray `db:"subjects"`
	Classes          pq.StringArray `db:"classes"`
	WeeklyHours      float64        `db:"weekly_hours"`
	StartDate        null.Time      `db:"start_date"`
	EndDate          null.Time      `db:"end_date"`
	IsActive         bool           `db:"is_active"`
	DeactivatedAt    null.Time      `db:"deactivated_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func (row linkRow) toLink() link.Link {
	return link.Link{
		ID:               row.ID,
		PersonGlobalID:   row.PersonGlobalID,
		SchoolID:         row.SchoolID,
		Type:             row.Type,
		StudentID:        row.StudentID.String,
		RelationshipType: row.RelationshipType.String,
		IsPrimaryContact: row.IsPrimaryContact,
		CanPickup:        row.CanPickup,
		EmergencyContact: row.EmergencyContact,
		Subjects:         orEmpty(row.Subjects),
		Classes:          orEmpty(row.Classes),
		WeeklyHours:      row.WeeklyHours,
		StartDate:        row.StartDate,
		EndDate:          row.EndDate,
		IsActive:         row.IsActive,
		DeactivatedAt:    row.DeactivatedAt,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
}

type linkRepository struct {
	repo
	table string
}

var _ link.Repository = (*linkRepository)(nil)

func NewLinkRepository(db *sqlx.DB, br *database.Breaker, tables core.TableNames) *linkRepository {
	return &linkRepository{repo: repo{db: db, br: br}, table: pq.QuoteIdentifier(tables.Links)}
}

func (r *linkRepository) CreateLink(ctx context.Context, l link.Link) (link.Link, error) {
	q := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING %s`, r.table, linkColumns, linkColumns)

	var row linkRow
	err := r.get(ctx, &row, q,
		l.ID, l.PersonGlobalID, l.SchoolID, l.Type, nullKey(l.StudentID), nullKey(l.RelationshipType),
		l.IsPrimaryContact, l.CanPickup, l.EmergencyContact,
		pq.StringArray(orEmpty(l.Subjects)), pq.StringArray(orEmpty(l.Classes)), l.WeeklyHours, l.StartDate, l.EndDate,
		l.IsActive, l.DeactivatedAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return link.Link{}, err
	}
	return row.toLink(), nil
}

func (r *linkRepository) GetLink(ctx context.Context, id string) (link.Link, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", linkColumns, r.table)

	var row linkRow
	if err := r.get(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return link.Link{}, link.ErrNotFound
		}
		return link.Link{}, err
	}
	return row.toLink(), nil
}

func (r *linkRepository) QueryLinks(ctx context.Context, filter link.QueryFilter) ([]link.Link, error) {
	var w where
	if filter.PersonGlobalID != "" {
		w.add("person_global_id::text = " + w.arg(filter.PersonGlobalID))
	}
	if filter.SchoolID != "" {
		w.add("school_id = " + w.arg(filter.SchoolID))
	}
	if filter.StudentID != "" {
		w.add("student_id = " + w.arg(filter.StudentID))
	}
	if filter.Type != "" {
		w.add("type = " + w.arg(filter.Type))
	}
	if filter.IsActive != nil {
		w.add("is_active = " + w.arg(*filter.IsActive))
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY seq", linkColumns, r.table, w.String())

	rows := make([]linkRow, 0)
	if err := r.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, err
	}
	links := make([]link.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toLink())
	}
	return links, nil
}

func (r *linkRepository) UpdateLink(ctx context.Context, l link.Link) (link.Link, error) {
	q := fmt.Sprintf(`UPDATE %s SET type = $2, student_id = $3, relationship_type = $4,
		is_primary_contact = $5, can_pickup = $6, emergency_contact = $7, subjects = $8, classes = $9,
		weekly_hours = $10, start_date = $11, end_date = $12, is_active = $13, deactivated_at = $14, updated_at = $15
		WHERE id = $1
		RETURNING %s`, r.table, linkColumns)

	var row linkRow
	err := r.get(ctx, &row, q,
		l.ID, l.Type, nullKey(l.StudentID), nullKey(l.RelationshipType),
		l.IsPrimaryContact, l.CanPickup, l.EmergencyContact,
		pq.StringArray(orEmpty(l.Subjects)), pq.StringArray(orEmpty(l.Classes)),
		l.WeeklyHours, l.StartDate, l.EndDate, l.IsActive, l.DeactivatedAt, l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return link.Link{}, link.ErrNotFound
		}
		return link.Link{}, err
	}
	return row.toLink(), nil
}
