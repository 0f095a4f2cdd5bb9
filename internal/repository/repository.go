// Package repository implements the Postgres-backed event source.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/source"
)

const eventColumns = `id, slug, title, description, address, city, state,
	category, secondary_category, event_date, end_date, start_time, end_time,
	lat, lng, host_name, fee_required, event_url, verified,
	interest_count, view_count, created_by, recurring`

// EventRepository reads and writes events in Postgres. Its fetch
// methods satisfy source.EventSource, so it can stand in for the
// upstream HTTP API when the service owns its own data.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// FetchEvents returns up to limit raw event records ordered by date.
// Rows come back as loosely-typed records so the normalizer remains
// the single validation path, same as for the HTTP source.
func (r *EventRepository) FetchEvents(ctx context.Context, limit int) ([]model.RawEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 ORDER BY event_date ASC, start_time ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var raws []model.RawEvent
	for rows.Next() {
		raw, err := scanRaw(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		raws = append(raws, raw)
	}
	return raws, rows.Err()
}

// FetchEventBySlug returns a single raw record or source.ErrNotFound.
func (r *EventRepository) FetchEventBySlug(ctx context.Context, slug string) (model.RawEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events WHERE slug = $1`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get event by slug: %w", err)
		}
		return nil, source.ErrNotFound
	}
	raw, err := scanRaw(rows)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return raw, nil
}

// Create inserts a submitted event with a generated id and slug.
func (r *EventRepository) Create(ctx context.Context, req model.SubmitEventRequest) (*model.Event, error) {
	id := uuid.New().String()
	e := &model.Event{
		ID:          id,
		Slug:        makeSlug(req.Title, id),
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Category:    req.Category,
		Date:        req.Date,
		EndDate:     req.EndDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Lat:         req.Lat,
		Lng:         req.Lng,
		HostName:    req.HostName,
		FeeRequired: req.FeeRequired,
		EventURL:    req.EventURL,
		CreatedBy:   req.CreatedBy,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		         $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		e.ID, e.Slug, e.Title, e.Description, e.Address, e.City, e.State,
		e.Category, e.SecondaryCategory, e.Date, e.EndDate, e.StartTime, e.EndTime,
		e.Lat, e.Lng, e.HostName, e.FeeRequired, e.EventURL, e.Verified,
		e.InterestCount, e.ViewCount, e.CreatedBy, e.Recurring, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// GetByID returns a single event row or source.ErrNotFound. Used by
// the submission flow's read-back, not by the discovery pipeline.
func (r *EventRepository) GetByID(ctx context.Context, id string) (model.RawEvent, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	raw, err := scanRawRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return raw, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRaw(rows pgx.Rows) (model.RawEvent, error) {
	return scanRawRow(rows)
}

func scanRawRow(row scannable) (model.RawEvent, error) {
	var (
		id, slug, title, description, address, city, state      string
		category, secondaryCategory, date, endDate              string
		startTime, endTime, hostName, feeRequired, eventURL     string
		createdBy                                               string
		lat, lng                                                float64
		verified, recurring                                     bool
		interestCount, viewCount                                int
	)
	err := row.Scan(
		&id, &slug, &title, &description, &address, &city, &state,
		&category, &secondaryCategory, &date, &endDate, &startTime, &endTime,
		&lat, &lng, &hostName, &feeRequired, &eventURL, &verified,
		&interestCount, &viewCount, &createdBy, &recurring,
	)
	if err != nil {
		return nil, err
	}
	return model.RawEvent{
		"id": id, "slug": slug, "title": title, "description": description,
		"address": address, "city": city, "state": state,
		"category": category, "secondary_category": secondaryCategory,
		"date": date, "end_date": endDate,
		"start_time": startTime, "end_time": endTime,
		"lat": lat, "lng": lng,
		"host_name": hostName, "fee_required": feeRequired, "event_url": eventURL,
		"verified": verified, "interest_count": float64(interestCount),
		"view_count": float64(viewCount), "created_by": createdBy,
		"recurring": recurring,
	}, nil
}

// makeSlug derives a URL-safe slug from the title, suffixed with a
// fragment of the id to keep slugs unique without a lookup.
func makeSlug(title, id string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
