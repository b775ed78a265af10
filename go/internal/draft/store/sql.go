package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/feed"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/robwizzie/FantasyFlicks/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

// SQL is a database/sql backed store. Draft writes are guarded by the
// revision column so two transactions racing on one draft cannot both commit.
type SQL struct {
	db     *sql.DB
	driver string
	hub    *feed.Hub
}

// NewSQL wraps an open database. driver is the registered driver name
// ("postgres", "pgx" or "sqlite3") and selects placeholder style and DDL.
func NewSQL(db *sql.DB, driver string) *SQL {
	return &SQL{db: db, driver: driver, hub: feed.NewHub()}
}

// Migrate creates the tables if they do not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Info().Str("driver", s.driver).Msg("draft schema ready")
	return nil
}

// queries binds statements to a connection or transaction
type queries struct {
	db     sqlutil.DBTX
	driver string
}

func (s *SQL) newQueries(db sqlutil.DBTX) *queries {
	return &queries{db: db, driver: s.driver}
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, sqlutil.Rebind(q.driver, query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, sqlutil.Rebind(q.driver, query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, sqlutil.Rebind(q.driver, query), args...)
}

const draftColumns = `id, version, mode, status, settings, participant_order, current_overall_pick,
	current_picker_id, turn_started_at, timer_deadline, revision, scheduled_at, started_at,
	completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*models.Draft, error) {
	var (
		d               models.Draft
		settings, order string
		picker          sql.NullString
		turnStarted     sql.NullTime
		deadline        sql.NullTime
		sched, started  sql.NullTime
		completed       sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Version, &d.Mode, &d.Status, &settings, &order, &d.CurrentOverallPick,
		&picker, &turnStarted, &deadline, &d.Revision, &sched, &started, &completed, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(settings), &d.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode draft settings: %w", err)
	}
	if err := json.Unmarshal([]byte(order), &d.ParticipantOrder); err != nil {
		return nil, fmt.Errorf("failed to decode participant order: %w", err)
	}
	d.CurrentPickerID = sqlutil.FromSqlString(picker, "")
	d.TurnStartedAt = sqlutil.FromSqlTime(turnStarted)
	d.TimerDeadline = sqlutil.FromSqlTime(deadline)
	d.ScheduledAt = sqlutil.FromSqlTime(sched)
	d.StartedAt = sqlutil.FromSqlTime(started)
	d.CompletedAt = sqlutil.FromSqlTime(completed)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	d.ApplyDefaults()
	return &d, nil
}

func (q *queries) getDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	d, err := scanDraft(q.queryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	picks, err := q.listPicks(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Picks = picks
	return d, nil
}

func (q *queries) listPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error) {
	rows, err := q.query(ctx, `SELECT draft_id, overall_pick, participant_id, selection_id, category, round, pick,
	committed_at, seconds_taken, was_auto_pick FROM draft_picks WHERE draft_id = ? ORDER BY overall_pick`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	picks := []models.DraftPick{}
	for rows.Next() {
		var (
			p        models.DraftPick
			category sql.NullString
			seconds  sql.NullInt32
		)
		if err := rows.Scan(&p.DraftID, &p.OverallPick, &p.ParticipantID, &p.SelectionID, &category, &p.Round,
			&p.Pick, &p.CommittedAt, &seconds, &p.WasAutoPick); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		p.Category = sqlutil.FromSqlString(category, "")
		p.SecondsTaken = sqlutil.FromSqlInt32(seconds)
		p.CommittedAt = p.CommittedAt.UTC()
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func (q *queries) insertDraft(ctx context.Context, d *models.Draft) error {
	settings, order, err := encodeDraft(d)
	if err != nil {
		return err
	}
	_, err = q.exec(ctx, `INSERT INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Version, string(d.Mode), string(d.Status), settings, order, d.CurrentOverallPick,
		sqlutil.ToSqlString(d.CurrentPickerID), sqlutil.ToSqlTime(d.TurnStartedAt), sqlutil.ToSqlTime(d.TimerDeadline),
		d.Revision, sqlutil.ToSqlTime(d.ScheduledAt), sqlutil.ToSqlTime(d.StartedAt), sqlutil.ToSqlTime(d.CompletedAt),
		d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}
	return nil
}

// updateDraft writes d if the stored revision still equals expected.
func (q *queries) updateDraft(ctx context.Context, d *models.Draft, expected int64) error {
	settings, order, err := encodeDraft(d)
	if err != nil {
		return err
	}
	res, err := q.exec(ctx, `UPDATE drafts SET status = ?, settings = ?, participant_order = ?, current_overall_pick = ?,
	current_picker_id = ?, turn_started_at = ?, timer_deadline = ?, revision = ?, scheduled_at = ?, started_at = ?,
	completed_at = ?, updated_at = ? WHERE id = ? AND revision = ?`,
		string(d.Status), settings, order, d.CurrentOverallPick, sqlutil.ToSqlString(d.CurrentPickerID),
		sqlutil.ToSqlTime(d.TurnStartedAt), sqlutil.ToSqlTime(d.TimerDeadline), d.Revision,
		sqlutil.ToSqlTime(d.ScheduledAt), sqlutil.ToSqlTime(d.StartedAt), sqlutil.ToSqlTime(d.CompletedAt),
		d.UpdatedAt.UTC(), d.ID.String(), expected)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (q *queries) insertPick(ctx context.Context, p *models.DraftPick) error {
	_, err := q.exec(ctx, `INSERT INTO draft_picks (draft_id, overall_pick, participant_id, selection_id, category,
	round, pick, committed_at, seconds_taken, was_auto_pick) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.DraftID.String(), p.OverallPick, p.ParticipantID, p.SelectionID, sqlutil.ToSqlString(p.Category),
		p.Round, p.Pick, p.CommittedAt.UTC(), sqlutil.ToSqlInt32(p.SecondsTaken), p.WasAutoPick)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

func (q *queries) insertEvents(ctx context.Context, evts []events.OutboxEvent) error {
	for _, e := range evts {
		_, err := q.exec(ctx, `INSERT INTO draft_outbox (id, draft_id, event_type, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
			e.ID.String(), e.DraftID.String(), string(e.EventType), string(e.Payload), e.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
	}
	return nil
}

func encodeDraft(d *models.Draft) (string, string, error) {
	settings, err := json.Marshal(d.Settings)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode draft settings: %w", err)
	}
	order, err := json.Marshal(d.ParticipantOrder)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode participant order: %w", err)
	}
	return string(settings), string(order), nil
}

func (s *SQL) CreateDraft(ctx context.Context, d *models.Draft, evts ...events.OutboxEvent) error {
	return sqlutil.Run(ctx, s.db, s.newQueries, func(q *queries) error {
		if err := q.insertDraft(ctx, d); err != nil {
			return err
		}
		return q.insertEvents(ctx, evts)
	})
}

func (s *SQL) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return s.newQueries(s.db).getDraft(ctx, id)
}

func (s *SQL) ListPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error) {
	return s.newQueries(s.db).listPicks(ctx, id)
}

// ListDrafts returns drafts in the given statuses, or all drafts when none are given.
func (s *SQL) ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]*models.Draft, error) {
	q := s.newQueries(s.db)
	query := `SELECT id FROM drafts`
	var args []any
	for i, st := range statuses {
		if i == 0 {
			query += ` WHERE status IN (?`
		} else {
			query += `, ?`
		}
		args = append(args, string(st))
	}
	if len(statuses) > 0 {
		query += `)`
	}
	query += ` ORDER BY created_at`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan draft id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Draft, 0, len(ids))
	for _, id := range ids {
		d, err := q.getDraft(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *SQL) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Draft, error) {
	var committed *models.Draft
	written := false

	err := sqlutil.Run(ctx, s.db, s.newQueries, func(q *queries) error {
		current, err := q.getDraft(ctx, id)
		if err != nil {
			return err
		}
		expected := current.Revision

		next := current.Clone()
		mutation, err := fn(next)
		if err != nil {
			return err
		}
		if mutation == nil {
			committed = current
			return nil
		}

		next.Revision = expected + 1
		if err := q.updateDraft(ctx, next, expected); err != nil {
			return err
		}
		if mutation.Pick != nil {
			if err := q.insertPick(ctx, mutation.Pick); err != nil {
				return err
			}
		}
		if err := q.insertEvents(ctx, mutation.Events); err != nil {
			return err
		}
		committed = next
		written = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if written {
		s.hub.Publish(committed)
	}
	return committed.Clone(), nil
}

func (s *SQL) Subscribe(ctx context.Context, id uuid.UUID) (<-chan *models.Draft, func()) {
	return s.hub.Subscribe(ctx, id)
}

func scanEvent(row rowScanner) (events.OutboxEvent, error) {
	var (
		e       events.OutboxEvent
		payload string
		sent    sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.DraftID, &e.EventType, &payload, &e.CreatedAt, &sent); err != nil {
		return e, err
	}
	e.Payload = json.RawMessage(payload)
	e.SentAt = sqlutil.FromSqlTime(sent)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

// FetchUnsent returns up to limit unsent outbox events in insertion order.
func (s *SQL) FetchUnsent(ctx context.Context, limit int) ([]events.OutboxEvent, error) {
	rows, err := s.newQueries(s.db).query(ctx, `SELECT id, draft_id, event_type, payload, created_at, sent_at
	FROM draft_outbox WHERE sent_at IS NULL ORDER BY seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQL) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*events.OutboxEvent, error) {
	e, err := scanEvent(s.newQueries(s.db).queryRow(ctx, `SELECT id, draft_id, event_type, payload, created_at, sent_at
	FROM draft_outbox WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox event: %w", err)
	}
	return &e, nil
}

func (s *SQL) MarkSent(ctx context.Context, id uuid.UUID) error {
	res, err := s.newQueries(s.db).exec(ctx, `UPDATE draft_outbox SET sent_at = ? WHERE id = ?`, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognises primary key and unique constraint failures
// from each supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
