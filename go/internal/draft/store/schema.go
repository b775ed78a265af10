package store

import "fmt"

// NotifyChannel is the Postgres channel the outbox trigger notifies on.
const NotifyChannel = "draft_outbox_events"

func schemaStatements(driver string) []string {
	ts, seq := "TIMESTAMPTZ", "seq BIGSERIAL"
	if driver == "sqlite3" {
		ts, seq = "TIMESTAMP", "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	settings TEXT NOT NULL,
	participant_order TEXT NOT NULL,
	current_overall_pick INTEGER NOT NULL DEFAULT 0,
	current_picker_id TEXT,
	turn_started_at %[1]s,
	timer_deadline %[1]s,
	revision BIGINT NOT NULL DEFAULT 0,
	scheduled_at %[1]s,
	started_at %[1]s,
	completed_at %[1]s,
	created_at %[1]s NOT NULL,
	updated_at %[1]s NOT NULL
)`, ts),
		`CREATE INDEX IF NOT EXISTS drafts_status_idx ON drafts (status)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS draft_picks (
	draft_id TEXT NOT NULL REFERENCES drafts (id),
	overall_pick INTEGER NOT NULL,
	participant_id TEXT NOT NULL,
	selection_id TEXT NOT NULL,
	category TEXT,
	round INTEGER NOT NULL,
	pick INTEGER NOT NULL,
	committed_at %[1]s NOT NULL,
	seconds_taken INTEGER,
	was_auto_pick BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (draft_id, overall_pick)
)`, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS draft_outbox (
	%[2]s,
	id TEXT NOT NULL UNIQUE,
	draft_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at %[1]s NOT NULL,
	sent_at %[1]s
)`, ts, seq),
		`CREATE INDEX IF NOT EXISTS draft_outbox_unsent_idx ON draft_outbox (sent_at)`,
	}

	if driver == "sqlite3" {
		return stmts
	}

	return append(stmts,
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION notify_draft_outbox() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', NEW.id);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`, NotifyChannel),
		`DROP TRIGGER IF EXISTS draft_outbox_notify ON draft_outbox`,
		`CREATE TRIGGER draft_outbox_notify AFTER INSERT ON draft_outbox FOR EACH ROW EXECUTE FUNCTION notify_draft_outbox()`,
	)
}
