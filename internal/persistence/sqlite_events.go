package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/avelin/dagflow/pkg/api"
)

// SQLiteEventStore stores workflow events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interface.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			definition_id TEXT NOT NULL DEFAULT '',
			task_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			task_status TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_workflow_events_instance_id ON workflow_events(instance_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_events (instance_id, at, type, definition_id, task_id, status, task_status, attempts, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.InstanceID,
		at.UnixNano(),
		string(ev.Type),
		ev.DefinitionID,
		ev.TaskID,
		string(ev.Status),
		string(ev.TaskStatus),
		ev.Attempts,
		ev.Err,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, instanceID string) ([]api.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, at, type, definition_id, task_id, status, task_status, attempts, error
		FROM workflow_events
		WHERE instance_id = ?
		ORDER BY id ASC`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Event
	for rows.Next() {
		var (
			id         string
			atN        int64
			typ        string
			defID      string
			taskID     string
			status     string
			taskStatus string
			attempts   int
			errStr     string
		)
		if err := rows.Scan(&id, &atN, &typ, &defID, &taskID, &status, &taskStatus, &attempts, &errStr); err != nil {
			return nil, err
		}
		out = append(out, api.Event{
			InstanceID:   id,
			At:           time.Unix(0, atN),
			Type:         api.EventType(typ),
			DefinitionID: defID,
			TaskID:       taskID,
			Status:       api.Status(status),
			TaskStatus:   api.TaskStatus(taskStatus),
			Attempts:     attempts,
			Err:          errStr,
		})
	}
	return out, rows.Err()
}
