package persistence

import (
	"database/sql"

	"github.com/avelin/dagflow/pkg/api"
)

// SQLiteInstanceStore is an InstanceStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteInstanceStore struct {
	db *sql.DB
}

// Ensure SQLiteInstanceStore implements InstanceStore.
var _ InstanceStore = (*SQLiteInstanceStore)(nil)

// NewSQLiteInstanceStore initializes the required schema in the given
// database and returns a new SQLiteInstanceStore.
func NewSQLiteInstanceStore(db *sql.DB) (*SQLiteInstanceStore, error) {
	s := &SQLiteInstanceStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteInstanceStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_instances (
			id TEXT PRIMARY KEY,
			definition_id TEXT NOT NULL,
			status TEXT NOT NULL,
			snapshot BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_workflow_instances_definition
			ON workflow_instances(definition_id, status);`,
	)
	return err
}

func (s *SQLiteInstanceStore) SaveInstance(inst *api.Instance) error {
	snapshot, err := EncodeJSON(inst)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO workflow_instances (id, definition_id, status, snapshot)
		VALUES (?, ?, ?, ?)`,
		inst.ID,
		inst.DefinitionID,
		string(inst.Status),
		snapshot,
	)
	return err
}

func (s *SQLiteInstanceStore) UpdateInstance(inst *api.Instance) error {
	snapshot, err := EncodeJSON(inst)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE workflow_instances
		SET definition_id = ?, status = ?, snapshot = ?
		WHERE id = ?`,
		inst.DefinitionID,
		string(inst.Status),
		snapshot,
		inst.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

func (s *SQLiteInstanceStore) GetInstance(id string) (*api.Instance, error) {
	row := s.db.QueryRow(`SELECT snapshot FROM workflow_instances WHERE id = ?`, id)

	var snapshot []byte
	if err := row.Scan(&snapshot); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return DecodeJSON[*api.Instance](snapshot)
}

func (s *SQLiteInstanceStore) ListInstances(filter InstanceFilter) ([]*api.Instance, error) {
	query := `SELECT snapshot FROM workflow_instances WHERE 1=1`
	var args []any
	if filter.DefinitionID != "" {
		query += ` AND definition_id = ?`
		args = append(args, filter.DefinitionID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*api.Instance
	for rows.Next() {
		var snapshot []byte
		if err := rows.Scan(&snapshot); err != nil {
			return nil, err
		}
		inst, err := DecodeJSON[*api.Instance](snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}
