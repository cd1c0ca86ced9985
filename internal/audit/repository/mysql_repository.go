package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	"github.com/guardianlk/guardian/internal/database"
	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// MySQLRepository implements insert-only audit record persistence for MySQL
// databases. There is deliberately no update or delete.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository creates a MySQL-backed audit store.
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Create inserts a new audit record. Nil metadata is stored as NULL.
func (m *MySQLRepository) Create(ctx context.Context, rec *auditDomain.Record) error {
	querier := database.GetTx(ctx, m.db)

	var metadataJSON []byte
	var err error
	if rec.Metadata != nil {
		metadataJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record metadata")
		}
	}

	query := `INSERT INTO audit_records (id, ts, actor_id, ip, user_agent, method, path, action, entity, entity_id, metadata, signature)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		rec.ID.String(),
		rec.Timestamp,
		rec.ActorID,
		rec.IP,
		rec.UserAgent,
		rec.Method,
		rec.Path,
		rec.Action,
		rec.Entity,
		rec.EntityID,
		metadataJSON,
		rec.Signature,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to insert audit record")
	}

	return nil
}
