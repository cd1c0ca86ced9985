package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	"github.com/guardianlk/guardian/internal/database"
	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// PostgreSQLRepository implements insert-only audit record persistence for
// deployments that retain their audit trail in SQL instead of a flat file.
// There is deliberately no update or delete.
type PostgreSQLRepository struct {
	db *sql.DB
}

// NewPostgreSQLRepository creates a PostgreSQL-backed audit store.
func NewPostgreSQLRepository(db *sql.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{db: db}
}

// Create inserts a new audit record. Nil metadata is stored as NULL.
func (p *PostgreSQLRepository) Create(ctx context.Context, rec *auditDomain.Record) error {
	querier := database.GetTx(ctx, p.db)

	var metadataJSON []byte
	var err error
	if rec.Metadata != nil {
		metadataJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record metadata")
		}
	}

	query := `INSERT INTO audit_records (id, ts, actor_id, ip, user_agent, method, path, action, entity, entity_id, metadata, signature)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		rec.ID,
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
