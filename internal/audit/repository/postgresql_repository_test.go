package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
)

func TestPostgreSQLRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLRepository(db)
	ctx := context.Background()

	actor := "u42"
	entityID := "f1"
	rec := &auditDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC(),
		ActorID:   &actor,
		IP:        "203.0.113.7",
		UserAgent: "test-agent",
		Method:    "GET",
		Path:      "/api/v1/files/download?token=%5Bredacted%5D",
		Action:    auditDomain.ActionFileDownload,
		Entity:    "file",
		EntityID:  &entityID,
		Metadata:  map[string]any{"mime": "image/jpeg"},
		Signature: []byte{0x01, 0x02},
	}

	mock.ExpectExec("INSERT INTO audit_records").
		WithArgs(
			rec.ID, rec.Timestamp, actor, rec.IP, rec.UserAgent,
			rec.Method, rec.Path, rec.Action, rec.Entity, entityID,
			sqlmock.AnyArg(), rec.Signature,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(ctx, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRepository_Create_NilOptionals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLRepository(db)

	rec := &auditDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC(),
		Method:    "GET",
		Path:      "/health",
		Action:    auditDomain.ActionFileDownloadDenied,
	}

	mock.ExpectExec("INSERT INTO audit_records").
		WithArgs(
			rec.ID, rec.Timestamp, nil, "", "",
			"GET", "/health", rec.Action, "", nil,
			nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLRepository_Create_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLRepository(db)

	mock.ExpectExec("INSERT INTO audit_records").
		WillReturnError(errors.New("connection reset"))

	err = repo.Create(context.Background(), &auditDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC(),
		Action:    auditDomain.ActionIncidentCreate,
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
