// Package repository implements PostgreSQL persistence for personal details.
// The PII columns are stored as opaque strings; the repository neither
// encrypts nor decrypts. Empty field values map to NULL columns so the
// backfill can tell untouched rows from empty ones.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/guardianlk/guardian/internal/database"
	apperrors "github.com/guardianlk/guardian/internal/errors"
	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
)

// PostgreSQLPersonalDetailsRepository implements PersonalDetails persistence
// for PostgreSQL databases.
type PostgreSQLPersonalDetailsRepository struct {
	db *sql.DB
}

// NewPostgreSQLPersonalDetailsRepository creates a new PostgreSQL
// PersonalDetails repository instance.
func NewPostgreSQLPersonalDetailsRepository(db *sql.DB) *PostgreSQLPersonalDetailsRepository {
	return &PostgreSQLPersonalDetailsRepository{db: db}
}

// Create inserts a new personal-details row and fills in the generated ID.
func (p *PostgreSQLPersonalDetailsRepository) Create(
	ctx context.Context,
	details *personalDomain.PersonalDetails,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO personal_details
			  (first_name, last_name, date_of_birth, contact_number, report_id, lost_article_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`

	if details.CreatedAt.IsZero() {
		details.CreatedAt = time.Now().UTC()
	}

	err := querier.QueryRowContext(
		ctx,
		query,
		nullableString(details.FirstName),
		nullableString(details.LastName),
		nullableString(details.DateOfBirth),
		nullableString(details.ContactNumber),
		details.ReportID,
		details.LostArticleID,
		details.CreatedAt,
	).Scan(&details.ID)
	if err != nil {
		return wrapPostgreSQLError(err, "failed to create personal details")
	}
	return nil
}

// FindByReportID retrieves all rows attached to a report.
func (p *PostgreSQLPersonalDetailsRepository) FindByReportID(
	ctx context.Context,
	reportID int64,
) ([]*personalDomain.PersonalDetails, error) {
	return p.findBy(ctx, "report_id", reportID)
}

// FindByLostArticleID retrieves all rows attached to a lost article.
func (p *PostgreSQLPersonalDetailsRepository) FindByLostArticleID(
	ctx context.Context,
	lostArticleID int64,
) ([]*personalDomain.PersonalDetails, error) {
	return p.findBy(ctx, "lost_article_id", lostArticleID)
}

func (p *PostgreSQLPersonalDetailsRepository) findBy(
	ctx context.Context,
	column string,
	value int64,
) ([]*personalDomain.PersonalDetails, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, first_name, last_name, date_of_birth, contact_number, report_id, lost_article_id, created_at
			  FROM personal_details
			  WHERE ` + column + ` = $1
			  ORDER BY id`

	rows, err := querier.QueryContext(ctx, query, value)
	if err != nil {
		return nil, wrapPostgreSQLError(err, "failed to query personal details")
	}
	defer rows.Close()

	var result []*personalDomain.PersonalDetails
	for rows.Next() {
		details, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPostgreSQLError(err, "failed to iterate personal details")
	}
	return result, nil
}

// DeleteByReport removes one row scoped to both the row id and the report it
// is attached to. Returns false when no row matched.
func (p *PostgreSQLPersonalDetailsRepository) DeleteByReport(
	ctx context.Context,
	reportID int64,
	detailsID int64,
) (bool, error) {
	return p.deleteScoped(ctx, "report_id", reportID, detailsID)
}

// DeleteByLostArticle removes one row scoped to both the row id and the lost
// article it is attached to. Returns false when no row matched.
func (p *PostgreSQLPersonalDetailsRepository) DeleteByLostArticle(
	ctx context.Context,
	lostArticleID int64,
	detailsID int64,
) (bool, error) {
	return p.deleteScoped(ctx, "lost_article_id", lostArticleID, detailsID)
}

func (p *PostgreSQLPersonalDetailsRepository) deleteScoped(
	ctx context.Context,
	column string,
	parentID int64,
	detailsID int64,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM personal_details WHERE id = $1 AND ` + column + ` = $2`

	result, err := querier.ExecContext(ctx, query, detailsID, parentID)
	if err != nil {
		return false, wrapPostgreSQLError(err, "failed to delete personal details")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// ListAll retrieves every row. Used by the encryption backfill.
func (p *PostgreSQLPersonalDetailsRepository) ListAll(
	ctx context.Context,
) ([]*personalDomain.PersonalDetails, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, first_name, last_name, date_of_birth, contact_number, report_id, lost_article_id, created_at
			  FROM personal_details
			  ORDER BY id`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapPostgreSQLError(err, "failed to list personal details")
	}
	defer rows.Close()

	var result []*personalDomain.PersonalDetails
	for rows.Next() {
		details, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPostgreSQLError(err, "failed to iterate personal details")
	}
	return result, nil
}

// UpdateFields rewrites the four protected columns of one row. Used by the
// encryption backfill.
func (p *PostgreSQLPersonalDetailsRepository) UpdateFields(
	ctx context.Context,
	details *personalDomain.PersonalDetails,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE personal_details
			  SET first_name = $1, last_name = $2, date_of_birth = $3, contact_number = $4
			  WHERE id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		nullableString(details.FirstName),
		nullableString(details.LastName),
		nullableString(details.DateOfBirth),
		nullableString(details.ContactNumber),
		details.ID,
	)
	if err != nil {
		return wrapPostgreSQLError(err, "failed to update personal details")
	}
	return nil
}

func scanRow(rows *sql.Rows) (*personalDomain.PersonalDetails, error) {
	var details personalDomain.PersonalDetails
	var firstName, lastName, dateOfBirth, contactNumber sql.NullString

	err := rows.Scan(
		&details.ID,
		&firstName,
		&lastName,
		&dateOfBirth,
		&contactNumber,
		&details.ReportID,
		&details.LostArticleID,
		&details.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan personal details")
	}

	details.FirstName = firstName.String
	details.LastName = lastName.String
	details.DateOfBirth = dateOfBirth.String
	details.ContactNumber = contactNumber.String
	return &details, nil
}

// nullableString maps empty strings to NULL so absent values stay absent.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// wrapPostgreSQLError maps driver constraint violations (SQLSTATE class 23)
// to the domain constraint sentinel and wraps everything else.
func wrapPostgreSQLError(err error, message string) error {
	var pqErr *pq.Error
	if apperrors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return apperrors.Wrap(apperrors.ErrConstraint, pqErr.Message)
	}
	return apperrors.Wrap(err, message)
}
