package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/guardianlk/guardian/internal/database"
	apperrors "github.com/guardianlk/guardian/internal/errors"
	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
)

// MySQLPersonalDetailsRepository implements PersonalDetails persistence for
// MySQL databases.
type MySQLPersonalDetailsRepository struct {
	db *sql.DB
}

// NewMySQLPersonalDetailsRepository creates a new MySQL PersonalDetails
// repository instance.
func NewMySQLPersonalDetailsRepository(db *sql.DB) *MySQLPersonalDetailsRepository {
	return &MySQLPersonalDetailsRepository{db: db}
}

// Create inserts a new personal-details row and fills in the generated ID.
func (m *MySQLPersonalDetailsRepository) Create(
	ctx context.Context,
	details *personalDomain.PersonalDetails,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO personal_details
			  (first_name, last_name, date_of_birth, contact_number, report_id, lost_article_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	if details.CreatedAt.IsZero() {
		details.CreatedAt = time.Now().UTC()
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		nullableString(details.FirstName),
		nullableString(details.LastName),
		nullableString(details.DateOfBirth),
		nullableString(details.ContactNumber),
		details.ReportID,
		details.LostArticleID,
		details.CreatedAt,
	)
	if err != nil {
		return wrapMySQLError(err, "failed to create personal details")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read inserted id")
	}
	details.ID = id
	return nil
}

// FindByReportID retrieves all rows attached to a report.
func (m *MySQLPersonalDetailsRepository) FindByReportID(
	ctx context.Context,
	reportID int64,
) ([]*personalDomain.PersonalDetails, error) {
	return m.findBy(ctx, "report_id", reportID)
}

// FindByLostArticleID retrieves all rows attached to a lost article.
func (m *MySQLPersonalDetailsRepository) FindByLostArticleID(
	ctx context.Context,
	lostArticleID int64,
) ([]*personalDomain.PersonalDetails, error) {
	return m.findBy(ctx, "lost_article_id", lostArticleID)
}

func (m *MySQLPersonalDetailsRepository) findBy(
	ctx context.Context,
	column string,
	value int64,
) ([]*personalDomain.PersonalDetails, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, first_name, last_name, date_of_birth, contact_number, report_id, lost_article_id, created_at
			  FROM personal_details
			  WHERE ` + column + ` = ?
			  ORDER BY id`

	rows, err := querier.QueryContext(ctx, query, value)
	if err != nil {
		return nil, wrapMySQLError(err, "failed to query personal details")
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
		return nil, wrapMySQLError(err, "failed to iterate personal details")
	}
	return result, nil
}

// DeleteByReport removes one row scoped to both the row id and the report it
// is attached to. Returns false when no row matched.
func (m *MySQLPersonalDetailsRepository) DeleteByReport(
	ctx context.Context,
	reportID int64,
	detailsID int64,
) (bool, error) {
	return m.deleteScoped(ctx, "report_id", reportID, detailsID)
}

// DeleteByLostArticle removes one row scoped to both the row id and the lost
// article it is attached to. Returns false when no row matched.
func (m *MySQLPersonalDetailsRepository) DeleteByLostArticle(
	ctx context.Context,
	lostArticleID int64,
	detailsID int64,
) (bool, error) {
	return m.deleteScoped(ctx, "lost_article_id", lostArticleID, detailsID)
}

func (m *MySQLPersonalDetailsRepository) deleteScoped(
	ctx context.Context,
	column string,
	parentID int64,
	detailsID int64,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM personal_details WHERE id = ? AND ` + column + ` = ?`

	result, err := querier.ExecContext(ctx, query, detailsID, parentID)
	if err != nil {
		return false, wrapMySQLError(err, "failed to delete personal details")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// ListAll retrieves every row. Used by the encryption backfill.
func (m *MySQLPersonalDetailsRepository) ListAll(
	ctx context.Context,
) ([]*personalDomain.PersonalDetails, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, first_name, last_name, date_of_birth, contact_number, report_id, lost_article_id, created_at
			  FROM personal_details
			  ORDER BY id`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapMySQLError(err, "failed to list personal details")
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
		return nil, wrapMySQLError(err, "failed to iterate personal details")
	}
	return result, nil
}

// UpdateFields rewrites the four protected columns of one row. Used by the
// encryption backfill.
func (m *MySQLPersonalDetailsRepository) UpdateFields(
	ctx context.Context,
	details *personalDomain.PersonalDetails,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE personal_details
			  SET first_name = ?, last_name = ?, date_of_birth = ?, contact_number = ?
			  WHERE id = ?`

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
		return wrapMySQLError(err, "failed to update personal details")
	}
	return nil
}

// constraintErrorNumbers are the MySQL error numbers for integrity
// violations: 1062 duplicate entry, 1048 column cannot be null, 1452
// foreign key fails.
var constraintErrorNumbers = map[uint16]bool{
	1062: true,
	1048: true,
	1452: true,
}

// wrapMySQLError maps driver integrity violations to the domain constraint
// sentinel and wraps everything else.
func wrapMySQLError(err error, message string) error {
	var mysqlErr *mysql.MySQLError
	if apperrors.As(err, &mysqlErr) && constraintErrorNumbers[mysqlErr.Number] {
		return apperrors.Wrap(apperrors.ErrConstraint, mysqlErr.Message)
	}
	return apperrors.Wrap(err, message)
}
