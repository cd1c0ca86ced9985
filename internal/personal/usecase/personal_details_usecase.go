package usecase

import (
	"context"

	apperrors "github.com/guardianlk/guardian/internal/errors"
	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
	"github.com/guardianlk/guardian/internal/pii"
)

// personalDetailsUseCase implements PersonalDetailsUseCase.
type personalDetailsUseCase struct {
	repo  PersonalDetailsRepository
	codec *pii.Codec
}

// NewPersonalDetailsUseCase creates a new personal-details use case instance.
func NewPersonalDetailsUseCase(repo PersonalDetailsRepository, codec *pii.Codec) PersonalDetailsUseCase {
	return &personalDetailsUseCase{repo: repo, codec: codec}
}

// Create stores a free-standing personal-details row and returns the
// decrypted view.
func (u *personalDetailsUseCase) Create(
	ctx context.Context,
	input PersonalDetailsInput,
) (*personalDomain.PersonalDetails, error) {
	return u.create(ctx, input, nil, nil)
}

// CreateReportWitness attaches a new witness to a report with a single
// insert and returns the decrypted view.
func (u *personalDetailsUseCase) CreateReportWitness(
	ctx context.Context,
	input PersonalDetailsInput,
	reportID int64,
) (*personalDomain.PersonalDetails, error) {
	return u.create(ctx, input, &reportID, nil)
}

// CreateLostArticleDetails attaches claimant details to a lost article with
// a single insert and returns the decrypted view.
func (u *personalDetailsUseCase) CreateLostArticleDetails(
	ctx context.Context,
	input PersonalDetailsInput,
	lostArticleID int64,
) (*personalDomain.PersonalDetails, error) {
	return u.create(ctx, input, nil, &lostArticleID)
}

func (u *personalDetailsUseCase) create(
	ctx context.Context,
	input PersonalDetailsInput,
	reportID *int64,
	lostArticleID *int64,
) (*personalDomain.PersonalDetails, error) {
	encoded, err := u.encodeInput(input)
	if err != nil {
		return nil, err
	}
	encoded.ReportID = reportID
	encoded.LostArticleID = lostArticleID

	if err := u.repo.Create(ctx, encoded); err != nil {
		return nil, err
	}

	return u.decryptRow(encoded)
}

// DeleteReportWitness removes one witness row scoped to its report. Returns
// false when no row matched.
func (u *personalDetailsUseCase) DeleteReportWitness(
	ctx context.Context,
	reportID, detailsID int64,
) (bool, error) {
	if reportID <= 0 || detailsID <= 0 {
		return false, apperrors.Wrap(apperrors.ErrInvalidInput, "report id and witness id must be included")
	}
	return u.repo.DeleteByReport(ctx, reportID, detailsID)
}

// DeleteLostArticleDetails removes one claimant row scoped to its lost
// article. Returns false when no row matched.
func (u *personalDetailsUseCase) DeleteLostArticleDetails(
	ctx context.Context,
	lostArticleID, detailsID int64,
) (bool, error) {
	if lostArticleID <= 0 || detailsID <= 0 {
		return false, apperrors.Wrap(apperrors.ErrInvalidInput, "lost article id and details id must be included")
	}
	return u.repo.DeleteByLostArticle(ctx, lostArticleID, detailsID)
}

// FindByReportID returns decrypted views of every row attached to a report.
func (u *personalDetailsUseCase) FindByReportID(
	ctx context.Context,
	reportID int64,
) ([]*personalDomain.PersonalDetails, error) {
	rows, err := u.repo.FindByReportID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return u.decryptRows(rows)
}

// FindByLostArticleID returns decrypted views of every row attached to a
// lost article.
func (u *personalDetailsUseCase) FindByLostArticleID(
	ctx context.Context,
	lostArticleID int64,
) ([]*personalDomain.PersonalDetails, error) {
	rows, err := u.repo.FindByLostArticleID(ctx, lostArticleID)
	if err != nil {
		return nil, err
	}
	return u.decryptRows(rows)
}

// encodeInput produces a storage row with every field encoded. Empty fields
// stay empty so the repository can store NULL.
func (u *personalDetailsUseCase) encodeInput(
	input PersonalDetailsInput,
) (*personalDomain.PersonalDetails, error) {
	details := &personalDomain.PersonalDetails{}

	fields := []struct {
		name  string
		plain string
		dst   *string
	}{
		{"first_name", input.FirstName, &details.FirstName},
		{"last_name", input.LastName, &details.LastName},
		{"date_of_birth", input.DateOfBirth, &details.DateOfBirth},
		{"contact_number", input.ContactNumber, &details.ContactNumber},
	}
	for _, f := range fields {
		encoded, err := u.codec.EncodeField(f.plain)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to encode "+f.name)
		}
		*f.dst = encoded
	}
	return details, nil
}

// decryptRow returns a non-destructive decrypted copy of one row. A failure
// on any field aborts with a field-scoped error; the stored row is untouched.
func (u *personalDetailsUseCase) decryptRow(
	row *personalDomain.PersonalDetails,
) (*personalDomain.PersonalDetails, error) {
	view := *row

	fields := []struct {
		name   string
		stored string
		dst    *string
	}{
		{"first_name", row.FirstName, &view.FirstName},
		{"last_name", row.LastName, &view.LastName},
		{"date_of_birth", row.DateOfBirth, &view.DateOfBirth},
		{"contact_number", row.ContactNumber, &view.ContactNumber},
	}
	for _, f := range fields {
		plain, err := u.codec.DecodeNamedField(f.name, f.stored)
		if err != nil {
			return nil, err
		}
		*f.dst = plain
	}
	return &view, nil
}

func (u *personalDetailsUseCase) decryptRows(
	rows []*personalDomain.PersonalDetails,
) ([]*personalDomain.PersonalDetails, error) {
	views := make([]*personalDomain.PersonalDetails, 0, len(rows))
	for _, row := range rows {
		view, err := u.decryptRow(row)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
