// Package usecase implements business logic for personal details. The use
// case owns the encrypt-on-write / decrypt-on-read boundary: repositories
// only ever see encoded values, callers only ever see decrypted views.
package usecase

import (
	"context"

	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
)

// PersonalDetailsInput carries the plaintext fields submitted by a client.
type PersonalDetailsInput struct {
	FirstName     string
	LastName      string
	DateOfBirth   string
	ContactNumber string
}

// PersonalDetailsRepository defines the interface for personal-details
// persistence operations.
type PersonalDetailsRepository interface {
	Create(ctx context.Context, details *personalDomain.PersonalDetails) error
	FindByReportID(ctx context.Context, reportID int64) ([]*personalDomain.PersonalDetails, error)
	FindByLostArticleID(ctx context.Context, lostArticleID int64) ([]*personalDomain.PersonalDetails, error)
	DeleteByReport(ctx context.Context, reportID, detailsID int64) (bool, error)
	DeleteByLostArticle(ctx context.Context, lostArticleID, detailsID int64) (bool, error)
	ListAll(ctx context.Context) ([]*personalDomain.PersonalDetails, error)
	UpdateFields(ctx context.Context, details *personalDomain.PersonalDetails) error
}

// PersonalDetailsUseCase defines the business operations on personal details.
// Every returned PersonalDetails carries decrypted field values.
type PersonalDetailsUseCase interface {
	Create(ctx context.Context, input PersonalDetailsInput) (*personalDomain.PersonalDetails, error)
	CreateReportWitness(ctx context.Context, input PersonalDetailsInput, reportID int64) (*personalDomain.PersonalDetails, error)
	CreateLostArticleDetails(ctx context.Context, input PersonalDetailsInput, lostArticleID int64) (*personalDomain.PersonalDetails, error)
	DeleteReportWitness(ctx context.Context, reportID, detailsID int64) (bool, error)
	DeleteLostArticleDetails(ctx context.Context, lostArticleID, detailsID int64) (bool, error)
	FindByReportID(ctx context.Context, reportID int64) ([]*personalDomain.PersonalDetails, error)
	FindByLostArticleID(ctx context.Context, lostArticleID int64) ([]*personalDomain.PersonalDetails, error)
}
