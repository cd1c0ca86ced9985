package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/guardianlk/guardian/internal/crypto/service"
	apperrors "github.com/guardianlk/guardian/internal/errors"
	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
	"github.com/guardianlk/guardian/internal/pii"
)

type mockPersonalDetailsRepository struct {
	mock.Mock
}

func (m *mockPersonalDetailsRepository) Create(ctx context.Context, details *personalDomain.PersonalDetails) error {
	args := m.Called(ctx, details)
	return args.Error(0)
}

func (m *mockPersonalDetailsRepository) FindByReportID(ctx context.Context, reportID int64) ([]*personalDomain.PersonalDetails, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*personalDomain.PersonalDetails), args.Error(1)
}

func (m *mockPersonalDetailsRepository) FindByLostArticleID(ctx context.Context, lostArticleID int64) ([]*personalDomain.PersonalDetails, error) {
	args := m.Called(ctx, lostArticleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*personalDomain.PersonalDetails), args.Error(1)
}

func (m *mockPersonalDetailsRepository) DeleteByReport(ctx context.Context, reportID, detailsID int64) (bool, error) {
	args := m.Called(ctx, reportID, detailsID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPersonalDetailsRepository) DeleteByLostArticle(ctx context.Context, lostArticleID, detailsID int64) (bool, error) {
	args := m.Called(ctx, lostArticleID, detailsID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPersonalDetailsRepository) ListAll(ctx context.Context) ([]*personalDomain.PersonalDetails, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*personalDomain.PersonalDetails), args.Error(1)
}

func (m *mockPersonalDetailsRepository) UpdateFields(ctx context.Context, details *personalDomain.PersonalDetails) error {
	args := m.Called(ctx, details)
	return args.Error(0)
}

func newTestCodec(t *testing.T) *pii.Codec {
	t.Helper()
	cipher, err := cryptoService.NewCipher([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	return pii.NewCodec(cipher)
}

func sampleInput() PersonalDetailsInput {
	return PersonalDetailsInput{
		FirstName:     "Nimal",
		LastName:      "Perera",
		DateOfBirth:   "1990-06-15",
		ContactNumber: "0771234567",
	}
}

func TestPersonalDetailsUseCase_Create(t *testing.T) {
	t.Run("stores ciphertext and returns decrypted view", func(t *testing.T) {
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, newTestCodec(t))

		var stored *personalDomain.PersonalDetails
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PersonalDetails")).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*personalDomain.PersonalDetails)
				stored.ID = 7
			}).
			Return(nil)

		view, err := uc.Create(context.Background(), sampleInput())
		require.NoError(t, err)

		require.NotNil(t, stored)
		assert.True(t, pii.IsEncoded(stored.FirstName))
		assert.True(t, pii.IsEncoded(stored.ContactNumber))
		assert.NotContains(t, stored.FirstName, "Nimal")
		assert.Nil(t, stored.ReportID)
		assert.Nil(t, stored.LostArticleID)

		assert.Equal(t, int64(7), view.ID)
		assert.Equal(t, "Nimal", view.FirstName)
		assert.Equal(t, "Perera", view.LastName)
		assert.Equal(t, "1990-06-15", view.DateOfBirth)
		assert.Equal(t, "0771234567", view.ContactNumber)
		repo.AssertExpectations(t)
	})

	t.Run("witness create attaches report with a single insert", func(t *testing.T) {
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, newTestCodec(t))

		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PersonalDetails")).
			Run(func(args mock.Arguments) {
				details := args.Get(1).(*personalDomain.PersonalDetails)
				details.ID = 3
				require.NotNil(t, details.ReportID)
				assert.Equal(t, int64(42), *details.ReportID)
				assert.Nil(t, details.LostArticleID)
			}).
			Return(nil).
			Once()

		view, err := uc.CreateReportWitness(context.Background(), sampleInput(), 42)
		require.NoError(t, err)
		assert.Equal(t, "Nimal", view.FirstName)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("lost article create attaches lost article id", func(t *testing.T) {
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, newTestCodec(t))

		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PersonalDetails")).
			Run(func(args mock.Arguments) {
				details := args.Get(1).(*personalDomain.PersonalDetails)
				details.ID = 5
				require.NotNil(t, details.LostArticleID)
				assert.Equal(t, int64(9), *details.LostArticleID)
				assert.Nil(t, details.ReportID)
			}).
			Return(nil)

		_, err := uc.CreateLostArticleDetails(context.Background(), sampleInput(), 9)
		require.NoError(t, err)
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, newTestCodec(t))

		repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrConstraint)

		_, err := uc.Create(context.Background(), sampleInput())
		assert.ErrorIs(t, err, apperrors.ErrConstraint)
	})
}

func TestPersonalDetailsUseCase_Find(t *testing.T) {
	t.Run("decrypts encoded rows and passes legacy rows through", func(t *testing.T) {
		codec := newTestCodec(t)
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, codec)

		encoded, err := codec.EncodeField("Kamala")
		require.NoError(t, err)

		rows := []*personalDomain.PersonalDetails{
			{ID: 1, FirstName: encoded, LastName: ""},
			{ID: 2, FirstName: "LegacyName", ContactNumber: "0771234567"},
		}
		repo.On("FindByReportID", mock.Anything, int64(42)).Return(rows, nil)

		views, err := uc.FindByReportID(context.Background(), 42)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "Kamala", views[0].FirstName)
		assert.Empty(t, views[0].LastName)
		assert.Equal(t, "LegacyName", views[1].FirstName)
		assert.Equal(t, "0771234567", views[1].ContactNumber)

		// stored rows are untouched
		assert.Equal(t, encoded, rows[0].FirstName)
	})

	t.Run("tampered field yields field-scoped decryption error", func(t *testing.T) {
		codec := newTestCodec(t)
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, codec)

		rows := []*personalDomain.PersonalDetails{
			{ID: 1, ContactNumber: pii.FormatTagV1 + "not-valid-ciphertext"},
		}
		repo.On("FindByLostArticleID", mock.Anything, int64(9)).Return(rows, nil)

		_, err := uc.FindByLostArticleID(context.Background(), 9)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)

		var fieldErr *pii.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "contact_number", fieldErr.Field)
	})
}

func TestPersonalDetailsUseCase_Delete(t *testing.T) {
	t.Run("scoped delete reports result", func(t *testing.T) {
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, newTestCodec(t))

		repo.On("DeleteByReport", mock.Anything, int64(42), int64(7)).Return(true, nil)
		repo.On("DeleteByLostArticle", mock.Anything, int64(9), int64(7)).Return(false, nil)

		deleted, err := uc.DeleteReportWitness(context.Background(), 42, 7)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = uc.DeleteLostArticleDetails(context.Background(), 9, 7)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("missing identifiers rejected as invalid input", func(t *testing.T) {
		repo := &mockPersonalDetailsRepository{}
		uc := NewPersonalDetailsUseCase(repo, newTestCodec(t))

		_, err := uc.DeleteReportWitness(context.Background(), 0, 7)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = uc.DeleteLostArticleDetails(context.Background(), 9, 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		repo.AssertNotCalled(t, "DeleteByReport")
		repo.AssertNotCalled(t, "DeleteByLostArticle")
	})
}
