package usecase

import (
	"context"
	"log/slog"

	"github.com/guardianlk/guardian/internal/database"
	apperrors "github.com/guardianlk/guardian/internal/errors"
	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
	"github.com/guardianlk/guardian/internal/pii"
)

// EncryptExistingUseCase migrates legacy plaintext personal-details rows to
// the encoded format. Already-encoded fields are left byte-for-byte intact,
// so the operation is idempotent and safe to re-run.
type EncryptExistingUseCase struct {
	repo      PersonalDetailsRepository
	codec     *pii.Codec
	txManager database.TxManager
	logger    *slog.Logger
}

// NewEncryptExistingUseCase creates a new backfill use case instance.
func NewEncryptExistingUseCase(
	repo PersonalDetailsRepository,
	codec *pii.Codec,
	txManager database.TxManager,
	logger *slog.Logger,
) *EncryptExistingUseCase {
	return &EncryptExistingUseCase{repo: repo, codec: codec, txManager: txManager, logger: logger}
}

// Execute encrypts every plaintext field of every row inside a single
// transaction. Returns the number of rows rewritten.
func (u *EncryptExistingUseCase) Execute(ctx context.Context) (int, error) {
	var updated int

	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		rows, err := u.repo.ListAll(txCtx)
		if err != nil {
			return err
		}

		for _, row := range rows {
			changed, err := u.encodeRow(row)
			if err != nil {
				return apperrors.Wrap(err, "failed to encode row")
			}
			if !changed {
				continue
			}
			if err := u.repo.UpdateFields(txCtx, row); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	u.logger.Info("personal details backfill complete", slog.Int("rows_updated", updated))
	return updated, nil
}

// encodeRow rewrites plaintext fields in place and reports whether anything
// changed. Encoded fields and empty fields are skipped.
func (u *EncryptExistingUseCase) encodeRow(row *personalDomain.PersonalDetails) (bool, error) {
	changed := false

	for _, field := range []*string{&row.FirstName, &row.LastName, &row.DateOfBirth, &row.ContactNumber} {
		if *field == "" || pii.IsEncoded(*field) {
			continue
		}
		encoded, err := u.codec.EncodeField(*field)
		if err != nil {
			return false, err
		}
		*field = encoded
		changed = true
	}
	return changed, nil
}
