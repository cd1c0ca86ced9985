package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/guardianlk/guardian/internal/app"
	"github.com/guardianlk/guardian/internal/config"
)

// RunEncryptPersonalDetails encrypts any plaintext personal-details rows left
// over from before field encryption was introduced. The backfill runs in a
// single transaction, skips already-encrypted and empty fields, and is safe
// to run repeatedly.
func RunEncryptPersonalDetails(ctx context.Context, writer io.Writer) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	backfill, err := container.EncryptExistingUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backfill: %w", err)
	}

	logger.Info("starting personal details encryption backfill")

	updated, err := backfill.Execute(ctx)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	logger.Info("backfill finished", slog.Int("rows_updated", updated))
	fmt.Fprintf(writer, "Encrypted %d row(s).\n", updated)
	return nil
}
