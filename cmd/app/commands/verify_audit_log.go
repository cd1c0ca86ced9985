package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/guardianlk/guardian/internal/app"
	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	"github.com/guardianlk/guardian/internal/config"
)

// RunVerifyAuditLog verifies the tamper-evidence signatures of the
// append-only audit log file. Each line is checked against the HMAC derived
// from the configured data key. Returns an error when any record fails
// verification so the command can gate deployment checks.
func RunVerifyAuditLog(ctx context.Context, writer io.Writer) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	signer, err := container.AuditSigner(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize signer: %w", err)
	}

	file, err := os.Open(cfg.AuditLogPath)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var total, valid, invalid, unsigned int
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		total++

		var rec auditDomain.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			invalid++
			logger.Warn("unparseable audit record", slog.Int("line", total), slog.Any("error", err))
			continue
		}

		if len(rec.Signature) == 0 {
			unsigned++
			continue
		}

		if err := signer.Verify(&rec); err != nil {
			invalid++
			logger.Warn("audit record failed verification",
				slog.Int("line", total),
				slog.String("id", rec.ID.String()),
			)
		} else {
			valid++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	fmt.Fprintf(writer, "Checked:  %d\n", total)
	fmt.Fprintf(writer, "Valid:    %d\n", valid)
	fmt.Fprintf(writer, "Unsigned: %d\n", unsigned)
	fmt.Fprintf(writer, "Invalid:  %d\n", invalid)

	if invalid > 0 {
		return fmt.Errorf("integrity check failed: %d invalid record(s)", invalid)
	}
	return nil
}
