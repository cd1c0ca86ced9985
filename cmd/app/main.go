// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/guardianlk/guardian/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "guardian",
		Usage:   "PII protection and accountability service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-data-key",
				Usage: "Generate a new data key for field encryption and audit signing",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kms-key-uri",
						Aliases: []string{"k"},
						Value:   "",
						Usage:   "KMS keeper URI to wrap the key (e.g. base64key://..., awskms://..., gcpkms://...)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateDataKey(ctx, commands.DefaultIO().Writer, cmd.String("kms-key-uri"))
				},
			},
			{
				Name:  "encrypt-personal-details",
				Usage: "Encrypt plaintext personal-details rows in place (idempotent backfill)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEncryptPersonalDetails(ctx, commands.DefaultIO().Writer)
				},
			},
			{
				Name:  "verify-audit-log",
				Usage: "Verify tamper-evidence signatures of the audit log file",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyAuditLog(ctx, commands.DefaultIO().Writer)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
