package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"gocloud.dev/secrets"
)

// RunCreateDataKey generates a cryptographically secure 32-byte data key for
// personal data encryption and audit record signing.
//
// Without a KMS key URI the raw key is printed base64-encoded for
// DATA_KEY_BASE64. With --kms-key-uri the key is encrypted by the keeper
// before output, so only the wrapped form ever reaches the environment:
//
//	DATA_KEY_WRAPPED="<base64-encoded-kms-ciphertext>"
//	KMS_KEY_URI="<uri>"
//
// For local development use kmsKeyURI="base64key://<32-byte-base64-key>".
func RunCreateDataKey(ctx context.Context, writer io.Writer, kmsKeyURI string) error {
	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return fmt.Errorf("failed to generate data key: %w", err)
	}

	if kmsKeyURI == "" {
		fmt.Fprintln(writer, "# Add to your environment:")
		fmt.Fprintf(writer, "DATA_KEY_BASE64=%q\n", base64.StdEncoding.EncodeToString(dataKey))
		return nil
	}

	keeper, err := secrets.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			fmt.Fprintf(writer, "# Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	wrapped, err := keeper.Encrypt(ctx, dataKey)
	if err != nil {
		return fmt.Errorf("failed to wrap data key: %w", err)
	}

	fmt.Fprintln(writer, "# Add to your environment:")
	fmt.Fprintf(writer, "DATA_KEY_WRAPPED=%q\n", base64.StdEncoding.EncodeToString(wrapped))
	fmt.Fprintf(writer, "KMS_KEY_URI=%q\n", kmsKeyURI)
	return nil
}
