package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/guardianlk/guardian/internal/config"

	// Register KMS provider drivers for key unwrapping.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// ResolveDataKey loads the 32-byte PII encryption key for the process.
//
// Two sources are supported:
//   - DATA_KEY_BASE64: the key itself, base64-encoded (development and
//     simple deployments)
//   - KMS_KEY_URI + DATA_KEY_WRAPPED: a gocloud.dev secrets keeper
//     (hashivault://, awskms://, gcpkms://, base64key://...) decrypts the
//     wrapped key so the raw key never appears in the environment
//
// The KMS path wins when configured. Either way the decoded key must be
// exactly 32 bytes or an error is returned.
func ResolveDataKey(ctx context.Context, cfg *config.Config) ([]byte, error) {
	if cfg.KMSKeyURI != "" {
		return unwrapDataKey(ctx, cfg.KMSKeyURI, cfg.DataKeyWrapped)
	}
	return cfg.DataKey()
}

// unwrapDataKey opens the configured keeper and decrypts the wrapped data key.
func unwrapDataKey(ctx context.Context, keyURI, wrapped string) ([]byte, error) {
	if wrapped == "" {
		return nil, fmt.Errorf("KMS_KEY_URI is set but DATA_KEY_WRAPPED is empty")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("DATA_KEY_WRAPPED is not valid base64: %w", err)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	key, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("unwrapped data key must be exactly 32 bytes, got %d", len(key))
	}

	return key, nil
}
