// Package blobstore is the keyed persistence boundary. Each key holds one
// JSON-encoded collection that is always replaced as a whole.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot be stored safely
var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore saves and retrieves whole collections by key. Retrieve reports
// found=false, without an error, when the key has never been written.
type BlobStore interface {
	Save(ctx context.Context, key string, v any) error
	Retrieve(ctx context.Context, key string, dst any) (found bool, err error)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func encode(key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
