package config

import "context"

// SecretProvider resolves secret parameter paths to plaintext values.
// Keys missing upstream are omitted from the returned map.
type SecretProvider interface {
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
