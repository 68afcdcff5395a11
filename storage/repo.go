package storage

import "context"

// Persisted key layout. Every value is a string; structured values are JSON.
const (
	KeyAccessToken      = "accessToken"
	KeyRefreshToken     = "refreshToken"
	KeyUser             = "user"
	KeySelectedDivision = "selectedDivision"
	KeySealSalt         = "sealSalt"
)

// Repo is a durable string key/value store backing the session state.
// Get reports found=false (and a nil error) for a missing key. Delete of a
// missing key is not an error.
type Repo interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
