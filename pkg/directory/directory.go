// Package directory resolves local user identifiers to the stable external
// identifiers ("GUIDs") used as fan-out routing keys.
//
// The account directory is an external HTTP service. Lookups distinguish
// "identifier not found" (permanent, do not retry) from "directory
// unreachable" (transient, retryable by the caller).
package directory

import (
	"context"
	"sync"
	"time"
)

// Config carries directory client settings.
type Config struct {
	BaseURL string        `env:"DIRECTORY_URL"`                      // BaseURL is the directory service root. Empty disables resolution.
	Timeout time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"5s"`  // Timeout bounds each lookup call.
	GUIDKey string        `env:"DIRECTORY_GUID_FIELD" envDefault:"cognitoUserId"` // GUIDKey is the response field holding the routing key.
}

// Resolver maps one local user identifier to its routing key.
type Resolver interface {
	Lookup(ctx context.Context, userID string) (string, error)
}

// Failure describes one recipient that could not be resolved.
type Failure struct {
	UserID string `json:"recipient"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Resolve maps each unique recipient to its routing key. The input is
// deduplicated before lookup so repeated identifiers cost one directory call.
// Lookups run concurrently and fail independently: a failed recipient lands
// in the failure list without aborting the rest of the batch.
func Resolve(ctx context.Context, r Resolver, recipients []string) (map[string]string, []Failure) {
	unique := dedupe(recipients)

	var (
		mu       sync.Mutex
		resolved = make(map[string]string, len(unique))
		failures []Failure
		wg       sync.WaitGroup
	)

	for _, userID := range unique {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := r.Lookup(ctx, userID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, Failure{UserID: userID, Reason: err.Error(), Err: err})
				return
			}
			resolved[userID] = key
		}()
	}
	wg.Wait()

	return resolved, failures
}

// dedupe preserves first-occurrence order while dropping repeats.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Identity is a Resolver that uses the local identifier itself as the
// routing key, for deployments without a directory service.
type Identity struct{}

func (Identity) Lookup(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	return userID, nil
}
