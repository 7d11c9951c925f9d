package admission

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/skillreg/registry/internal/datastore"
)

// bearerPrefix is the scheme portion of the Authorization header.
const bearerPrefix = "Bearer "

// resolveBearer extracts and resolves the bearer token from r, per the
// admission protocol's step (1): SHA-256 the token and look up its hash
// in api_keys, stamping last_used_at.
func (app *App) resolveBearer(ctx context.Context, r *http.Request) (datastore.ResolvedKey, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return datastore.ResolvedKey{}, fmt.Errorf("missing bearer token")
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return datastore.ResolvedKey{}, fmt.Errorf("empty bearer token")
	}

	key, err := app.DB.ResolveAPIKey(ctx, token)
	if err != nil {
		return datastore.ResolvedKey{}, fmt.Errorf("resolving bearer token: %w", err)
	}
	return key, nil
}
