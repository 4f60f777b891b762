package reactgrid

import (
	"context"
	"log/slog"
)

// FetchFunc reads a full record set.
type FetchFunc func(ctx context.Context) ([]Record, error)

// AsyncLoader turns fetch into a Loader that runs on its own goroutine. Fetch
// errors are logged and the callback is never invoked, so the grid keeps
// showing its previous records.
func AsyncLoader(ctx context.Context, name string, fetch FetchFunc) Loader {
	return func(done func([]Record)) {
		go func() {
			records, err := fetch(ctx)
			if err != nil {
				slog.Error("Failed to load grid records", "source", name, "error", err)
				return
			}
			done(records)
		}()
	}
}
