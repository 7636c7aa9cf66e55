package timezone

import (
	"fmt"
	"sync/atomic"
	"time"
)

var appLocation atomic.Pointer[time.Location]

// Init sets the application timezone from an IANA name. An empty name means UTC.
func Init(name string) error {
	if name == "" {
		name = "UTC"
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		appLocation.Store(time.UTC)

		return fmt.Errorf("failed to load timezone %q: %w", name, err)
	}

	appLocation.Store(loc)

	return nil
}

// Location returns the application timezone, UTC until Init succeeds.
func Location() *time.Location {
	if loc := appLocation.Load(); loc != nil {
		return loc
	}

	return time.UTC
}

// Now returns the current time in the application timezone
func Now() time.Time {
	return time.Now().In(Location())
}
