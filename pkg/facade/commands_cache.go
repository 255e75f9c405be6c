// Cache and connection-pool maintenance commands.
package facade

import (
	"context"

	"github.com/AccessDevops/S3Explorer/pkg/cache"
)

// CacheStatus reports the facade's per-profile connection cache counters.
func (f *Facade) CacheStatus() cache.Stats {
	return f.conns.Status()
}

// Warmup pre-builds profileID's connection (Gateway + IndexEngine +
// TransferEngine, and its pooled IndexStore handle) so the first real
// command against it doesn't pay the lazy-init cost.
func (f *Facade) Warmup(ctx context.Context, profileID string) error {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	_, err = f.connectionFor(ctx, p)
	return err
}

// CleanupProfile evicts profileID's cached connection and releases its
// pooled handles without deleting the profile itself, for a UI-triggered
// "disconnect" action distinct from DeleteProfile.
func (f *Facade) CleanupProfile(profileID string) error {
	f.conns.Remove(profileID)
	return f.pool.CloseProfile(profileID)
}

// ClearAllCaches evicts every cached connection across every profile and
// releases every pooled handle, for test isolation and the UI's "clear all"
// maintenance action.
func (f *Facade) ClearAllCaches() error {
	f.conns.Clear()
	return f.pool.CloseAll()
}
