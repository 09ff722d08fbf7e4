package realtime

import (
	"context"
	"time"
)

// presenceTTL bounds how long a driver counts as online without a heartbeat.
const presenceTTL = 90 * time.Second

func driverPresenceKey(driverID string) string {
	return "presence.driver." + driverID
}

// Heartbeat marks a driver online for the presence window.
func (b *Bridge) Heartbeat(ctx context.Context, driverID string) error {
	return b.rdb.Set(ctx, driverPresenceKey(driverID), "1", presenceTTL).Err()
}

// ClearPresence drops a driver's presence marker immediately (offline toggle).
func (b *Bridge) ClearPresence(ctx context.Context, driverID string) error {
	return b.rdb.Del(ctx, driverPresenceKey(driverID)).Err()
}

// IsOnline reports whether the driver has a live presence marker.
func (b *Bridge) IsOnline(ctx context.Context, driverID string) (bool, error) {
	n, err := b.rdb.Exists(ctx, driverPresenceKey(driverID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
