// Package cloud is the bootstrap-time collaborator for external
// infrastructure: the worldserver's directory entry (so other services
// can find which region/slot is serving a session), DNS update for that
// slot, and periodic terrain-snapshot upload for operators. There is no
// player-score concept in this domain, so no leaderboard surface exists
// here.
package cloud

import (
	"fmt"
	"time"
)

// Cloud is the bootstrap/telemetry surface the worldserver entry point
// drives. A nil-safe Offline implementation lets the server run without
// any cloud account configured — cloud integration is never required for
// a world to serve correctly.
type Cloud interface {
	fmt.Stringer
	UpdateServer(activeParticipants int) error
	UploadWorldSnapshot(data []byte) error
	UpdatePeriod() time.Duration
}

// Offline is the no-op Cloud used when no cloud credentials are present.
type Offline struct{}

func (Offline) String() string { return "offline" }

func (Offline) UpdateServer(int) error { return nil }

func (Offline) UploadWorldSnapshot([]byte) error { return nil }

func (Offline) UpdatePeriod() time.Duration { return time.Hour }
