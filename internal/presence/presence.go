// Package presence implements the rate-limited "to N instances" presence
// broadcast: a mutex-guarded last_update timestamp gated at 60 seconds.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"octoshim/internal/chatgateway"
)

const minInterval = 60 * time.Second

// Updater is wired as the registry's onChange callback. It is a no-op
// unless the process is configured as the shared "cloud" deployment.
type Updater struct {
	mu          sync.Mutex
	lastUpdate  time.Time
	cloudServer bool
	session     chatgateway.Session
	logger      *zap.Logger
}

// New builds an Updater.
func New(cloudServer bool, session chatgateway.Session, logger *zap.Logger) *Updater {
	return &Updater{cloudServer: cloudServer, session: session, logger: logger}
}

// OnMembershipChange is called after every registry register/unregister
// with the new instance count.
func (u *Updater) OnMembershipChange(count int) {
	if !u.cloudServer {
		return
	}
	if !u.tryAcquire() {
		return
	}

	activity := chatgateway.Activity{
		Kind: chatgateway.ActivityStreaming,
		Text: fmt.Sprintf("to %d instances", count),
		URL:  "https://octoprint.org",
	}
	if err := u.session.SetPresence(context.Background(), activity, chatgateway.StatusOnline); err != nil {
		u.logger.Error("presence update failed", zap.Error(err))
	}
}

// tryAcquire reports whether the 60-second gate allows a publish right now,
// claiming the slot atomically if so so concurrent callers never both
// publish within the same window.
func (u *Updater) tryAcquire() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	now := time.Now()
	if now.Sub(u.lastUpdate) < minInterval {
		return false
	}
	u.lastUpdate = now
	return true
}
