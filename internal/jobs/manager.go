package jobs

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/internal/notify"
)

// Manager coordinates the background jobs. One place to start and stop them
// all from main.
type Manager struct {
	broadcastExpiryJob *BroadcastExpiryJob
}

func NewManager(db *mongo.Database, hub *notify.Hub, broadcastTTL time.Duration, radiusKm float64) *Manager {
	return &Manager{
		broadcastExpiryJob: NewBroadcastExpiryJob(db, hub, broadcastTTL, radiusKm),
	}
}

// StartAll starts every scheduled job.
func (m *Manager) StartAll() error {
	if err := m.broadcastExpiryJob.Start(); err != nil {
		return fmt.Errorf("failed to start broadcast expiry job: %w", err)
	}
	return nil
}

// StopAll stops every scheduled job.
func (m *Manager) StopAll() {
	m.broadcastExpiryJob.Stop()
}
