package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Skotchmaster/bubba_express/services/audit/internal/models"
)

// Memory keeps audit entries in process for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	entries []models.OrderStatusAudit
}

func (m *Memory) Create(_ context.Context, a *models.OrderStatusAudit) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *a)
	return nil
}

func (m *Memory) ListByOrderID(_ context.Context, orderID string, limit int) ([]models.OrderStatusAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.OrderStatusAudit{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].OrderID == orderID {
			out = append(out, m.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
