package live

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
)

const Channel = "order_changes"

type OrderLoader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// PGFeed relays order changes between instances through Postgres LISTEN/NOTIFY.
// Writers call OrderChanged after commit; every instance runs Run and republishes into its own hub.
// While this instance is not listening, changes go straight into the local hub instead.
type PGFeed struct {
	DB     *gorm.DB
	DSN    string
	Hub    *Hub
	Loader OrderLoader
	Log    *slog.Logger

	down atomic.Bool
}

// Listening reports whether notifications from other instances are being received.
func (f *PGFeed) Listening() bool {
	return !f.down.Load()
}

func (f *PGFeed) OrderChanged(ctx context.Context, o *models.Order) {
	if f.down.Load() {
		f.Hub.Publish(*o)
		return
	}
	if err := f.DB.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", Channel, o.ID.String()).Error; err != nil {
		f.Log.Warn("order_notify_error", "order_id", o.ID, "error", err)
		f.Hub.Publish(*o)
	}
}

func (f *PGFeed) listenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
		f.down.Store(true)
	case pq.ListenerEventConnected, pq.ListenerEventReconnected:
		f.down.Store(false)
	}
	if err != nil {
		f.Log.Warn("order_listener_event", "event", ev, "error", err)
	}
}

// Run listens until ctx is done. If it stops for any other reason the feed keeps
// working in local mode.
func (f *PGFeed) Run(ctx context.Context) (err error) {
	defer func() {
		if ctx.Err() == nil {
			f.down.Store(true)
			f.Log.Error("order_listener_stopped", "reason", "publishing to local subscribers only", "error", err)
		}
	}()

	listener := pq.NewListener(f.DSN, 2*time.Second, time.Minute, f.listenerEvent)
	defer listener.Close()

	if err := listener.Listen(Channel); err != nil {
		return err
	}
	f.Log.Info("order_listener_started", "channel", Channel)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; notifications sent meanwhile are lost.
			if n == nil {
				continue
			}
			f.relay(ctx, n.Extra)
		case <-ping.C:
			go func() { _ = listener.Ping() }()
		}
	}
}

func (f *PGFeed) relay(ctx context.Context, payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		f.Log.Warn("order_notify_payload", "payload", payload, "error", err)
		return
	}
	o, err := f.Loader.GetOrder(ctx, id)
	if err != nil {
		f.Log.Warn("order_notify_reload", "order_id", id, "error", err)
		return
	}
	f.Hub.Publish(*o)
}
