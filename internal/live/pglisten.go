package live

import (
	"context"
	"fmt"
	"time"

	"attendance_tracker/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Listener forwards Postgres NOTIFY payloads on one channel to a Hub.
type Listener struct {
	pool    *pgxpool.Pool
	hub     *Hub
	channel string
	backoff time.Duration
	log     *logger.Logger
}

func NewListener(pool *pgxpool.Pool, hub *Hub, channel string, backoff time.Duration, log *logger.Logger) *Listener {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Listener{pool: pool, hub: hub, channel: channel, backoff: backoff, log: log}
}

// Run listens until ctx is done. When the connection drops every open
// subscription fails, so consumers surface the error instead of going stale.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.Error(ctx, "change feed interrupted", err)
		l.hub.Fail(fmt.Errorf("change feed interrupted: %w", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	pc, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	conn := pc.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}
	l.log.Infof(ctx, "listening for changes on %s", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if !ValidTopic(n.Payload) {
			l.log.Warn(ctx, "ignoring unknown change topic "+n.Payload, nil)
			continue
		}
		l.hub.Publish(n.Payload)
	}
}
