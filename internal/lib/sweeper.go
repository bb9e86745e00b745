package lib

import (
	"context"
	"log/slog"
	"time"
)

type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionSweeper deletes assignment sessions idle for longer than TTL.
type SessionSweeper struct {
	Store    Purger
	TTL      time.Duration
	Interval time.Duration
	Log      *slog.Logger
	Stop     chan struct{}
	now      func() time.Time
}

func (sw *SessionSweeper) Start() {
	if sw.TTL <= 0 || sw.Interval <= 0 {
		return
	}
	if sw.Stop != nil {
		close(sw.Stop)
	}
	sw.Stop = make(chan struct{})
	stop := sw.Stop
	go func() {
		ticker := time.NewTicker(sw.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := sw.tick(context.Background()); err != nil {
					sw.Log.Error("session sweep", slog.Any("err", err))
				}
			}
		}
	}()
}

func (sw *SessionSweeper) tick(ctx context.Context) (int64, error) {
	now := time.Now
	if sw.now != nil {
		now = sw.now
	}
	n, err := sw.Store.PurgeExpired(ctx, now().Add(-sw.TTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		sw.Log.Info("expired sessions purged", slog.Int64("count", n))
	}
	return n, nil
}
