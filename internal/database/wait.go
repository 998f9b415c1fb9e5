package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialPingBackoff は接続確認リトライの初回遅延。
	initialPingBackoff = 500 * time.Millisecond
	// maxPingBackoff は接続確認リトライの最大遅延。
	maxPingBackoff = 10 * time.Second
)

// Pinger は接続確認ができるデータベースハンドル。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingBackoff は連続失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ミリ秒、2倍ずつ増加、最大10秒。
func PingBackoff(failures int) time.Duration {
	delay := initialPingBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxPingBackoff {
			return maxPingBackoff
		}
	}
	return delay
}

// WaitForConnection は接続確認が成功するまで最大maxAttempts回試行する。
// 起動直後でデータベースがまだ受け付けていない場合に備える。
func WaitForConnection(ctx context.Context, db Pinger, maxAttempts int) error {
	return waitForConnection(ctx, db, maxAttempts, PingBackoff)
}

func waitForConnection(ctx context.Context, db Pinger, maxAttempts int, backoff func(int) time.Duration) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := backoff(attempt)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", maxAttempts, err)
}
