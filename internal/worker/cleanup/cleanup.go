// Package cleanup は失効トークンの定期削除ジョブを提供する。
// メモリの失効ストアは失効期限を過ぎたjtiを参照時にしか消さないため、
// 一定間隔で掃除してログアウトが続いてもエントリが溜まらないようにする。
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval はスイープ間隔のデフォルト。
const DefaultInterval = 10 * time.Minute

// Purger は期限切れエントリを削除し削除件数を返すストア。
type Purger interface {
	Purge() int
}

// RevocationSweepJob は失効ストアの期限切れエントリを定期的に削除する。
type RevocationSweepJob struct {
	store    Purger
	logger   *slog.Logger
	Interval time.Duration
}

// NewRevocationSweepJob は新しいRevocationSweepJobを生成する。
func NewRevocationSweepJob(store Purger, logger *slog.Logger) *RevocationSweepJob {
	return &RevocationSweepJob{
		store:    store,
		logger:   logger,
		Interval: DefaultInterval,
	}
}

// RunOnce は1回分のスイープを実行し、削除件数を返す。
func (j *RevocationSweepJob) RunOnce() int {
	start := time.Now()
	removed := j.store.Purge()

	j.logger.Debug("revocation sweep completed",
		slog.Int("removed_count", removed),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return removed
}

// Start はInterval間隔でスイープを実行する。
// コンテキストがキャンセルされるまでブロックする。
func (j *RevocationSweepJob) Start(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("revocation sweep started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("revocation sweep stopped")
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}
