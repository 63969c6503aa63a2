// Package autoreload restarts a running server when its binary is replaced.
// When /proc/self/exe points to a deleted file, the program re-executes the new
// binary at the same path. Flags and Environment variables are preserved.
// Only works on Linux. (Maybe other Unixes?)
package autoreload

import (
	"context"
	"os"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const self = "/proc/self/exe"

// replacedBinary reports whether the /proc/self/exe link target was deleted,
// and the path where the new binary should be.
func replacedBinary(link string) (string, bool) {
	const deleted = " (deleted)"
	if !strings.HasSuffix(link, deleted) {
		return "", false
	}
	return strings.TrimSuffix(link, deleted), true
}

// Watch polls the running binary every interval until ctx is done.
// It only returns early if the binary can't be inspected at all.
func Watch(ctx context.Context, log *zap.Logger, interval time.Duration) {
	s, err := os.Readlink(self)
	if err != nil {
		log.Warn("autoreload disabled", zap.Error(err))
		return
	}
	log.Info("will restart with the same flags and environment when the binary changes", zap.String("binary", s))

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		s, err := os.Readlink(self)
		if err != nil {
			continue
		}
		if p, ok := replacedBinary(s); ok {
			log.Info("restarting", zap.String("binary", p))
			if err := syscall.Exec(p, os.Args, os.Environ()); err != nil {
				log.Error("autoreload failed", zap.String("binary", p), zap.Error(err))
			}
		}
	}
}
