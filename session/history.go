package session

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TranscriptLog persists completed turn transcripts per session in Redis.
// Best-effort: a nil log (Redis unavailable) silently does nothing, and write
// failures are logged, never surfaced to the turn flow.
type TranscriptLog struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTranscriptLog wraps a Redis client. rdb may be nil.
func NewTranscriptLog(rdb *redis.Client, ttl time.Duration) *TranscriptLog {
	if rdb == nil {
		return nil
	}
	return &TranscriptLog{rdb: rdb, ttl: ttl}
}

func (l *TranscriptLog) key(sessionID string) string {
	return "session:" + sessionID + ":transcripts"
}

// Append stores one completed turn's transcript at the end of the session's
// history list.
func (l *TranscriptLog) Append(ctx context.Context, sessionID, transcript string) {
	if l == nil || transcript == "" {
		return
	}
	key := l.key(sessionID)
	if err := l.rdb.RPush(ctx, key, transcript).Err(); err != nil {
		log.Printf("⚠️ [%s] Failed to persist transcript: %v", sessionID[:8], err)
		return
	}
	l.rdb.Expire(ctx, key, l.ttl)
}

// Recent returns up to n most recent transcripts, oldest first.
func (l *TranscriptLog) Recent(ctx context.Context, sessionID string, n int64) ([]string, error) {
	if l == nil {
		return nil, nil
	}
	return l.rdb.LRange(ctx, l.key(sessionID), -n, -1).Result()
}

// Drop removes the session's transcript history.
func (l *TranscriptLog) Drop(ctx context.Context, sessionID string) {
	if l == nil {
		return
	}
	l.rdb.Del(ctx, l.key(sessionID))
}
