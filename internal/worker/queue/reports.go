package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"preflight/internal/preflight"
)

// ErrNoReport is returned by Take while no report is waiting.
var ErrNoReport = errors.New("no report available")

const reportKeyPrefix = "preflight:report:"

// ReportKey is the Redis key holding the pending report of a scene.
func ReportKey(sceneID string) string {
	return reportKeyPrefix + sceneID
}

// Report statuses.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// ReportEnvelope is the message the worker leaves for the API.
type ReportEnvelope struct {
	SceneID    string            `json:"scene_id"`
	Status     string            `json:"status"`
	Report     *preflight.Report `json:"report,omitempty"`
	Error      *EnvelopeError    `json:"error,omitempty"`
	FinishedAt time.Time         `json:"finished_at"`
}

type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReportStore is a one-shot mailbox: each report is written once with a TTL and
// read at most once.
type ReportStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewReportStore(rdb redis.Cmdable, ttl time.Duration) *ReportStore {
	return &ReportStore{rdb: rdb, ttl: ttl}
}

// Put stores a report payload, replacing any unread one.
func (s *ReportStore) Put(ctx context.Context, sceneID string, payload []byte) error {
	return s.rdb.Set(ctx, ReportKey(sceneID), payload, s.ttl).Err()
}

// Take returns and removes the pending report (GETDEL).
func (s *ReportStore) Take(ctx context.Context, sceneID string) ([]byte, error) {
	b, err := s.rdb.GetDel(ctx, ReportKey(sceneID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoReport
		}
		return nil, err
	}
	return b, nil
}
