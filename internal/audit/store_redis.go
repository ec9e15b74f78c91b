package audit

import (
	"context"
	"encoding/json"
	"fmt"

	platformredis "vellum/internal/platform/redis"
	pkgerrors "vellum/pkg/domain-errors"
)

// maxEventsPerSubject bounds each subject's event list so a hot subject
// cannot grow without limit. The newest events are kept.
const maxEventsPerSubject = 1000

// RedisStore persists audit events as JSON entries in a per-subject list.
type RedisStore struct {
	client *platformredis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed audit store.
func NewRedisStore(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "audit:subject:"}
}

func (s *RedisStore) key(subjectID string) string {
	return s.prefix + subjectID
}

func (s *RedisStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to encode audit event")
	}

	key := s.key(event.SubjectID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -maxEventsPerSubject, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal,
			fmt.Sprintf("failed to append audit event for subject %s", event.SubjectID))
	}
	return nil
}

func (s *RedisStore) ListBySubject(ctx context.Context, subjectID string) ([]Event, error) {
	entries, err := s.client.LRange(ctx, s.key(subjectID), 0, -1).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list audit events")
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		var event Event
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			continue // skip corrupt entries rather than failing the whole read
		}
		events = append(events, event)
	}
	return events, nil
}
