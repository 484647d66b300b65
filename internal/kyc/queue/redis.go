package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"provena/internal/kyc"
	"provena/pkg/domain"
)

const queueKeyPrefix = "kyc:queue:"

// Redis keeps each queue section in a sorted set scored by entry time, so
// reviewers across instances see the same oldest-first ordering.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func sectionKey(status kyc.Status) string {
	return queueKeyPrefix + string(status)
}

func (r *Redis) Put(ctx context.Context, entityID domain.EntityID, status kyc.Status, enteredAt time.Time) error {
	member := entityID.String()

	pipe := r.client.TxPipeline()
	for _, s := range queueStatuses {
		if s != status {
			pipe.ZRem(ctx, sectionKey(s), member)
		}
	}
	pipe.ZAdd(ctx, sectionKey(status), redis.Z{
		Score:  float64(enteredAt.UnixMilli()),
		Member: member,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("move queue entry to %s: %w", status, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, entityID domain.EntityID) error {
	member := entityID.String()

	pipe := r.client.TxPipeline()
	for _, s := range queueStatuses {
		pipe.ZRem(ctx, sectionKey(s), member)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove queue entry: %w", err)
	}
	return nil
}

func (r *Redis) Snapshot(ctx context.Context) (*kyc.QueueSnapshot, error) {
	snapshot := &kyc.QueueSnapshot{}
	for _, status := range queueStatuses {
		entries, err := r.section(ctx, status)
		if err != nil {
			return nil, err
		}
		switch status {
		case kyc.StatusPending:
			snapshot.Pending = entries
		case kyc.StatusInProgress:
			snapshot.InProgress = entries
		case kyc.StatusMoreInfoRequired:
			snapshot.RequiresMoreInfo = entries
		}
		snapshot.TotalCount += len(entries)
	}
	return snapshot, nil
}

func (r *Redis) section(ctx context.Context, status kyc.Status) ([]kyc.QueueEntry, error) {
	members, err := r.client.ZRangeWithScores(ctx, sectionKey(status), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read queue section %s: %w", status, err)
	}

	entries := make([]kyc.QueueEntry, 0, len(members))
	for _, z := range members {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}
		entityID, err := domain.ParseEntityID(raw)
		if err != nil {
			continue
		}
		entries = append(entries, kyc.QueueEntry{
			EntityID:  entityID,
			Status:    status,
			EnteredAt: time.UnixMilli(int64(z.Score)).UTC(),
		})
	}
	return entries, nil
}
