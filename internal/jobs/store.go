package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "maintenance:"

	// DefaultRecordTTL は実行記録を残しておく期間です。
	DefaultRecordTTL = 7 * 24 * time.Hour
)

// Store はメンテナンスジョブの実行記録を Redis に保存します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Get は直近の実行記録を取得します。記録がなければ nil を返します。
func (s *Store) Get(ctx context.Context, taskType string) (*Record, error) {
	if taskType == "" {
		return nil, fmt.Errorf("taskType is required")
	}
	data, err := s.rdb.Get(ctx, recordKey(taskType)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert は実行記録を保存します（存在しない場合は作成）。
func (s *Store) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.Type == "" {
		return fmt.Errorf("record.Type is required")
	}
	now := s.now()
	if record.StartedAt.IsZero() {
		record.StartedAt = now
	}
	record.UpdatedAt = now
	if s.ttl > 0 {
		record.ExpiresAt = now.Add(s.ttl)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, recordKey(record.Type), payload, s.ttl).Err()
}

// MarkDone は成功時の結果を保存します。
func (s *Store) MarkDone(ctx context.Context, taskType string, removed int) error {
	return s.updatePartial(ctx, taskType, func(record *Record) {
		record.Status = StatusSucceeded
		record.Removed = removed
		record.Error = nil
		record.FinishedAt = s.now()
	})
}

// MarkFailed は失敗時の情報を保存します。
func (s *Store) MarkFailed(ctx context.Context, taskType string, errInfo *ErrorInfo) error {
	return s.updatePartial(ctx, taskType, func(record *Record) {
		record.Status = StatusFailed
		record.FinishedAt = s.now()
		if errInfo != nil {
			record.Error = errInfo
		}
	})
}

func (s *Store) updatePartial(ctx context.Context, taskType string, mutate func(*Record)) error {
	key := recordKey(taskType)
	for {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return fmt.Errorf("maintenance record not found: %s", taskType)
				}
				return err
			}
			var record Record
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}
			mutate(&record)
			now := s.now()
			record.UpdatedAt = now
			if s.ttl > 0 {
				record.ExpiresAt = now.Add(s.ttl)
			}
			payload, err := json.Marshal(&record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.ttl)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
}

func recordKey(taskType string) string {
	return recordKeyPrefix + taskType
}
