package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("item not found")

// entity is implemented by Asset, Note and Table. clone returns a copy that
// shares no mutable memory with the receiver.
type entity[T any] interface {
	key() string
	owner() int
	created() time.Time
	clone() T
}

// Store keeps one kind of item, always scoped to an owner.
type Store[T entity[T]] interface {
	Save(ctx context.Context, item T) error
	Get(ctx context.Context, ownerID int, id string) (T, error)
	List(ctx context.Context, ownerID int) ([]T, error)
	Delete(ctx context.Context, ownerID int, id string) error
}

// Repository groups the per-kind stores behind one backend.
type Repository struct {
	Notes  Store[Note]
	Tables Store[Table]
	Assets Store[Asset]
}

// NewMemoryRepository keeps everything in process memory; nothing survives a restart.
func NewMemoryRepository() *Repository {
	return &Repository{
		Notes:  NewMemoryStore[Note](),
		Tables: NewMemoryStore[Table](),
		Assets: NewMemoryStore[Asset](),
	}
}

// NewRedisRepository stores items as JSON in per-owner hashes. ttl of zero
// keeps them until deleted.
func NewRedisRepository(rdb *redis.Client, ttl time.Duration) *Repository {
	return &Repository{
		Notes:  NewRedisStore[Note](rdb, "notes", ttl),
		Tables: NewRedisStore[Table](rdb, "tables", ttl),
		Assets: NewRedisStore[Asset](rdb, "assets", ttl),
	}
}

func sortByCreated[T entity[T]](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].created().Before(items[j].created())
	})
}

// MemoryStore copies items on the way in and out, so callers may mutate
// what they get back without racing other readers.
type MemoryStore[T entity[T]] struct {
	mu    sync.RWMutex
	items map[int]map[string]T
}

func NewMemoryStore[T entity[T]]() *MemoryStore[T] {
	return &MemoryStore[T]{items: make(map[int]map[string]T)}
}

func (s *MemoryStore[T]) Save(_ context.Context, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.items[item.owner()]
	if !ok {
		byID = make(map[string]T)
		s.items[item.owner()] = byID
	}
	byID[item.key()] = item.clone()
	return nil
}

func (s *MemoryStore[T]) Get(_ context.Context, ownerID int, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[ownerID][id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item.clone(), nil
}

func (s *MemoryStore[T]) List(_ context.Context, ownerID int) ([]T, error) {
	s.mu.RLock()
	out := make([]T, 0, len(s.items[ownerID]))
	for _, item := range s.items[ownerID] {
		out = append(out, item.clone())
	}
	s.mu.RUnlock()
	sortByCreated(out)
	return out, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, ownerID int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[ownerID][id]; !ok {
		return ErrNotFound
	}
	delete(s.items[ownerID], id)
	return nil
}

type RedisStore[T entity[T]] struct {
	rdb  *redis.Client
	kind string
	ttl  time.Duration
}

func NewRedisStore[T entity[T]](rdb *redis.Client, kind string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{rdb: rdb, kind: kind, ttl: ttl}
}

func (s *RedisStore[T]) hashKey(ownerID int) string {
	return fmt.Sprintf("bizkit:%s:%d", s.kind, ownerID)
}

func (s *RedisStore[T]) Save(ctx context.Context, item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.kind, err)
	}
	key := s.hashKey(item.owner())
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, item.key(), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.kind, err)
	}
	return nil
}

func (s *RedisStore[T]) Get(ctx context.Context, ownerID int, id string) (T, error) {
	var item T
	data, err := s.rdb.HGet(ctx, s.hashKey(ownerID), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return item, ErrNotFound
	}
	if err != nil {
		return item, fmt.Errorf("failed to load %s: %w", s.kind, err)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("failed to decode %s: %w", s.kind, err)
	}
	return item, nil
}

func (s *RedisStore[T]) List(ctx context.Context, ownerID int) ([]T, error) {
	all, err := s.rdb.HGetAll(ctx, s.hashKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.kind, err)
	}
	out := make([]T, 0, len(all))
	for id, raw := range all {
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", s.kind, id, err)
		}
		out = append(out, item)
	}
	sortByCreated(out)
	return out, nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, ownerID int, id string) error {
	n, err := s.rdb.HDel(ctx, s.hashKey(ownerID), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.kind, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
