package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
)

// StatsKey identifies one daily_stats row.
type StatsKey struct {
	UserID string
	Date   string
}

// encoded as "<date>:<user>" so user ids may contain any character
func (k StatsKey) String() string { return k.Date + ":" + k.UserID }

func ParseStatsKey(v string) (StatsKey, error) {
	if len(v) < len(utils.DayLayout)+2 || v[len(utils.DayLayout)] != ':' {
		return StatsKey{}, fmt.Errorf("malformed stats key %q", v)
	}
	return StatsKey{Date: v[:len(utils.DayLayout)], UserID: v[len(utils.DayLayout)+1:]}, nil
}

// DirtySet remembers (user, date) pairs whose aggregate may have drifted from the meals.
// Claim hands the current members to one reconciler run; Release forgets them once done.
// Members marked while a run is in flight land in the next run.
type DirtySet interface {
	Mark(ctx context.Context, key StatsKey) error
	Claim(ctx context.Context) ([]StatsKey, error)
	Release(ctx context.Context) error
}

const (
	dirtyStatsKey      = "daily_stats:dirty"
	dirtyStatsClaimKey = "daily_stats:dirty:processing"
)

type RedisDirtySet struct {
	rdb *redis.Client
}

func NewRedisDirtySet(rdb *redis.Client) *RedisDirtySet {
	return &RedisDirtySet{rdb: rdb}
}

func (d *RedisDirtySet) Mark(ctx context.Context, key StatsKey) error {
	return d.rdb.SAdd(ctx, dirtyStatsKey, key.String()).Err()
}

// Claim folds the live set into the processing set (keeping leftovers of a crashed run)
// and returns the processing members.
func (d *RedisDirtySet) Claim(ctx context.Context) ([]StatsKey, error) {
	pipe := d.rdb.TxPipeline()
	pipe.SUnionStore(ctx, dirtyStatsClaimKey, dirtyStatsClaimKey, dirtyStatsKey)
	pipe.Del(ctx, dirtyStatsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("claim dirty stats: %w", err)
	}

	members, err := d.rdb.SMembers(ctx, dirtyStatsClaimKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read dirty stats: %w", err)
	}
	return parseStatsKeys(members), nil
}

func (d *RedisDirtySet) Release(ctx context.Context) error {
	return d.rdb.Del(ctx, dirtyStatsClaimKey).Err()
}

func parseStatsKeys(members []string) []StatsKey {
	keys := make([]StatsKey, 0, len(members))
	for _, m := range members {
		k, err := ParseStatsKey(m)
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// MemoryDirtySet is the single-instance fallback when no Redis is configured.
type MemoryDirtySet struct {
	mu         sync.Mutex
	live       map[StatsKey]struct{}
	processing map[StatsKey]struct{}
}

func NewMemoryDirtySet() *MemoryDirtySet {
	return &MemoryDirtySet{
		live:       make(map[StatsKey]struct{}),
		processing: make(map[StatsKey]struct{}),
	}
}

func (d *MemoryDirtySet) Mark(_ context.Context, key StatsKey) error {
	d.mu.Lock()
	d.live[key] = struct{}{}
	d.mu.Unlock()
	return nil
}

func (d *MemoryDirtySet) Claim(_ context.Context) ([]StatsKey, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k := range d.live {
		d.processing[k] = struct{}{}
	}
	d.live = make(map[StatsKey]struct{})

	keys := make([]StatsKey, 0, len(d.processing))
	for k := range d.processing {
		keys = append(keys, k)
	}
	sortStatsKeys(keys)
	return keys, nil
}

func (d *MemoryDirtySet) Release(_ context.Context) error {
	d.mu.Lock()
	d.processing = make(map[StatsKey]struct{})
	d.mu.Unlock()
	return nil
}

func (d *MemoryDirtySet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

func sortStatsKeys(keys []StatsKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}
