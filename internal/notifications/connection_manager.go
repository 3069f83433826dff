package notifications

import (
	"context"
	"strconv"
	"sync"
	"time"

	"twitt/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	presenceOnlineSetKey = "ws:online_users"
	presenceKeyPrefix    = "ws:presence:"
	presenceTTL          = 90 * time.Second
	presenceReapInterval = 60 * time.Second
)

// ConnectionManager records which users hold notification sockets.
//
// Every process owns one field of the hash ws:presence:<user>. The field holds
// the unix time the process last heard from that user; pongs refresh it well
// inside presenceTTL. A field older than presenceTTL belongs to a process that
// went away without cleaning up and counts as offline.
type ConnectionManager struct {
	rdb        *redis.Client
	instanceID string
	now        func() time.Time

	mu    sync.RWMutex
	local map[uuid.UUID]int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewConnectionManager creates a manager. With Redis it also starts the reaper
// that clears presence left behind by dead processes.
func NewConnectionManager(rdb *redis.Client) *ConnectionManager {
	m := &ConnectionManager{
		rdb:        rdb,
		instanceID: uuid.NewString(),
		now:        time.Now,
		local:      make(map[uuid.UUID]int),
		stopCh:     make(chan struct{}),
	}
	if rdb != nil {
		go m.reaperLoop()
	}
	return m
}

// Register counts a new local socket for userID.
func (m *ConnectionManager) Register(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	m.local[userID]++
	m.mu.Unlock()

	m.Touch(ctx, userID)
}

// Touch refreshes this process's presence field for userID.
func (m *ConnectionManager) Touch(ctx context.Context, userID uuid.UUID) {
	if m.rdb == nil {
		return
	}
	key := presenceKey(userID)
	_, err := m.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, m.instanceID, strconv.FormatInt(m.now().Unix(), 10))
		p.Expire(ctx, key, presenceTTL)
		p.SAdd(ctx, presenceOnlineSetKey, userID.String())
		return nil
	})
	if err != nil {
		observability.Logger.Warn("presence refresh failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// Unregister drops one local socket. When it was the last one, this process's
// presence field is removed at once so other processes stop routing to it.
func (m *ConnectionManager) Unregister(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	n, ok := m.local[userID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if n > 1 {
		m.local[userID] = n - 1
		m.mu.Unlock()
		return
	}
	delete(m.local, userID)
	m.mu.Unlock()

	m.clear(ctx, userID)
}

// IsOnline reports whether userID holds a socket on this or another process.
// A Redis error reports online so that delivery is still attempted.
func (m *ConnectionManager) IsOnline(ctx context.Context, userID uuid.UUID) bool {
	m.mu.RLock()
	n := m.local[userID]
	m.mu.RUnlock()
	if n > 0 {
		return true
	}
	if m.rdb == nil {
		return false
	}

	fields, err := m.rdb.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		observability.Logger.Warn("presence lookup failed", zap.String("user_id", userID.String()), zap.Error(err))
		return true
	}
	for _, seen := range fields {
		if m.fresh(seen) {
			return true
		}
	}
	return false
}

// Stop ends the reaper and removes this process's presence.
func (m *ConnectionManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)

		m.mu.Lock()
		users := make([]uuid.UUID, 0, len(m.local))
		for userID := range m.local {
			users = append(users, userID)
		}
		m.local = make(map[uuid.UUID]int)
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, userID := range users {
			m.clear(ctx, userID)
		}
	})
}

func (m *ConnectionManager) clear(ctx context.Context, userID uuid.UUID) {
	if m.rdb == nil {
		return
	}
	key := presenceKey(userID)
	if err := m.rdb.HDel(ctx, key, m.instanceID).Err(); err != nil {
		observability.Logger.Warn("presence clear failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if left, err := m.rdb.HLen(ctx, key).Result(); err == nil && left == 0 {
		_ = m.rdb.SRem(ctx, presenceOnlineSetKey, userID.String()).Err()
	}
}

// reapOnce removes stale fields and drops users with none left from the
// online set.
func (m *ConnectionManager) reapOnce(ctx context.Context) {
	members, err := m.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return
	}

	for _, raw := range members {
		userID, err := uuid.Parse(raw)
		if err != nil {
			_ = m.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()
			continue
		}
		key := presenceKey(userID)
		fields, err := m.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}
		live := 0
		for instance, seen := range fields {
			if m.fresh(seen) {
				live++
				continue
			}
			_ = m.rdb.HDel(ctx, key, instance).Err()
		}
		if live == 0 {
			_ = m.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()
		}
	}
}

func (m *ConnectionManager) reaperLoop() {
	ticker := time.NewTicker(presenceReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.reapOnce(context.Background())
		}
	}
}

func (m *ConnectionManager) fresh(seen string) bool {
	unix, err := strconv.ParseInt(seen, 10, 64)
	if err != nil {
		return false
	}
	return m.now().Sub(time.Unix(unix, 0)) < presenceTTL
}

func presenceKey(userID uuid.UUID) string {
	return presenceKeyPrefix + userID.String()
}
