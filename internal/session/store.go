package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session is the per-user conversational state held between the moment
// a payout request is initiated and the moment a card number arrives.
// Amount is the balance snapshot taken when the flow was entered.
type Session struct {
	UserID int64     `json:"user_id"`
	Amount float64   `json:"amount"`
	Opened time.Time `json:"opened"`
}

// Store keeps at most one open session per user. Opening again
// overwrites the previous session. Sessions expire after a TTL so an
// abandoned flow does not capture the user's next unrelated message.
type Store interface {
	Open(ctx context.Context, userID int64, amount float64) error
	Peek(ctx context.Context, userID int64) (*Session, bool)
	Consume(ctx context.Context, userID int64) (*Session, bool)
}

// New returns a Redis-backed store, falling back to an in-memory store
// when Redis is unreachable. The error reports why the fallback was
// taken; the returned Store is always usable.
func New(addr, pass string, db int, ttl time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return NewMemoryStore(ttl), err
	}

	return &redisStore{client: client, prefix: "payout:session", ttl: ttl}, nil
}

// ── Redis ─────────────────────────────────────────────────────────────

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (s *redisStore) key(userID int64) string {
	return s.prefix + ":" + strconv.FormatInt(userID, 10)
}

func (s *redisStore) Open(ctx context.Context, userID int64, amount float64) error {
	payload, err := json.Marshal(Session{UserID: userID, Amount: amount, Opened: time.Now()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), payload, s.ttl).Err()
}

func (s *redisStore) Peek(ctx context.Context, userID int64) (*Session, bool) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false
	}
	return &sess, true
}

func (s *redisStore) Consume(ctx context.Context, userID int64) (*Session, bool) {
	raw, err := s.client.GetDel(ctx, s.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false
	}
	return &sess, true
}

// ── In-memory fallback ────────────────────────────────────────────────

type memoryStore struct {
	mu       sync.Mutex
	sessions map[int64]memorySession
	ttl      time.Duration
	nextGC   time.Time
}

type memorySession struct {
	sess    Session
	expires time.Time
}

// NewMemoryStore returns a purely in-process store. Used as the
// fallback when Redis is unreachable and in single-instance setups.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		sessions: make(map[int64]memorySession),
		ttl:      ttl,
		nextGC:   time.Now().Add(ttl),
	}
}

func (s *memoryStore) Open(_ context.Context, userID int64, amount float64) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = memorySession{
		sess:    Session{UserID: userID, Amount: amount, Opened: now},
		expires: now.Add(s.ttl),
	}
	s.gcLocked(now)
	return nil
}

func (s *memoryStore) Peek(_ context.Context, userID int64) (*Session, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[userID]
	if !ok || entry.expires.Before(now) {
		delete(s.sessions, userID)
		return nil, false
	}
	sess := entry.sess
	return &sess, true
}

func (s *memoryStore) Consume(_ context.Context, userID int64) (*Session, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[userID]
	delete(s.sessions, userID)
	if !ok || entry.expires.Before(now) {
		return nil, false
	}
	sess := entry.sess
	return &sess, true
}

func (s *memoryStore) gcLocked(now time.Time) {
	if now.Before(s.nextGC) {
		return
	}
	for id, entry := range s.sessions {
		if entry.expires.Before(now) {
			delete(s.sessions, id)
		}
	}
	s.nextGC = now.Add(s.ttl)
}
