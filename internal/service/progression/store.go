// Package progression owns the level and XP counters that outlive sessions.
package progression

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/scoring"
)

const (
	levelKey = "userLevel"
	xpKey    = "userXp"
)

// Award describes one game-end grant.
type Award struct {
	Before    game.Progression `json:"before"`
	After     game.Progression `json:"after"`
	Earned    int              `json:"earned"`
	LeveledUp bool             `json:"leveledUp"`
}

// Store holds the process-wide progression and writes it through to Slots on every
// change. Writes are best effort: a failed write is logged, never retried.
type Store struct {
	slots Slots

	// writeMu orders grants so the slots always end with the latest value.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current game.Progression
}

// Load reads both slots once. Missing or malformed values fall back to level 1, 0 XP.
func Load(ctx context.Context, slots Slots) *Store {
	p := game.NewProgression()

	if raw, ok := readSlot(ctx, slots, levelKey); ok {
		if level, err := strconv.Atoi(raw); err == nil && level >= 1 {
			p.Level = level
		} else {
			log.Printf("[progression] ignoring invalid %s value %q", levelKey, raw)
		}
	}
	if raw, ok := readSlot(ctx, slots, xpKey); ok {
		if xp, err := strconv.Atoi(raw); err == nil && xp >= 0 {
			p.CurrentXP = xp
		} else {
			log.Printf("[progression] ignoring invalid %s value %q", xpKey, raw)
		}
	}

	log.Printf("[progression] loaded level=%d xp=%d", p.Level, p.CurrentXP)
	return &Store{slots: slots, current: p}
}

// Current returns the stored progression.
func (s *Store) Current() game.Progression {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Grant adds xp, rolls over levels and persists the result. Concurrent grants are
// applied and written one at a time; readers of Current are not blocked by the write.
func (s *Store) Grant(ctx context.Context, xp int) Award {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	before := s.current
	after, leveled := scoring.LevelUp(before, xp)
	s.current = after
	s.mu.Unlock()

	if after != before {
		s.persist(ctx, after)
	}

	return Award{Before: before, After: after, Earned: xp, LeveledUp: leveled}
}

func (s *Store) persist(ctx context.Context, p game.Progression) {
	if s.slots == nil {
		return
	}
	if err := s.slots.Set(ctx, levelKey, strconv.Itoa(p.Level)); err != nil {
		log.Printf("[progression] failed to write %s: %v", levelKey, err)
	}
	if err := s.slots.Set(ctx, xpKey, strconv.Itoa(p.CurrentXP)); err != nil {
		log.Printf("[progression] failed to write %s: %v", xpKey, err)
	}
}

func readSlot(ctx context.Context, slots Slots, key string) (string, bool) {
	if slots == nil {
		return "", false
	}
	raw, ok, err := slots.Get(ctx, key)
	if err != nil {
		log.Printf("[progression] failed to read %s: %v", key, err)
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
