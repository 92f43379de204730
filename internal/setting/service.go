package setting

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

var ErrSettingNotFound = internal.NewNotFoundError("setting not found", internal.ErrCodeSettingNotFound)

type Repository interface {
	List(ctx context.Context) ([]*Setting, error)
	Upsert(ctx context.Context, key, value string) (*Setting, error)
}

// Service reads settings through a TTL cache. Every accessor falls back to a
// safe default when the table is unreachable.
type Service struct {
	repo   Repository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	cache    map[string]*Setting
	loadedAt time.Time
}

func NewService(repo Repository, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) snapshot(ctx context.Context) (map[string]*Setting, error) {
	s.mu.RLock()
	if s.cache != nil && s.now().Sub(s.loadedAt) < s.ttl {
		c := s.cache
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.cache
		s.mu.RUnlock()
		if stale != nil {
			s.logger.Warn("settings reload failed, serving stale values", "error", err)
			return stale, nil
		}
		return nil, err
	}

	fresh := make(map[string]*Setting, len(rows))
	for _, row := range rows {
		fresh[row.Key] = row
	}
	s.mu.Lock()
	s.cache, s.loadedAt = fresh, s.now()
	s.mu.Unlock()
	return fresh, nil
}

// Invalidate drops the cache so the next read hits the database.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Setting, 0, len(snap))
	for _, st := range snap {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := snap[key]
	if !ok {
		return nil, ErrSettingNotFound
	}
	return st, nil
}

// Update stores a new value for key. Admin only; known keys are type checked.
func (s *Service) Update(ctx context.Context, actorRole, key string, dto UpdateDTO) (*Setting, error) {
	if workflow.Role(actorRole) != workflow.RoleAdmin {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if err := s.checkValue(ctx, key, dto.Value); err != nil {
		return nil, err
	}

	st, err := s.repo.Upsert(ctx, key, dto.Value)
	if err != nil {
		return nil, err
	}
	s.Invalidate()
	s.logger.Info("setting updated", "key", key, "value", dto.Value)
	return st, nil
}

func (s *Service) checkValue(ctx context.Context, key, value string) error {
	switch key {
	case KeySessionTimeout:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return validation.Field("value", "session_timeout must be a positive number of minutes", internal.ErrCodeValidationFailed)
		}
	case KeyTrustScoreMin, KeyTrustScoreMax:
		n, err := strconv.Atoi(value)
		if err != nil {
			return validation.Field("value", key+" must be an integer", internal.ErrCodeValidationFailed)
		}
		lo, hi := s.TrustScoreBounds(ctx)
		if (key == KeyTrustScoreMin && n > hi) || (key == KeyTrustScoreMax && n < lo) {
			return validation.Field("value", "trust_score_min must not exceed trust_score_max", internal.ErrCodeValidationFailed)
		}
	case KeyMaintenanceMode:
		if _, err := strconv.ParseBool(value); err != nil {
			return validation.Field("value", "maintenance_mode must be true or false", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

func (s *Service) intValue(ctx context.Context, key string, def int) int {
	st, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(st.Value)
	if err != nil {
		s.logger.Warn("ignoring malformed setting", "key", key, "value", st.Value)
		return def
	}
	return n
}

// SessionTimeout is the access token lifetime, or zero when unset.
func (s *Service) SessionTimeout(ctx context.Context) time.Duration {
	minutes := s.intValue(ctx, KeySessionTimeout, 0)
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Service) TrustScoreBounds(ctx context.Context) (int, int) {
	lo := s.intValue(ctx, KeyTrustScoreMin, DefaultTrustScoreMin)
	hi := s.intValue(ctx, KeyTrustScoreMax, DefaultTrustScoreMax)
	if lo > hi {
		return DefaultTrustScoreMin, DefaultTrustScoreMax
	}
	return lo, hi
}

func (s *Service) MaintenanceMode(ctx context.Context) bool {
	st, err := s.Get(ctx, KeyMaintenanceMode)
	if err != nil {
		return false
	}
	on, _ := strconv.ParseBool(st.Value)
	return on
}
