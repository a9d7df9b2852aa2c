package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/mkraev/linkforge/internal/app/codec"
	"github.com/mkraev/linkforge/internal/app/model"
	"github.com/mkraev/linkforge/internal/app/quota"
	"github.com/mkraev/linkforge/internal/app/repository"
	infraprom "github.com/mkraev/linkforge/internal/infra/prometheus"
	"go.uber.org/zap"
)

const maxTargetURLLen = 2048

// LinkService is the core behaviour: registration of new slugs and
// resolution of existing ones.
type LinkService interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)
	Resolve(ctx context.Context, slug string) (string, error)
}

// RegisterInput captures one registration request.
type RegisterInput struct {
	TargetURL  string
	CustomSlug string
	TTLHours   int
	CallerKey  string
	RequestID  string
}

// RegisterOutput is the created link plus the caller's quota position, which
// rides back in the API response.
type RegisterOutput struct {
	Link           model.ShortLink
	QuotaRemaining int64
	QuotaResetIn   time.Duration
}

// Config tunes the registration path.
type Config struct {
	// Keyspace is the exclusive upper bound for generated identifiers. Sized
	// well above lifetime volume so collisions stay rare.
	Keyspace uint64

	// MaxAttempts caps the collision-retry loop for generated slugs.
	MaxAttempts int

	// DefaultTTLHours applies when the caller does not request an expiry.
	DefaultTTLHours int
}

type linkService struct {
	links     repository.LinkRepository
	tracker   quota.Tracker
	filter    *SlugFilter
	publisher *EventPublisher
	cfg       Config
	logger    *zap.Logger
}

// NewLinkService wires the registration and resolution flows. filter and
// publisher may be nil; both are optimizations around the core contract.
func NewLinkService(
	links repository.LinkRepository,
	tracker quota.Tracker,
	filter *SlugFilter,
	publisher *EventPublisher,
	cfg Config,
	logger *zap.Logger,
) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.DefaultTTLHours <= 0 {
		cfg.DefaultTTLHours = 24
	}
	return &linkService{
		links:     links,
		tracker:   tracker,
		filter:    filter,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *linkService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if err := validateTargetURL(input.TargetURL); err != nil {
		infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeInvalid).Inc()
		return nil, err
	}

	decision, err := s.tracker.CheckAndConsume(ctx, input.CallerKey)
	if err != nil {
		infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeError).Inc()
		return nil, fmt.Errorf("register: %w", err)
	}
	if !decision.Allowed {
		infraprom.QuotaRejectionsTotal.Inc()
		return nil, &model.RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	ttl := s.resolveTTL(input.TTLHours)

	var slug string
	if input.CustomSlug != "" {
		slug, err = s.registerCustom(ctx, input.CustomSlug, input.TargetURL, ttl)
	} else {
		slug, err = s.registerGenerated(ctx, input.TargetURL, ttl)
	}
	if err != nil {
		return nil, err
	}

	infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeCreated).Inc()

	link := model.ShortLink{
		Slug:      slug,
		TargetURL: input.TargetURL,
		TTL:       ttl,
		CreatedAt: time.Now().UTC(),
	}

	if s.publisher != nil {
		go s.publishRegistration(link, input)
	}

	return &RegisterOutput{
		Link:           link,
		QuotaRemaining: decision.Remaining,
		QuotaResetIn:   decision.RetryAfter,
	}, nil
}

// Resolve is a pure read: one registry lookup, no counters, no TTL refresh.
func (s *linkService) Resolve(ctx context.Context, slug string) (string, error) {
	target, err := s.links.GetTarget(ctx, slug)
	if err != nil {
		infraprom.ResolutionsTotal.WithLabelValues(infraprom.ResultMiss).Inc()
		return "", err
	}
	infraprom.ResolutionsTotal.WithLabelValues(infraprom.ResultHit).Inc()
	return target, nil
}

// registerCustom writes the caller's chosen slug exactly once. A taken custom
// slug is terminal for the request: the caller asked for that value.
func (s *linkService) registerCustom(ctx context.Context, slug, target string, ttl time.Duration) (string, error) {
	if !codec.ValidSlug(slug) {
		infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeInvalid).Inc()
		return "", model.ErrInvalidSlug
	}

	created, err := s.links.PutIfAbsent(ctx, slug, target, ttl)
	if err != nil {
		infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeError).Inc()
		return "", fmt.Errorf("register custom slug: %w", err)
	}
	if !created {
		infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeConflict).Inc()
		if s.filter != nil {
			s.filter.Add(slug)
		}
		return "", model.ErrSlugConflict
	}

	if s.filter != nil {
		s.filter.Add(slug)
	}
	return slug, nil
}

// registerGenerated draws random identifiers until a conditional write lands
// or the attempt cap is hit. The cap keeps a saturated keyspace from turning
// into an unbounded loop.
func (s *linkService) registerGenerated(ctx context.Context, target string, ttl time.Duration) (string, error) {
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		n, err := s.drawIdentifier()
		if err != nil {
			infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeError).Inc()
			return "", fmt.Errorf("draw identifier: %w", err)
		}
		slug := codec.Encode(n)

		if s.filter != nil && s.filter.MayExist(slug) {
			// Known (or suspected) taken; skip the round trip.
			continue
		}

		created, err := s.links.PutIfAbsent(ctx, slug, target, ttl)
		if err != nil {
			infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeError).Inc()
			return "", fmt.Errorf("register generated slug: %w", err)
		}
		if created {
			if s.filter != nil {
				s.filter.Add(slug)
			}
			return slug, nil
		}

		s.logger.Debug("generated slug collision",
			zap.String("slug", slug), zap.Int("attempt", attempt+1))
		if s.filter != nil {
			s.filter.Add(slug)
		}
	}

	infraprom.RegistrationsTotal.WithLabelValues(infraprom.OutcomeExhausted).Inc()
	s.logger.Error("generated slug attempts exhausted",
		zap.Int("max_attempts", s.cfg.MaxAttempts), zap.Uint64("keyspace", s.cfg.Keyspace))
	return "", model.ErrGenerationExhausted
}

func (s *linkService) drawIdentifier() (uint64, error) {
	bound := s.cfg.Keyspace
	if bound == 0 {
		bound = 1
	}
	n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(bound))
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (s *linkService) resolveTTL(hours int) time.Duration {
	if hours <= 0 {
		hours = s.cfg.DefaultTTLHours
	}
	return time.Duration(hours) * time.Hour
}

func (s *linkService) publishRegistration(link model.ShortLink, input RegisterInput) {
	if err := s.publisher.Publish(link, input.CallerKey, input.RequestID); err != nil {
		s.logger.Error("failed to publish link event",
			zap.Error(err), zap.String("slug", link.Slug))
	}
}

// validateTargetURL accepts only absolute HTTPS URLs of sane length.
func validateTargetURL(raw string) error {
	if raw == "" || len(raw) > maxTargetURLLen {
		return model.ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return model.ErrInvalidURL
	}
	if u.Scheme != "https" || u.Host == "" {
		return model.ErrInvalidURL
	}
	return nil
}
