package container

import (
	"context"
	"fmt"

	"github.com/staffparty/partyhub/cmd/partyhub/repository"
	"github.com/staffparty/partyhub/cmd/partyhub/service"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/bootstrap"
	"github.com/staffparty/partyhub/common/metrics"
	"github.com/staffparty/partyhub/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	UserRepo         *repository.UserRepository
	AgendaRepo       *repository.AgendaRepository
	EventRepo        *repository.EventRepository
	VoteRepo         *repository.VoteRepository
	GiftExchangeRepo *repository.GiftExchangeRepository

	// Services
	SessionService      *service.SessionService
	VotingService       *service.VotingService
	AdminService        *service.AdminService
	GiftExchangeService *service.GiftExchangeService

	// Background
	ExchangeEvents *service.ExchangeEventHandler
	StatsReporter  *service.StatsReporter

	// Observability and request guards
	PartyMetrics *metrics.PartyMetrics
	HTTPMetrics  *metrics.HTTPMetrics
	ErrorMetrics *apperrors.Metrics
	RateLimiter  ratelimit.Checker // nil when Redis is unavailable or limits are disabled
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	partyMetrics := metrics.NewPartyMetrics(components.Registry)
	httpMetrics := metrics.NewHTTPMetrics(components.Registry)
	errorMetrics := apperrors.NewMetrics(components.Registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(components.DB)
	agendaRepo := repository.NewAgendaRepository(components.DB)
	eventRepo := repository.NewEventRepository(components.DB)
	voteRepo := repository.NewVoteRepository(components.DB)
	giftExchangeRepo := repository.NewGiftExchangeRepository(components.DB)

	// Session cache lives in Redis so every replica sees new registrations
	var sessionCache service.SessionCache
	if components.Redis != nil {
		sessionCache = service.NewRedisSessionCache(components.Redis, cfg.Session.CacheTTL)
	}

	filter, err := service.NewEventFilter()
	if err != nil {
		return nil, fmt.Errorf("failed to create event filter: %w", err)
	}

	// Initialize services (bottom-up: dependencies first)
	sessionService := service.NewSessionService(
		userRepo,
		sessionCache,
		service.DefaultGenerators(),
		partyMetrics,
		log,
	)
	votingService := service.NewVotingService(
		agendaRepo,
		eventRepo,
		voteRepo,
		components.Cache,
		cfg.Cache.AgendaTTL,
		partyMetrics,
		log,
	)
	adminService := service.NewAdminService(
		userRepo,
		agendaRepo,
		eventRepo,
		voteRepo,
		filter,
		votingService,
		log,
	)
	giftExchangeService := service.NewGiftExchangeService(
		giftExchangeRepo,
		components.Clock,
		log,
		service.WithEvents(components.Queue),
		service.WithSummaryCache(components.Cache, cfg.Cache.StatsTTL),
	)

	statsReporter, err := service.NewStatsReporter(
		giftExchangeRepo,
		partyMetrics,
		components.Clock,
		cfg.Telemetry.StatsInterval,
		log,
	)
	if err != nil {
		return nil, err
	}

	var limiter ratelimit.Checker
	switch {
	case !cfg.RateLimit.Enabled:
		log.Info("rate limiting disabled")
	case components.Redis == nil:
		log.Warn("rate limiting unavailable without redis")
	default:
		limiter = ratelimit.NewRateLimiter(
			components.Redis.GetUnderlying(),
			ratelimit.LimitsFromConfig(cfg.RateLimit),
			log,
		)
	}

	return &Container{
		Components:          components,
		UserRepo:            userRepo,
		AgendaRepo:          agendaRepo,
		EventRepo:           eventRepo,
		VoteRepo:            voteRepo,
		GiftExchangeRepo:    giftExchangeRepo,
		SessionService:      sessionService,
		VotingService:       votingService,
		AdminService:        adminService,
		GiftExchangeService: giftExchangeService,
		ExchangeEvents:      service.NewExchangeEventHandler(giftExchangeService, partyMetrics, log),
		StatsReporter:       statsReporter,
		PartyMetrics:        partyMetrics,
		HTTPMetrics:         httpMetrics,
		ErrorMetrics:        errorMetrics,
		RateLimiter:         limiter,
	}, nil
}

// Start runs the background consumers until ctx is done
func (c *Container) Start(ctx context.Context) error {
	if c.Components.Queue != nil {
		if err := c.ExchangeEvents.Subscribe(ctx, c.Components.Queue); err != nil {
			return fmt.Errorf("failed to subscribe to exchange events: %w", err)
		}
	}
	return c.StatsReporter.Start(ctx)
}

// Shutdown stops the background jobs
func (c *Container) Shutdown() error {
	return c.StatsReporter.Shutdown()
}
