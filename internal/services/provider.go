package services

import (
	"time"

	"github.com/KirkDiggler/rpg-table/internal/clients/catalog"
	"github.com/KirkDiggler/rpg-table/internal/dice"
	"github.com/KirkDiggler/rpg-table/internal/ratelimit"
	charactersRepo "github.com/KirkDiggler/rpg-table/internal/repositories/characters"
	messagesRepo "github.com/KirkDiggler/rpg-table/internal/repositories/messages"
	presenceRepo "github.com/KirkDiggler/rpg-table/internal/repositories/presence"
	sessionsRepo "github.com/KirkDiggler/rpg-table/internal/repositories/sessions"
	tokensRepo "github.com/KirkDiggler/rpg-table/internal/repositories/tokens"
	combatSvc "github.com/KirkDiggler/rpg-table/internal/services/combat"
	conditionSvc "github.com/KirkDiggler/rpg-table/internal/services/condition"
	contentSvc "github.com/KirkDiggler/rpg-table/internal/services/content"
	presenceSvc "github.com/KirkDiggler/rpg-table/internal/services/presence"
	reconnectSvc "github.com/KirkDiggler/rpg-table/internal/services/reconnect"
	sessionSvc "github.com/KirkDiggler/rpg-table/internal/services/session"
	syncSvc "github.com/KirkDiggler/rpg-table/internal/services/sync"
	turnqueueSvc "github.com/KirkDiggler/rpg-table/internal/services/turnqueue"
)

// Provider holds all service instances
type Provider struct {
	DiceRoller       dice.Roller
	CombatService    combatSvc.Service
	ConditionService conditionSvc.Service
	TurnQueueService turnqueueSvc.Service
	PresenceService  presenceSvc.Service
	ReconnectService reconnectSvc.Service
	SyncService      syncSvc.Service
	SessionService   sessionSvc.Service
	ContentService   contentSvc.Service
	RateLimiter      *ratelimit.Limiter
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	SessionRepository   sessionsRepo.Repository
	CharacterRepository charactersRepo.Repository
	PresenceRepository  presenceRepo.Repository
	TokenRepository     tokensRepo.Repository
	MessageRepository   messagesRepo.Repository

	Catalog catalog.Client
	Roller  dice.Roller

	HeartbeatTimeout   time.Duration
	OfflineTimeout     time.Duration
	TokenTTL           time.Duration
	SimultaneityWindow time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	if cfg == nil {
		cfg = &ProviderConfig{}
	}

	// Use in-memory repositories if none provided
	sessionRepo := cfg.SessionRepository
	if sessionRepo == nil {
		sessionRepo = sessionsRepo.NewInMemoryRepository()
	}

	characterRepo := cfg.CharacterRepository
	if characterRepo == nil {
		characterRepo = charactersRepo.NewInMemoryRepository()
	}

	presRepo := cfg.PresenceRepository
	if presRepo == nil {
		presRepo = presenceRepo.NewInMemoryRepository()
	}

	tokenRepo := cfg.TokenRepository
	if tokenRepo == nil {
		tokenRepo = tokensRepo.NewInMemoryRepository()
	}

	messageRepo := cfg.MessageRepository
	if messageRepo == nil {
		messageRepo = messagesRepo.NewInMemoryRepository(nil)
	}

	monsterCatalog := cfg.Catalog
	if monsterCatalog == nil {
		monsterCatalog = catalog.NewInMemory()
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewCryptoRoller()
	}

	combatService := combatSvc.NewService(&combatSvc.ServiceConfig{
		Roller: roller,
	})

	conditionService := conditionSvc.NewService(&conditionSvc.ServiceConfig{})

	turnQueueService := turnqueueSvc.NewService(&turnqueueSvc.ServiceConfig{})

	presenceService := presenceSvc.NewService(&presenceSvc.ServiceConfig{
		PresenceRepo:     presRepo,
		SessionRepo:      sessionRepo,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
		OfflineTimeout:   cfg.OfflineTimeout,
	})

	reconnectService := reconnectSvc.NewService(&reconnectSvc.ServiceConfig{
		TokenRepo:        tokenRepo,
		SessionRepo:      sessionRepo,
		CharacterRepo:    characterRepo,
		MessageRepo:      messageRepo,
		PresenceService:  presenceService,
		TurnQueueService: turnQueueService,
		TokenTTL:         cfg.TokenTTL,
	})

	syncService := syncSvc.NewService(&syncSvc.ServiceConfig{
		TurnQueueService:   turnQueueService,
		CombatService:      combatService,
		SessionRepo:        sessionRepo,
		CharacterRepo:      characterRepo,
		Roller:             roller,
		SimultaneityWindow: cfg.SimultaneityWindow,
	})

	sessionService := sessionSvc.NewService(&sessionSvc.ServiceConfig{
		SessionRepo:   sessionRepo,
		CharacterRepo: characterRepo,
	})

	contentService := contentSvc.NewService(&contentSvc.ServiceConfig{
		Catalog: monsterCatalog,
	})

	perMinute := cfg.RateLimitPerMinute
	if perMinute < 1 {
		perMinute = 60
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 10
	}
	limiter := ratelimit.New(&ratelimit.Config{
		Rate:  perMinute,
		Burst: burst,
	})

	return &Provider{
		DiceRoller:       roller,
		CombatService:    combatService,
		ConditionService: conditionService,
		TurnQueueService: turnQueueService,
		PresenceService:  presenceService,
		ReconnectService: reconnectService,
		SyncService:      syncService,
		SessionService:   sessionService,
		ContentService:   contentService,
		RateLimiter:      limiter,
	}
}
