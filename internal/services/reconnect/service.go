// Package reconnect issues one-time reconnection tokens and rebuilds a
// returning player's view of the table. Raw secrets are handed out
// exactly once; storage and logs only ever see the SHA-256 hash.
package reconnect

//go:generate mockgen -destination=mock/mock_service.go -package=mockreconnect -source=service.go

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-table/internal/clock"
	"github.com/KirkDiggler/rpg-table/internal/domain/message"
	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
	"github.com/KirkDiggler/rpg-table/internal/domain/reconnect"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/idgen"
	charactersRepo "github.com/KirkDiggler/rpg-table/internal/repositories/characters"
	messagesRepo "github.com/KirkDiggler/rpg-table/internal/repositories/messages"
	sessionsRepo "github.com/KirkDiggler/rpg-table/internal/repositories/sessions"
	tokensRepo "github.com/KirkDiggler/rpg-table/internal/repositories/tokens"
	presenceSvc "github.com/KirkDiggler/rpg-table/internal/services/presence"
	turnqueueSvc "github.com/KirkDiggler/rpg-table/internal/services/turnqueue"
)

const (
	defaultTokenTTL = 24 * time.Hour

	// secretBytes of entropy per token, base64url encoded for the wire.
	secretBytes = 32

	// How much history a reconnection snapshot carries.
	snapshotMessages = 50
)

// Service manages the reconnection token lifecycle and snapshot
// assembly.
type Service interface {
	// CreateToken issues a fresh token for the player in the session,
	// revoking any prior live tokens for the same pair. The raw secret
	// in the output is shown exactly once and cannot be recovered.
	CreateToken(ctx context.Context, playerID, sessionID string) (*CreateTokenOutput, error)

	// ValidateToken checks a secret without consuming it.
	ValidateToken(ctx context.Context, secret string) (*reconnect.TokenInfo, error)

	// HandleReconnection redeems a secret and returns the session
	// snapshot. Redemption is one-shot: the token is dead afterward
	// even if snapshot assembly fails.
	HandleReconnection(ctx context.Context, secret string) (*reconnect.Snapshot, error)

	// RevokeToken invalidates a token by ID.
	RevokeToken(ctx context.Context, tokenID string) error

	// CleanupExpiredTokens deletes expired tokens and reports the count.
	CleanupExpiredTokens(ctx context.Context) (int, error)

	// GetTokenInfo returns token metadata. The hash never leaves the
	// storage layer.
	GetTokenInfo(ctx context.Context, tokenID string) (*reconnect.TokenInfo, error)
}

// CreateTokenOutput carries the one-time secret and the stored token's
// metadata.
type CreateTokenOutput struct {
	Secret string
	Token  *reconnect.TokenInfo

	// Revoked is how many prior tokens for the pair were invalidated.
	Revoked int
}

// ServiceConfig holds the reconnect service dependencies.
type ServiceConfig struct {
	TokenRepo     tokensRepo.Repository
	SessionRepo   sessionsRepo.Repository
	CharacterRepo charactersRepo.Repository
	MessageRepo   messagesRepo.Repository

	PresenceService  presenceSvc.Service
	TurnQueueService turnqueueSvc.Service

	IDGenerator idgen.Generator
	Clock       clock.Clock
	TokenTTL    time.Duration
}

type service struct {
	tokenRepo     tokensRepo.Repository
	sessionRepo   sessionsRepo.Repository
	characterRepo charactersRepo.Repository
	messageRepo   messagesRepo.Repository

	presenceService  presenceSvc.Service
	turnQueueService turnqueueSvc.Service

	idGenerator idgen.Generator
	clock       clock.Clock
	tokenTTL    time.Duration
}

// NewService creates a reconnect service.
func NewService(cfg *ServiceConfig) Service {
	if cfg.TokenRepo == nil {
		panic("token repository is required")
	}
	if cfg.SessionRepo == nil {
		panic("session repository is required")
	}
	if cfg.CharacterRepo == nil {
		panic("character repository is required")
	}
	if cfg.MessageRepo == nil {
		panic("message repository is required")
	}
	if cfg.PresenceService == nil {
		panic("presence service is required")
	}
	if cfg.TurnQueueService == nil {
		panic("turn queue service is required")
	}

	svc := &service{
		tokenRepo:        cfg.TokenRepo,
		sessionRepo:      cfg.SessionRepo,
		characterRepo:    cfg.CharacterRepo,
		messageRepo:      cfg.MessageRepo,
		presenceService:  cfg.PresenceService,
		turnQueueService: cfg.TurnQueueService,
		idGenerator:      cfg.IDGenerator,
		clock:            cfg.Clock,
		tokenTTL:         cfg.TokenTTL,
	}
	if svc.idGenerator == nil {
		svc.idGenerator = idgen.NewUUID("tok")
	}
	if svc.clock == nil {
		svc.clock = clock.New()
	}
	if svc.tokenTTL == 0 {
		svc.tokenTTL = defaultTokenTTL
	}
	return svc
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate token secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (s *service) CreateToken(ctx context.Context, playerID, sessionID string) (*CreateTokenOutput, error) {
	if playerID == "" || sessionID == "" {
		return nil, errors.InvalidArgument("player ID and session ID are required")
	}

	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.GetMember(playerID) == nil {
		return nil, errors.InvalidArgumentf("player %s is not a member of session %s", playerID, sessionID)
	}

	// Issuing a new token kills any outstanding ones for the pair.
	revoked, err := s.tokenRepo.InvalidatePair(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	tok := &reconnect.Token{
		ID:        s.idGenerator.Generate(),
		PlayerID:  playerID,
		SessionID: sessionID,
		TokenHash: hashSecret(secret),
		Valid:     true,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, tok); err != nil {
		return nil, err
	}

	log.Printf("[RECONNECT] issued token %s for player %s in session %s (revoked %d prior)",
		tok.ID, playerID, sessionID, revoked)

	return &CreateTokenOutput{
		Secret:  secret,
		Token:   tok.Info(),
		Revoked: revoked,
	}, nil
}

func (s *service) ValidateToken(ctx context.Context, secret string) (*reconnect.TokenInfo, error) {
	if secret == "" {
		return nil, errors.InvalidToken("token secret cannot be empty")
	}

	tok, err := s.tokenRepo.GetByHash(ctx, hashSecret(secret))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidToken("token is not recognized")
		}
		return nil, err
	}

	if !tok.Valid {
		return nil, errors.InvalidToken("token has been revoked")
	}
	if tok.UsedAt != nil {
		return nil, errors.InvalidToken("token has already been used")
	}
	if tok.IsExpired(s.clock.Now()) {
		// Expired tokens are retired the first time anyone looks.
		if err := s.tokenRepo.Invalidate(ctx, tok.ID); err != nil && !errors.IsNotFound(err) {
			log.Printf("[RECONNECT] failed to retire expired token %s: %v", tok.ID, err)
		}
		return nil, errors.InvalidToken("token has expired")
	}

	return tok.Info(), nil
}

func (s *service) HandleReconnection(ctx context.Context, secret string) (*reconnect.Snapshot, error) {
	if secret == "" {
		return nil, errors.InvalidToken("token secret cannot be empty")
	}

	now := s.clock.Now()
	tok, err := s.tokenRepo.Consume(ctx, hashSecret(secret), now)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.Get(ctx, tok.SessionID)
	if err != nil {
		return nil, err
	}
	member := sess.GetMember(tok.PlayerID)
	if member == nil {
		return nil, errors.InvalidArgumentf("player %s is no longer a member of session %s", tok.PlayerID, tok.SessionID)
	}

	snapshot := &reconnect.Snapshot{
		PlayerID:   tok.PlayerID,
		SessionID:  tok.SessionID,
		Session:    sess,
		RestoredAt: now,
	}

	g, gctx := errgroup.WithContext(ctx)

	if member.CharacterID != "" {
		g.Go(func() error {
			char, err := s.characterRepo.Get(gctx, member.CharacterID)
			if err != nil {
				if errors.IsNotFound(err) {
					return nil
				}
				return err
			}
			snapshot.Character = char
			return nil
		})
	}

	g.Go(func() error {
		queue, err := s.turnQueueService.GetQueue(gctx, tok.SessionID)
		if err != nil {
			// No queue running is a normal state to reconnect into.
			if errors.IsNotFound(err) {
				return nil
			}
			return err
		}
		snapshot.Queue = queue
		snapshot.CurrentTurn = queue.ActiveTurn()
		return nil
	})

	g.Go(func() error {
		msgs, err := s.messageRepo.Recent(gctx, tok.SessionID, snapshotMessages)
		if err != nil {
			return err
		}
		snapshot.RecentMessages = msgs
		return nil
	})

	g.Go(func() error {
		records, err := s.presenceService.GetActiveConnections(gctx, tok.SessionID)
		if err != nil {
			return err
		}
		others := make([]*presence.Record, 0, len(records))
		for _, rec := range records {
			if rec.PlayerID == tok.PlayerID {
				continue
			}
			others = append(others, rec)
		}
		snapshot.OtherPresence = others
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snapshot.RecentMessages == nil {
		snapshot.RecentMessages = []*message.Message{}
	}
	if snapshot.OtherPresence == nil {
		snapshot.OtherPresence = []*presence.Record{}
	}

	log.Printf("[RECONNECT] player %s reconnected to session %s (token %s)", tok.PlayerID, tok.SessionID, tok.ID)
	return snapshot, nil
}

func (s *service) RevokeToken(ctx context.Context, tokenID string) error {
	if err := s.tokenRepo.Invalidate(ctx, tokenID); err != nil {
		return err
	}
	log.Printf("[RECONNECT] revoked token %s", tokenID)
	return nil
}

func (s *service) CleanupExpiredTokens(ctx context.Context) (int, error) {
	deleted, err := s.tokenRepo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[RECONNECT] deleted %d expired tokens", deleted)
	}
	return deleted, nil
}

func (s *service) GetTokenInfo(ctx context.Context, tokenID string) (*reconnect.TokenInfo, error) {
	tok, err := s.tokenRepo.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return tok.Info(), nil
}
