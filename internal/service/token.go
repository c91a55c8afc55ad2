package service

import (
	"context"
	"fmt"
	"time"

	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/utils"
	"github.com/innerhue/moodsync/models"
)

type tokenService struct {
	tokenSignKey  string
	tokenIssuer   string
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewTokenService returns the bearer token service configured by cfg.
// Tokens carry the account id in the subject; every device of the account
// uses a token of its own.
func NewTokenService(cfg config.App, logger *logger.Logger) TokenService {
	return &tokenService{
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		logger:        logger,
	}
}

// IssueToken signs a token for userID. A non-positive ttl uses the
// configured duration.
func (t *tokenService) IssueToken(ctx context.Context, userID int64, ttl time.Duration) (models.Token, error) {
	if ttl <= 0 {
		ttl = t.tokenDuration
	}

	token, err := utils.IssueToken(utils.TokenParams{
		Issuer:   t.tokenIssuer,
		UserID:   userID,
		Duration: ttl,
		SignKey:  t.tokenSignKey,
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "tokenService.IssueToken").Int64("user_id", userID).Msg("token was not issued")
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken normalizes every verification failure to
// ErrTokenIsExpiredOrInvalid.
func (t *tokenService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ParseToken(tokenString, t.tokenSignKey, t.tokenIssuer)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("func", "tokenService.ParseToken").Msg("token refused")
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
