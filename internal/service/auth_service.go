package service

import (
	"context"
	"time"

	"github.com/spec-kit/sla-reporting/internal/auth"
	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/domain"
	apperrors "github.com/spec-kit/sla-reporting/pkg/util/errorutil"
)

// AuthService exchanges API client credentials for access tokens.
type AuthService struct {
	clients  map[string]domain.APIClient
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service from configured clients.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	clients := make(map[string]domain.APIClient, len(cfg.Clients))
	for _, c := range cfg.Clients {
		clients[c.ID] = domain.APIClient{
			ID:         c.ID,
			SecretHash: c.SecretHash,
			Role:       domain.StaffRole(c.Role),
			TenantID:   c.TenantID,
		}
	}
	return &AuthService{
		clients:  clients,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// IssueToken authenticates a client and returns a signed access token.
func (s *AuthService) IssueToken(_ context.Context, clientID, secret string) (string, time.Time, error) {
	client, ok := s.clients[clientID]
	if !ok {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid client credentials")
	}
	if err := auth.ComparePassword(client.SecretHash, secret); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid client credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(client.ID, domain.SubjectTypeClient, client.Role, client.TenantID)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}
