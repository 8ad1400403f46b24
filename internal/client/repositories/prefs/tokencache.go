package prefs

import "context"

const keyRefreshToken = "session.refresh_token"

// TokenCache persists the backend refresh token in the local store so a
// durable session survives restarts. Satisfies backend.TokenCache.
type TokenCache struct {
	repo Repository
}

func NewTokenCache(repo Repository) *TokenCache {
	return &TokenCache{repo: repo}
}

func (c *TokenCache) SaveRefreshToken(ctx context.Context, token string) error {
	return c.repo.Set(ctx, keyRefreshToken, token)
}

func (c *TokenCache) LoadRefreshToken(ctx context.Context) (string, error) {
	v, _, err := c.repo.Get(ctx, keyRefreshToken)
	return v, err
}

func (c *TokenCache) ClearRefreshToken(ctx context.Context) error {
	return c.repo.Delete(ctx, keyRefreshToken)
}
