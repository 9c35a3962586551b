package pix

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenCache stores gateway bearer tokens between batch runs so every job
// does not re-authenticate. The TTL carries the expiry; a miss is (value "",
// ok false, nil error).
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// tokenProvider fetches OAuth client-credentials tokens per counterparty and
// caches them until shortly before expiry.
type tokenProvider struct {
	tokenURL     string
	safetyMargin time.Duration
	cache        TokenCache
	now          func() time.Time
}

func newTokenProvider(tokenURL string, safetyMargin time.Duration, cache TokenCache) *tokenProvider {
	return &tokenProvider{
		tokenURL:     tokenURL,
		safetyMargin: safetyMargin,
		cache:        cache,
		now:          time.Now,
	}
}

// Token returns a bearer token for the counterparty, from cache when fresh.
// The token endpoint requires the same mutual-TLS client as the API itself.
func (p *tokenProvider) Token(ctx context.Context, counterparty domain.Counterparty, httpClient *http.Client) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	cacheKey := "gateway_token:" + counterparty.CounterpartyID

	if cached, ok, err := p.cache.Get(ctx, cacheKey); err != nil {
		logger.Warn("Token cache read failed, falling back to token endpoint", "error", err)
	} else if ok {
		return cached, nil
	}

	cc := clientcredentials.Config{
		ClientID:     counterparty.Bank.ClientID,
		ClientSecret: counterparty.Bank.ClientSecret,
		TokenURL:     p.tokenURL,
	}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	token, err := cc.Token(tokenCtx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", &apperrors.AuthError{Counterparty: counterparty.CounterpartyID, Err: err}
		}
		return "", &apperrors.NetworkError{Op: "gateway token fetch", Err: err}
	}

	// Cache with the expiry shortened by the safety margin so a cached token
	// is never handed out moments before it dies mid-request.
	if !token.Expiry.IsZero() {
		ttl := token.Expiry.Sub(p.now()) - p.safetyMargin
		if ttl > 0 {
			if err := p.cache.Set(ctx, cacheKey, token.AccessToken, ttl); err != nil {
				logger.Warn("Token cache write failed", "error", err)
			}
		}
	}
	return token.AccessToken, nil
}
