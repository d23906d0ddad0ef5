package google

import (
	"fmt"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ParamTokenSource serves the access token stored on a connection.
// The token is read on every call so a credential update reaches
// connectors built from the same config.
type ParamTokenSource struct {
	cfg *domain.ConnectionConfig
}

// NewTokenSource creates an oauth2.TokenSource over cfg's token param.
func NewTokenSource(cfg *domain.ConnectionConfig) oauth2.TokenSource {
	return &ParamTokenSource{cfg: cfg}
}

// Token implements oauth2.TokenSource.
func (t *ParamTokenSource) Token() (*oauth2.Token, error) {
	token := t.cfg.Param(domain.ParamToken)
	if token == "" {
		return nil, fmt.Errorf("%w: %s connection %s has no token", domain.ErrAuthRequired, t.cfg.Kind, t.cfg.ID)
	}
	return &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}, nil
}
