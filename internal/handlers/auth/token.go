package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/charleshuang3/errgate/internal/models"
)

func (p *Provider) genAccessToken(user *models.User) (string, error) {
	token, err := jwt.NewBuilder().
		Issuer(p.config.Issuer).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(p.accessTokenTTL())).
		Subject(user.Username).
		Claim("roles", user.Roles).
		Build()

	if err != nil {
		return "", fmt.Errorf("failed to build access token claims: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), p.privateKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %v", err)
	}

	return string(signed), nil
}
