// Package identity turns identity-provider tokens into a verified email.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// ErrUnverifiedEmail is returned for tokens whose email the provider has not verified.
var ErrUnverifiedEmail = errors.New("identity: email not verified")

// Verifier checks an ID token and returns the email it was issued for.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type tokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// Google verifies Google Sign-In ID tokens for one OAuth client.
type Google struct {
	validator tokenValidator
	audience  string
}

// NewGoogle builds a verifier for tokens issued to clientID.
func NewGoogle(ctx context.Context, clientID string) (*Google, error) {
	if clientID == "" {
		return nil, errors.New("identity: GOOGLE_CLIENT_ID is empty")
	}
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("identity: token validator: %w", err)
	}
	return &Google{validator: v, audience: clientID}, nil
}

func (g *Google) Verify(ctx context.Context, rawToken string) (string, error) {
	payload, err := g.validator.Validate(ctx, rawToken, g.audience)
	if err != nil {
		return "", fmt.Errorf("identity: validate token: %w", err)
	}
	return emailFromClaims(payload.Claims)
}

func emailFromClaims(claims map[string]any) (string, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return "", errors.New("identity: token carries no email")
	}
	switch verified := claims["email_verified"].(type) {
	case bool:
		if !verified {
			return "", ErrUnverifiedEmail
		}
	case string:
		if verified != "true" {
			return "", ErrUnverifiedEmail
		}
	default:
		return "", ErrUnverifiedEmail
	}
	return strings.ToLower(email), nil
}

// Static accepts tokens of the form "dev:<email>". It is only wired in dev mode.
type Static struct{}

func (Static) Verify(ctx context.Context, rawToken string) (string, error) {
	email, ok := strings.CutPrefix(rawToken, "dev:")
	if !ok || email == "" {
		return "", errors.New("identity: malformed dev token")
	}
	return strings.ToLower(email), nil
}
