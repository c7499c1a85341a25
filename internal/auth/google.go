package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
)

// Errors returned by Google credential verification.
var (
	ErrInvalidGoogleToken  = errors.New("invalid Google token")
	ErrGoogleNotConfigured = errors.New("Google client ID not configured")
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// googleIssuers is the accepted issuer set for Google ID tokens.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// GoogleIdentity is the subset of ID-token claims the application uses.
type GoogleIdentity struct {
	GoogleID  string // the token's subject
	Email     string
	Name      string
	AvatarURL string
}

type googleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates Google ID tokens against Google's JWKS, checking
// signature, audience (the application client ID) and issuer.
type GoogleVerifier struct {
	clientID string
	jwksURL  string

	mu     sync.Mutex
	keySet jwk.Set
}

// NewGoogleVerifier creates a verifier for the given OAuth client ID. The
// JWKS is fetched lazily on first use so startup does not depend on Google.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		jwksURL:  googleJWKSURL,
	}
}

// Verify checks the credential and returns the identity claims it carries.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, ErrGoogleNotConfigured
	}

	// Parse the header unverified to learn the signing key ID.
	token, _, err := new(jwt.Parser).ParseUnverified(credential, &googleClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: token header missing kid", ErrInvalidGoogleToken)
	}

	rawKey, err := v.lookupKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	claims := &googleClaims{}
	validated, err := jwt.ParseWithClaims(
		credential,
		claims,
		func(token *jwt.Token) (interface{}, error) { return rawKey, nil },
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	if !validated.Valid {
		return nil, ErrInvalidGoogleToken
	}

	if !isGoogleIssuer(claims.Issuer) {
		return nil, fmt.Errorf("%w: unrecognized issuer %q", ErrInvalidGoogleToken, claims.Issuer)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email claim", ErrInvalidGoogleToken)
	}

	return &GoogleIdentity{
		GoogleID:  claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}, nil
}

// lookupKey finds the raw public key for kid, refreshing the cached JWKS once
// on a miss (Google rotates its keys).
func (v *GoogleVerifier) lookupKey(ctx context.Context, kid string) (interface{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keySet == nil {
		keySet, err := jwk.Fetch(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch Google JWKS: %w", err)
		}
		v.keySet = keySet
	}

	key, found := v.keySet.LookupKeyID(kid)
	if !found {
		keySet, err := jwk.Fetch(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s not found and JWKS refresh failed: %v", ErrInvalidGoogleToken, kid, err)
		}
		v.keySet = keySet
		key, found = v.keySet.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("%w: key %s not found in Google JWKS", ErrInvalidGoogleToken, kid)
		}
	}

	var rawKey interface{}
	if err := key.Raw(&rawKey); err != nil {
		return nil, fmt.Errorf("%w: failed to get raw key: %v", ErrInvalidGoogleToken, err)
	}
	return rawKey, nil
}

func isGoogleIssuer(iss string) bool {
	for _, allowed := range googleIssuers {
		if iss == allowed {
			return true
		}
	}
	return false
}
