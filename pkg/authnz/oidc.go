package authnz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	"gopkg.in/square/go-jose.v2"
)

var (
	ErrNoBearerToken    = errors.New("no bearer token")
	ErrUnverified       = errors.New("no provider could verify the token")
	ErrMissingUser      = errors.New("token has no user claim")
	ErrUnreadableClaims = errors.New("couldn't read token claims")
)

type OIDCConfig struct {
	URL  string
	Keys []jose.JSONWebKey

	ClientID  string
	UserClaim string
}

type provider struct {
	Config   *OIDCConfig
	Verifier *oidc.IDTokenVerifier
}

// OIDC accepts bearer tokens any of its providers can verify, and passes the
// configured user claim on in the request context.
type OIDC struct {
	providers []*provider
}

type LocalKeySet []jose.JSONWebKey

func (keys LocalKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	jws, err := jose.ParseSigned(jwt)
	if err != nil {
		return nil, fmt.Errorf("oidc: malformed jwt: %v", err)
	}

	keyID := ""
	for _, sig := range jws.Signatures {
		keyID = sig.Header.KeyID
		break
	}

	for _, key := range keys {
		if keyID == "" || key.KeyID == keyID {
			if payload, err := jws.Verify(&key); err == nil {
				return payload, nil
			}
		}
	}

	return nil, errors.New("failed to verify id token signature")
}

// NewOIDCAuthenticator uses a provider's keys when it has them, and discovery
// otherwise.
func NewOIDCAuthenticator(ctx context.Context, providerConfigs []OIDCConfig) (Authenticator, error) {
	oidcConfig := OIDC{
		providers: make([]*provider, len(providerConfigs)),
	}

	for idx := range providerConfigs {
		providerConfig := providerConfigs[idx]

		var verifier *oidc.IDTokenVerifier

		verifierConfig := &oidc.Config{ClientID: providerConfig.ClientID}

		if len(providerConfig.Keys) > 0 {
			keySet := LocalKeySet(providerConfig.Keys)
			verifier = oidc.NewVerifier(providerConfig.URL, keySet, verifierConfig)
		} else {
			p, err := oidc.NewProvider(ctx, providerConfig.URL)
			if err != nil {
				return nil, fmt.Errorf("discovering %s: %w", providerConfig.URL, err)
			}

			verifier = p.Verifier(verifierConfig)
		}

		oidcConfig.providers[idx] = &provider{
			Config:   &providerConfig,
			Verifier: verifier,
		}
	}

	return &oidcConfig, nil
}

func bearerToken(r *http.Request) (string, error) {
	header, ok := r.Header["Authorization"]
	if !ok {
		return "", fmt.Errorf("no Authorization header: %w", ErrNoBearerToken)
	}

	headerParts := strings.Split(header[0], " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
		return "", fmt.Errorf("expected Authorization header to contain a Bearer token, but was: %s: %w", headerParts[0], ErrNoBearerToken)
	}

	return headerParts[1], nil
}

// User verifies a raw token and returns the user it names.
func (o *OIDC) User(ctx context.Context, rawIDToken string) (string, error) {
	var idToken *oidc.IDToken
	var verifiedProvider *provider

	for _, provider := range o.providers {
		token, err := provider.Verifier.Verify(ctx, rawIDToken)
		if err == nil {
			idToken, verifiedProvider = token, provider
			break
		}
	}

	if verifiedProvider == nil {
		return "", ErrUnverified
	}

	claims := map[string]interface{}{}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrUnreadableClaims)
	}

	user, ok := claims[verifiedProvider.Config.UserClaim]
	if !ok || user == nil || fmt.Sprint(user) == "" {
		return "", fmt.Errorf("claim '%s': %w", verifiedProvider.Config.UserClaim, ErrMissingUser)
	}

	return fmt.Sprint(user), nil
}

func (o *OIDC) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawIDToken, err := bearerToken(r)
		if err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		user, err := o.User(r.Context(), rawIDToken)
		switch {
		case errors.Is(err, ErrUnverified):
			log.Println("Failed to find a provider that could validate the token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		case err != nil:
			log.Printf("Couldn't extract user from token: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
