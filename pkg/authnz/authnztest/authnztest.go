// Package authnztest issues signed tokens that an OIDC authenticator
// configured with the issuer's keys will accept.
package authnztest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"time"

	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const keyID = "wibble"

type Issuer struct {
	URL      string
	Audience string

	priv jose.JSONWebKey
	pub  jose.JSONWebKey
}

func NewIssuer(url, audience string) (*Issuer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	return &Issuer{
		URL:      url,
		Audience: audience,
		priv:     jose.JSONWebKey{Key: key, KeyID: keyID, Algorithm: "RS256", Use: "sig"},
		pub:      jose.JSONWebKey{Key: key.Public(), KeyID: keyID, Algorithm: "RS256", Use: "sig"},
	}, nil
}

func (i *Issuer) Keys() []jose.JSONWebKey {
	return []jose.JSONWebKey{i.priv, i.pub}
}

// JWKS is the public key as a key set document.
func (i *Issuer) JWKS() ([]byte, error) {
	return json.Marshal(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{i.pub}})
}

// Token signs a token for user. The user is the subject, and is also put
// under claim when that isn't "sub".
func (i *Issuer) Token(user, claim string, ttl time.Duration) (string, error) {
	sig, err := jose.NewSigner(
		jose.SigningKey{
			Algorithm: jose.RS256,
			Key:       i.priv,
		},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", err
	}

	cl := jwt.Claims{
		Subject:   user,
		Issuer:    i.URL,
		Expiry:    jwt.NewNumericDate(time.Now().Add(ttl)),
		NotBefore: jwt.NewNumericDate(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)),
		Audience:  jwt.Audience{i.Audience},
	}

	builder := jwt.Signed(sig).Claims(cl)
	if claim != "" && claim != "sub" {
		builder = builder.Claims(map[string]interface{}{claim: user})
	}

	return builder.CompactSerialize()
}

func SetupKeysAndToken(user, iss, aud, claim string) ([]jose.JSONWebKey, string, error) {
	issuer, err := NewIssuer(iss, aud)
	if err != nil {
		return nil, "", err
	}

	token, err := issuer.Token(user, claim, time.Hour)
	if err != nil {
		return nil, "", err
	}

	return issuer.Keys(), token, nil
}
