package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPair bundles the short-lived access token with its long-lived
// refresh counterpart.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenService issues and validates JWTs for active accounts
type TokenService interface {
	IssuePair(user *User) (TokenPair, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey        []byte
	accessExpiration  int
	refreshExpiration int
	issuer            string
	audience          jwt.ClaimStrings
	logger            Logger
}

// NewTokenService creates a new TokenService instance. Expirations are in
// hours, access for the short-lived token and refresh for the long-lived
// one.
func NewTokenService(signingKey []byte, accessExpiration, refreshExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:        signingKey,
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
		issuer:            issuer,
		audience:          audience,
		logger:            logger,
	}
}

// IssuePair creates an access/refresh token pair for an account. Inactive
// accounts are rejected at issuance.
func (ts *TokenServiceImpl) IssuePair(user *User) (TokenPair, error) {
	if user == nil {
		return TokenPair{}, errors.New("user must not be nil", errors.CategoryInternal)
	}

	if !user.IsActive {
		return TokenPair{}, ErrAccountInactive
	}

	access, err := ts.issue(user, TokenUseAccess, ts.accessExpiration)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := ts.issue(user, TokenUseRefresh, ts.refreshExpiration)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (ts *TokenServiceImpl) issue(user *User, use TokenUse, hours int) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(hours) * time.Hour)),
			ID:        uuid.NewString(),
		},
		UID:      user.ID.String(),
		Email:    user.Email,
		TokenUse: use,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}
