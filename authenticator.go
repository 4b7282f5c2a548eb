package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Authenticator exchanges credentials for token pairs
type Authenticator interface {
	Login(ctx context.Context, email, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	IdentityFromToken(ctx context.Context, accessToken string) (Identity, error)
}

// Auther is the default Authenticator over the users repository
type Auther struct {
	repo         RepositoryManager
	tokenService TokenService
	logger       Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokenService TokenService) *Auther {
	return &Auther{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and issues a token pair. Inactive accounts
// and bad credentials both fail with an unauthorized error; the message
// does not reveal which.
func (s *Auther) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return TokenPair{}, ErrMismatchedHashAndPassword
		}
		return TokenPair{}, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return TokenPair{}, ErrMismatchedHashAndPassword
	}

	pair, err := s.tokenService.IssuePair(user)
	if err != nil {
		s.logger.Warn("login token issuance refused", "email", user.Email, "error", err)
		return TokenPair{}, err
	}

	return pair, nil
}

// Refresh validates a refresh token and issues a fresh pair. The owning
// account is re-checked, so a deactivated account cannot keep refreshing.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokenService.Validate(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	if claims.Use() != TokenUseRefresh {
		return TokenPair{}, ErrTokenMalformed
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return TokenPair{}, err
	}

	return s.tokenService.IssuePair(user)
}

// IdentityFromToken resolves an access token to its active account
func (s *Auther) IdentityFromToken(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.tokenService.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	if claims.Use() != TokenUseAccess {
		return nil, ErrTokenMalformed
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}

	return authIdentity{
		id:     user.ID.String(),
		email:  user.Email,
		active: user.IsActive,
	}, nil
}

func (s *Auther) userFromClaims(ctx context.Context, claims AuthClaims) (*User, error) {
	user, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user from claims")
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

type authIdentity struct {
	id     string
	email  string
	active bool
}

func (a authIdentity) ID() string    { return a.id }
func (a authIdentity) Email() string { return a.email }
func (a authIdentity) Active() bool  { return a.active }
