package accounts

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the account endpoints as a thin JSON layer over
// the command handlers. All logic lives in the handlers and the flow.
type HTTPController struct {
	repo     RepositoryManager
	flow     *ActivationFlow
	auther   Authenticator
	register *RegisterAccountHandler
	activate *ActivateAccountHandler
	logger   Logger
}

// HTTPControllerOption customizes controller construction
type HTTPControllerOption func(*HTTPController)

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewHTTPController(repo RepositoryManager, flow *ActivationFlow, auther Authenticator, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		repo:     repo,
		flow:     flow,
		auther:   auther,
		register: NewRegisterAccountHandler(repo, flow),
		activate: NewActivateAccountHandler(repo, flow),
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.register = c.register.WithLogger(c.logger)
	c.activate = c.activate.WithLogger(c.logger)

	return c
}

// RegisterRoutes registers the account routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/register", c.Register)
	group.Get("/activation", c.Activate)
	group.Get("/me", c.Me)
	group.Post("/token", c.TokenCreate)
	group.Post("/token/refresh", c.TokenRefresh)
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, validation.Length(8, 100)),
	)
}

// Register creates an inactive account and triggers the activation email.
// The response never echoes the password.
func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{"failed to parse body"},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{err.Error()},
		})
	}

	user, err := c.register.Execute(ctx.Context(), RegisterAccountMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		status := router.StatusBadRequest
		if IsDuplicateEmail(err) {
			status = router.StatusConflict
		}
		c.logger.Error("register account error", "error", err)
		return ctx.JSON(status, map[string]any{
			"errors": []string{publicError(err)},
		})
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user": map[string]any{
			"id":        user.ID,
			"email":     user.Email,
			"is_active": user.IsActive,
		},
	})
}

// Activate confirms an activation key. Failures are deliberately generic:
// an unknown key and an expired record produce the same response.
func (c *HTTPController) Activate(ctx router.Context) error {
	key := ctx.Query("key")
	if key == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{"missing activation key"},
		})
	}

	var resp *ActivateAccountResponse
	err := c.activate.Execute(ctx.Context(), ActivateAccountMessage{
		Key: key,
		OnResponse: func(a *ActivateAccountResponse) {
			resp = a
		},
	})
	if err != nil {
		c.logger.Error("activate account error", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"errors": []string{"could not activate"},
		})
	}

	if resp == nil || !resp.Activated {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{"could not activate"},
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"activated": true,
		"email":     resp.Email,
	})
}

// Me returns the authenticated account's email
func (c *HTTPController) Me(ctx router.Context) error {
	token := bearerToken(ctx)
	if token == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"errors": []string{"missing access token"},
		})
	}

	identity, err := c.auther.IdentityFromToken(ctx.Context(), token)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"errors": []string{"invalid access token"},
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"email": identity.Email(),
	})
}

// TokenPayload carries credentials for token creation
type TokenPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r TokenPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenCreate issues an access/refresh pair. Malformed payloads are a bad
// request; unknown accounts, bad credentials and inactive accounts are all
// unauthorized.
func (c *HTTPController) TokenCreate(ctx router.Context) error {
	payload := new(TokenPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{"failed to parse body"},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{err.Error()},
		})
	}

	pair, err := c.auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"errors": []string{"invalid credentials"},
		})
	}

	return ctx.JSON(router.StatusOK, pair)
}

// RefreshPayload carries the refresh token
type RefreshPayload struct {
	Refresh string `form:"refresh" json:"refresh"`
}

// TokenRefresh exchanges a refresh token for a fresh pair
func (c *HTTPController) TokenRefresh(ctx router.Context) error {
	payload := new(RefreshPayload)

	if err := ctx.Bind(payload); err != nil || payload.Refresh == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": []string{"missing refresh token"},
		})
	}

	pair, err := c.auther.Refresh(ctx.Context(), payload.Refresh)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"errors": []string{"invalid refresh token"},
		})
	}

	return ctx.JSON(router.StatusOK, pair)
}

func bearerToken(ctx router.Context) string {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func publicError(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}
	return "registration failed"
}
