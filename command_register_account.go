package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Staff     bool   `json:"staff"`
	Superuser bool   `json:"superuser"`
	UseHashid bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

func (e RegisterAccountMessage) Validate() error {
	if e.Email == "" {
		return ErrEmailRequired
	}

	if err := validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(3, 255), is.Email),
	); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	if (e.Staff || e.Superuser) && e.Password == "" {
		return ErrPasswordRequired
	}

	return nil
}

// NewStaffAccountMessage layers the staff flag on a plain registration
func NewStaffAccountMessage(email, password string) RegisterAccountMessage {
	return RegisterAccountMessage{Email: email, Password: password, Staff: true}
}

// NewSuperuserAccountMessage marks the account active, staff and superuser.
// Superusers bypass the activation workflow entirely.
func NewSuperuserAccountMessage(email, password string) RegisterAccountMessage {
	return RegisterAccountMessage{Email: email, Password: password, Staff: true, Superuser: true}
}

// RegisterAccountHandler performs account creation, activation-record
// creation and email dispatch as one explicit sequence. The persistence
// steps share a transaction; the email send runs after commit, so a
// transport failure leaves a keyed record that can be resent, never a
// half-written account.
type RegisterAccountHandler struct {
	repo   RepositoryManager
	flow   *ActivationFlow
	logger Logger
}

func NewRegisterAccountHandler(repo RepositoryManager, flow *ActivationFlow) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:   repo,
		flow:   flow,
		logger: defLogger{},
	}
}

func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	if taken, err := h.emailTaken(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	user := &User{}
	var activation *EmailActivation

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.Password != "" {
			hash, err := HashPassword(event.Password)
			if err != nil {
				var richErr *goerrors.Error
				if goerrors.As(err, &richErr) {
					return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			user.PasswordHash = hash
		}

		user.Email = email
		user.IsStaff = event.Staff
		user.IsSuperuser = event.Superuser
		user.IsActive = event.Superuser
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		var err error
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsDuplicateEmail(err) {
				return ErrEmailTaken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		if event.Superuser {
			if _, err := h.repo.BillingProfiles().GetOrCreateTx(ctx, tx, user.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not provision billing profile")
			}
			return nil
		}

		activation = &EmailActivation{
			UserID: user.ID,
			Email:  user.Email,
		}
		if activation, err = h.repo.Activations().CreateTx(ctx, tx, activation); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create activation record")
		}

		if _, err := h.flow.EnsureKeyTx(ctx, tx, activation); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not assign activation key")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	if activation != nil {
		if sent, err := h.flow.SendActivation(ctx, activation); err != nil {
			h.logger.Error("activation email dispatch failed", "email", activation.Email, "error", err)
		} else if !sent {
			h.logger.Warn("activation email not accepted by transport", "email", activation.Email)
		}
	}

	return user, nil
}

func (h *RegisterAccountHandler) emailTaken(ctx context.Context, email string) (bool, error) {
	if _, err := h.repo.Users().GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !goerrors.IsNotFound(err) {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing accounts")
	}

	exists, err := h.repo.Activations().OpenExistsForEmail(ctx, email)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check pending activations")
	}

	return exists, nil
}
