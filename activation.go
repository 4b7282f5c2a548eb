package accounts

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ConfigActivationDaysKey is the runtime configuration key consulted for
// the activation window length when no explicit option is set.
const ConfigActivationDaysKey = "activation.days"

// DefaultResendThreshold is the minimum quiet period between activation
// email dispatches for the same record.
const DefaultResendThreshold = "1m"

// ActivationFlow governs the activation record lifecycle: key assignment,
// confirmability, activation and regeneration. All collaborators are
// injected; there is no process-wide mail service.
type ActivationFlow struct {
	repo            RepositoryManager
	mailer          Mailer
	keys            KeyGenerator
	links           ActivationLinkBuilder
	days            int
	resendThreshold string
	now             func() time.Time
	logger          Logger
}

// ActivationFlowOption customizes flow construction
type ActivationFlowOption func(*ActivationFlow)

// WithActivationDays pins the confirmation window, bypassing the runtime
// configuration lookup.
func WithActivationDays(days int) ActivationFlowOption {
	return func(f *ActivationFlow) {
		if days > 0 {
			f.days = days
		}
	}
}

// WithResendThreshold sets the quiet period between resends, expressed as
// a time.ParseDuration pattern, e.g. "30s" or "5m".
func WithResendThreshold(pattern string) ActivationFlowOption {
	return func(f *ActivationFlow) {
		if pattern != "" {
			f.resendThreshold = pattern
		}
	}
}

// WithClock injects a custom clock (useful for tests)
func WithClock(clock func() time.Time) ActivationFlowOption {
	return func(f *ActivationFlow) {
		if clock != nil {
			f.now = clock
		}
	}
}

// WithKeyGenerator overrides the default random key source
func WithKeyGenerator(keys KeyGenerator) ActivationFlowOption {
	return func(f *ActivationFlow) {
		if keys != nil {
			f.keys = keys
		}
	}
}

// WithFlowLogger overrides the default logger
func WithFlowLogger(logger Logger) ActivationFlowOption {
	return func(f *ActivationFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewActivationFlow wires the flow service. linkBase is the frontend origin
// used to build activation links.
func NewActivationFlow(repo RepositoryManager, mailer Mailer, linkBase string, opts ...ActivationFlowOption) *ActivationFlow {
	f := &ActivationFlow{
		repo:            repo,
		mailer:          mailer,
		keys:            RandomKeyGenerator{},
		links:           NewActivationLinkBuilder(linkBase),
		resendThreshold: DefaultResendThreshold,
		now:             time.Now,
		logger:          defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// EnsureKey assigns a fresh key to an open, keyless record and persists it.
// It reports whether a key was assigned. Terminal and already-keyed records
// are left untouched.
func (f *ActivationFlow) EnsureKey(ctx context.Context, rec *EmailActivation) (bool, error) {
	return f.EnsureKeyTx(ctx, nil, rec)
}

// EnsureKeyTx is EnsureKey inside an existing transaction. A nil tx runs
// against the base connection.
func (f *ActivationFlow) EnsureKeyTx(ctx context.Context, tx bun.IDB, rec *EmailActivation) (bool, error) {
	if !rec.IsOpen() || rec.HasKey() {
		return false, nil
	}

	key, err := f.keys.Generate()
	if err != nil {
		return false, err
	}

	rec.Key = &key
	rec.MarkUpdated(rec.UpdatedByID)

	if err := f.persist(ctx, tx, rec); err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist activation key")
	}

	return true, nil
}

// CanActivate re-evaluates confirmability against the current instant: the
// record must be open and created within the sliding window ending now.
func (f *ActivationFlow) CanActivate(ctx context.Context, rec *EmailActivation) (bool, error) {
	return f.repo.Activations().IsConfirmable(ctx, rec.ID, f.now(), f.windowDays(ctx))
}

// Activate confirms the record and flips the owning account to active in a
// single transaction. The confirm step is a conditional update, so two
// concurrent calls cannot both succeed. A record outside the window or in
// a terminal state yields false without mutation.
func (f *ActivationFlow) Activate(ctx context.Context, rec *EmailActivation) (bool, error) {
	activated := false

	err := f.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		ok, err := f.repo.Activations().ConfirmTx(ctx, tx, rec.ID, f.now(), f.windowDays(ctx))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm activation record")
		}

		if !ok {
			return nil
		}

		if err := f.repo.Users().ActivateTx(ctx, tx, rec.UserID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
		}

		activated = true
		return nil
	})

	if err != nil {
		return false, err
	}

	if activated {
		rec.Activated = true
		if rec.User != nil {
			rec.User.IsActive = true
		}
	}

	return activated, nil
}

// Regenerate eagerly replaces the record's key and persists it, reporting
// success from the newly assigned key. Terminal records are refused.
func (f *ActivationFlow) Regenerate(ctx context.Context, rec *EmailActivation) (bool, error) {
	if !rec.IsOpen() {
		return false, nil
	}

	key, err := f.keys.Generate()
	if err != nil {
		return false, err
	}

	rec.Key = &key
	rec.MarkUpdated(rec.UpdatedByID)

	if err := f.persist(ctx, nil, rec); err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist regenerated key")
	}

	return rec.HasKey(), nil
}

// SendActivation builds the activation link and dispatches it. Terminal
// records and records without a key report false without dispatching. The
// result reflects transport acceptance only; there are no retries here.
func (f *ActivationFlow) SendActivation(ctx context.Context, rec *EmailActivation) (bool, error) {
	if !rec.IsOpen() {
		return false, nil
	}

	if !rec.HasKey() {
		f.logger.Warn("activation send skipped, record has no key", "activation_id", rec.ID)
		return false, nil
	}

	link := f.links.Build(*rec.Key)

	sent, err := f.mailer.SendActivation(ctx, rec.Email, link)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryOperation, "activation email dispatch failed")
	}

	return sent, nil
}

// ResendActivation re-dispatches the activation email for an open record,
// assigning a key first when none is present. Dispatches are throttled: a
// record touched within the resend threshold is skipped. Records already
// outside the activation window are refused, their link would be dead on
// arrival.
func (f *ActivationFlow) ResendActivation(ctx context.Context, rec *EmailActivation) (bool, error) {
	if !rec.IsOpen() {
		return false, nil
	}

	if rec.CreatedAt != nil && !InActivationWindow(*rec.CreatedAt, f.now(), f.windowDays(ctx)) {
		return false, nil
	}

	if rec.UpdatedAt != nil {
		throttled, err := IsWithinThresholdPeriod(*rec.UpdatedAt, f.resendThreshold)
		if err != nil {
			return false, goerrors.Wrap(err, goerrors.CategoryInternal, "invalid resend threshold")
		}
		if throttled {
			return false, nil
		}
	}

	if _, err := f.EnsureKey(ctx, rec); err != nil {
		return false, err
	}

	return f.SendActivation(ctx, rec)
}

func (f *ActivationFlow) persist(ctx context.Context, tx bun.IDB, rec *EmailActivation) error {
	criteria := repository.UpdateByID(rec.ID.String())
	if tx != nil {
		_, err := f.repo.Activations().UpdateTx(ctx, tx, rec, criteria)
		return err
	}
	_, err := f.repo.Activations().Update(ctx, rec, criteria)
	return err
}

func (f *ActivationFlow) windowDays(ctx context.Context) int {
	if f.days > 0 {
		return f.days
	}

	val, err := f.repo.Configurations().GetConfig(ctx, ConfigActivationDaysKey, strconv.Itoa(DefaultActivationDays))
	if err != nil {
		f.logger.Warn("failed to read activation window config", "error", err)
		return DefaultActivationDays
	}

	days, err := strconv.Atoi(val)
	if err != nil || days <= 0 {
		return DefaultActivationDays
	}

	return days
}
