package accounts_test

import (
	"context"
	"database/sql"
	"time"

	accounts "github.com/gobazar/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
	inlineTx bool
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	if m.inlineTx {
		var tx bun.Tx
		return f(ctx, tx)
	}
	return nil
}

// RunTxInline configures RunInTx to invoke the callback with a zero bun.Tx,
// propagating the callback's error the way the real transaction does.
func (m *MockRepositoryManager) RunTxInline() *mock.Call {
	m.inlineTx = true
	return m.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

func (m *MockRepositoryManager) Activations() accounts.Activations {
	args := m.Called()
	return args.Get(0).(accounts.Activations)
}

func (m *MockRepositoryManager) Configurations() accounts.Configurations {
	args := m.Called()
	return args.Get(0).(accounts.Configurations)
}

func (m *MockRepositoryManager) BillingProfiles() accounts.BillingProfiles {
	args := m.Called()
	return args.Get(0).(accounts.BillingProfiles)
}

// MockUsers implements accounts.Users for the methods under test; the
// embedded interface satisfies the remainder.
type MockUsers struct {
	mock.Mock
	accounts.Users
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, id, criteria)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) Activate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockActivations implements accounts.Activations for the methods under
// test.
type MockActivations struct {
	mock.Mock
	accounts.Activations
}

func (m *MockActivations) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.EmailActivation, criteria ...repository.InsertCriteria) (*accounts.EmailActivation, error) {
	args := m.Called(ctx, tx, record, criteria)
	if e, ok := args.Get(0).(*accounts.EmailActivation); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivations) Update(ctx context.Context, record *accounts.EmailActivation, criteria ...repository.UpdateCriteria) (*accounts.EmailActivation, error) {
	args := m.Called(ctx, record, criteria)
	if e, ok := args.Get(0).(*accounts.EmailActivation); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivations) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.EmailActivation, criteria ...repository.UpdateCriteria) (*accounts.EmailActivation, error) {
	args := m.Called(ctx, tx, record, criteria)
	if e, ok := args.Get(0).(*accounts.EmailActivation); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivations) GetByKey(ctx context.Context, key string) (*accounts.EmailActivation, error) {
	args := m.Called(ctx, key)
	if e, ok := args.Get(0).(*accounts.EmailActivation); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockActivations) IsConfirmable(ctx context.Context, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	args := m.Called(ctx, id, now, windowDays)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivations) Confirm(ctx context.Context, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	args := m.Called(ctx, id, now, windowDays)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivations) ConfirmTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	args := m.Called(ctx, tx, id, now, windowDays)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivations) OpenExistsForEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockConfigurations implements accounts.Configurations for the methods
// under test.
type MockConfigurations struct {
	mock.Mock
	accounts.Configurations
}

func (m *MockConfigurations) GetConfig(ctx context.Context, key string, def ...string) (string, error) {
	args := m.Called(ctx, key, def)
	return args.String(0), args.Error(1)
}

// MockBillingProfiles implements accounts.BillingProfiles for the methods
// under test.
type MockBillingProfiles struct {
	mock.Mock
	accounts.BillingProfiles
}

func (m *MockBillingProfiles) GetOrCreateTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*accounts.BillingProfile, error) {
	args := m.Called(ctx, tx, userID)
	if b, ok := args.Get(0).(*accounts.BillingProfile); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendActivation(ctx context.Context, email, link string) (bool, error) {
	args := m.Called(ctx, email, link)
	return args.Bool(0), args.Error(1)
}
