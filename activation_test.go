package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	accounts "github.com/gobazar/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedKeys(key string) accounts.KeyGenerator {
	return accounts.KeyGeneratorFunc(func() (string, error) {
		return key, nil
	})
}

func TestEnsureKeyAssignsToOpenKeylessRecord(t *testing.T) {
	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)

	rec := &accounts.EmailActivation{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Email:  "alice@example.com",
	}

	activations.On("Update", mock.Anything, rec, mock.Anything).Return(rec, nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithKeyGenerator(fixedKeys("the-key")),
		accounts.WithFlowLogger(testLogger{}),
	)

	assigned, err := flow.EnsureKey(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, assigned)
	require.NotNil(t, rec.Key)
	assert.Equal(t, "the-key", *rec.Key)
	activations.AssertExpectations(t)
}

func TestEnsureKeyLeavesKeyedAndTerminalRecordsAlone(t *testing.T) {
	key := "existing"

	tests := []struct {
		name string
		rec  *accounts.EmailActivation
	}{
		{"already keyed", &accounts.EmailActivation{ID: uuid.New(), Key: &key}},
		{"activated", &accounts.EmailActivation{ID: uuid.New(), Activated: true}},
		{"forced expired", &accounts.EmailActivation{ID: uuid.New(), ForcedExpired: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepositoryManager{}
			flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
				accounts.WithKeyGenerator(fixedKeys("fresh")),
				accounts.WithFlowLogger(testLogger{}),
			)

			assigned, err := flow.EnsureKey(context.Background(), tt.rec)
			require.NoError(t, err)
			assert.False(t, assigned)
			repo.AssertNotCalled(t, "Activations")
		})
	}
}

func TestCanActivateUsesInjectedClockAndWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)

	rec := &accounts.EmailActivation{ID: uuid.New()}
	activations.On("IsConfirmable", mock.Anything, rec.ID, now, 10).Return(true, nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithClock(func() time.Time { return now }),
		accounts.WithActivationDays(10),
	)

	ok, err := flow.CanActivate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, ok)
	activations.AssertExpectations(t)
}

func TestActivateConfirmsRecordAndFlipsAccount(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	users := &MockUsers{}
	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Users").Return(users)
	repo.On("Activations").Return(activations)
	repo.RunTxInline()

	rec := &accounts.EmailActivation{
		ID:     uuid.New(),
		UserID: uuid.New(),
		User:   &accounts.User{ID: uuid.New()},
	}

	activations.On("ConfirmTx", mock.Anything, mock.Anything, rec.ID, now, accounts.DefaultActivationDays).Return(true, nil)
	users.On("ActivateTx", mock.Anything, mock.Anything, rec.UserID).Return(nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithClock(func() time.Time { return now }),
		accounts.WithActivationDays(accounts.DefaultActivationDays),
	)

	activated, err := flow.Activate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, activated)
	assert.True(t, rec.Activated)
	assert.True(t, rec.User.IsActive)

	users.AssertExpectations(t)
	activations.AssertExpectations(t)
}

func TestActivateOutsideWindowDoesNotMutate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	users := &MockUsers{}
	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)
	repo.RunTxInline()

	rec := &accounts.EmailActivation{
		ID:     uuid.New(),
		UserID: uuid.New(),
		User:   &accounts.User{ID: uuid.New()},
	}

	activations.On("ConfirmTx", mock.Anything, mock.Anything, rec.ID, now, accounts.DefaultActivationDays).Return(false, nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithClock(func() time.Time { return now }),
		accounts.WithActivationDays(accounts.DefaultActivationDays),
	)

	activated, err := flow.Activate(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, activated)
	assert.False(t, rec.Activated)
	assert.False(t, rec.User.IsActive)

	users.AssertNotCalled(t, "ActivateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegenerateReplacesKeyEagerly(t *testing.T) {
	old := "old-key"

	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)

	rec := &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Key:   &old,
	}

	activations.On("Update", mock.Anything, rec, mock.Anything).Return(rec, nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithKeyGenerator(fixedKeys("new-key")),
	)

	ok, err := flow.Regenerate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, rec.Key)
	assert.Equal(t, "new-key", *rec.Key)
}

func TestRegenerateRefusesTerminalRecords(t *testing.T) {
	repo := &MockRepositoryManager{}

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithKeyGenerator(fixedKeys("new-key")),
	)

	ok, err := flow.Regenerate(context.Background(), &accounts.EmailActivation{
		ID:        uuid.New(),
		Activated: true,
	})
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertNotCalled(t, "Activations")
}

func TestSendActivationBuildsLinkFromKey(t *testing.T) {
	key := "abc123"

	mailer := &MockMailer{}
	mailer.On("SendActivation", mock.Anything, "alice@example.com", "https://app.example.com/activation?key=abc123").
		Return(true, nil)

	flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com/")

	rec := &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Key:   &key,
	}

	sent, err := flow.SendActivation(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, sent)
	mailer.AssertExpectations(t)
}

func TestSendActivationSkipsTerminalAndKeylessRecords(t *testing.T) {
	key := "abc123"

	tests := []struct {
		name string
		rec  *accounts.EmailActivation
	}{
		{"no key", &accounts.EmailActivation{ID: uuid.New(), Email: "a@example.com"}},
		{"activated", &accounts.EmailActivation{ID: uuid.New(), Email: "a@example.com", Key: &key, Activated: true}},
		{"forced expired", &accounts.EmailActivation{ID: uuid.New(), Email: "a@example.com", Key: &key, ForcedExpired: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &MockMailer{}
			flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com",
				accounts.WithFlowLogger(testLogger{}),
			)

			sent, err := flow.SendActivation(context.Background(), tt.rec)
			require.NoError(t, err)
			assert.False(t, sent)
			mailer.AssertNotCalled(t, "SendActivation", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestResendActivationDeliversLinkAfterQuietPeriod(t *testing.T) {
	key := "resend-key"
	created := time.Now().Add(-24 * time.Hour)
	updated := time.Now().Add(-2 * time.Hour)

	mailer := &MockMailer{}
	mailer.On("SendActivation", mock.Anything, "alice@example.com", "https://app.example.com/activation?key=resend-key").
		Return(true, nil)

	flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com",
		accounts.WithActivationDays(accounts.DefaultActivationDays),
	)

	rec := &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Key:   &key,
	}
	rec.CreatedAt = &created
	rec.UpdatedAt = &updated

	sent, err := flow.ResendActivation(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, sent)
	mailer.AssertExpectations(t)
}

func TestResendActivationThrottlesRecentDispatch(t *testing.T) {
	key := "resend-key"
	created := time.Now().Add(-24 * time.Hour)
	updated := time.Now().Add(-10 * time.Second)

	mailer := &MockMailer{}
	flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com",
		accounts.WithActivationDays(accounts.DefaultActivationDays),
	)

	rec := &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Key:   &key,
	}
	rec.CreatedAt = &created
	rec.UpdatedAt = &updated

	sent, err := flow.ResendActivation(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, sent)
	mailer.AssertNotCalled(t, "SendActivation", mock.Anything, mock.Anything, mock.Anything)
}

func TestResendActivationRefusesExpiredWindow(t *testing.T) {
	key := "resend-key"
	created := time.Now().AddDate(0, 0, -8)
	updated := time.Now().Add(-2 * time.Hour)

	mailer := &MockMailer{}
	flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com",
		accounts.WithActivationDays(accounts.DefaultActivationDays),
	)

	rec := &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Key:   &key,
	}
	rec.CreatedAt = &created
	rec.UpdatedAt = &updated

	sent, err := flow.ResendActivation(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, sent)
	mailer.AssertNotCalled(t, "SendActivation", mock.Anything, mock.Anything, mock.Anything)
}

func TestResendActivationAssignsMissingKey(t *testing.T) {
	created := time.Now().Add(-24 * time.Hour)
	updated := time.Now().Add(-2 * time.Hour)

	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)

	rec := &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
	}
	rec.CreatedAt = &created
	rec.UpdatedAt = &updated

	activations.On("Update", mock.Anything, rec, mock.Anything).Return(rec, nil)

	mailer := &MockMailer{}
	mailer.On("SendActivation", mock.Anything, "alice@example.com", "https://app.example.com/activation?key=late-key").
		Return(true, nil)

	flow := accounts.NewActivationFlow(repo, mailer, "https://app.example.com",
		accounts.WithActivationDays(accounts.DefaultActivationDays),
		accounts.WithKeyGenerator(fixedKeys("late-key")),
	)

	sent, err := flow.ResendActivation(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, sent)
	require.NotNil(t, rec.Key)
	assert.Equal(t, "late-key", *rec.Key)
	mailer.AssertExpectations(t)
}

func TestResendActivationRefusesTerminalRecords(t *testing.T) {
	mailer := &MockMailer{}
	flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com",
		accounts.WithActivationDays(accounts.DefaultActivationDays),
	)

	sent, err := flow.ResendActivation(context.Background(), &accounts.EmailActivation{
		ID:        uuid.New(),
		Activated: true,
	})
	require.NoError(t, err)
	assert.False(t, sent)
	mailer.AssertNotCalled(t, "SendActivation", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendActivationWrapsMailerError(t *testing.T) {
	key := "abc123"

	mailer := &MockMailer{}
	mailer.On("SendActivation", mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("smtp refused"))

	flow := accounts.NewActivationFlow(&MockRepositoryManager{}, mailer, "https://app.example.com")

	sent, err := flow.SendActivation(context.Background(), &accounts.EmailActivation{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Key:   &key,
	})
	require.Error(t, err)
	assert.False(t, sent)
}

func TestWindowFallsBackToRuntimeConfiguration(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	configs := &MockConfigurations{}
	configs.On("GetConfig", mock.Anything, accounts.ConfigActivationDaysKey, mock.Anything).
		Return("10", nil)

	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)
	repo.On("Configurations").Return(configs)

	rec := &accounts.EmailActivation{ID: uuid.New()}
	activations.On("IsConfirmable", mock.Anything, rec.ID, now, 10).Return(true, nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithClock(func() time.Time { return now }),
	)

	ok, err := flow.CanActivate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, ok)
	configs.AssertExpectations(t)
	activations.AssertExpectations(t)
}

func TestWindowIgnoresUnparsableConfiguration(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	configs := &MockConfigurations{}
	configs.On("GetConfig", mock.Anything, accounts.ConfigActivationDaysKey, mock.Anything).
		Return("not-a-number", nil)

	activations := &MockActivations{}
	repo := &MockRepositoryManager{}
	repo.On("Activations").Return(activations)
	repo.On("Configurations").Return(configs)

	rec := &accounts.EmailActivation{ID: uuid.New()}
	activations.On("IsConfirmable", mock.Anything, rec.ID, now, accounts.DefaultActivationDays).
		Return(true, nil)

	flow := accounts.NewActivationFlow(repo, &MockMailer{}, "https://app.example.com",
		accounts.WithClock(func() time.Time { return now }),
	)

	ok, err := flow.CanActivate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, ok)
	activations.AssertExpectations(t)
}
