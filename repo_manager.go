package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Activations() Activations
	Configurations() Configurations
	BillingProfiles() BillingProfiles
}

type mngr struct {
	db              *bun.DB
	users           Users
	activations     Activations
	configurations  Configurations
	billingProfiles BillingProfiles
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:              db,
		users:           NewUsersRepository(db),
		activations:     NewActivationsRepository(db),
		configurations:  NewConfigurationsRepository(db),
		billingProfiles: NewBillingProfilesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.activations == nil {
		return errors.New("repository activations should be initialized")
	}

	if m.configurations == nil {
		return errors.New("repository configurations should be initialized")
	}

	if m.billingProfiles == nil {
		return errors.New("repository billingProfiles should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Activations() Activations {
	return m.activations
}

func (m mngr) Configurations() Configurations {
	return m.configurations
}

func (m mngr) BillingProfiles() BillingProfiles {
	return m.billingProfiles
}
