package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BillingProfiles provisions billing records for accounts. GetOrCreate is
// keyed by user and idempotent: repeated calls return the existing profile.
type BillingProfiles interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*BillingProfile, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*BillingProfile, error)
}

type billingProfiles struct {
	repository.Repository[*BillingProfile]
	db *bun.DB
}

var _ BillingProfiles = (*billingProfiles)(nil)

func NewBillingProfilesRepository(db *bun.DB) BillingProfiles {
	repo := repository.NewRepository[*BillingProfile](db, repository.ModelHandlers[*BillingProfile]{
		NewRecord: func() *BillingProfile { return &BillingProfile{} },
		GetID: func(b *BillingProfile) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *BillingProfile, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
	})

	return &billingProfiles{
		Repository: repo,
		db:         db,
	}
}

func (b *billingProfiles) GetOrCreate(ctx context.Context, userID uuid.UUID) (*BillingProfile, error) {
	return b.GetOrCreateTx(ctx, b.db, userID)
}

func (b *billingProfiles) GetOrCreateTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*BillingProfile, error) {
	record := &BillingProfile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err == nil {
		return record, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	record = &BillingProfile{
		ID:     uuid.New(),
		UserID: userID,
	}
	record.MarkCreated(&userID)

	return b.Repository.CreateTx(ctx, tx, record)
}
