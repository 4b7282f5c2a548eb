package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConfirmActivationSQL flips an activation record to its terminal success
// state only while it is still confirmable. Running the window check inside
// the UPDATE closes the race between concurrent confirmation attempts: at
// most one caller observes a changed row.
var ConfirmActivationSQL = `UPDATE "email_activations" AS "eact"
SET
	"activated" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"eact"."deleted_at" IS NULL
AND "eact"."id" = ?
AND "eact"."activated" = FALSE
AND "eact"."forced_expired" = FALSE
AND "eact"."created_at" > ?
AND "eact"."created_at" <= ?
RETURNING *;`

type Activations interface {
	repository.Repository[*EmailActivation]

	Create(ctx context.Context, record *EmailActivation, criteria ...repository.InsertCriteria) (*EmailActivation, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *EmailActivation, criteria ...repository.InsertCriteria) (*EmailActivation, error)
	GetByKey(ctx context.Context, key string) (*EmailActivation, error)
	GetByKeyTx(ctx context.Context, tx bun.IDB, key string) (*EmailActivation, error)
	IsConfirmable(ctx context.Context, id uuid.UUID, now time.Time, windowDays int) (bool, error)
	IsConfirmableTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time, windowDays int) (bool, error)
	Confirm(ctx context.Context, id uuid.UUID, now time.Time, windowDays int) (bool, error)
	ConfirmTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time, windowDays int) (bool, error)
	OpenExistsForEmail(ctx context.Context, email string) (bool, error)
	OpenExistsForEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
}

type activations struct {
	repository.Repository[*EmailActivation]
	db *bun.DB
}

var (
	_ Activations                             = (*activations)(nil)
	_ repository.Repository[*EmailActivation] = (*activations)(nil)
)

func NewActivationsRepository(db *bun.DB) Activations {
	repo := repository.NewRepository[*EmailActivation](db, repository.ModelHandlers[*EmailActivation]{
		NewRecord: func() *EmailActivation { return &EmailActivation{} },
		GetID: func(e *EmailActivation) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *EmailActivation, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "key"
		},
	})

	return &activations{
		Repository: repo,
		db:         db,
	}
}

func (a *activations) Create(ctx context.Context, record *EmailActivation, criteria ...repository.InsertCriteria) (*EmailActivation, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *activations) CreateTx(ctx context.Context, tx bun.IDB, record *EmailActivation, criteria ...repository.InsertCriteria) (*EmailActivation, error) {
	prepareActivationDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *activations) GetByKey(ctx context.Context, key string) (*EmailActivation, error) {
	return a.GetByKeyTx(ctx, a.db, key)
}

func (a *activations) GetByKeyTx(ctx context.Context, tx bun.IDB, key string) (*EmailActivation, error) {
	record := &EmailActivation{}
	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where(`?TableAlias."key" = ?`, key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"key": key,
				})
		}
		return nil, err
	}

	return record, nil
}

// IsConfirmable re-evaluates the sliding window against the given instant.
// There is no stored expiry: a record older than the window simply stops
// matching.
func (a *activations) IsConfirmable(ctx context.Context, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	return a.IsConfirmableTx(ctx, a.db, id, now, windowDays)
}

func (a *activations) IsConfirmableTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	start := now.AddDate(0, 0, -windowDays)
	return tx.NewSelect().
		Model((*EmailActivation)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.activated = FALSE").
		Where("?TableAlias.forced_expired = FALSE").
		Where("?TableAlias.created_at > ?", start).
		Where("?TableAlias.created_at <= ?", now).
		Exists(ctx)
}

func (a *activations) Confirm(ctx context.Context, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	return a.ConfirmTx(ctx, a.db, id, now, windowDays)
}

func (a *activations) ConfirmTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time, windowDays int) (bool, error) {
	start := now.AddDate(0, 0, -windowDays)
	res, err := a.Repository.RawTx(ctx, tx, ConfirmActivationSQL, id.String(), start, now)
	if err != nil {
		return false, err
	}

	return len(res) > 0, nil
}

// OpenExistsForEmail reports whether a non-activated record exists for the
// address, matching either the snapshot email or the linked account's
// current email. Used to block duplicate signups while a confirmation is
// still pending.
func (a *activations) OpenExistsForEmail(ctx context.Context, email string) (bool, error) {
	return a.OpenExistsForEmailTx(ctx, a.db, email)
}

func (a *activations) OpenExistsForEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	email = NormalizeEmail(email)
	return tx.NewSelect().
		Model((*EmailActivation)(nil)).
		Join(`JOIN "users" AS "usr" ON "usr"."id" = ?TableAlias."user_id"`).
		Where("?TableAlias.activated = FALSE").
		Where(`(?TableAlias.email = ? OR "usr"."email" = ?)`, email, email).
		Exists(ctx)
}

func prepareActivationDefaults(record *EmailActivation) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.ExpiresDays == 0 {
		record.ExpiresDays = DefaultActivationDays
	}

	record.MarkCreated(record.CreatedByID)
}
