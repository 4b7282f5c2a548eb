package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConfigZeroValue is returned by GetConfig when the key is absent and the
// caller supplied no default. Values are stored and returned as text, so
// the numeric-zero fallback is its textual form.
const ConfigZeroValue = "0"

// Configurations is the append-only runtime key/value store. Entries are
// never updated in place; the most recently created entry for a key wins.
type Configurations interface {
	repository.Repository[*Configuration]

	GetConfig(ctx context.Context, key string, def ...string) (string, error)
	GetConfigTx(ctx context.Context, tx bun.IDB, key string, def ...string) (string, error)
	Set(ctx context.Context, key, value string) (*Configuration, error)
	SetTx(ctx context.Context, tx bun.IDB, key, value string) (*Configuration, error)
}

type configurations struct {
	repository.Repository[*Configuration]
	db *bun.DB
}

var (
	_ Configurations                        = (*configurations)(nil)
	_ repository.Repository[*Configuration] = (*configurations)(nil)
)

func NewConfigurationsRepository(db *bun.DB) Configurations {
	repo := repository.NewRepository[*Configuration](db, repository.ModelHandlers[*Configuration]{
		NewRecord: func() *Configuration { return &Configuration{} },
		GetID: func(c *Configuration) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Configuration, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "key"
		},
	})

	return &configurations{
		Repository: repo,
		db:         db,
	}
}

// GetConfig resolves key to the value of its most recently created entry.
// Keys match exactly, no case folding. Absent keys yield the caller's
// default, or ConfigZeroValue when none was supplied.
func (c *configurations) GetConfig(ctx context.Context, key string, def ...string) (string, error) {
	return c.GetConfigTx(ctx, c.db, key, def...)
}

func (c *configurations) GetConfigTx(ctx context.Context, tx bun.IDB, key string, def ...string) (string, error) {
	record := &Configuration{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."key" = ?`, key).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return configDefault(def...), nil
		}
		return "", err
	}

	return record.Value, nil
}

func configDefault(def ...string) string {
	if len(def) > 0 && def[0] != "" {
		return def[0]
	}
	return ConfigZeroValue
}

func (c *configurations) Set(ctx context.Context, key, value string) (*Configuration, error) {
	return c.SetTx(ctx, c.db, key, value)
}

func (c *configurations) SetTx(ctx context.Context, tx bun.IDB, key, value string) (*Configuration, error) {
	record := &Configuration{
		ID:    uuid.New(),
		Key:   key,
		Value: value,
	}
	return c.Repository.CreateTx(ctx, tx, record)
}
