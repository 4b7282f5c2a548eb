package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Audit carries the lifecycle fields shared by every persisted entity:
// creation, modification and soft-delete timestamps plus the acting account
// for each. Repositories stamp these explicitly before persisting, there is
// no hidden save hook.
type Audit struct {
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
	CreatedByID *uuid.UUID `bun:"created_by_id,nullzero,type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID `bun:"updated_by_id,nullzero,type:uuid" json:"updated_by_id,omitempty"`
	DeletedByID *uuid.UUID `bun:"deleted_by_id,nullzero,type:uuid" json:"deleted_by_id,omitempty"`
}

// MarkCreated stamps creation and modification fields. A nil actor records
// the change as unattributed (system action).
func (a *Audit) MarkCreated(actor *uuid.UUID) {
	now := time.Now()
	if a.CreatedAt == nil {
		a.CreatedAt = &now
	}
	a.UpdatedAt = &now
	a.CreatedByID = actor
	a.UpdatedByID = actor
}

// MarkUpdated stamps the modification fields
func (a *Audit) MarkUpdated(actor *uuid.UUID) {
	now := time.Now()
	a.UpdatedAt = &now
	a.UpdatedByID = actor
}

// MarkDeleted stamps the soft-delete fields
func (a *Audit) MarkDeleted(actor *uuid.UUID) {
	now := time.Now()
	a.DeletedAt = &now
	a.DeletedByID = actor
}

// Auditable is implemented by models embedding Audit so repositories can
// invoke lifecycle stamping without knowing the concrete type.
type Auditable interface {
	MarkCreated(actor *uuid.UUID)
	MarkUpdated(actor *uuid.UUID)
	MarkDeleted(actor *uuid.UUID)
}

var (
	_ Auditable = (*User)(nil)
	_ Auditable = (*EmailActivation)(nil)
	_ Auditable = (*BillingProfile)(nil)
)
