package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultActivationDays is the sliding window, in days, during which an
// activation record can still be confirmed.
const DefaultActivationDays = 7

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string    `bun:"password_hash" json:"-"`
	IsActive      bool      `bun:"is_active" json:"is_active"`
	IsStaff       bool      `bun:"is_staff" json:"is_staff,omitempty"`
	IsSuperuser   bool      `bun:"is_superuser" json:"is_superuser,omitempty"`

	Audit
}

func (u *User) String() string {
	return u.Email
}

// ActivationState is the derived lifecycle state of an activation record
type ActivationState = string

const (
	// ActivationPendingNoKey is an open record that has not been keyed yet
	ActivationPendingNoKey ActivationState = "pending-no-key"
	// ActivationPendingKeyed is an open record holding a deliverable key
	ActivationPendingKeyed ActivationState = "pending-keyed"
	// ActivationActivated is the terminal success state
	ActivationActivated ActivationState = "activated"
	// ActivationForcedExpired is the terminal administrative failure state
	ActivationForcedExpired ActivationState = "forced-expired"
)

// EmailActivation tracks a single activation attempt for an account. The
// email is a snapshot taken at creation and may diverge from the account's
// current address.
type EmailActivation struct {
	bun.BaseModel `bun:"table:email_activations,alias:eact"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Email         string    `bun:"email,notnull" json:"email,omitempty"`
	Key           *string   `bun:"key,nullzero" json:"-"`
	Activated     bool      `bun:"activated" json:"activated"`
	ForcedExpired bool      `bun:"forced_expired" json:"forced_expired"`
	ExpiresDays   int       `bun:"expires_days,default:7" json:"expires_days,omitempty"`

	Audit
}

func (e *EmailActivation) String() string {
	return e.Email
}

// IsOpen reports whether the record is still in a pending state. Terminal
// records never receive keys and are never sent.
func (e *EmailActivation) IsOpen() bool {
	return !e.Activated && !e.ForcedExpired
}

// HasKey reports whether a deliverable key has been assigned
func (e *EmailActivation) HasKey() bool {
	return e.Key != nil && *e.Key != ""
}

// State derives the lifecycle state from the record's flags and key
func (e *EmailActivation) State() ActivationState {
	switch {
	case e.Activated:
		return ActivationActivated
	case e.ForcedExpired:
		return ActivationForcedExpired
	case e.HasKey():
		return ActivationPendingKeyed
	default:
		return ActivationPendingNoKey
	}
}

// Configuration is an append-only runtime configuration entry. The most
// recently created entry for a key is authoritative.
type Configuration struct {
	bun.BaseModel `bun:"table:configurations,alias:cfg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Key           string     `bun:"key,notnull" json:"key,omitempty"`
	Value         string     `bun:"value" json:"value,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func (c *Configuration) String() string {
	return c.Key + " / " + c.Value
}

// BillingProfile is provisioned once per account, keyed by user
type BillingProfile struct {
	bun.BaseModel `bun:"table:billing_profiles,alias:bill"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`

	Audit
}

// NormalizeEmail lowercases the domain part of an address and trims
// surrounding whitespace. The local part is preserved as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
