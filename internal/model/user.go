package model

import (
	"strings"
	"time"
)

// PlanTier governs a user's daily analysis quota.
type PlanTier string

const (
	PlanFree PlanTier = "Free"
	PlanVIP  PlanTier = "VIP"
)

// AdminName is the reserved login handle of the administrator account.
// Exactly one user carries it (case-insensitively); that user can never be
// demoted from VIP and is exempt from cooldown and quota.
const AdminName = "admin"

// User represents an account in the system. The JSON field names match the
// persisted collection layout, so the store serializes users directly.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"password,omitempty"`
	AccessKey      string    `json:"key"`
	Plan           PlanTier  `json:"status"`
	AnalysisCount  int       `json:"analysisCount"`
	LastAnalysisAt time.Time `json:"lastAnalysisTimestamp"`
}

// IsAdmin reports whether this user is the administrator account.
func (u *User) IsAdmin() bool {
	return strings.EqualFold(u.Name, AdminName)
}

// Sanitized returns a copy of the user with the credential material removed.
// Every read path (login result, listings, update responses) goes through it.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// UserUpdate carries a partial update. Nil fields are left unchanged, so the
// "preserve the password when omitted" rule is enforced by the type rather
// than by convention.
type UserUpdate struct {
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Password  *string   `json:"password,omitempty"`
	AccessKey *string   `json:"key,omitempty"`
	Plan      *PlanTier `json:"status,omitempty"`
}
