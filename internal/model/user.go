package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Role is one of the closed set of account roles.
type Role string

const (
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
	RoleClient    Role = "CLIENT"
)

// Roles lists every valid role.
var Roles = []Role{RoleOrganizer, RoleAdmin, RoleClient}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Profile holds optional contact details for a user.
type Profile struct {
	Phone       string     `json:"phone,omitempty" gorm:"size:20"`
	Address     string     `json:"address,omitempty" gorm:"size:500"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// User is the persisted account record.
type User struct {
	ID                        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Email                     string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash              string     `json:"-" gorm:"column:password_hash;size:255;not null"` // Never expose in JSON
	FirstName                 string     `json:"firstName" gorm:"size:100;not null"`
	LastName                  string     `json:"lastName" gorm:"size:100;not null"`
	Role                      Role       `json:"role" gorm:"size:20;not null;default:CLIENT"`
	IsActive                  bool       `json:"isActive" gorm:"not null;default:true;index"`
	TermsAccepted             bool       `json:"termsAccepted" gorm:"not null;default:false"`
	TermsAcceptedAt           *time.Time `json:"termsAcceptedAt,omitempty"`
	MarketingConsent          bool       `json:"marketingConsent" gorm:"not null;default:false"`
	MarketingConsentUpdatedAt *time.Time `json:"marketingConsentUpdatedAt,omitempty"`
	Profile                   Profile    `json:"profile" gorm:"embedded;embeddedPrefix:profile_"`
	LastLogin                 *time.Time `json:"lastLogin,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns the identifier. Password hashing is not done here;
// the service hashes explicitly on the paths that set a password.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleClient
	}
	return nil
}

// FullName is derived and never stored.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	// A Caser carries state and must not be shared across goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}
