package entity

import "time"

// User is an account row together with its second-factor settings.
type User struct {
	ID           int64
	Email        string
	Password     string // hashed
	FirstName    string
	LastName     string
	Username     string
	Gender       Gender
	SecondFactor SecondFactor
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name for display purposes.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// SecondFactor holds a user's step-up verification settings.
//
// Invariant: Enabled implies the method-specific contact is non-empty; this
// is validated at signup so login can rely on Contact().
type SecondFactor struct {
	Enabled     bool
	Method      SecondFactorMethod
	Email       string
	Phone       string
	CountryCode string
	AppName     string
	// Seed is the AES-GCM encrypted authenticator seed, nil unless the
	// method is the authenticator app.
	Seed []byte
}

// Contact returns the method-specific delivery address.
func (sf SecondFactor) Contact() string {
	switch sf.Method {
	case MethodEmail:
		return sf.Email
	case MethodSMS:
		return sf.CountryCode + sf.Phone
	case MethodAuthenticatorApp:
		return sf.AppName
	default:
		return ""
	}
}

// NewUser carries the fields needed to persist a signup.
type NewUser struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Username     string
	Gender       Gender
	SecondFactor SecondFactor
}

// OtpChallenge is the single active verification code for a subject.
//
// The table is keyed by UserID so at most one challenge exists per user;
// issuing a new code supersedes the old row atomically.
type OtpChallenge struct {
	UserID    int64
	CodeHash  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
	Attempts  int16
}
