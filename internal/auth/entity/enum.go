package entity

// SecondFactorMethod enumerates the supported OTP delivery methods.
type SecondFactorMethod int16

const (
	// MethodUnknown is mean method is not known / not set.
	MethodUnknown SecondFactorMethod = 0

	// MethodEmail delivers codes to the configured contact e-mail.
	MethodEmail SecondFactorMethod = 1

	// MethodSMS delivers codes to the configured phone number.
	MethodSMS SecondFactorMethod = 2

	// MethodAuthenticatorApp validates TOTP codes from an authenticator app.
	MethodAuthenticatorApp SecondFactorMethod = 3
)

func (m SecondFactorMethod) String() string {
	switch m {
	case MethodEmail:
		return "email"
	case MethodSMS:
		return "sms"
	case MethodAuthenticatorApp:
		return "app"
	default:
		return "unknown"
	}
}

// SecondFactorMethodFromString parses the wire representation of a method.
func SecondFactorMethodFromString(s string) SecondFactorMethod {
	switch s {
	case "email":
		return MethodEmail
	case "sms":
		return MethodSMS
	case "app":
		return MethodAuthenticatorApp
	default:
		return MethodUnknown
	}
}

// Gender enumerates the self-reported gender options from signup.
type Gender int16

const (
	GenderUnknown Gender = 0
	GenderFemale  Gender = 1
	GenderMale    Gender = 2
	GenderOther   Gender = 3
)

func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "female"
	case GenderMale:
		return "male"
	case GenderOther:
		return "other"
	default:
		return "unknown"
	}
}

// GenderFromString parses the wire representation of a gender.
func GenderFromString(s string) Gender {
	switch s {
	case "female":
		return GenderFemale
	case "male":
		return GenderMale
	case "other":
		return GenderOther
	default:
		return GenderUnknown
	}
}
