package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/mfa"
)

type SignupInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,password"`
	FirstName string `validate:"required,min=2,max=50,alphaspace"`
	LastName  string `validate:"omitempty,min=2,max=50,alphaspace"`
	Username  string `validate:"required,min=3,max=30,alphanum"`
	Gender    string `validate:"omitempty,oneof=female male other"`

	TwoFAEnabled     bool
	TwoFAMethod      string `validate:"required_if=TwoFAEnabled true,omitempty,oneof=email sms app"`
	TwoFAEmail       string `validate:"omitempty,email"`
	TwoFAPhone       string `validate:"omitempty,number,min=6,max=15"`
	TwoFACountryCode string `validate:"omitempty,number,max=4"`
	TwoFAAppName     string `validate:"omitempty,max=50"`
}

type SignupOutput struct {
	UserID int64
	// OtpauthURI is only set for the authenticator-app method; the client
	// renders it as a QR code during enrollment.
	OtpauthURI string
}

func (s *Usecase) Signup(ctx context.Context, in SignupInput) (*SignupOutput, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	method := entity.SecondFactorMethodFromString(in.TwoFAMethod)
	if err := ensureSecondFactorContact(in, method); err != nil {
		return nil, err
	}

	passwordHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	userID := s.uid.Generate()
	email := strings.ToLower(strings.TrimSpace(in.Email))

	sf := entity.SecondFactor{
		Enabled:     in.TwoFAEnabled,
		Method:      method,
		Email:       in.TwoFAEmail,
		Phone:       in.TwoFAPhone,
		CountryCode: in.TwoFACountryCode,
		AppName:     in.TwoFAAppName,
	}

	var otpauthURI string
	if in.TwoFAEnabled && method == entity.MethodAuthenticatorApp {
		secret, uri, err := s.totp.Generate(email)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate authenticator seed", "error", err)
			return nil, goerror.NewServer(err)
		}

		sealed, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{UserID: userID, Purpose: mfa.PurposeOTPSeed})
		if err != nil {
			slog.ErrorContext(ctx, "failed to encrypt authenticator seed", "error", err)
			return nil, goerror.NewServer(err)
		}

		sf.Seed = sealed
		otpauthURI = uri
	}

	if err := s.repoDB.CreateUser(ctx, entity.NewUser{
		ID:           userID,
		Email:        email,
		PasswordHash: string(passwordHash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     strings.TrimSpace(in.Username),
		Gender:       entity.GenderFromString(in.Gender),
		SecondFactor: sf,
	}); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "signup email already registered", "email", email)
			return nil, goerror.NewBusiness("email already registered", goerror.CodeConflict)
		}

		slog.ErrorContext(ctx, "failed to repo create user", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SignupOutput{UserID: userID, OtpauthURI: otpauthURI}, nil
}

func ensureSecondFactorContact(in SignupInput, method entity.SecondFactorMethod) error {
	if !in.TwoFAEnabled {
		return nil
	}

	switch method {
	case entity.MethodEmail:
		if in.TwoFAEmail == "" {
			return goerror.NewInvalidFormat("two_fa_email is required for the email method")
		}
	case entity.MethodSMS:
		if in.TwoFAPhone == "" || in.TwoFACountryCode == "" {
			return goerror.NewInvalidFormat("two_fa_phone and two_fa_country_code are required for the sms method")
		}
	case entity.MethodAuthenticatorApp:
		if in.TwoFAAppName == "" {
			return goerror.NewInvalidFormat("two_fa_app_name is required for the app method")
		}
	default:
		return goerror.NewInvalidFormat("two_fa_method is not supported")
	}

	return nil
}
