package usecase

import (
	"strings"
	"testing"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/mfa"
)

func validSignupInput() SignupInput {
	return SignupInput{
		Email:     "john.doe@example.com",
		Password:  "super-secret-1",
		FirstName: "John",
		LastName:  "Doe",
		Username:  "johndoe",
		Gender:    "male",
	}
}

func TestSignupCreatesUser(t *testing.T) {
	env := newTestEnv(t)

	in := validSignupInput()
	in.Email = "John.Doe@Example.com"

	out, err := env.uc.Signup(t.Context(), in)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if out.UserID == 0 {
		t.Fatal("expected a user id")
	}
	if out.OtpauthURI != "" {
		t.Fatalf("expected no provisioning uri, got %q", out.OtpauthURI)
	}

	user, err := env.repo.GetUserByID(t.Context(), out.UserID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Email != "john.doe@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if !env.bcrypt.Verify(user.Password, "super-secret-1") {
		t.Fatal("stored password hash does not verify")
	}
	if user.SecondFactor.Enabled {
		t.Fatal("second factor should be disabled")
	}
}

func TestSignupRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	in := validSignupInput()
	in.Password = "short"

	_, err := env.uc.Signup(t.Context(), in)
	assertBusinessError(t, err, goerror.CodeInvalidInput, "")
}

func TestSignupRejectsMissingSecondFactorContact(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]func(*SignupInput){
		"email method without address": func(in *SignupInput) {
			in.TwoFAMethod = "email"
		},
		"sms method without phone": func(in *SignupInput) {
			in.TwoFAMethod = "sms"
			in.TwoFACountryCode = "62"
		},
		"sms method without country code": func(in *SignupInput) {
			in.TwoFAMethod = "sms"
			in.TwoFAPhone = "8123456789"
		},
		"app method without name": func(in *SignupInput) {
			in.TwoFAMethod = "app"
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validSignupInput()
			in.TwoFAEnabled = true
			mutate(&in)

			_, err := env.uc.Signup(t.Context(), in)
			assertBusinessError(t, err, goerror.CodeInvalidFormat, "")
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.uc.Signup(t.Context(), validSignupInput()); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	_, err := env.uc.Signup(t.Context(), validSignupInput())
	assertBusinessError(t, err, goerror.CodeConflict, "email already registered")
}

func TestSignupAppMethodReturnsProvisioningURI(t *testing.T) {
	env := newTestEnv(t)

	in := validSignupInput()
	in.TwoFAEnabled = true
	in.TwoFAMethod = "app"
	in.TwoFAAppName = "Aegis"

	out, err := env.uc.Signup(t.Context(), in)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !strings.HasPrefix(out.OtpauthURI, "otpauth://totp/") {
		t.Fatalf("expected an otpauth uri, got %q", out.OtpauthURI)
	}

	user, err := env.repo.GetUserByID(t.Context(), out.UserID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.SecondFactor.Method != entity.MethodAuthenticatorApp {
		t.Fatalf("expected app method, got %v", user.SecondFactor.Method)
	}

	// The stored seed must open under the owner's scope and no other.
	if _, err := env.enc.Decrypt(user.SecondFactor.Seed, mfa.Scope{UserID: user.ID, Purpose: mfa.PurposeOTPSeed}); err != nil {
		t.Fatalf("decrypt seed: %v", err)
	}
	if _, err := env.enc.Decrypt(user.SecondFactor.Seed, mfa.Scope{UserID: user.ID + 1, Purpose: mfa.PurposeOTPSeed}); err == nil {
		t.Fatal("seed decrypted under a foreign scope")
	}
}
