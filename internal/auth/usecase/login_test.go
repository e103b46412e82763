package usecase

import (
	"testing"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/jwt"
	"github.com/authgate/authgate/internal/pkg/mfa"
)

const testPassword = "correct-horse-1"

func seedPlainUser(t *testing.T, env *testEnv) entity.User {
	t.Helper()

	return env.seedUser(t, entity.User{
		ID:        101,
		Email:     "mia@example.com",
		FirstName: "Mia",
		LastName:  "Stone",
		Username:  "mia",
		Gender:    entity.GenderFemale,
	}, testPassword)
}

func seedEmail2FAUser(t *testing.T, env *testEnv) entity.User {
	t.Helper()

	return env.seedUser(t, entity.User{
		ID:        102,
		Email:     "owen@example.com",
		FirstName: "Owen",
		Username:  "owen",
		SecondFactor: entity.SecondFactor{
			Enabled: true,
			Method:  entity.MethodEmail,
			Email:   "owen.backup@example.com",
		},
	}, testPassword)
}

func seedSMS2FAUser(t *testing.T, env *testEnv) entity.User {
	t.Helper()

	return env.seedUser(t, entity.User{
		ID:        103,
		Email:     "zoe@example.com",
		FirstName: "Zoe",
		Username:  "zoe",
		SecondFactor: entity.SecondFactor{
			Enabled:     true,
			Method:      entity.MethodSMS,
			Phone:       "8123456789",
			CountryCode: "62",
		},
	}, testPassword)
}

func seedApp2FAUser(t *testing.T, env *testEnv) (entity.User, string) {
	t.Helper()

	secret, _, err := env.totp.Generate("ivy@example.com")
	if err != nil {
		t.Fatalf("generate seed: %v", err)
	}

	sealed, err := env.enc.Encrypt([]byte(secret), mfa.Scope{UserID: 104, Purpose: mfa.PurposeOTPSeed})
	if err != nil {
		t.Fatalf("encrypt seed: %v", err)
	}

	user := env.seedUser(t, entity.User{
		ID:        104,
		Email:     "ivy@example.com",
		FirstName: "Ivy",
		Username:  "ivy",
		SecondFactor: entity.SecondFactor{
			Enabled: true,
			Method:  entity.MethodAuthenticatorApp,
			AppName: "Aegis",
			Seed:    sealed,
		},
	}, testPassword)

	return user, secret
}

func TestLoginWithoutSecondFactorReturnsSessionToken(t *testing.T) {
	env := newTestEnv(t)
	user := seedPlainUser(t, env)

	out, err := env.uc.Login(t.Context(), LoginInput{Email: user.Email, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.TwoFARequired {
		t.Fatal("second factor should not be required")
	}
	if out.TempToken != "" {
		t.Fatal("no pre-auth token expected")
	}

	claims, err := env.jwt.Verify(out.Token, jwt.PurposeSession)
	if err != nil {
		t.Fatalf("verify session token: %v", err)
	}
	if claims.UserID != user.ID || claims.UserEmail != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginUnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	env := newTestEnv(t)
	user := seedPlainUser(t, env)

	_, errUnknown := env.uc.Login(t.Context(), LoginInput{Email: "nobody@example.com", Password: testPassword})
	assertBusinessError(t, errUnknown, goerror.CodeUnauthorized, "invalid email or password")

	_, errWrongPass := env.uc.Login(t.Context(), LoginInput{Email: user.Email, Password: "not-the-password"})
	assertBusinessError(t, errWrongPass, goerror.CodeUnauthorized, "invalid email or password")

	if errUnknown.Error() != errWrongPass.Error() {
		t.Fatalf("messages must not reveal which part failed: %q vs %q", errUnknown, errWrongPass)
	}
}

func TestLoginWithEmailSecondFactorIssuesChallenge(t *testing.T) {
	env := newTestEnv(t)
	user := seedEmail2FAUser(t, env)

	out, err := env.uc.Login(t.Context(), LoginInput{Email: user.Email, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !out.TwoFARequired {
		t.Fatal("second factor should be required")
	}
	if out.Token != "" {
		t.Fatal("no session token before the second factor")
	}
	if out.Method != entity.MethodEmail || out.Contact != "owen.backup@example.com" {
		t.Fatalf("unexpected method/contact: %v %q", out.Method, out.Contact)
	}

	claims, err := env.jwt.Verify(out.TempToken, jwt.PurposePending2FA)
	if err != nil {
		t.Fatalf("verify pre-auth token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("unexpected subject: %d", claims.UserID)
	}

	chal, err := env.repo.GetChallenge(t.Context(), user.ID)
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if !env.hmac.Verify(chal.CodeHash, "123456") {
		t.Fatal("stored hash does not match the issued code")
	}

	if err := env.mgr.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	sends := env.disp.sent()
	if len(sends) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(sends))
	}
	if sends[0].method != entity.MethodEmail || sends[0].contact != "owen.backup@example.com" || sends[0].code != "123456" {
		t.Fatalf("unexpected dispatch: %+v", sends[0])
	}
}

func TestLoginWithSMSSecondFactorUsesFullNumber(t *testing.T) {
	env := newTestEnv(t)
	user := seedSMS2FAUser(t, env)

	out, err := env.uc.Login(t.Context(), LoginInput{Email: user.Email, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.Method != entity.MethodSMS || out.Contact != "628123456789" {
		t.Fatalf("unexpected method/contact: %v %q", out.Method, out.Contact)
	}
}

func TestLoginWithAppSecondFactorSkipsDispatch(t *testing.T) {
	env := newTestEnv(t)
	user, _ := seedApp2FAUser(t, env)

	out, err := env.uc.Login(t.Context(), LoginInput{Email: user.Email, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !out.TwoFARequired || out.Method != entity.MethodAuthenticatorApp {
		t.Fatalf("unexpected output: %+v", out)
	}

	if _, err := env.repo.GetChallenge(t.Context(), user.ID); err == nil {
		t.Fatal("no challenge should be stored for the app method")
	}

	if err := env.mgr.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if sends := env.disp.sent(); len(sends) != 0 {
		t.Fatalf("expected no dispatch, got %d", len(sends))
	}
}

func TestLoginPreAuthTokenIsNotASessionToken(t *testing.T) {
	env := newTestEnv(t)
	user := seedEmail2FAUser(t, env)

	out, err := env.uc.Login(t.Context(), LoginInput{Email: user.Email, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := env.jwt.Verify(out.TempToken, jwt.PurposeSession); err == nil {
		t.Fatal("pre-auth token must not pass session verification")
	}
}
