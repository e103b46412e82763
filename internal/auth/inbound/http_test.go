package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/auth/usecase"
	"github.com/authgate/authgate/internal/pkg/clock"
	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/authgate/authgate/internal/pkg/jwt"
	"github.com/authgate/authgate/internal/pkg/router"
	"github.com/authgate/authgate/internal/pkg/uid"
)

type fakeUsecase struct {
	signup    func(context.Context, usecase.SignupInput) (*usecase.SignupOutput, error)
	login     func(context.Context, usecase.LoginInput) (*usecase.LoginOutput, error)
	verifyOTP func(context.Context, usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	resendOTP func(context.Context, usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error)
	profile   func(context.Context) (*usecase.ProfileOutput, error)
}

func (f *fakeUsecase) Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error) {
	return f.signup(ctx, in)
}

func (f *fakeUsecase) Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	return f.login(ctx, in)
}

func (f *fakeUsecase) VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	return f.verifyOTP(ctx, in)
}

func (f *fakeUsecase) ResendOTP(ctx context.Context, in usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error) {
	return f.resendOTP(ctx, in)
}

func (f *fakeUsecase) Profile(ctx context.Context) (*usecase.ProfileOutput, error) {
	return f.profile(ctx)
}

func newTestRouter(t *testing.T, fake *fakeUsecase) (*router.Router, jwt.JWT) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: authgate-test\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(strings.Repeat("k", 64)),
		Issuer:     "authgate-test",
		Audiences:  []string{"authgate"},
		SessionTTL: time.Hour,
		PreAuthTTL: 5 * time.Minute,
		Clock:      clock.New(),
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        signer,
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, fake)

	return r, signer
}

func doJSON(t *testing.T, r *router.Router, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}

	return rec, payload
}

func TestSignupEndpoint(t *testing.T) {
	fake := &fakeUsecase{
		signup: func(_ context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error) {
			if in.Email != "john@example.com" || !in.TwoFAEnabled || in.TwoFAMethod != "email" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &usecase.SignupOutput{UserID: 42}, nil
		},
	}
	r, _ := newTestRouter(t, fake)

	body := `{
		"email": "john@example.com",
		"password": "super-secret-1",
		"first_name": "John",
		"username": "johndoe",
		"two_fa": {"enabled": true, "method": "email", "email": "backup@example.com"}
	}`

	rec, payload := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := payload["data"].(map[string]any)
	if data["user_id"] != "42" {
		t.Fatalf("expected user_id 42, got %v", data["user_id"])
	}
}

func TestSignupEndpointRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t, &fakeUsecase{})

	rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", `{"email": `, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginEndpointWithPendingSecondFactor(t *testing.T) {
	fake := &fakeUsecase{
		login: func(_ context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
			return &usecase.LoginOutput{
				TwoFARequired: true,
				TempToken:     "temp-token",
				Method:        entity.MethodSMS,
				Contact:       "628123456789",
			}, nil
		},
	}
	r, _ := newTestRouter(t, fake)

	rec, payload := doJSON(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"email": "zoe@example.com", "password": "pw"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := payload["data"].(map[string]any)
	if data["temp_token"] != "temp-token" {
		t.Fatalf("expected temp token, got %v", data)
	}
	twoFA, _ := data["two_fa"].(map[string]any)
	if twoFA["method"] != "sms" || twoFA["contact"] != "628123456789" {
		t.Fatalf("unexpected two_fa: %v", twoFA)
	}
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	fake := &fakeUsecase{
		login: func(context.Context, usecase.LoginInput) (*usecase.LoginOutput, error) {
			return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
		},
	}
	r, _ := newTestRouter(t, fake)

	rec, payload := doJSON(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"email": "zoe@example.com", "password": "nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if payload["message"] != "invalid email or password" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
}

func TestVerifyOTPEndpointIsPublic(t *testing.T) {
	fake := &fakeUsecase{
		verifyOTP: func(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
			if in.TempToken != "temp-token" || in.OTP != "123456" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &usecase.VerifyOTPOutput{Token: "session-token"}, nil
		},
	}
	r, _ := newTestRouter(t, fake)

	rec, payload := doJSON(t, r, http.MethodPost, "/api/v1/auth/verify-otp",
		`{"temp_token": "temp-token", "otp": "123456"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := payload["data"].(map[string]any)
	if data["token"] != "session-token" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestResendOTPEndpointRateLimit(t *testing.T) {
	fake := &fakeUsecase{
		resendOTP: func(context.Context, usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error) {
			return nil, goerror.NewBusiness("too many resend requests, try again later", goerror.CodeTooManyRequest)
		},
	}
	r, _ := newTestRouter(t, fake)

	rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/resend-otp",
		`{"temp_token": "temp-token"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestProfileEndpointRequiresSessionToken(t *testing.T) {
	fake := &fakeUsecase{
		profile: func(ctx context.Context) (*usecase.ProfileOutput, error) {
			clm := jwt.GetAuth(ctx)
			if clm == nil {
				t.Fatal("claims missing from context")
			}
			return &usecase.ProfileOutput{
				UserID:      clm.UserID,
				Email:       clm.UserEmail,
				FirstName:   "Mia",
				Username:    "mia",
				TwoFA:       true,
				TwoFAMethod: entity.MethodEmail,
			}, nil
		},
	}
	r, signer := newTestRouter(t, fake)

	// No token at all.
	rec, _ := doJSON(t, r, http.MethodGet, "/api/v1/auth/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// A pre-auth token must not open the profile.
	temp, err := signer.Generate(7, "mia@example.com", jwt.PurposePending2FA)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec, _ = doJSON(t, r, http.MethodGet, "/api/v1/auth/profile", "", temp)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with pre-auth token, got %d", rec.Code)
	}

	// A session token does.
	session, err := signer.Generate(7, "mia@example.com", jwt.PurposeSession)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec, payload := doJSON(t, r, http.MethodGet, "/api/v1/auth/profile", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := payload["data"].(map[string]any)
	if data["user_id"] != "7" || data["email"] != "mia@example.com" {
		t.Fatalf("unexpected data: %v", data)
	}
	twoFA, _ := data["two_fa"].(map[string]any)
	if twoFA["enabled"] != true || twoFA["method"] != "email" {
		t.Fatalf("unexpected two_fa: %v", twoFA)
	}
}
