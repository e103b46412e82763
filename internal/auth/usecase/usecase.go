package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/clock"
	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/goroutine"
	"github.com/authgate/authgate/internal/pkg/hash"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/authgate/authgate/internal/pkg/jwt"
	"github.com/authgate/authgate/internal/pkg/mfa"
	"github.com/authgate/authgate/internal/pkg/otp"
	"github.com/authgate/authgate/internal/pkg/ratelimit"
	"github.com/authgate/authgate/internal/pkg/uid"
	"github.com/authgate/authgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateUser(ctx context.Context, in entity.NewUser) error
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)

	// UpsertChallenge atomically supersedes any existing challenge for the
	// subject: one statement resets code hash, timestamps, consumed flag and
	// attempt counter.
	UpsertChallenge(ctx context.Context, in entity.OtpChallenge) error
	GetChallenge(ctx context.Context, userID int64) (*entity.OtpChallenge, error)

	// ConsumeChallenge flips consumed for an unconsumed challenge and reports
	// whether this call won the flip.
	ConsumeChallenge(ctx context.Context, userID int64) (bool, error)

	// RecordFailedAttempt increments the attempt counter of an unconsumed
	// challenge, consuming it once maxAttempts is reached. It returns the new
	// counter value and whether the challenge is now consumed.
	RecordFailedAttempt(ctx context.Context, userID int64, maxAttempts int16) (int16, bool, error)
}

type dispatcher interface {
	// Send delivers a verification code over the given method. Best effort;
	// callers log failures without failing the request.
	Send(ctx context.Context, method entity.SecondFactorMethod, contact, code string) error
}

// Usecase implements the authentication flows.
type Usecase struct {
	repoDB       repoDB
	dispatcher   dispatcher
	validator    validator.Validator
	cfg          config.Config
	hmac         hash.Hash
	bcrypt       hash.Hash
	mfaEncryptor mfa.Encryptor
	uid          uid.NumberID
	totp         otp.OTP
	code         otp.CodeGenerator
	limiter      ratelimit.Limiter
	clock        clock.Clocker
	jwt          jwt.JWT
	ins          instrument.Instrumentation
	goroutine    *goroutine.Manager
}

// Dependency lists everything a Usecase needs.
type Dependency struct {
	RepoDB       repoDB
	Dispatcher   dispatcher
	Validator    validator.Validator
	Config       config.Config
	HMAC         hash.Hash
	Bcrypt       hash.Hash
	MFAEncryptor mfa.Encryptor
	UID          uid.NumberID
	Totp         otp.OTP
	Code         otp.CodeGenerator
	Limiter      ratelimit.Limiter
	Clock        clock.Clocker
	JWT          jwt.JWT
	Instrument   instrument.Instrumentation
	Goroutine    *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:       dep.RepoDB,
		dispatcher:   dep.Dispatcher,
		validator:    dep.Validator,
		cfg:          dep.Config,
		hmac:         dep.HMAC,
		bcrypt:       dep.Bcrypt,
		mfaEncryptor: dep.MFAEncryptor,
		uid:          dep.UID,
		totp:         dep.Totp,
		code:         dep.Code,
		limiter:      dep.Limiter,
		clock:        dep.Clock,
		jwt:          dep.JWT,
		ins:          dep.Instrument,
		goroutine:    dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int16 {
	n := s.cfg.GetInt("modules.auth.otp_max_attempts")
	if n < 1 {
		n = 5
	}
	return int16(n)
}

// defaultOTPTTL applies when configuration does not set an expiry window.
const defaultOTPTTL = 3 * time.Minute

// issueChallenge generates a fresh code, stores its HMAC as the subject's
// single active challenge and hands the plaintext back for dispatch.
func (s *Usecase) issueChallenge(ctx context.Context, userID int64) (string, error) {
	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	now := s.clock.Now()
	ttl := s.cfg.GetMinute("modules.auth.otp_ttl_minutes")
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}

	if err := s.repoDB.UpsertChallenge(ctx, entity.OtpChallenge{
		UserID:    userID,
		CodeHash:  string(codeHash),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert otp challenge", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	return code, nil
}

// dispatchCode delivers the code without failing the surrounding request.
// Delivery runs in the background and outlives the request context.
func (s *Usecase) dispatchCode(ctx context.Context, user *entity.User, code string) {
	method := user.SecondFactor.Method
	contact := user.SecondFactor.Contact()
	userID := user.ID

	s.goroutine.Go(context.WithoutCancel(ctx), func(pCtx context.Context) error {
		if err := s.dispatcher.Send(pCtx, method, contact, code); err != nil {
			slog.ErrorContext(pCtx, "failed to dispatch verification code",
				"user_id", userID, "method", method.String(), "error", err)
		}

		return nil
	})
}
