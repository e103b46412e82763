package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/goroutine"
	"github.com/authgate/authgate/internal/pkg/hash"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/authgate/authgate/internal/pkg/jwt"
	"github.com/authgate/authgate/internal/pkg/mfa"
	"github.com/authgate/authgate/internal/pkg/otp"
	"github.com/authgate/authgate/internal/pkg/uid"
	"github.com/authgate/authgate/internal/pkg/validator"
)

const testConfigYAML = `
modules:
  auth:
    otp_ttl_minutes: 3
    otp_max_attempts: 3
`

type fakeRepo struct {
	mu         sync.Mutex
	users      map[int64]entity.User
	challenges map[int64]entity.OtpChallenge

	createErr error
	getErr    error
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[int64]entity.User),
		challenges: make(map[int64]entity.OtpChallenge),
	}
}

func (r *fakeRepo) CreateUser(_ context.Context, in entity.NewUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}

	for _, u := range r.users {
		if u.Email == in.Email {
			return goerror.ErrConflict
		}
	}

	r.users[in.ID] = entity.User{
		ID:           in.ID,
		Email:        in.Email,
		Password:     in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Gender:       in.Gender,
		SecondFactor: in.SecondFactor,
	}

	return nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}

	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}

	u, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := u
	return &cp, nil
}

func (r *fakeRepo) UpsertChallenge(_ context.Context, in entity.OtpChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upsertErr != nil {
		return r.upsertErr
	}

	in.Consumed = false
	in.Attempts = 0
	r.challenges[in.UserID] = in

	return nil
}

func (r *fakeRepo) GetChallenge(_ context.Context, userID int64) (*entity.OtpChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := c
	return &cp, nil
}

func (r *fakeRepo) ConsumeChallenge(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[userID]
	if !ok || c.Consumed {
		return false, nil
	}

	c.Consumed = true
	r.challenges[userID] = c

	return true, nil
}

func (r *fakeRepo) RecordFailedAttempt(_ context.Context, userID int64, maxAttempts int16) (int16, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[userID]
	if !ok || c.Consumed {
		return c.Attempts, c.Consumed, nil
	}

	c.Attempts++
	if c.Attempts >= maxAttempts {
		c.Consumed = true
	}
	r.challenges[userID] = c

	return c.Attempts, c.Consumed, nil
}

type sentCode struct {
	method  entity.SecondFactorMethod
	contact string
	code    string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sends []sentCode
	err   error
}

func (d *fakeDispatcher) Send(_ context.Context, method entity.SecondFactorMethod, contact, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}

	d.sends = append(d.sends, sentCode{method: method, contact: contact, code: code})

	return nil
}

func (d *fakeDispatcher) sent() []sentCode {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]sentCode(nil), d.sends...)
}

type fakeLimiter struct {
	mu      sync.Mutex
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.keys = append(l.keys, key)

	if l.err != nil {
		return false, 0, l.err
	}
	if !l.allowed {
		return false, time.Minute, nil
	}

	return true, 0, nil
}

// stubCode hands out codes from a fixed queue, repeating the last one once
// the queue is drained.
type stubCode struct {
	mu    sync.Mutex
	codes []string
	next  int
	err   error
}

func (c *stubCode) Generate() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}

	code := c.codes[c.next]
	if c.next < len(c.codes)-1 {
		c.next++
	}

	return code, nil
}

type stubNumberID struct {
	mu   sync.Mutex
	next int64
}

func (s *stubNumberID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return s.next
}

// stubClock is a movable clock shared between the usecase and the JWT signer.
type stubClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type testEnv struct {
	uc      *Usecase
	repo    *fakeRepo
	disp    *fakeDispatcher
	limiter *fakeLimiter
	clock   *stubClock
	code    *stubCode
	hmac    hash.Hash
	bcrypt  hash.Hash
	jwt     jwt.JWT
	enc     mfa.Encryptor
	totp    otp.OTP
	mgr     *goroutine.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	clk := &stubClock{t: time.Now()}

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(strings.Repeat("k", 64)),
		Issuer:     "authgate-test",
		Audiences:  []string{"authgate"},
		SessionTTL: 24 * time.Hour,
		PreAuthTTL: 5 * time.Minute,
		Clock:      clk,
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	env := &testEnv{
		repo:    newFakeRepo(),
		disp:    &fakeDispatcher{},
		limiter: &fakeLimiter{allowed: true},
		clock:   clk,
		code:    &stubCode{codes: []string{"123456"}},
		hmac:    hash.NewHMACSHA256("otp-secret"),
		bcrypt:  hash.NewBcrypt(4, "pepper"),
		jwt:     signer,
		enc:     mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: []byte(strings.Repeat("e", 32))}),
		totp:    otp.NewTOTP("AuthGate", 30, 1, pqotp.DigitsSix),
		mgr:     goroutine.NewManager(8),
	}

	env.uc = New(Dependency{
		RepoDB:       env.repo,
		Dispatcher:   env.disp,
		Validator:    v10,
		Config:       cfg,
		HMAC:         env.hmac,
		Bcrypt:       env.bcrypt,
		MFAEncryptor: env.enc,
		UID:          &stubNumberID{},
		Totp:         env.totp,
		Code:         env.code,
		Limiter:      env.limiter,
		Clock:        clk,
		JWT:          signer,
		Instrument:   instrument.NewNoop(),
		Goroutine:    env.mgr,
	})

	return env
}

// seedUser stores a user directly in the repo, hashing the given password.
func (e *testEnv) seedUser(t *testing.T, u entity.User, password string) entity.User {
	t.Helper()

	hashed, err := e.bcrypt.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u.Password = string(hashed)

	e.repo.mu.Lock()
	e.repo.users[u.ID] = u
	e.repo.mu.Unlock()

	return u
}

func assertBusinessError(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %v", err)
	}
	if ge.Code() != code {
		t.Fatalf("expected code %v, got %v (%s)", code, ge.Code(), ge.Msg())
	}
	if msg != "" && ge.Msg() != msg {
		t.Fatalf("expected message %q, got %q", msg, ge.Msg())
	}
}
