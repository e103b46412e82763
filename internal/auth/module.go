// Package auth wires the authentication module into the application.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/authgate/authgate/internal/auth/inbound"
	"github.com/authgate/authgate/internal/auth/outbound/db"
	"github.com/authgate/authgate/internal/auth/outbound/dispatch"
	"github.com/authgate/authgate/internal/auth/usecase"
	"github.com/authgate/authgate/internal/pkg/clock"
	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/goroutine"
	"github.com/authgate/authgate/internal/pkg/hash"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/authgate/authgate/internal/pkg/jwt"
	"github.com/authgate/authgate/internal/pkg/mail"
	"github.com/authgate/authgate/internal/pkg/messaging"
	"github.com/authgate/authgate/internal/pkg/mfa"
	"github.com/authgate/authgate/internal/pkg/otp"
	"github.com/authgate/authgate/internal/pkg/ratelimit"
	"github.com/authgate/authgate/internal/pkg/router"
	"github.com/authgate/authgate/internal/pkg/uid"
	"github.com/authgate/authgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	CacheConn    *redis.Client              `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Publisher        `validate:"required"`
	Mail         mail.Mail                  `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	Bcrypt       hash.Hash                  `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Code         otp.CodeGenerator          `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	disp := dispatch.New(dep.Mail, dep.Messaging, dep.Config, dep.Instrument)
	limiter := ratelimit.NewFixedWindow(
		dep.CacheConn,
		dep.Config.GetInt64("modules.auth.resend_limit"),
		dep.Config.GetMinute("modules.auth.resend_window_minutes"),
	)

	uc := usecase.New(usecase.Dependency{
		RepoDB:       dbAuth,
		Dispatcher:   disp,
		Validator:    dep.Validator,
		Config:       dep.Config,
		HMAC:         dep.HMAC,
		Bcrypt:       dep.Bcrypt,
		MFAEncryptor: dep.MFAEncryptor,
		UID:          dep.UID,
		Totp:         dep.Totp,
		Code:         dep.Code,
		Limiter:      limiter,
		Clock:        dep.Clock,
		JWT:          dep.JWT,
		Instrument:   dep.Instrument,
		Goroutine:    dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
