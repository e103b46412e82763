package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

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
	"github.com/authgate/authgate/internal/pkg/router"
	"github.com/authgate/authgate/internal/pkg/uid"
	"github.com/authgate/authgate/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	hmac         hash.Hash
	bcrypt       hash.Hash
	uid          uid.NumberID
	uuid         uid.StringID
	totp         otp.OTP
	code         otp.CodeGenerator
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	mail      mail.Mail
	messaging messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
