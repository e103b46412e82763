package inbound

import (
	"context"

	"github.com/authgate/authgate/internal/auth/usecase"
	"github.com/authgate/authgate/internal/pkg/router"
)

type uc interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)

	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	ResendOTP(ctx context.Context, in usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error)

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Account & password step
	r.POST("/api/v1/auth/signup", end.Signup)
	r.POST("/api/v1/auth/login", end.Login)

	// Second factor; the pre-auth token travels in the body
	r.POST("/api/v1/auth/verify-otp", end.VerifyOTP)
	r.POST("/api/v1/auth/resend-otp", end.ResendOTP)

	// need authenticated
	r.GET("/api/v1/auth/profile", end.Profile)
}
