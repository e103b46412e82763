package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/jwt"
)

type ResendOTPInput struct {
	TempToken string `validate:"required"`
}

type ResendOTPOutput struct {
	Method  entity.SecondFactorMethod
	Contact string
}

func (s *Usecase) ResendOTP(ctx context.Context, in ResendOTPInput) (*ResendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	claims, err := s.jwt.Verify(in.TempToken, jwt.PurposePending2FA)
	if err != nil {
		slog.WarnContext(ctx, "pre-auth token rejected", "error", err)
		return nil, goerror.NewBusiness("invalid or expired token", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pre-auth token subject not found", "user_id", claims.UserID)
		return nil, goerror.NewBusiness("invalid or expired token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", claims.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !user.SecondFactor.Enabled || user.SecondFactor.Method == entity.MethodAuthenticatorApp {
		return nil, goerror.NewBusiness("resend is not available for this account", goerror.CodeInvalidInput)
	}

	allowed, retryAfter, err := s.limiter.Allow(ctx, fmt.Sprintf("auth:resend:%d", user.ID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to check resend rate limit", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "resend rate limit exceeded", "user_id", user.ID, "retry_after", retryAfter)
		return nil, goerror.NewBusiness("too many resend requests, try again later", goerror.CodeTooManyRequest)
	}

	code, err := s.issueChallenge(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.dispatchCode(ctx, user, code)

	return &ResendOTPOutput{
		Method:  user.SecondFactor.Method,
		Contact: user.SecondFactor.Contact(),
	}, nil
}
