package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/jwt"
	"github.com/authgate/authgate/internal/pkg/mfa"
)

type VerifyOTPInput struct {
	TempToken string `validate:"required"`
	OTP       string `validate:"required,len=6,number"`
}

type VerifyOTPOutput struct {
	Token string
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
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

	if user.SecondFactor.Method == entity.MethodAuthenticatorApp {
		if err := s.verifyTOTP(ctx, user, in.OTP); err != nil {
			return nil, err
		}
	} else {
		if err := s.verifyChallenge(ctx, user.ID, in.OTP); err != nil {
			return nil, err
		}
	}

	token, err := s.jwt.Generate(user.ID, user.Email, jwt.PurposeSession)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyOTPOutput{Token: token}, nil
}

func (s *Usecase) verifyTOTP(ctx context.Context, user *entity.User, code string) error {
	seed, err := s.mfaEncryptor.Decrypt(user.SecondFactor.Seed, mfa.Scope{
		UserID:  user.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt authenticator seed", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(code, string(seed), s.clock.Now()) {
		slog.WarnContext(ctx, "authenticator code mismatch", "user_id", user.ID)
		return goerror.NewBusiness("incorrect verification code", goerror.CodeUnauthorized)
	}

	return nil
}

func (s *Usecase) verifyChallenge(ctx context.Context, userID int64, code string) error {
	maxAttempts := s.maxAttempts()

	chal, err := s.repoDB.GetChallenge(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no otp challenge for subject", "user_id", userID)
		return goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp challenge", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	if chal.Consumed {
		// A challenge burned by the attempt bound stays distinguishable from
		// one consumed by a successful verify until a resend replaces it.
		if chal.Attempts >= maxAttempts {
			slog.WarnContext(ctx, "otp challenge locked by attempt bound", "user_id", userID)
			return goerror.NewBusiness("too many attempts", goerror.CodeUnauthorized)
		}

		slog.WarnContext(ctx, "otp challenge already consumed", "user_id", userID)
		return goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}

	if s.clock.Now().After(chal.ExpiresAt) {
		slog.WarnContext(ctx, "otp challenge expired", "user_id", userID)
		return goerror.NewBusiness("verification code expired", goerror.CodeUnauthorized)
	}

	if !s.hmac.Verify(chal.CodeHash, code) {
		attempts, locked, err := s.repoDB.RecordFailedAttempt(ctx, userID, maxAttempts)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo record otp attempt", "user_id", userID, "error", err)
			return goerror.NewServer(err)
		}
		if locked {
			slog.WarnContext(ctx, "otp challenge locked by attempt bound", "user_id", userID, "attempts", attempts)
			return goerror.NewBusiness("too many attempts", goerror.CodeUnauthorized)
		}

		slog.WarnContext(ctx, "otp code mismatch", "user_id", userID, "attempts", attempts)
		return goerror.NewBusiness("incorrect verification code", goerror.CodeUnauthorized)
	}

	consumed, err := s.repoDB.ConsumeChallenge(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp challenge", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}
	if !consumed {
		// Lost the race against a concurrent verify of the same code.
		slog.WarnContext(ctx, "otp challenge consumed concurrently", "user_id", userID)
		return goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}

	return nil
}
