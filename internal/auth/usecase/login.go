package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/jwt"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	// Token is the full session token, set only when no second factor is
	// configured.
	Token string

	TwoFARequired bool
	TempToken     string
	Method        entity.SecondFactorMethod
	Contact       string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", email)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.bcrypt.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}

	if !user.SecondFactor.Enabled {
		token, err := s.jwt.Generate(user.ID, user.Email, jwt.PurposeSession)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate session token", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &LoginOutput{Token: token}, nil
	}

	tempToken, err := s.jwt.Generate(user.ID, user.Email, jwt.PurposePending2FA)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate pre-auth token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The authenticator app holds its own seed, so there is nothing to issue
	// or deliver for it.
	if user.SecondFactor.Method != entity.MethodAuthenticatorApp {
		code, err := s.issueChallenge(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		s.dispatchCode(ctx, user, code)
	}

	return &LoginOutput{
		TwoFARequired: true,
		TempToken:     tempToken,
		Method:        user.SecondFactor.Method,
		Contact:       user.SecondFactor.Contact(),
	}, nil
}
