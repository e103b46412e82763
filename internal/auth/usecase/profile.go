package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/goerror"
	"github.com/authgate/authgate/internal/pkg/jwt"
)

type ProfileOutput struct {
	UserID      int64
	Email       string
	FirstName   string
	LastName    string
	Username    string
	Gender      entity.Gender
	TwoFA       bool
	TwoFAMethod entity.SecondFactorMethod
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated user not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProfileOutput{
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Username:    user.Username,
		Gender:      user.Gender,
		TwoFA:       user.SecondFactor.Enabled,
		TwoFAMethod: user.SecondFactor.Method,
	}, nil
}
