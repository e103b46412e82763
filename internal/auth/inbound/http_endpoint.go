package inbound

import (
	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/auth/usecase"
	"github.com/authgate/authgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the authentication flow.
type HTTPEndpoint struct {
	uc uc
}

// Signup registers a new account, optionally with a second factor.
// @Summary Register account
// @Description Creates an account. When the authenticator-app method is chosen, the response carries the provisioning URI to render as a QR code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 201 {object} router.successResponse{data=SignupResponse} "Account created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/signup [post]
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in := usecase.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Gender:    req.Gender,
	}
	if req.TwoFA != nil {
		in.TwoFAEnabled = req.TwoFA.Enabled
		in.TwoFAMethod = req.TwoFA.Method
		in.TwoFAEmail = req.TwoFA.Email
		in.TwoFAPhone = req.TwoFA.Phone
		in.TwoFACountryCode = req.TwoFA.CountryCode
		in.TwoFAAppName = req.TwoFA.AppName
	}

	resp, err := h.uc.Signup(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return SignupResponse{
		UserID:     resp.UserID,
		OtpauthURI: resp.OtpauthURI,
	}, nil
}

// Login authenticates a user and returns a session token or a pending
// second-factor challenge.
// @Summary Authenticate user
// @Description Validates credentials. Returns a session token, or a temp token plus delivery info when a second factor is configured.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	out := LoginResponse{
		Token:     resp.Token,
		TempToken: resp.TempToken,
	}
	if resp.TwoFARequired {
		out.TwoFA = &LoginTwoFA{
			Method:  resp.Method.String(),
			Contact: resp.Contact,
		}
	}

	return out, nil
}

// VerifyOTP completes the second-factor step and issues the session token.
// @Summary Verify second factor
// @Description Checks the one-time code against the pending challenge, or the authenticator app, and exchanges the temp token for a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Session token"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid token or code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		TempToken: req.TempToken,
		OTP:       req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Token: resp.Token}, nil
}

// ResendOTP issues and delivers a fresh verification code.
// @Summary Resend verification code
// @Description Supersedes the pending code with a fresh one and re-delivers it. Rate limited per subject.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ResendOTPRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=ResendOTPResponse} "Code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many resend requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/resend-otp [post]
func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendOTP(r.Context(), usecase.ResendOTPInput{
		TempToken: req.TempToken,
	})
	if err != nil {
		return nil, err
	}

	return ResendOTPResponse{
		Method:  resp.Method.String(),
		Contact: resp.Contact,
	}, nil
}

// Profile returns the authenticated user's account.
// @Summary Get profile
// @Description Returns the profile of the session token's subject.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	out := ProfileResponse{
		UserID:    resp.UserID,
		Email:     resp.Email,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
		Username:  resp.Username,
		TwoFA:     ProfileTwoFA{Enabled: resp.TwoFA},
	}
	if resp.Gender != entity.GenderUnknown {
		out.Gender = resp.Gender.String()
	}
	if resp.TwoFA {
		out.TwoFA.Method = resp.TwoFAMethod.String()
	}

	return out, nil
}
