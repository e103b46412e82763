package inbound

import "net/http"

type SignupTwoFA struct {
	Enabled     bool   `json:"enabled"`
	Method      string `json:"method"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	AppName     string `json:"app_name,omitempty"`
}

type SignupRequest struct {
	Email     string       `json:"email"`
	Password  string       `json:"password"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Username  string       `json:"username"`
	Gender    string       `json:"gender"`
	TwoFA     *SignupTwoFA `json:"two_fa,omitempty"`
}

type SignupResponse struct {
	UserID int64 `json:"user_id,string"`
	// OtpauthURI is only present for the authenticator-app method.
	OtpauthURI string `json:"otpauth_uri,omitempty"`
}

func (SignupResponse) Message() string {
	return "Account created successfully."
}

func (SignupResponse) StatusCode() int {
	return http.StatusCreated
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginTwoFA struct {
	Method  string `json:"method"`
	Contact string `json:"contact"`
}

type LoginResponse struct {
	Token     string      `json:"token,omitempty"`
	TempToken string      `json:"temp_token,omitempty"`
	TwoFA     *LoginTwoFA `json:"two_fa,omitempty"`
}

type VerifyOTPRequest struct {
	TempToken string `json:"temp_token"`
	OTP       string `json:"otp"`
}

type VerifyOTPResponse struct {
	Token string `json:"token"`
}

type ResendOTPRequest struct {
	TempToken string `json:"temp_token"`
}

type ResendOTPResponse struct {
	Method  string `json:"method"`
	Contact string `json:"contact"`
}

func (ResendOTPResponse) Message() string {
	return "A new verification code has been sent."
}

type ProfileTwoFA struct {
	Enabled bool   `json:"enabled"`
	Method  string `json:"method,omitempty"`
}

type ProfileResponse struct {
	UserID    int64        `json:"user_id,string"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name,omitempty"`
	Username  string       `json:"username"`
	Gender    string       `json:"gender,omitempty"`
	TwoFA     ProfileTwoFA `json:"two_fa"`
}
