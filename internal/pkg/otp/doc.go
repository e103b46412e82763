// Package otp provides helpers for generating and validating one-time
// passwords (OTP).
//
// Two flavors are supported: random numeric codes delivered out-of-band
// (email/SMS) and TOTP (time-based OTP) validated against an authenticator
// app seed.
package otp
