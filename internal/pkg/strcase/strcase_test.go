package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Email", "email"},
		{"FullName", "full_name"},
		{"UserID", "user_id"},
		{"OTPCode", "otp_code"},
		{"TwoFAMethod", "two_fa_method"},
		{"already_snake", "already_snake"},
	}

	for _, tt := range tests {
		if got := ToLowerSnake(tt.in); got != tt.want {
			t.Errorf("ToLowerSnake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
