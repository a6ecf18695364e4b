package service

import "testing"

func TestGenerateOtpCode(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		wantLength int
	}{
		{name: "default length", length: 6, wantLength: 6},
		{name: "min length", length: 4, wantLength: 4},
		{name: "max length", length: 10, wantLength: 10},
		{name: "too short falls back", length: 2, wantLength: 6},
		{name: "too long falls back", length: 32, wantLength: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := GenerateOtpCode(tt.length)
			if err != nil {
				t.Fatalf("generate code failed: %v", err)
			}
			if len(code) != tt.wantLength {
				t.Fatalf("expected length %d, got %q", tt.wantLength, code)
			}
			for _, r := range code {
				if r < '0' || r > '9' {
					t.Fatalf("expected numeric code, got %q", code)
				}
			}
		})
	}
}

func TestHashAndCheckOtpCode(t *testing.T) {
	code, err := GenerateOtpCode(6)
	if err != nil {
		t.Fatalf("generate code failed: %v", err)
	}
	hash, err := HashOtpCode(code)
	if err != nil {
		t.Fatalf("hash code failed: %v", err)
	}
	if hash == code {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckOtpCode(code, hash) {
		t.Fatalf("expected code to match its hash")
	}
	if CheckOtpCode("000000", hash) && code != "000000" {
		t.Fatalf("expected mismatched code to fail")
	}
}

func TestValidOtpCodeFormat(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		length int
		want   bool
	}{
		{name: "valid", code: "123456", length: 6, want: true},
		{name: "too short", code: "12345", length: 6, want: false},
		{name: "too long", code: "1234567", length: 6, want: false},
		{name: "letters", code: "12a456", length: 6, want: false},
		{name: "empty", code: "", length: 6, want: false},
		{name: "custom length", code: "12345678", length: 8, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidOtpCodeFormat(tt.code, tt.length); got != tt.want {
				t.Fatalf("ValidOtpCodeFormat(%q, %d) = %v, want %v", tt.code, tt.length, got, tt.want)
			}
		})
	}
}
