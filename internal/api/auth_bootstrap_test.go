package api

import "testing"

func TestValidateBootstrapCredentials(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid credentials", "admin", "secret123", false},
		{"username trimmed and case-folded", "  Admin  ", "secret123", false},
		{"missing password", "admin", "", true},
		{"short password", "admin", "abc", true},
		{"short username", "ab", "secret123", true},
		{"username with spaces", "my admin", "secret123", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateBootstrapCredentials(tc.username, tc.password)
			if tc.wantErr && err == nil {
				t.Errorf("expected an error for username=%q password=%q", tc.username, tc.password)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
