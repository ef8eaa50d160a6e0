package middleware

import "testing"

func TestValidateClaimID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid uuid", "8f7b5c1a-2d3e-4f5a-9b8c-1d2e3f4a5b6c", "8f7b5c1a-2d3e-4f5a-9b8c-1d2e3f4a5b6c", false},
		{"uppercase normalized", "8F7B5C1A-2D3E-4F5A-9B8C-1D2E3F4A5B6C", "8f7b5c1a-2d3e-4f5a-9b8c-1d2e3f4a5b6c", false},
		{"trims whitespace", "  8f7b5c1a-2d3e-4f5a-9b8c-1d2e3f4a5b6c  ", "8f7b5c1a-2d3e-4f5a-9b8c-1d2e3f4a5b6c", false},
		{"empty", "", "", true},
		{"not a uuid", "not-a-uuid", "", true},
		{"missing dashes", "8f7b5c1a2d3e4f5a9b8c1d2e3f4a5b6c", "", true},
		{"sql injection", "8f7b5c1a'; DROP--", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateClaimID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "user-123_abc", "user-123_abc", false},
		{"trims whitespace", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"too long 65", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "", true},
		{"exactly 64", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"invalid chars", "abc def", "", true},
		{"sql injection", "abc'; DROP--", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUserID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateProfileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "profile_picture", "profile_picture", false},
		{"valid short", "banner", "banner", false},
		{"empty", "", "", true},
		{"uppercase rejected", "Profile", "", true},
		{"dash rejected", "profile-picture", "", true},
		{"spaces rejected", "profile picture", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateProfileName(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	if got := ValidateFilename("  photo.jpg  "); got != "photo.jpg" {
		t.Errorf("trim failed: got %q", got)
	}
	if got := ValidateFilename("../../etc/passwd"); got != "passwd" {
		t.Errorf("path strip failed: got %q", got)
	}
	if got := ValidateFilename(`C:\Users\x\cat.png`); got != "cat.png" {
		t.Errorf("windows path strip failed: got %q", got)
	}
	long := ""
	for i := 0; i < 300; i++ {
		long += "x"
	}
	if got := ValidateFilename(long); len(got) != MaxFilenameLen {
		t.Errorf("truncation failed: got len %d, want %d", len(got), MaxFilenameLen)
	}
}
