package task

import (
	"testing"
)

func TestValidateBranchName(t *testing.T) {
	tests := []struct {
		name    string
		branch  string
		wantErr bool
	}{
		{"simple", "feature-x", false},
		{"with slash", "user/feature", false},
		{"with dots", "v1.2", false},
		{"empty", "", true},
		{"leading dash", "-bad", true},
		{"lock suffix", "thing.lock", true},
		{"double dot", "a..b", true},
		{"space", "has space", true},
		{"tilde", "bad~name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranchName(tt.branch)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBranchName(%q) = %v, wantErr %v", tt.branch, err, tt.wantErr)
			}
		})
	}
}

func TestBranchNameFromTask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Fix login bug", "fix-login-bug"},
		{"punctuation", "Add OAuth2 (Google)!", "add-oauth2-google"},
		{"already valid", "refactor-api", "refactor-api"},
		{"surrounding space", "  trim me  ", "trim-me"},
		{"unicode", "résumé parser", "r-sum-parser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BranchNameFromTask(tt.in)
			if got != tt.want {
				t.Errorf("BranchNameFromTask(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if err := ValidateBranchName(got); err != nil {
				t.Errorf("derived branch %q is not valid: %v", got, err)
			}
		})
	}
}

func TestBranchNameFromTaskLengthCap(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "word "
	}
	branch := BranchNameFromTask(long)
	if len(branch) > MaxBranchNameLength {
		t.Errorf("branch length %d exceeds cap %d", len(branch), MaxBranchNameLength)
	}
	if err := ValidateBranchName(branch); err != nil {
		t.Errorf("capped branch %q is not valid: %v", branch, err)
	}
}
