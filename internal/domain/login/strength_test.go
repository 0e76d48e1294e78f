package login

import "testing"

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password  string
		wantScore int
		wantHints int
	}{
		{"", 0, 5},
		{"abc", 1, 4},
		{"abcdefgh", 2, 3},
		{"Abcdefgh", 3, 2},
		{"Abcdefg1", 4, 1},
		{"Abcdef1!", 5, 0},
		{"under_score", 2, 3},
		{"ÄÖÜäöü12", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			got := PasswordStrength(tt.password)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if len(got.Feedback) != tt.wantHints {
				t.Errorf("Feedback = %v, want %d hints", got.Feedback, tt.wantHints)
			}
			if got.Score+len(got.Feedback) != MaxStrength {
				t.Errorf("score + hints = %d, want %d", got.Score+len(got.Feedback), MaxStrength)
			}
		})
	}
}
