package core

import "testing"

func TestCompletionRequest_ValidateEmptyMessages(t *testing.T) {
	req := CompletionRequest{}
	if err := req.Validate(); err == nil {
		t.Error("expected error for empty messages")
	}
}

func TestCompletionRequest_ValidateTemperatureRange(t *testing.T) {
	tooHigh := 2.5
	req := CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: &tooHigh,
	}
	if err := req.Validate(); err == nil {
		t.Error("expected error for temperature out of range")
	}
}

func TestCompletionRequest_ValidateTopPRange(t *testing.T) {
	tooHigh := 1.5
	req := CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		TopP:     &tooHigh,
	}
	if err := req.Validate(); err == nil {
		t.Error("expected error for top_p out of range")
	}
}

func TestCompletionRequest_ValidateUnknownTier(t *testing.T) {
	req := CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Tier:     Tier("fastest"),
	}
	if err := req.Validate(); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestCompletionRequest_ValidateOK(t *testing.T) {
	temp := 0.7
	req := CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: &temp,
		Tier:        TierSOTA,
	}
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{"a very long sentence with more than sixteen characters", 14},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.in); got != c.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
