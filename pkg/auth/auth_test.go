package auth

import (
	"context"
	"net/http"
	"testing"
)

// mockAuthn is a test authenticator with configurable behavior.
type mockAuthn struct {
	result AuthResult
}

func (m *mockAuthn) Authenticate(_ context.Context, _ *http.Request) AuthResult {
	return m.result
}

func TestAuthChain(t *testing.T) {
	yes := &mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "default"}}}
	no := &mockAuthn{result: AuthResult{Decision: No, Err: ErrInvalidKey}}
	abstain := &mockAuthn{result: AuthResult{Decision: Abstain}}

	tests := []struct {
		name     string
		authns   []Authenticator
		fallback AuthDecision
		want     AuthDecision
		subject  string
	}{
		{"first yes stops", []Authenticator{yes, no}, No, Yes, "default"},
		{"first no stops", []Authenticator{no, yes}, No, No, ""},
		{"abstain then yes", []Authenticator{abstain, yes}, No, Yes, "default"},
		{"all abstain default reject", []Authenticator{abstain, abstain}, No, No, ""},
		{"all abstain default accept", []Authenticator{abstain}, Yes, Yes, "anonymous"},
		{"empty chain rejects", nil, No, No, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &AuthChain{Authenticators: tt.authns, DefaultDecision: tt.fallback}
			r, _ := http.NewRequest("POST", "/", nil)

			result := chain.Authenticate(context.Background(), r)
			if result.Decision != tt.want {
				t.Fatalf("Decision = %d, want %d", result.Decision, tt.want)
			}
			if tt.subject != "" && result.Identity.Subject != tt.subject {
				t.Errorf("Subject = %q, want %q", result.Identity.Subject, tt.subject)
			}
			if result.Decision == No && result.Err == nil {
				t.Error("No decision should carry an error")
			}
		})
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil {
		t.Error("expected nil identity on empty context")
	}

	ctx = SetIdentity(ctx, &Identity{Subject: "default", Method: "header"})
	if got := IdentityFromContext(ctx); got == nil || got.Subject != "default" {
		t.Errorf("IdentityFromContext = %+v", got)
	}
}
