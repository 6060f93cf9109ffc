package auth

import (
	"net/http/httptest"
	"testing"
)

func TestExtractJWTToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantFound bool
	}{
		{
			name:      "standard bearer",
			header:    "Bearer abc.def.ghi",
			wantToken: "abc.def.ghi",
			wantFound: true,
		},
		{
			name:      "lowercase scheme",
			header:    "bearer abc.def",
			wantToken: "abc.def",
			wantFound: true,
		},
		{
			name:      "missing header",
			header:    "",
			wantToken: "",
			wantFound: false,
		},
		{
			name:      "wrong scheme",
			header:    "Basic dXNlcjpwYXNz",
			wantToken: "",
			wantFound: false,
		},
		{
			name:      "surrounding whitespace trimmed",
			header:    "Bearer   abc.def  ",
			wantToken: "abc.def",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, found := ExtractJWTToken(r)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if token != tt.wantToken {
				t.Fatalf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestDefaultCredentialExtractor(t *testing.T) {
	claims := map[string]interface{}{
		"user_id":        "user-42",
		"email":          "collector@example.com",
		"email_verified": true,
		"name":           "Casey Collector",
		"picture":        "https://example.com/avatar.png",
		"isAdmin":        true,
	}

	creds, err := DefaultCredentialExtractor(claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if creds.Id != "user-42" {
		t.Errorf("Id = %q, want %q", creds.Id, "user-42")
	}
	if creds.Email != "collector@example.com" {
		t.Errorf("Email = %q, want %q", creds.Email, "collector@example.com")
	}
	if !creds.EmailVerified {
		t.Error("EmailVerified = false, want true")
	}
	if creds.Name == nil || *creds.Name != "Casey Collector" {
		t.Errorf("Name = %v, want Casey Collector", creds.Name)
	}
	if creds.PictureURL == nil || *creds.PictureURL != "https://example.com/avatar.png" {
		t.Errorf("PictureURL = %v", creds.PictureURL)
	}
	if !creds.IsAdmin {
		t.Error("IsAdmin = false, want true")
	}
}

func TestDefaultCredentialExtractorFallbacks(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{"sub": "fallback-sub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Id != "fallback-sub" {
		t.Errorf("Id = %q, want sub fallback", creds.Id)
	}
	if creds.Name != nil {
		t.Errorf("Name = %v, want nil for missing claim", creds.Name)
	}
	if creds.IsAdmin {
		t.Error("IsAdmin = true, want false when claim absent")
	}

	if _, err := DefaultCredentialExtractor(nil); err == nil {
		t.Fatal("expected error for nil claims")
	}
}

func TestParseUnsignedJWTClaims(t *testing.T) {
	// header {"alg":"none"} . payload {"user_id":"u1","email":"a@b.c"}
	token := "eyJhbGciOiJub25lIn0.eyJ1c2VyX2lkIjoidTEiLCJlbWFpbCI6ImFAYi5jIn0"

	claims, err := parseUnsignedJWTClaims(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims["user_id"] != "u1" {
		t.Errorf("user_id = %v, want u1", claims["user_id"])
	}
	if claims["email"] != "a@b.c" {
		t.Errorf("email = %v, want a@b.c", claims["email"])
	}

	if _, err := parseUnsignedJWTClaims("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
