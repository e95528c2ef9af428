package store

import (
	"context"
	"testing"
	"time"

	"github.com/rezvoj/RecipeSiteBackend/internal/db"
)

func TestTokenRevocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	later := time.Now().Add(time.Hour)

	if err := RevokeToken(ctx, database, "a", later); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	// Logging out twice is harmless.
	if err := RevokeToken(ctx, database, "a", later); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}
	if err := RevokeToken(ctx, database, "stale", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	tests := map[string]bool{
		"a":     true,
		"b":     false,
		"stale": false,
	}
	for jti, want := range tests {
		got, err := IsTokenRevoked(ctx, database, jti)
		if err != nil {
			t.Fatalf("IsTokenRevoked(%q): %v", jti, err)
		}
		if got != want {
			t.Errorf("IsTokenRevoked(%q) = %v, want %v", jti, got, want)
		}
	}
}

func TestRevokeTokenPurgesExpired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := RevokeToken(ctx, database, "old", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := RevokeToken(ctx, database, "new", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM revoked_tokens`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected only the live revocation to remain, got %d rows", n)
	}
}
