package store

import (
	"context"
	"testing"

	"github.com/rezvoj/RecipeSiteBackend/internal/db"
)

func TestJWTSecretGeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := JWTSecret(ctx, database, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := JWTSecret(ctx, database, "")
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestJWTSecretConfigured(t *testing.T) {
	database := db.NewTestDB(t)

	secret, err := JWTSecret(context.Background(), database, "from-config")
	if err != nil {
		t.Fatal(err)
	}
	if secret != "from-config" {
		t.Errorf("expected configured secret, got %q", secret)
	}
}
