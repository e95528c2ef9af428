package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rezvoj/RecipeSiteBackend/internal/db"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

func TestCreateAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, err := CreateAccount(ctx, database, "ana@example.com", "Ana", "Cooks a lot", "hash")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if a.ID == 0 || a.Name != "Ana" || a.About != "Cooks a lot" || a.Moderator {
		t.Errorf("unexpected account %+v", a)
	}

	_, err = CreateAccount(ctx, database, "ana@example.com", "Other", "", "hash")
	var verr *model.ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Errorf("expected email validation error, got %v", err)
	}

	got, err := GetAccountByEmail(ctx, database, "ana@example.com")
	if err != nil || got == nil || got.ID != a.ID {
		t.Errorf("GetAccountByEmail: %+v, %v", got, err)
	}
	if missing, err := GetAccount(ctx, database, 999); err != nil || missing != nil {
		t.Errorf("expected nil for missing account, got %+v, %v", missing, err)
	}
}

func TestUpdateAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := newAccount(t, database, "ana", false)
	about := "Bakes"
	if err := UpdateAccount(ctx, database, a.ID, AccountUpdate{About: &about}); err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}

	got, _ := GetAccount(ctx, database, a.ID)
	if got.Name != "ana" || got.About != "Bakes" {
		t.Errorf("expected name kept and about changed, got %+v", got)
	}

	if err := UpdateAccount(ctx, database, 999, AccountUpdate{About: &about}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestToggleModerator(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := newAccount(t, database, "ana", false)
	on, err := ToggleModerator(ctx, database, a.ID)
	if err != nil || !on {
		t.Fatalf("expected moderator on, got %v, %v", on, err)
	}
	on, err = ToggleModerator(ctx, database, a.ID)
	if err != nil || on {
		t.Fatalf("expected moderator off, got %v, %v", on, err)
	}
}

func TestReportAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	reporter := newAccount(t, database, "reporter", false)
	target := newAccount(t, database, "target", false)

	var verr *model.ValidationError
	if err := ReportAccount(ctx, database, testLimits, reporter.ID, reporter.ID); !errors.As(err, &verr) {
		t.Errorf("expected validation error reporting yourself, got %v", err)
	}
	if err := ReportAccount(ctx, database, testLimits, reporter.ID, target.ID); err != nil {
		t.Fatalf("ReportAccount: %v", err)
	}
	if err := ReportAccount(ctx, database, testLimits, reporter.ID, target.ID); !errors.As(err, &verr) {
		t.Errorf("expected validation error for a duplicate report, got %v", err)
	}

	stats, err := GetAccountStats(ctx, database, target.ID, true)
	if err != nil {
		t.Fatalf("GetAccountStats: %v", err)
	}
	if stats.ReportCount == nil || *stats.ReportCount != 1 {
		t.Errorf("expected report count 1 for moderators, got %v", stats.ReportCount)
	}

	public, _ := GetAccountStats(ctx, database, target.ID, false)
	if public.ReportCount != nil {
		t.Errorf("expected report count hidden from the public, got %v", *public.ReportCount)
	}

	if err := DismissReports(ctx, database, target.ID, false); err != nil {
		t.Fatalf("DismissReports: %v", err)
	}
	stats, _ = GetAccountStats(ctx, database, target.ID, true)
	if *stats.ReportCount != 0 {
		t.Errorf("expected reports dismissed, got %d", *stats.ReportCount)
	}
}

func TestBanAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mod := newAccount(t, database, "mod", true)
	cheat := newAccount(t, database, "cheat", false)

	recipe := publishedRecipe(t, database, mod, "Real")
	own := newRecipe(t, database, cheat, "Spam")
	if _, err := AddRecipePhoto(ctx, database, testLimits, cheat.ID, own, "spam.jpg", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := SetAccountPhoto(ctx, database, cheat.ID, "face.jpg"); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateRating(ctx, database, testLimits, cheat.ID, recipe, 0, "awful"); err != nil {
		t.Fatal(err)
	}

	photos, err := BanAccount(ctx, database, cheat.ID, false)
	if err != nil {
		t.Fatalf("BanAccount: %v", err)
	}
	if len(photos) != 2 {
		t.Errorf("expected account and recipe photos freed, got %v", photos)
	}

	if r, _ := GetRecipe(ctx, database, own); r != nil {
		t.Error("expected banned account's recipe deleted")
	}
	page, _ := ListRatings(ctx, database, firstPage(), RatingFilter{RecipeID: recipe})
	if page.Count != 0 {
		t.Errorf("expected banned account's rating deleted, got %d", page.Count)
	}

	placeholder, _ := GetAccount(ctx, database, cheat.ID)
	if placeholder == nil || !placeholder.Banned || placeholder.Photo != "" {
		t.Errorf("expected banned placeholder, got %+v", placeholder)
	}
	if stats, _ := GetAccountStats(ctx, database, cheat.ID, true); stats != nil {
		t.Error("expected banned account hidden from listings")
	}

	// The email stays taken.
	if _, err := CreateAccount(ctx, database, "cheat@example.com", "again", "", "hash"); err == nil {
		t.Error("expected banned email to stay registered")
	}
	// Banned accounts cannot create content.
	if _, err := CreateRecipe(ctx, database, testLimits, cheat, RecipeInput{Name: "N", Title: "T"}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected banned account to be rejected, got %v", err)
	}
}

func TestBanModeratorRequiresAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mod := newAccount(t, database, "mod", true)

	if _, err := BanAccount(ctx, database, mod.ID, false); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected moderators out of reach without admin, got %v", err)
	}
	if _, err := BanAccount(ctx, database, mod.ID, true); err != nil {
		t.Errorf("expected admin to ban a moderator, got %v", err)
	}
}

func TestDeleteAccountReturnsPhotos(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := newAccount(t, database, "ana", false)
	if _, err := SetAccountPhoto(ctx, database, a.ID, "ana.jpg"); err != nil {
		t.Fatal(err)
	}
	photos, err := DeleteAccount(ctx, database, a.ID)
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if len(photos) != 1 || photos[0] != "ana.jpg" {
		t.Errorf("expected [ana.jpg], got %v", photos)
	}
	if got, _ := GetAccount(ctx, database, a.ID); got != nil {
		t.Error("expected account gone")
	}
}
