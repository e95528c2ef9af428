package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/db"
	"github.com/rezvoj/RecipeSiteBackend/internal/media"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testAdminCode = "test-admin-code"
)

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	files, err := media.New(t.TempDir())
	if err != nil {
		t.Fatalf("media store: %v", err)
	}

	router := NewRouter(database, files, Options{
		JWTSecret: testJWTSecret,
		AdminCode: testAdminCode,
		Limits:    config.DefaultLimits(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: database}
}

// request sends a JSON request. token may be empty; admin adds the admin
// code header.
func (e *testEnv) request(t *testing.T, method, path, token string, admin bool, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if admin {
		req.Header.Set(AdminHeader, testAdminCode)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// expect checks the status and decodes the body into out, if given.
func expect(t *testing.T, resp *http.Response, status int, out any) {
	t.Helper()
	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s",
			resp.Request.Method, resp.Request.URL.Path, status, resp.StatusCode, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func (e *testEnv) register(t *testing.T, name string) (string, int64) {
	t.Helper()
	var tok tokenResponse
	expect(t, e.request(t, "POST", "/api/accounts", "", false, map[string]string{
		"email": name + "@example.com", "name": name, "password": "password123",
	}), http.StatusCreated, &tok)

	var me model.Account
	expect(t, e.request(t, "GET", "/api/accounts/me", tok.Token, false, nil), http.StatusOK, &me)
	return tok.Token, me.ID
}

func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{255, 160, 0, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func (e *testEnv) uploadPhoto(t *testing.T, path, token string, number int) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("photo", "photo.png")
	part.Write(testPNG())
	if number > 0 {
		mw.WriteField("number", fmt.Sprint(number))
	}
	mw.Close()

	req, _ := http.NewRequest("POST", e.server.URL+path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("uploading photo: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	e := setupTestServer(t)
	e.register(t, "ana")

	resp := e.request(t, "POST", "/api/auth/login", "", false, map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	})
	expect(t, resp, http.StatusUnauthorized, nil)

	var tok tokenResponse
	expect(t, e.request(t, "POST", "/api/auth/login", "", false, map[string]string{
		"email": "ANA@example.com", "password": "password123",
	}), http.StatusOK, &tok)
	if tok.Token == "" {
		t.Fatal("empty token from login")
	}

	var verr map[string]any
	expect(t, e.request(t, "POST", "/api/accounts", "", false, map[string]string{
		"email": "ana@example.com", "name": "Ana", "password": "password123",
	}), http.StatusBadRequest, &verr)
	if verr["field"] != "email" {
		t.Errorf("expected email field error, got %v", verr)
	}

	expect(t, e.request(t, "POST", "/api/accounts", "", false, map[string]string{
		"email": "bob@example.com", "name": "Bob", "password": "short",
	}), http.StatusBadRequest, nil)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := setupTestServer(t)
	token, _ := e.register(t, "ana")

	expect(t, e.request(t, "POST", "/api/auth/logout", token, false, nil), http.StatusNoContent, nil)
	expect(t, e.request(t, "GET", "/api/accounts/me", token, false, nil), http.StatusUnauthorized, nil)
}

func TestUnauthenticatedAccess(t *testing.T) {
	e := setupTestServer(t)

	expect(t, e.request(t, "POST", "/api/recipes", "", false, map[string]any{"name": "x"}), http.StatusUnauthorized, nil)
	expect(t, e.request(t, "GET", "/api/inventory", "", false, nil), http.StatusUnauthorized, nil)
	expect(t, e.request(t, "GET", "/api/accounts/me", "not-a-token", false, nil), http.StatusUnauthorized, nil)

	// Listings are public.
	expect(t, e.request(t, "GET", "/api/recipes", "", false, nil), http.StatusOK, nil)
}

func TestModeratorAndAdminAccess(t *testing.T) {
	e := setupTestServer(t)
	token, userID := e.register(t, "ana")

	expect(t, e.request(t, "POST", "/api/categories", token, false, map[string]string{"name": "Soups"}), http.StatusForbidden, nil)
	expect(t, e.request(t, "PUT", fmt.Sprintf("/api/accounts/%d/moderator", userID), token, false, nil), http.StatusForbidden, nil)

	// A wrong admin code is no admin code.
	req, _ := http.NewRequest("POST", e.server.URL+"/api/categories", bytes.NewReader([]byte(`{"name":"Soups"}`)))
	req.Header.Set(AdminHeader, "guess")
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for a wrong admin code, got %d", resp.StatusCode)
	}

	var toggled map[string]bool
	expect(t, e.request(t, "PUT", fmt.Sprintf("/api/accounts/%d/moderator", userID), "", true, nil), http.StatusOK, &toggled)
	if !toggled["moderator"] {
		t.Fatal("expected account to become moderator")
	}
	expect(t, e.request(t, "POST", "/api/categories", token, false, map[string]string{"name": "Soups"}), http.StatusCreated, nil)
}

func TestListParameterValidation(t *testing.T) {
	e := setupTestServer(t)

	tests := []struct {
		query string
		field string
	}{
		{"order_by=bogus", "order_by"},
		{"order_by=name,-nope", "order_by"},
		{"page=0", "page"},
		{"page=abc", "page"},
		{"page_size=-1", "page_size"},
		{"page_size=1000", "page_size"},
		{"order_time_window=-3", "order_time_window"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var body map[string]any
			expect(t, e.request(t, "GET", "/api/recipes?"+tt.query, "", false, nil), http.StatusBadRequest, &body)
			if body["field"] != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, body)
			}
		})
	}

	expect(t, e.request(t, "GET", "/api/recipes?status=SUBMITTED", "", false, nil), http.StatusForbidden, nil)
}

func TestRecipeLifecycleFlow(t *testing.T) {
	e := setupTestServer(t)
	token, _ := e.register(t, "chef")
	modToken, modID := e.register(t, "mod")
	if _, err := store.ToggleModerator(context.Background(), e.db, modID); err != nil {
		t.Fatal(err)
	}

	var category model.Category
	expect(t, e.request(t, "POST", "/api/categories", "", true, map[string]string{"name": "Pasta"}), http.StatusCreated, &category)
	var ingredient model.Ingredient
	expect(t, e.request(t, "POST", "/api/ingredients", modToken, false, map[string]string{
		"name": "Spaghetti", "unit": "g",
	}), http.StatusCreated, &ingredient)

	var recipe model.Recipe
	expect(t, e.request(t, "POST", "/api/recipes", token, false, map[string]any{
		"name": "Carbonara", "title": "Roman classic", "prep_time": 20, "calories": 600,
		"categories": []int64{category.ID},
	}), http.StatusCreated, &recipe)
	base := fmt.Sprintf("/api/recipes/%d", recipe.ID)

	// Incomplete recipes cannot be submitted.
	var conflict map[string]any
	expect(t, e.request(t, "POST", base+"/submit", token, false, nil), http.StatusConflict, &conflict)
	if conflict["error"] != "no photos" {
		t.Errorf("expected missing photos, got %v", conflict)
	}

	var photo model.RecipePhoto
	expect(t, e.uploadPhoto(t, base+"/photos", token, 0), http.StatusCreated, &photo)
	if photo.Position != 1 || !media.Valid(photo.Photo) {
		t.Errorf("unexpected photo %+v", photo)
	}
	expect(t, e.request(t, "POST", base+"/instructions", token, false, map[string]any{
		"title": "Boil", "content": "Boil the pasta.",
	}), http.StatusCreated, nil)
	expect(t, e.request(t, "POST", base+"/ingredients", token, false, map[string]any{
		"ingredient_id": ingredient.ID, "amount": "120.5",
	}), http.StatusOK, nil)

	var status map[string]model.RecipeStatus
	expect(t, e.request(t, "POST", base+"/submit", token, false, nil), http.StatusOK, &status)
	if status["status"] != model.StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %v", status)
	}

	// Not published yet: hidden from others, visible to the owner.
	expect(t, e.request(t, "GET", base, "", false, nil), http.StatusNotFound, nil)
	expect(t, e.request(t, "GET", base, token, false, nil), http.StatusOK, nil)

	expect(t, e.request(t, "POST", base+"/accept", token, false, nil), http.StatusForbidden, nil)
	expect(t, e.request(t, "POST", base+"/deny", modToken, false, map[string]string{}), http.StatusBadRequest, nil)
	expect(t, e.request(t, "POST", base+"/accept", modToken, false, nil), http.StatusOK, nil)

	var detail model.RecipeDetail
	expect(t, e.request(t, "GET", base, "", false, nil), http.StatusOK, &detail)
	if detail.Status != model.StatusAccepted || len(detail.Photos) != 1 || len(detail.Instructions) != 1 {
		t.Errorf("unexpected detail %+v", detail)
	}
	if len(detail.Ingredients) != 1 || detail.Ingredients[0].Amount.String() != "120.5" {
		t.Errorf("unexpected ingredients %+v", detail.Ingredients)
	}

	// The stored photo is served.
	resp, err := http.Get(e.server.URL + "/media/" + photo.Photo)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected media 200, got %d", resp.StatusCode)
	}

	// An edit sends the recipe back to UNSUBMITTED.
	expect(t, e.request(t, "PUT", base, token, false, map[string]string{"title": "Roman"}), http.StatusOK, nil)
	expect(t, e.request(t, "GET", base, "", false, nil), http.StatusNotFound, nil)
}

// publishedRecipe stores an accepted recipe by a fresh moderator that
// needs 2 eggs per serving.
func (e *testEnv) publishedRecipe(t *testing.T) (recipe *model.Recipe, egg *model.Ingredient) {
	t.Helper()
	ctx := context.Background()
	_, chefID := e.register(t, "chef")
	if _, err := store.ToggleModerator(ctx, e.db, chefID); err != nil {
		t.Fatal(err)
	}
	chef, _ := store.GetAccount(ctx, e.db, chefID)

	cat, _ := store.CreateCategory(ctx, e.db, "Breakfast", "")
	egg, _ = store.CreateIngredient(ctx, e.db, "Egg", "pcs", "")
	limits := config.DefaultLimits()
	recipe, err := store.CreateRecipe(ctx, e.db, limits, chef, store.RecipeInput{
		Name: "Omelette", Title: "Omelette", Categories: []int64{cat.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	store.AddRecipePhoto(ctx, e.db, limits, chefID, recipe.ID, "x.jpg", 1)
	store.AddRecipeInstruction(ctx, e.db, limits, chefID, recipe.ID, "Whisk", "Whisk eggs.", 1)
	if _, err := store.MergeRecipeIngredient(ctx, e.db, limits, chefID, recipe.ID, egg.ID, decimalOf(t, "2")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SubmitRecipe(ctx, e.db, chefID, recipe.ID, true); err != nil {
		t.Fatal(err)
	}
	return recipe, egg
}

func TestCookInsufficientIngredients(t *testing.T) {
	e := setupTestServer(t)
	ctx := context.Background()
	token, cookID := e.register(t, "cook")
	recipe, egg := e.publishedRecipe(t)

	expect(t, e.request(t, "POST", "/api/inventory", token, false, map[string]any{
		"ingredient_id": egg.ID, "amount": "3",
	}), http.StatusOK, nil)

	path := fmt.Sprintf("/api/recipes/%d/cook", recipe.ID)
	var conflict struct {
		Error   string `json:"error"`
		Details struct {
			Ingredients []int64 `json:"ingredients"`
		} `json:"details"`
	}
	expect(t, e.request(t, "POST", path, token, false, map[string]int{"servings": 2}), http.StatusConflict, &conflict)
	if conflict.Error != "insufficient ingredients" || len(conflict.Details.Ingredients) != 1 || conflict.Details.Ingredients[0] != egg.ID {
		t.Errorf("unexpected conflict %+v", conflict)
	}

	var left []model.LedgerLine
	expect(t, e.request(t, "POST", path, token, false, nil), http.StatusOK, &left)
	if len(left) != 1 || left[0].Amount.String() != "1" {
		t.Errorf("expected 1 egg left, got %+v", left)
	}

	lines, _ := store.ListInventory(ctx, e.db, cookID)
	if len(lines) != 1 {
		t.Errorf("expected one inventory line, got %d", len(lines))
	}
}

func TestBanRemovesAccess(t *testing.T) {
	e := setupTestServer(t)
	token, userID := e.register(t, "spammer")
	modToken, modID := e.register(t, "mod")
	if _, err := store.ToggleModerator(context.Background(), e.db, modID); err != nil {
		t.Fatal(err)
	}

	expect(t, e.request(t, "POST", fmt.Sprintf("/api/accounts/%d/reports", userID), modToken, false, nil), http.StatusCreated, nil)
	expect(t, e.request(t, "POST", fmt.Sprintf("/api/accounts/%d/ban", modID), modToken, false, nil), http.StatusBadRequest, nil)
	expect(t, e.request(t, "POST", fmt.Sprintf("/api/accounts/%d/ban", userID), modToken, false, nil), http.StatusOK, nil)

	expect(t, e.request(t, "GET", "/api/accounts/me", token, false, nil), http.StatusUnauthorized, nil)
	expect(t, e.request(t, "GET", fmt.Sprintf("/api/accounts/%d", userID), "", false, nil), http.StatusNotFound, nil)
	expect(t, e.request(t, "POST", "/api/auth/login", "", false, map[string]string{
		"email": "spammer@example.com", "password": "password123",
	}), http.StatusUnauthorized, nil)
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRatingFlow(t *testing.T) {
	e := setupTestServer(t)
	recipe, _ := e.publishedRecipe(t)
	alice, _ := e.register(t, "alice")
	bob, _ := e.register(t, "bob")
	ratingsPath := fmt.Sprintf("/api/recipes/%d/ratings", recipe.ID)

	expect(t, e.request(t, "POST", ratingsPath, alice, false, map[string]any{"stars": 6}), http.StatusBadRequest, nil)

	var rating model.Rating
	expect(t, e.request(t, "POST", ratingsPath, alice, false, map[string]any{
		"stars": 4, "content": "Fluffy",
	}), http.StatusCreated, &rating)
	expect(t, e.request(t, "POST", ratingsPath, alice, false, map[string]any{"stars": 5}), http.StatusBadRequest, nil)

	likePath := fmt.Sprintf("/api/ratings/%d/like", rating.ID)
	expect(t, e.request(t, "PUT", likePath, alice, false, nil), http.StatusConflict, nil)
	expect(t, e.request(t, "PUT", likePath, bob, false, nil), http.StatusNoContent, nil)

	var page struct {
		Count   int                 `json:"count"`
		Results []model.RatingStats `json:"results"`
	}
	expect(t, e.request(t, "GET", fmt.Sprintf("/api/ratings?recipe=%d&order_by=-like_count", recipe.ID), "", false, nil), http.StatusOK, &page)
	if page.Count != 1 || page.Results[0].LikeCount != 1 {
		t.Fatalf("unexpected ratings page %+v", page)
	}

	ratingPath := fmt.Sprintf("/api/ratings/%d", rating.ID)
	expect(t, e.request(t, "DELETE", ratingPath, bob, false, nil), http.StatusNotFound, nil)
	expect(t, e.request(t, "DELETE", ratingPath, "", false, nil), http.StatusUnauthorized, nil)
	expect(t, e.request(t, "DELETE", ratingPath, alice, false, nil), http.StatusNoContent, nil)
}
