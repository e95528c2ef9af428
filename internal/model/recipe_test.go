package model

import "testing"

func TestRecipeStatusValid(t *testing.T) {
	for _, s := range []RecipeStatus{StatusUnsubmitted, StatusSubmitted, StatusAccepted, StatusDenied} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []RecipeStatus{"", "accepted", "PUBLISHED"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
