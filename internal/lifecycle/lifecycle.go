// Package lifecycle defines the recipe moderation state machine:
//
//	UNSUBMITTED --submit--> SUBMITTED --accept--> ACCEPTED
//	                |                  \--deny---> DENIED
//	                \--submit (moderator)--------> ACCEPTED
//
// Any content edit resets a recipe to UNSUBMITTED from every state.
package lifecycle

import (
	"fmt"
	"unicode/utf8"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// MaxDenyMessage is the longest accepted denial message, in characters.
const MaxDenyMessage = 300

// Missing content errors, one per kind of required content.
var (
	ErrNoCategories   = &model.PreconditionError{Reason: "no categories"}
	ErrNoPhotos       = &model.PreconditionError{Reason: "no photos"}
	ErrNoInstructions = &model.PreconditionError{Reason: "no instructions"}
	ErrNoIngredients  = &model.PreconditionError{Reason: "no ingredients"}
)

// Content counts the recipe content a submission requires.
type Content struct {
	Categories   int
	Photos       int
	Instructions int
	Ingredients  int
}

func (c Content) check() error {
	switch {
	case c.Categories == 0:
		return ErrNoCategories
	case c.Photos == 0:
		return ErrNoPhotos
	case c.Instructions == 0:
		return ErrNoInstructions
	case c.Ingredients == 0:
		return ErrNoIngredients
	}
	return nil
}

func wrongState(action string, status model.RecipeStatus) error {
	return &model.PreconditionError{
		Reason:  fmt.Sprintf("cannot %s a recipe in status %s", action, status),
		Details: map[string]any{"status": status},
	}
}

// Submit moves an unsubmitted recipe with complete content to SUBMITTED, or
// straight to ACCEPTED when the owner is a moderator.
func Submit(status model.RecipeStatus, content Content, moderator bool) (model.RecipeStatus, error) {
	if status != model.StatusUnsubmitted {
		return status, wrongState("submit", status)
	}
	if err := content.check(); err != nil {
		return status, err
	}
	if moderator {
		return model.StatusAccepted, nil
	}
	return model.StatusSubmitted, nil
}

// Accept publishes a submitted recipe.
func Accept(status model.RecipeStatus) (model.RecipeStatus, error) {
	if status != model.StatusSubmitted {
		return status, wrongState("accept", status)
	}
	return model.StatusAccepted, nil
}

// Deny rejects a submitted recipe with a message for its owner.
func Deny(status model.RecipeStatus, message string) (model.RecipeStatus, error) {
	if message == "" {
		return status, model.Invalid("deny_message", "is required")
	}
	if utf8.RuneCountInString(message) > MaxDenyMessage {
		return status, model.Invalid("deny_message", fmt.Sprintf("must be at most %d characters", MaxDenyMessage))
	}
	if status != model.StatusSubmitted {
		return status, wrongState("deny", status)
	}
	return model.StatusDenied, nil
}

// Reset is the state after any content edit. The denial message is cleared
// along with it.
func Reset() model.RecipeStatus {
	return model.StatusUnsubmitted
}
