package watchlist

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Patch changes the mutable fields of an item. Nil fields are left untouched.
type Patch struct {
	Watched *bool   `json:"watched,omitempty"`
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes   *string `json:"notes,omitempty"`
	// ClearRating removes the rating. It is set when an item goes back to the to-watch tab.
	ClearRating bool `json:"-"`
}

// Watch marks an item as watched, optionally with a rating.
func Watch(rating *int) Patch {
	watched := true
	return Patch{Watched: &watched, Rating: rating}
}

// Rate sets the rating of a watched item.
func Rate(rating int) Patch {
	return Patch{Rating: &rating}
}

// SetNotes replaces the notes of an item.
func SetNotes(notes string) Patch {
	return Patch{Notes: &notes}
}

func (p Patch) empty() bool {
	return p.Watched == nil && p.Rating == nil && p.Notes == nil && !p.ClearRating
}

// normalize validates the patch against the current item and derives implied changes.
func (p Patch) normalize(current Item) (Patch, error) {
	if p.empty() {
		return p, fmt.Errorf("%w: nothing to change", ErrInvalidPatch)
	}
	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	watched := current.Watched
	if p.Watched != nil {
		watched = *p.Watched
	}
	if p.Rating != nil && !watched {
		return p, fmt.Errorf("%w: a rating needs the movie to be watched", ErrInvalidPatch)
	}
	if !watched && current.Rating != nil {
		p.ClearRating = true
	}
	return p, nil
}

func (p Patch) apply(item Item) Item {
	if p.Watched != nil {
		item.Watched = *p.Watched
	}
	if p.ClearRating {
		item.Rating = nil
	}
	if p.Rating != nil {
		rating := *p.Rating
		item.Rating = &rating
	}
	if p.Notes != nil {
		notes := *p.Notes
		item.Notes = &notes
	}
	return item
}
