// Package catalog holds the movie model returned by catalog searches and lookups.
package catalog

import "strings"

// Movie is a catalog entry. It is never mutated after it is decoded.
type Movie struct {
	ID        string  `json:"imdbID" yaml:"id"`
	Title     string  `json:"Title" yaml:"title"`
	Year      string  `json:"Year" yaml:"year"`
	PosterURL *string `json:"Poster,omitempty" yaml:"poster_url,omitempty"`
	Rating    *string `json:"imdbRating,omitempty" yaml:"rating,omitempty"`

	// Only title and id lookups fill these.
	Plot     string `json:"Plot,omitempty" yaml:"plot,omitempty"`
	Genre    string `json:"Genre,omitempty" yaml:"genre,omitempty"`
	Runtime  string `json:"Runtime,omitempty" yaml:"runtime,omitempty"`
	Director string `json:"Director,omitempty" yaml:"director,omitempty"`
	Actors   string `json:"Actors,omitempty" yaml:"actors,omitempty"`
}

// NotAvailable is the catalog's placeholder for a missing value.
const NotAvailable = "N/A"

// Normalize replaces placeholder values with nil and trims whitespace.
func (m Movie) Normalize() Movie {
	m.ID = strings.TrimSpace(m.ID)
	m.Title = strings.TrimSpace(m.Title)
	m.Year = strings.TrimSpace(m.Year)
	m.PosterURL = optional(m.PosterURL)
	m.Rating = optional(m.Rating)
	return m
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || v == NotAvailable {
		return nil
	}
	return &v
}
