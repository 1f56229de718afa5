package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinRating               = 1
	MaxRating               = 5
	MinReviewContentLength  = 10
	MinCommentContentLength = 5
)

// ValidationError is the closed set of input rejections raised by the review and
// comment stores. Only the types in this file implement it.
type ValidationError interface {
	error
	Field() string
	validation()
}

type RatingOutOfRangeError struct {
	Rating int
}

func (e *RatingOutOfRangeError) Error() string {
	return fmt.Sprintf("rating must be between %d and %d, got %d", MinRating, MaxRating, e.Rating)
}
func (e *RatingOutOfRangeError) Field() string { return "rating" }
func (*RatingOutOfRangeError) validation() {}

type ContentTooShortError struct {
	Name   string
	Min    int
	Length int
}

func (e *ContentTooShortError) Error() string {
	return fmt.Sprintf("%s must be at least %d characters, got %d", e.Name, e.Min, e.Length)
}
func (e *ContentTooShortError) Field() string { return e.Name }
func (*ContentTooShortError) validation() {}

type MissingFieldError struct {
	Name string
}

func (e *MissingFieldError) Error() string { return e.Name + " is required" }
func (e *MissingFieldError) Field() string { return e.Name }
func (*MissingFieldError) validation() {}

type UnsupportedReactionError struct {
	Entity string
	Kind   string
}

func (e *UnsupportedReactionError) Error() string {
	return fmt.Sprintf("reaction %q is not supported on %s", e.Kind, e.Entity)
}
func (e *UnsupportedReactionError) Field() string { return "kind" }
func (*UnsupportedReactionError) validation() {}

type InvalidSortError struct {
	Value string
}

func (e *InvalidSortError) Error() string { return fmt.Sprintf("unknown sort order %q", e.Value) }
func (e *InvalidSortError) Field() string { return "sort" }
func (*InvalidSortError) validation() {}

// ValidateRating checks the 1..5 star range.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return &RatingOutOfRangeError{Rating: rating}
	}
	return nil
}

// ValidateContent checks that trimmed content has at least min characters.
func ValidateContent(name, content string, minLen int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	if n < minLen {
		return &ContentTooShortError{Name: name, Min: minLen, Length: n}
	}
	return nil
}

// RequireField rejects blank identifiers.
func RequireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return &MissingFieldError{Name: name}
	}
	return nil
}
