package service

import (
	"errors"
	"strings"
	"testing"

	"mediashelf/internal/model"
)

// =============================================================================
// LOG VALIDATION TESTS
// =============================================================================

func TestValidateLogRequest_Rating(t *testing.T) {
	valid := []float64{0.5, 1, 2.5, 3, 4.5, 5}
	for _, r := range valid {
		req := model.CreateLogRequest{Visibility: model.VisibilityPublic, Rating: &r}
		if err := validateLogRequest(&req); err != nil {
			t.Errorf("rating %v should be valid, got: %v", r, err)
		}
	}

	invalid := []float64{0, 0.25, 2.7, 5.5, -1}
	for _, r := range invalid {
		req := model.CreateLogRequest{Visibility: model.VisibilityPublic, Rating: &r}
		if err := validateLogRequest(&req); !errors.Is(err, model.ErrInvalidRating) {
			t.Errorf("rating %v should be rejected, got: %v", r, err)
		}
	}

	// Nil rating is allowed (log without a score)
	req := model.CreateLogRequest{Visibility: model.VisibilityPublic}
	if err := validateLogRequest(&req); err != nil {
		t.Errorf("nil rating should be valid, got: %v", err)
	}
}

func TestValidateLogRequest_Visibility(t *testing.T) {
	req := model.CreateLogRequest{Visibility: "everyone"}
	if err := validateLogRequest(&req); !errors.Is(err, model.ErrInvalidVisibility) {
		t.Errorf("unknown visibility should be rejected, got: %v", err)
	}
}

func TestValidateLogRequest_BodyLength(t *testing.T) {
	long := strings.Repeat("a", model.MaxLogBodyLength+1)
	req := model.CreateLogRequest{Visibility: model.VisibilityPublic, Body: &long}
	if err := validateLogRequest(&req); !errors.Is(err, model.ErrBodyTooLong) {
		t.Errorf("oversized body should be rejected, got: %v", err)
	}

	exact := strings.Repeat("a", model.MaxLogBodyLength)
	req = model.CreateLogRequest{Visibility: model.VisibilityPublic, Body: &exact}
	if err := validateLogRequest(&req); err != nil {
		t.Errorf("body at the limit should be valid, got: %v", err)
	}
}

func TestNormalizeBody(t *testing.T) {
	if normalizeBody(nil) != nil {
		t.Error("nil body should stay nil")
	}

	blank := "   \n\t "
	if normalizeBody(&blank) != nil {
		t.Error("whitespace-only body should normalize to nil")
	}

	real := " actual review "
	if got := normalizeBody(&real); got == nil || *got != real {
		t.Errorf("non-blank body should pass through, got %v", got)
	}
}
