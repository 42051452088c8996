package recipe

import (
	"encoding/json"
	"reflect"
	"testing"

	"recipe-admin/internal/shared/model"
)

func TestFlexibleDecoding(t *testing.T) {
	raw := `{
		"title": "Soup",
		"rating": "4.5",
		"cookingTime": 30,
		"prepTime": "abc",
		"servings": null,
		"ingredients": ["water", null, 3, "", "  salt  "],
		"tags": ["Dinner", "QUICK", ""]
	}`
	var req recipeRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if float64(req.Rating) != 4.5 {
		t.Errorf("rating = %v, want 4.5", req.Rating)
	}
	if int(req.CookingTime) != 30 {
		t.Errorf("cookingTime = %d, want 30", req.CookingTime)
	}
	if int(req.PrepTime) != 0 {
		t.Errorf("prepTime = %d, want 0 for unparseable input", req.PrepTime)
	}
	if int(req.Servings) != 0 {
		t.Errorf("servings = %d, want 0 for null", req.Servings)
	}
	if want := []string{"water", "3", "", "  salt  "}; !reflect.DeepEqual([]string(req.Ingredients), want) {
		t.Errorf("ingredients = %v, want %v", req.Ingredients, want)
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want model.Difficulty
	}{
		{"Easy", model.DifficultyEasy},
		{"easy", model.DifficultyEasy},
		{" HARD ", model.DifficultyHard},
		{"Medium", model.DifficultyMedium},
		{"extreme", model.DifficultyMedium},
		{"", model.DifficultyMedium},
	}
	for _, tt := range tests {
		if got := normalizeDifficulty(tt.in); got != tt.want {
			t.Errorf("normalizeDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyRequest(t *testing.T) {
	req := &recipeRequest{
		Title:       "  Tomato Soup  ",
		Description: " A classic. ",
		Difficulty:  "impossible",
		Rating:      -2,
		CookingTime: 45,
		Ingredients: flexList{" tomato ", "", "water"},
		Tags:        flexList{" Dinner ", "QUICK", ""},
	}
	var rec model.Recipe
	applyRequest(&rec, req)

	if rec.Title != "Tomato Soup" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.TitleLC != "tomato soup" {
		t.Errorf("TitleLC = %q", rec.TitleLC)
	}
	if rec.Description != "A classic." {
		t.Errorf("Description = %q", rec.Description)
	}
	if rec.Category != model.DefaultCategory {
		t.Errorf("Category = %q, want default", rec.Category)
	}
	if rec.Difficulty != model.DifficultyMedium {
		t.Errorf("Difficulty = %q, want Medium", rec.Difficulty)
	}
	if rec.Rating != 0 {
		t.Errorf("Rating = %v, want 0 for negative input", rec.Rating)
	}
	if rec.CookingTime != 45 {
		t.Errorf("CookingTime = %d", rec.CookingTime)
	}
	if want := []string{"tomato", "water"}; !reflect.DeepEqual(rec.Ingredients, want) {
		t.Errorf("Ingredients = %v, want %v", rec.Ingredients, want)
	}
	if want := []string{"dinner", "quick"}; !reflect.DeepEqual(rec.Tags, want) {
		t.Errorf("Tags = %v, want %v", rec.Tags, want)
	}
}
