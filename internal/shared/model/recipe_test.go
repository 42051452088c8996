package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecipe_IsTrashed(t *testing.T) {
	r := Recipe{}
	assert.False(t, r.IsTrashed())

	now := time.Now()
	r.DeletedAt = &now
	assert.True(t, r.IsTrashed())
}

func TestRecipe_OwnedBy(t *testing.T) {
	r := Recipe{UserID: "usr-alice"}
	assert.True(t, r.OwnedBy("usr-alice"))
	assert.False(t, r.OwnedBy("usr-bob"))
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "tomato soup", NormalizeTitle("  Tomato SOUP "))
	assert.Equal(t, "", NormalizeTitle("   "))
}

func TestValidDifficulty(t *testing.T) {
	assert.True(t, ValidDifficulty("Easy"))
	assert.True(t, ValidDifficulty("Medium"))
	assert.True(t, ValidDifficulty("Hard"))
	assert.False(t, ValidDifficulty("easy"), "enum is case sensitive")
	assert.False(t, ValidDifficulty("Extreme"))
	assert.False(t, ValidDifficulty(""))
}
