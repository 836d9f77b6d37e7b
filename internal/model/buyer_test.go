package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuyer_Clone(t *testing.T) {
	budget := int64(100000)
	orig := Buyer{
		ID:        "b1",
		Name:      "Jane Doe",
		Markets:   []string{"Austin", "Dallas"},
		Tags:      []string{"cash"},
		MinBudget: &budget,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	c := orig.Clone()
	assert.Equal(t, orig, c)

	c.Markets[0] = "Houston"
	c.Tags = append(c.Tags, "vip")
	*c.MinBudget = 1

	assert.Equal(t, "Austin", orig.Markets[0])
	assert.Equal(t, []string{"cash"}, orig.Tags)
	assert.Equal(t, int64(100000), *orig.MinBudget)
}

func TestBuyer_CloneNil(t *testing.T) {
	c := Buyer{ID: "b2"}.Clone()
	assert.Nil(t, c.Markets)
	assert.Nil(t, c.MinBudget)
}
