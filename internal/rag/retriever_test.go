package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleJoinsChunksAndDedupesSources(t *testing.T) {
	res := assemble([]Chunk{
		{Content: "VNRVJIET was established in 1995.", Source: "about.md"},
		{Content: "The campus is in Bachupally, Hyderabad.", Source: "campus.md"},
		{Content: "It is autonomous under JNTUH.", Source: "about.md"},
	})
	assert.Contains(t, res.Context, "established in 1995")
	assert.Contains(t, res.Context, "\n\n---\n\n")
	assert.Equal(t, []string{"about.md", "campus.md"}, res.Sources)
}

func TestAssembleEmpty(t *testing.T) {
	res := assemble(nil)
	assert.Empty(t, res.Context)
	assert.Empty(t, res.Sources)
}
