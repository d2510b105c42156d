package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentString(t *testing.T) {
	d := Document{ID: 1, Relevance: 0.8664339756999316, Rating: 5}
	assert.Equal(t, "{ document_id = 1, relevance = 0.866434, rating = 5 }", d.String())
}
