package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

func TestValidateEventAccepts(t *testing.T) {
	assert.NoError(t, ValidateEvent(ingestion.IngestEvent{ID: 0, Text: "", Status: index.StatusActual}))
	assert.NoError(t, ValidateEvent(ingestion.IngestEvent{Op: ingestion.OpAdd, ID: 9, Text: "cat", Status: index.StatusRemoved}))
	assert.NoError(t, ValidateEvent(ingestion.IngestEvent{Op: ingestion.OpRemove, ID: 9, Text: "\x01ignored"}))
}

func TestValidateEventRejects(t *testing.T) {
	err := ValidateEvent(ingestion.IngestEvent{ID: -1, Text: "bad\x03", Status: index.Status(9)})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, "id: must not be negative; status: unknown status 9; text: must not contain control characters", err.Error())

	err = ValidateEvent(ingestion.IngestEvent{Op: "upsert", ID: 1})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "op")

	err = ValidateEvent(ingestion.IngestEvent{ID: 1, Text: strings.Repeat("a", maxTextLength+1)})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "text")
}
