package utils

import (
	"testing"

	"journals-backend/domain/journal"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct_Journal(t *testing.T) {
	rank := func(v int) *int { return &v }
	longTitle := string(make([]byte, 600))

	tests := []struct {
		name    string
		fields  journal.Fields
		wantErr string
	}{
		{name: "empty record is valid", fields: journal.Fields{}},
		{name: "numeric metric", fields: journal.Fields{TotalDocs: float64(12)}},
		{name: "locale string metric", fields: journal.Fields{TotalRefs: "1.234,5"}},
		{name: "object metric", fields: journal.Fields{TotalCitations: map[string]any{"2023": float64(3)}}},
		{name: "rank below one", fields: journal.Fields{Rank: rank(0)}, wantErr: "Rank must be greater than or equal to 1"},
		{name: "negative h-index", fields: journal.Fields{HIndex: rank(-1)}, wantErr: "H_index must be greater than or equal to 0"},
		{name: "title too long", fields: journal.Fields{Title: &longTitle}, wantErr: "Title must be at most 512 characters"},
		{name: "array metric", fields: journal.Fields{Ref: []any{float64(1)}}, wantErr: "Ref must be a number, a string or an object"},
		{name: "boolean metric", fields: journal.Fields{CitableDocs: true}, wantErr: "Citable_Docs must be a number, a string or an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.fields)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidateStruct_JoinsMessages(t *testing.T) {
	negative := -1
	err := ValidateStruct(journal.Fields{Overton: &negative, SDG: &negative})

	assert.EqualError(t, err,
		"Overton must be greater than or equal to 0; SDG must be greater than or equal to 0")
}
