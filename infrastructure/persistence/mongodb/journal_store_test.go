package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	apperrors "journals-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

type recordingReporter struct {
	causes []error
}

func (r *recordingReporter) Invalidate(cause error) {
	r.causes = append(r.causes, cause)
}

func newTestStore() *JournalStore {
	return NewJournalStore(Config{
		URI:        "mongodb://localhost:27017",
		Database:   "research",
		Collection: "journal",
	}, zap.NewNop())
}

func TestSetUpdate_OnlySuppliedFields(t *testing.T) {
	update, err := setUpdate(journal.Patch{Rank: ptr(5), HIndex: ptr(0)})
	require.NoError(t, err)
	require.Len(t, update, 1)
	assert.Equal(t, "$set", update[0].Key)

	raw, ok := update[0].Value.(bson.Raw)
	require.True(t, ok)

	elems, err := raw.Elements()
	require.NoError(t, err)
	keys := make([]string, 0, len(elems))
	for _, e := range elems {
		keys = append(keys, e.Key())
	}
	assert.ElementsMatch(t, []string{"Rank", "H_index"}, keys)
	assert.Equal(t, int32(0), raw.Lookup("H_index").Int32())
}

func TestDocument_RoundTrip(t *testing.T) {
	in := document{Fields: journal.Fields{
		Title:     ptr("Nature"),
		Rank:      ptr(1),
		TotalDocs: map[string]any{"2023": int32(10)},
	}}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)
	_, hasID := bson.Raw(raw).LookupErr("_id")
	assert.Error(t, hasID, "zero ObjectID must be left for the driver to generate")

	var out document
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.Equal(t, "Nature", *out.Title)
	assert.Equal(t, 1, *out.Rank)
	assert.Nil(t, out.Country)
}

func TestProjection(t *testing.T) {
	assert.Nil(t, projection(nil))
	assert.Equal(t,
		bson.D{{Key: "Title", Value: 1}, {Key: "Rank", Value: 1}},
		projection([]string{"Title", "Rank"}),
	)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "not-an-object-id", journal.Patch{Rank: ptr(1)})
	assert.True(t, apperrors.IsNotFound(err))

	assert.True(t, apperrors.IsNotFound(store.Delete(ctx, "not-an-object-id")))
}

func TestOperationsBeforeDialReportConnectionError(t *testing.T) {
	store := newTestStore()

	_, err := store.List(context.Background(), ports.ListOptions{})

	assert.True(t, apperrors.IsConnection(err))
}

func TestDial_InvalidURI(t *testing.T) {
	store := NewJournalStore(Config{URI: "postgres://nope", Database: "d", Collection: "c"}, zap.NewNop())

	err := store.Dial(context.Background())

	require.Error(t, err)
	assert.Nil(t, store.client)
}

func TestStoreError_ReportsTransportFailures(t *testing.T) {
	store := newTestStore()
	reporter := &recordingReporter{}
	store.SetReporter(reporter)

	err := store.storeError("failed to list journals", fmt.Errorf("read: %w", mongo.ErrClientDisconnected))
	assert.True(t, apperrors.IsStore(err))
	require.Len(t, reporter.causes, 1)

	err = store.storeError("failed to list journals", errors.New("bad query"))
	assert.True(t, apperrors.IsStore(err))
	assert.Len(t, reporter.causes, 1)
}

func TestStoreError_DocumentValidation(t *testing.T) {
	store := newTestStore()
	we := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: documentValidationFailure, Message: "Document failed validation"}},
	}

	err := store.storeError("failed to create journal", we)

	assert.True(t, apperrors.IsValidation(err))
}
