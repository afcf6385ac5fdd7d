package services

import (
	"context"
	"errors"
	"testing"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	"journals-backend/infrastructure/persistence/memory"
	apperrors "journals-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockJournalStore struct {
	mock.Mock
}

func (m *mockJournalStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	args := m.Called(ctx, opts)
	journals, _ := args.Get(0).([]journal.Journal)
	return journals, args.Error(1)
}

func (m *mockJournalStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).(journal.Journal), args.Error(1)
}

func (m *mockJournalStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(journal.Journal), args.Error(1)
}

func (m *mockJournalStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func ptr[T any](v T) *T { return &v }

func newService() (*JournalService, *memory.JournalStore) {
	store := memory.NewJournalStore()
	return NewJournalService(store, zap.NewNop()), store
}

func TestJournalService_CreateThenList(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _ := newService()

	// Act
	created, err := svc.Create(ctx, journal.Fields{Title: ptr("Nature"), Rank: ptr(1)})
	require.NoError(t, err)
	journals, err := svc.List(ctx, nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, journals, 1)
	assert.Equal(t, created.ID, journals[0].ID)
	assert.NotEmpty(t, created.ID)
}

func TestJournalService_ListEmptyIsNotNil(t *testing.T) {
	ctx := context.Background()
	store := new(mockJournalStore)
	store.On("List", ctx, ports.ListOptions{}).Return(nil, nil)
	svc := NewJournalService(store, zap.NewNop())

	journals, err := svc.List(ctx, nil)

	require.NoError(t, err)
	assert.NotNil(t, journals)
	assert.Empty(t, journals)
}

func TestJournalService_ListFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    []string
		wantErr bool
	}{
		{name: "none", fields: nil, want: nil},
		{name: "trimmed and deduped", fields: []string{" Title", "Rank", "Title", ""}, want: []string{"Title", "Rank"}},
		{name: "identifier dropped", fields: []string{"_id", "Country"}, want: []string{"Country"}},
		{name: "unknown field", fields: []string{"Title", "password"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := new(mockJournalStore)
			if !tt.wantErr {
				store.On("List", ctx, ports.ListOptions{Fields: tt.want}).Return([]journal.Journal{}, nil)
			}
			svc := NewJournalService(store, zap.NewNop())

			_, err := svc.List(ctx, tt.fields)

			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			store.AssertExpectations(t)
		})
	}
}

func TestJournalService_CreateRejectsInvalid(t *testing.T) {
	svc, store := newService()

	_, err := svc.Create(context.Background(), journal.Fields{Rank: ptr(0)})

	assert.True(t, apperrors.IsValidation(err))
	journals, listErr := store.List(context.Background(), ports.ListOptions{})
	require.NoError(t, listErr)
	assert.Empty(t, journals)
}

func TestJournalService_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	created, err := svc.Create(ctx, journal.Fields{Title: ptr("X"), Country: ptr("US")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, journal.Patch{Rank: ptr(5)})

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 5, *updated.Rank)
	assert.Equal(t, "X", *updated.Title)
	assert.Equal(t, "US", *updated.Country)
}

func TestJournalService_UpdateRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	store := new(mockJournalStore)
	svc := NewJournalService(store, zap.NewNop())

	_, err := svc.Update(ctx, "abc", journal.Patch{HIndex: ptr(-4)})

	assert.True(t, apperrors.IsValidation(err))
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestJournalService_DeleteThenNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	created, err := svc.Create(ctx, journal.Fields{Title: ptr("X")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Update(ctx, created.ID, journal.Patch{Rank: ptr(1)})
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, created.ID)))
}

func TestJournalService_BlankIDIsNotFound(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Update(context.Background(), " ", journal.Patch{})
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(svc.Delete(context.Background(), "")))
}

func TestJournalService_WrapsUnclassifiedErrors(t *testing.T) {
	ctx := context.Background()
	store := new(mockJournalStore)
	store.On("Delete", ctx, "abc").Return(errors.New("socket closed"))
	store.On("List", ctx, ports.ListOptions{}).
		Return(nil, apperrors.NewConnection("record store not connected", errors.New("no client")))
	svc := NewJournalService(store, zap.NewNop())

	err := svc.Delete(ctx, "abc")
	assert.True(t, apperrors.IsStore(err))

	_, err = svc.List(ctx, nil)
	assert.True(t, apperrors.IsConnection(err))
}
