package services

import (
	"context"
	"fmt"
	"strings"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	"journals-backend/pkg/common"
	apperrors "journals-backend/pkg/errors"
	"journals-backend/pkg/utils"

	"go.uber.org/zap"
)

// JournalService validates requests and orchestrates store calls for the
// journal endpoints.
type JournalService struct {
	store  ports.JournalStore
	logger *zap.Logger
}

// NewJournalService creates a new journal service
func NewJournalService(store ports.JournalStore, logger *zap.Logger) *JournalService {
	return &JournalService{
		store:  store,
		logger: logger,
	}
}

// List returns every journal, optionally projected onto fields.
func (s *JournalService) List(ctx context.Context, fields []string) ([]journal.Journal, error) {
	projection, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	journals, err := s.store.List(ctx, ports.ListOptions{Fields: projection})
	if err != nil {
		return nil, s.storeFailure(ctx, "list", err)
	}
	if journals == nil {
		journals = []journal.Journal{}
	}

	common.LoggerFrom(ctx, s.logger).Debug("Listed journals",
		zap.Int("count", len(journals)),
		zap.Strings("fields", projection),
	)
	return journals, nil
}

// Create validates and stores a new journal. The identifier is always
// assigned by the store.
func (s *JournalService) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	if err := utils.ValidateStruct(fields); err != nil {
		return journal.Journal{}, apperrors.NewValidation(err.Error())
	}

	created, err := s.store.Create(ctx, fields)
	if err != nil {
		return journal.Journal{}, s.storeFailure(ctx, "create", err)
	}

	common.LoggerFrom(ctx, s.logger).Info("Journal created", zap.String("id", created.ID))
	return created, nil
}

// Update merges patch into the journal identified by id
func (s *JournalService) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	if strings.TrimSpace(id) == "" {
		return journal.Journal{}, apperrors.NewNotFound("Journal not found")
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return journal.Journal{}, apperrors.NewValidation(err.Error())
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return journal.Journal{}, s.storeFailure(ctx, "update", err)
	}

	common.LoggerFrom(ctx, s.logger).Info("Journal updated", zap.String("id", id))
	return updated, nil
}

// Delete removes the journal identified by id
func (s *JournalService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewNotFound("Journal not found")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeFailure(ctx, "delete", err)
	}

	common.LoggerFrom(ctx, s.logger).Info("Journal deleted", zap.String("id", id))
	return nil
}

// storeFailure passes classified errors through and wraps anything else as
// a store error.
func (s *JournalService) storeFailure(ctx context.Context, operation string, err error) error {
	if apperrors.TypeOf(err) != "" {
		return err
	}
	common.LoggerFrom(ctx, s.logger).Error("Unclassified store error",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return apperrors.NewStore(fmt.Sprintf("failed to %s journal", operation), err)
}

// normalizeFields trims, dedupes and checks a projection. The identifier is
// always returned, so naming it is accepted and dropped; a projection naming
// nothing else returns full records.
func normalizeFields(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || f == journal.IDField {
			continue
		}
		if !journal.IsField(f) {
			return nil, apperrors.NewValidation(fmt.Sprintf("unknown field: %s", f))
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}
