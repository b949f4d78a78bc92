package reconcile

import (
	"context"
	"fmt"

	"questlog/api/internal/engine"
	"questlog/api/internal/store"
)

// ProgressWriter is the slice of the authoritative store a drain needs.
type ProgressWriter interface {
	UpsertQuestProgress(ctx context.Context, row store.QuestProgressRow) error
}

// StoreSubmitter pushes queued updates into the authoritative store,
// translating the store's transient/permanent classification into the
// queue's retry contract.
type StoreSubmitter struct {
	Store  ProgressWriter
	UserID string
	Source string
}

func (s *StoreSubmitter) Submit(ctx context.Context, update Update) error {
	row := store.QuestProgressRow{
		UserID:     s.UserID,
		QuestID:    update.QuestID,
		Status:     string(update.Status),
		SyncSource: s.Source,
	}
	if update.Status == engine.StatusCompleted {
		at := update.EnqueueT
		row.CompletedAt = &at
	}

	err := s.Store.UpsertQuestProgress(ctx, row)
	if err == nil {
		return nil
	}
	if store.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
