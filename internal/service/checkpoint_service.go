package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"gamebooks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Checkpoint Service — periodic revisions of the saved document
// ─────────────────────────────────────────────────────────────

const (
	DefaultCheckpointSchedule = "@every 10m"
	DefaultMaxRevisions       = 40
)

// RevisionStore persists checkpoints. storage.Catalog satisfies it.
type RevisionStore interface {
	PushRevision(ctx context.Context, rev domain.Revision, keep int) error
	ListRevisions(ctx context.Context, bookID string) ([]domain.Revision, error)
	GetRevision(ctx context.Context, bookID, revisionID string) (domain.Revision, error)
}

// CheckpointService stores the active book's last saved document as a
// revision on a cron schedule, skipping documents identical to the previous
// checkpoint.
type CheckpointService struct {
	books    *BookService
	store    RevisionStore
	emitter  EventEmitter
	schedule string
	keep     int
	now      func() time.Time

	mu        sync.Mutex
	cronSched *cron.Cron
	last      map[string][]byte
}

// NewCheckpointService creates a CheckpointService. An empty schedule or a
// non-positive keep selects the defaults.
func NewCheckpointService(books *BookService, store RevisionStore, emitter EventEmitter, schedule string, keep int) *CheckpointService {
	if schedule == "" {
		schedule = DefaultCheckpointSchedule
	}
	if keep <= 0 {
		keep = DefaultMaxRevisions
	}
	return &CheckpointService{
		books:    books,
		store:    store,
		emitter:  emitter,
		schedule: schedule,
		keep:     keep,
		now:      time.Now,
		last:     make(map[string][]byte),
	}
}

// Start runs checkpoints on the configured schedule until Stop.
func (s *CheckpointService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		if _, _, err := s.Checkpoint(ctx, "auto"); err != nil && !errors.Is(err, ErrNoActiveBook) {
			log.Printf("checkpoint cron: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid checkpoint schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cronSched = c
	log.Printf("checkpoint cron: scheduled %s, keeping %d", s.schedule, s.keep)
	return nil
}

func (s *CheckpointService) Stop() {
	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Checkpoint stores the active book's last saved document. It reports false
// without storing anything when the document matches the previous revision.
func (s *CheckpointService) Checkpoint(ctx context.Context, label string) (domain.Revision, bool, error) {
	bookID, doc := s.books.SavedSnapshot()
	if bookID == "" || len(doc) == 0 {
		return domain.Revision{}, false, ErrNoActiveBook
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, known := s.last[bookID]
	if !known {
		prev = s.latestDocument(ctx, bookID)
	}
	if prev != nil && bytes.Equal(prev, doc) {
		s.last[bookID] = prev
		return domain.Revision{}, false, nil
	}

	rev := domain.Revision{
		ID:        uuid.NewString(),
		BookID:    bookID,
		Label:     label,
		Document:  doc,
		CreatedAt: s.now(),
	}
	if err := s.store.PushRevision(ctx, rev, s.keep); err != nil {
		return domain.Revision{}, false, fmt.Errorf("checkpoint %s: %w", bookID, err)
	}
	s.last[bookID] = doc
	if s.emitter != nil {
		s.emitter.Emit(ctx, "revision:created", map[string]string{"bookId": bookID, "revisionId": rev.ID})
	}
	return rev, true, nil
}

func (s *CheckpointService) latestDocument(ctx context.Context, bookID string) []byte {
	revs, err := s.store.ListRevisions(ctx, bookID)
	if err != nil || len(revs) == 0 {
		return nil
	}
	rev, err := s.store.GetRevision(ctx, bookID, revs[0].ID)
	if err != nil {
		log.Printf("checkpoint: read revision %s: %v", revs[0].ID, err)
		return nil
	}
	return rev.Document
}

// Revisions lists the active book's checkpoints, newest first.
func (s *CheckpointService) Revisions(ctx context.Context) ([]domain.Revision, error) {
	bookID := s.books.ActiveBookID()
	if bookID == "" {
		return nil, ErrNoActiveBook
	}
	return s.store.ListRevisions(ctx, bookID)
}
