package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/validators"
	"github.com/innerhue/moodsync/models"
)

const defaultPullLimit = 500

type remoteSyncService struct {
	repository store.OperationRepository
	validator  validators.Validator
	pullLimit  int
	events     *eventHub

	logger *logger.Logger
}

// NewRemoteSyncService returns the server side of the sync protocol over
// repository. pullLimit caps a single pull page.
func NewRemoteSyncService(repository store.OperationRepository, pullLimit int, logger *logger.Logger) RemoteSyncService {
	if pullLimit <= 0 {
		pullLimit = defaultPullLimit
	}
	return &remoteSyncService{
		repository: repository,
		validator:  validators.NewOperationValidator(),
		pullLimit:  pullLimit,
		events:     newEventHub(),
		logger:     logger,
	}
}

// Push stores a batch in one transaction of the account log.
//
// An operation already stored is accepted again. An operation whose entry
// head moved past its BaseVersion is refused with the head attached, and so
// is every later operation of the batch for that entry.
func (s *remoteSyncService) Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResult, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Str("func", "remoteSyncService.Push").Str("device_id", req.DeviceID).Msg("invalid push request")
		return models.PushResult{}, err
	}

	var (
		result   models.PushResult
		newClock int64
	)
	err := s.repository.InTx(ctx, userID, func(tx store.OperationTx) error {
		result = models.PushResult{Accepted: []string{}, Conflicts: []models.PushConflict{}}
		newClock = 0
		contested := make(map[string]models.Operation)

		for _, op := range req.Operations {
			if _, err := tx.FindOperation(ctx, op.OpID); err == nil {
				result.Accepted = append(result.Accepted, op.OpID)
				continue
			} else if !errors.Is(err, store.ErrOperationNotFound) {
				return err
			}

			if head, ok := contested[op.EntryID]; ok {
				result.Conflicts = append(result.Conflicts, newPushConflict(op, head))
				continue
			}

			head, err := tx.FindHead(ctx, op.EntryID)
			switch {
			case err == nil && head.Version > op.BaseVersion:
				contested[op.EntryID] = head
				result.Conflicts = append(result.Conflicts, newPushConflict(op, head))
				continue
			case err != nil && !errors.Is(err, store.ErrOperationNotFound):
				return err
			}

			stored, err := tx.InsertOperation(ctx, op)
			if errors.Is(err, store.ErrDuplicateOperation) {
				result.Accepted = append(result.Accepted, op.OpID)
				continue
			}
			if err != nil {
				return fmt.Errorf("store operation %s: %w", op.OpID, err)
			}

			result.Accepted = append(result.Accepted, op.OpID)
			newClock = max(newClock, stored.RemoteClock)
		}
		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "remoteSyncService.Push").
			Int64("user_id", userID).
			Int("batch_size", len(req.Operations)).
			Msg("push was not stored")
		return models.PushResult{}, err
	}

	if newClock > 0 {
		s.events.publish(userID, models.RemoteEvent{Type: models.RemoteEventOperations, Clock: newClock})
	}

	log.Info().
		Str("func", "remoteSyncService.Push").
		Int64("user_id", userID).
		Str("device_id", req.DeviceID).
		Int("accepted", len(result.Accepted)).
		Int("conflicts", len(result.Conflicts)).
		Msg("push stored")
	return result, nil
}

func newPushConflict(op, head models.Operation) models.PushConflict {
	remote := head
	return models.PushConflict{
		OpID:          op.OpID,
		EntryID:       op.EntryID,
		RemoteVersion: head.Version,
		Remote:        &remote,
	}
}

// Pull reads one page after since. One extra row is fetched to tell whether
// another page follows.
func (s *remoteSyncService) Pull(ctx context.Context, userID int64, since int64, limit int) (models.PullResult, error) {
	if since < 0 {
		return models.PullResult{}, fmt.Errorf("%w: negative since clock", ErrInvalidDataProvided)
	}
	if limit <= 0 || limit > s.pullLimit {
		limit = s.pullLimit
	}

	ops, err := s.repository.ListSince(ctx, userID, since, limit+1)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "remoteSyncService.Pull").
			Int64("user_id", userID).
			Int64("since", since).
			Msg("pull failed")
		return models.PullResult{}, err
	}

	result := models.PullResult{Operations: ops, NextClock: since}
	if len(ops) > limit {
		result.Operations = ops[:limit]
		result.HasMore = true
	}
	if n := len(result.Operations); n > 0 {
		result.NextClock = result.Operations[n-1].RemoteClock
	}
	if result.Operations == nil {
		result.Operations = []models.Operation{}
	}

	return result, nil
}

func (s *remoteSyncService) Subscribe(userID int64, buffer int) (<-chan models.RemoteEvent, func()) {
	return s.events.subscribe(userID, buffer)
}

// eventHub keeps one broadcaster per account.
type eventHub struct {
	mu       sync.Mutex
	accounts map[int64]*broadcaster[models.RemoteEvent]
}

func newEventHub() *eventHub {
	return &eventHub{accounts: make(map[int64]*broadcaster[models.RemoteEvent])}
}

func (h *eventHub) subscribe(userID int64, buffer int) (<-chan models.RemoteEvent, func()) {
	h.mu.Lock()
	b, ok := h.accounts[userID]
	if !ok {
		b = newBroadcaster[models.RemoteEvent]()
		h.accounts[userID] = b
	}
	events, cancel := b.subscribe(buffer)
	h.mu.Unlock()

	return events, func() {
		cancel()
		h.mu.Lock()
		if b.count() == 0 && h.accounts[userID] == b {
			delete(h.accounts, userID)
		}
		h.mu.Unlock()
	}
}

func (h *eventHub) publish(userID int64, event models.RemoteEvent) {
	h.mu.Lock()
	b, ok := h.accounts[userID]
	h.mu.Unlock()

	if ok {
		// a subscriber that misses an event still pulls on the next one
		b.publish(event)
	}
}
