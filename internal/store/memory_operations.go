package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/innerhue/moodsync/models"
)

// MemoryOperationRepository keeps the remote log in process memory. It backs
// the server when no database is configured and the in-process loopback
// remote used in tests.
type MemoryOperationRepository struct {
	mu       sync.Mutex
	clock    int64
	accounts map[int64]*memoryAccount
}

type memoryAccount struct {
	ops   []models.Operation
	byID  map[string]int
	heads map[string]int
}

func NewMemoryOperationRepository() *MemoryOperationRepository {
	return &MemoryOperationRepository{accounts: make(map[int64]*memoryAccount)}
}

func (r *MemoryOperationRepository) account(userID int64) *memoryAccount {
	acc, ok := r.accounts[userID]
	if !ok {
		acc = &memoryAccount{byID: make(map[string]int), heads: make(map[string]int)}
		r.accounts[userID] = acc
	}
	return acc
}

// InTx holds the repository lock for the whole of fn. Inserts are staged and
// become visible only if fn succeeds.
func (r *MemoryOperationRepository) InTx(ctx context.Context, userID int64, fn func(tx OperationTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryOperationTx{
		acc:     r.account(userID),
		clock:   r.clock,
		staged:  make(map[string]models.Operation),
		heads:   make(map[string]models.Operation),
		ordered: make([]models.Operation, 0),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for _, op := range tx.ordered {
		tx.acc.byID[op.OpID] = len(tx.acc.ops)
		tx.acc.heads[op.EntryID] = len(tx.acc.ops)
		tx.acc.ops = append(tx.acc.ops, op)
	}
	r.clock = tx.clock
	return nil
}

func (r *MemoryOperationRepository) ListSince(ctx context.Context, userID int64, since int64, limit int) ([]models.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	acc := r.account(userID)
	// ops are appended in clock order
	i := sort.Search(len(acc.ops), func(i int) bool { return acc.ops[i].RemoteClock > since })

	out := make([]models.Operation, 0)
	for ; i < len(acc.ops); i++ {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, acc.ops[i])
	}
	return out, nil
}

func (r *MemoryOperationRepository) MaxClock(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc := r.account(userID)
	if len(acc.ops) == 0 {
		return 0, nil
	}
	return acc.ops[len(acc.ops)-1].RemoteClock, nil
}

type memoryOperationTx struct {
	acc     *memoryAccount
	clock   int64
	staged  map[string]models.Operation
	heads   map[string]models.Operation
	ordered []models.Operation
}

func (t *memoryOperationTx) FindOperation(_ context.Context, opID string) (models.Operation, error) {
	if op, ok := t.staged[opID]; ok {
		return op, nil
	}
	if i, ok := t.acc.byID[opID]; ok {
		return t.acc.ops[i], nil
	}
	return models.Operation{}, ErrOperationNotFound
}

func (t *memoryOperationTx) FindHead(_ context.Context, entryID string) (models.Operation, error) {
	if op, ok := t.heads[entryID]; ok {
		return op, nil
	}
	if i, ok := t.acc.heads[entryID]; ok {
		return t.acc.ops[i], nil
	}
	return models.Operation{}, ErrOperationNotFound
}

func (t *memoryOperationTx) InsertOperation(ctx context.Context, op models.Operation) (models.Operation, error) {
	if _, err := t.FindOperation(ctx, op.OpID); err == nil {
		return models.Operation{}, fmt.Errorf("%w: %s", ErrDuplicateOperation, op.OpID)
	}

	t.clock++
	op.RemoteClock = t.clock
	if op.Payload != nil {
		payload := *op.Payload
		payload.Note = copyNote(payload.Note)
		op.Payload = &payload
	}

	t.staged[op.OpID] = op
	t.heads[op.EntryID] = op
	t.ordered = append(t.ordered, op)
	return op, nil
}
