// Package workers provides the background jobs of the device client.
//
// Every job implements [Worker]; [Workers] runs a set of them until the
// context is done. The jobs turn outside events into sync triggers: a
// periodic timer, the server's change feed and a journal retention sweep.
package workers

import (
	"context"

	"github.com/innerhue/moodsync/internal/service"
)

// Worker is the interface that must be implemented by any background worker.
//
// Run blocks until ctx is done or the worker cannot continue. A worker
// stopped by its context returns nil.
type Worker interface {
	Run(ctx context.Context) error
}

// Trigger is the part of the sync engine the workers drive.
type Trigger interface {
	Trigger(reason service.TriggerReason)
}

// Pruner removes acknowledged journal records past the retention window.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}
