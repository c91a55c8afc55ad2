package service

import (
	"github.com/innerhue/moodsync/models"
)

// Resolution reasons reported in [models.Resolution].
const (
	ReasonLaterWallClock  = "later-wall-clock"
	ReasonLogicalClockTie = "logical-clock-tiebreak"
	ReasonDeleteLater     = "delete-later"
	ReasonUpdateNotOlder  = "update-not-older-than-delete"
)

type conflictResolver struct {
}

// NewConflictResolver returns the last-writer-wins resolver.
//
// Between an update and a delete the delete wins only when its wall clock
// is strictly later. Otherwise the later wall clock wins and an exact tie
// is broken by (LogicalClock, OriginDeviceID), the greater winning. The
// outcome depends only on the two operations, so every device picks the
// same survivor.
func NewConflictResolver() ConflictResolver {
	return &conflictResolver{}
}

func (r *conflictResolver) Resolve(local, remote models.Operation) models.Resolution {
	if local.IsDelete() != remote.IsDelete() {
		del, upd, delSide, updSide := local, remote, models.SideLocal, models.SideRemote
		if remote.IsDelete() {
			del, upd, delSide, updSide = remote, local, models.SideRemote, models.SideLocal
		}
		if del.WallClock.After(upd.WallClock) {
			return models.Resolution{Winner: delSide, Reason: ReasonDeleteLater}
		}
		return models.Resolution{Winner: updSide, Reason: ReasonUpdateNotOlder}
	}

	switch {
	case local.WallClock.After(remote.WallClock):
		return models.Resolution{Winner: models.SideLocal, Reason: ReasonLaterWallClock}
	case remote.WallClock.After(local.WallClock):
		return models.Resolution{Winner: models.SideRemote, Reason: ReasonLaterWallClock}
	}

	if tieBreak(local, remote) > 0 {
		return models.Resolution{Winner: models.SideLocal, Reason: ReasonLogicalClockTie}
	}
	return models.Resolution{Winner: models.SideRemote, Reason: ReasonLogicalClockTie}
}

// tieBreak compares (LogicalClock, OriginDeviceID) and returns -1, 0 or +1.
// Two operations of the same position are the same operation, in which case
// the remote copy is kept.
func tieBreak(a, b models.Operation) int {
	switch {
	case a.LogicalClock > b.LogicalClock:
		return 1
	case a.LogicalClock < b.LogicalClock:
		return -1
	case a.OriginDeviceID > b.OriginDeviceID:
		return 1
	case a.OriginDeviceID < b.OriginDeviceID:
		return -1
	}
	return 0
}
