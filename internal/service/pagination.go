package service

import (
	"time"

	"notification-feed/internal/domain/entity"
	"notification-feed/pkg/cursor"
)

// localBatch is what the local reader produced for one request
type localBatch struct {
	records  []*entity.NotificationRecord
	rawCount int
	window   int
}

// filledWindow reports whether the store returned a full over-fetch window,
// meaning older rows probably exist past it
func (b localBatch) filledWindow() bool {
	return b.window > 0 && b.rawCount >= b.window
}

// externalBatch is what the external fetcher produced for one request
type externalBatch struct {
	items      []entity.ExternalNotification
	nextCursor string
}

// boundary is a position in the local store's (created_at DESC, id DESC)
// order. An empty id sits after every record at that instant.
type boundary struct {
	at *time.Time
	id string
}

// before reports whether b sorts older than other
func (b boundary) before(other boundary) bool {
	if b.at.Equal(*other.at) {
		return b.id < other.id
	}
	return b.at.Before(*other.at)
}

// nextCursor decides the token for the following page, or nil when the feed
// is exhausted. Checked in order:
//  1. the aggregator has another page and the session is under the cap:
//     continue both sources;
//  2. local rows remain (full over-fetch window or fetched rows that did not
//     make the cut) and this page returned something: continue local only;
//  3. otherwise stop.
func nextCursor(prior cursor.State, local localBatch, external externalBatch, returned []feedItem, externalCap int) *string {
	delivered := prior.ExternalDeliveredCount + len(external.items)
	priorBoundary := boundary{at: prior.LocalBoundary, id: prior.LocalBoundaryID}

	if external.nextCursor != "" && delivered < externalCap {
		b := lastReturnedLocal(returned, priorBoundary)
		return encodeCursor(cursor.State{
			ExternalCursor:         external.nextCursor,
			ExternalDeliveredCount: delivered,
			LocalBoundary:          b.at,
			LocalBoundaryID:        b.id,
		})
	}

	if len(returned) > 0 && (local.filledWindow() || len(returnedRecords(returned)) < len(local.records)) {
		b := lastReturnedPosition(returned, priorBoundary)
		if b.at != nil {
			return encodeCursor(cursor.State{
				ExternalDeliveredCount: delivered,
				LocalBoundary:          b.at,
				LocalBoundaryID:        b.id,
			})
		}
	}

	return nil
}

func encodeCursor(state cursor.State) *string {
	encoded := cursor.Encode(state)
	return &encoded
}

// lastReturnedLocal is the position of the oldest local item on the page, or
// the prior boundary when the page held no local items
func lastReturnedLocal(returned []feedItem, prior boundary) boundary {
	for i := len(returned) - 1; i >= 0; i-- {
		if returned[i].record != nil && returned[i].hasAt {
			at := returned[i].at
			return boundary{at: &at, id: returned[i].record.ID}
		}
	}
	return prior
}

// lastReturnedPosition is the position of the oldest item with a valid
// timestamp on the page, never newer than the prior boundary so
// already-served local rows are not replayed. Local rows tied with an
// aggregator item sort ahead of it, so an aggregator position carries no id.
func lastReturnedPosition(returned []feedItem, prior boundary) boundary {
	for i := len(returned) - 1; i >= 0; i-- {
		if !returned[i].hasAt {
			continue
		}
		at := returned[i].at
		b := boundary{at: &at}
		if returned[i].record != nil {
			b.id = returned[i].record.ID
		}
		if prior.at != nil && prior.before(b) {
			return prior
		}
		return b
	}
	return prior
}
