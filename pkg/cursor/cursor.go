// Package cursor encodes the opaque feed pagination token.
//
// A token carries the aggregator's own continuation, how many aggregator items
// the pagination session has consumed so far, and the local store boundary:
// a created_at plus the id of the last local record served at that instant. The payload is protobuf wire
// format so that absent fields decode to their zero value. Tokens that do not
// decode are read as legacy local-only boundaries, and anything else restarts
// the feed.
package cursor

import (
	"encoding/base64"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"notification-feed/pkg/timestamp"
)

const (
	fieldExternalCursor         protowire.Number = 1
	fieldExternalDeliveredCount protowire.Number = 2
	fieldLocalBoundary          protowire.Number = 3
	fieldLocalBoundaryID        protowire.Number = 4
)

// State is the decoded form of a cursor
type State struct {
	ExternalCursor         string
	ExternalDeliveredCount int
	LocalBoundary          *time.Time
	// LocalBoundaryID breaks created_at ties. Empty means every record at
	// LocalBoundary has been served.
	LocalBoundaryID string
}

// IsZero reports whether s is the start-of-feed state
func (s State) IsZero() bool {
	return s.ExternalCursor == "" && s.ExternalDeliveredCount == 0 && s.LocalBoundary == nil
}

// Encode serializes s. The zero state encodes to the empty string.
// LocalBoundary is stored in microseconds, rounded up, so a boundary taken
// from a finer-grained timestamp never excludes a record older than it.
func Encode(s State) string {
	var buf []byte

	if s.ExternalCursor != "" {
		buf = protowire.AppendTag(buf, fieldExternalCursor, protowire.BytesType)
		buf = protowire.AppendString(buf, s.ExternalCursor)
	}
	if s.ExternalDeliveredCount > 0 {
		buf = protowire.AppendTag(buf, fieldExternalDeliveredCount, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(s.ExternalDeliveredCount))
	}
	if s.LocalBoundary != nil {
		buf = protowire.AppendTag(buf, fieldLocalBoundary, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(ceilMicro(*s.LocalBoundary)))
		if s.LocalBoundaryID != "" {
			buf = protowire.AppendTag(buf, fieldLocalBoundaryID, protowire.BytesType)
			buf = protowire.AppendString(buf, s.LocalBoundaryID)
		}
	}

	if len(buf) == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Decode parses raw and never fails: an empty raw value is the start of the
// feed, an undecodable one falls back to a legacy timestamp boundary, and
// anything left over restarts pagination.
func Decode(raw string) State {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return State{}
	}

	if state, ok := decodeStructured(raw); ok {
		return state
	}

	if boundary, ok := timestamp.Parse(raw); ok {
		return State{LocalBoundary: &boundary}
	}

	return State{}
}

func decodeStructured(raw string) (State, bool) {
	buf, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil || len(buf) == 0 {
		return State{}, false
	}

	var state State
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return State{}, false
		}
		buf = buf[n:]

		switch {
		case num == fieldExternalCursor && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(buf)
			if n < 0 {
				return State{}, false
			}
			state.ExternalCursor = v
			buf = buf[n:]
		case num == fieldExternalDeliveredCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 || v > math.MaxInt32 {
				return State{}, false
			}
			state.ExternalDeliveredCount = int(v)
			buf = buf[n:]
		case num == fieldLocalBoundary && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return State{}, false
			}
			boundary := time.UnixMicro(protowire.DecodeZigZag(v)).UTC()
			state.LocalBoundary = &boundary
			buf = buf[n:]
		case num == fieldLocalBoundaryID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(buf)
			if n < 0 {
				return State{}, false
			}
			state.LocalBoundaryID = v
			buf = buf[n:]
		default:
			return State{}, false
		}
	}

	if state.LocalBoundary == nil {
		state.LocalBoundaryID = ""
	}
	return state, true
}

func ceilMicro(t time.Time) int64 {
	micros := t.UnixMicro()
	if t.Sub(time.UnixMicro(micros)) > 0 {
		micros++
	}
	return micros
}
