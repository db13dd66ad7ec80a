package service

import (
	"context"
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/stagelink/internal/model"
)

// Pair is one (sender, receiver) combination of identity keys.
type Pair struct {
	Sender   string
	Receiver string
}

// IsUUID reports whether s is an RFC 4122 UUID of version 1 to 5.
func IsUUID(s string) bool {
	u, err := uuid.Parse(s)
	if err != nil || len(s) != 36 {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5 && u.Variant() == uuid.RFC4122
}

// BuildCandidates returns the distinct valid UUIDs among ids, in order.
// Blank and malformed values are dropped.
func BuildCandidates(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if !IsUUID(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CandidatePairs yields every sender/receiver combination, senders in the
// outer loop.  Pairs are produced on demand.
func CandidatePairs(senders, receivers []string) iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		for _, s := range senders {
			for _, r := range receivers {
				if s == r {
					continue
				}
				if !yield(Pair{Sender: s, Receiver: r}) {
					return
				}
			}
		}
	}
}

// LookupFunc returns the request between a and b in either direction, or
// nil when there is none.
type LookupFunc func(ctx context.Context, a, b string) (*model.CollaborationRequest, error)

// ResolveExistingRequest walks pairs and returns the first request lookup
// finds.  Remaining pairs are not queried once a request is found.
func ResolveExistingRequest(ctx context.Context, pairs iter.Seq[Pair], lookup LookupFunc) (*model.CollaborationRequest, error) {
	for p := range pairs {
		req, err := lookup(ctx, p.Sender, p.Receiver)
		if err != nil {
			return nil, err
		}
		if req != nil {
			return req, nil
		}
	}
	return nil, nil
}
