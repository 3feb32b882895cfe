package engine

import (
	"sort"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// Claim is a destination owned by one source for the duration of a run.
type Claim struct {
	Destination string
	Source      string
	completed   atomic.Bool
}

// Completed reports whether the claimed destination was written.
func (c *Claim) Completed() bool { return c.completed.Load() }

// Rejection records a destination that lost its claim.
type Rejection struct {
	Destination string
	Source      string
	ClaimedBy   string
	// CaseOnly is set when the two destinations differ only by letter case.
	CaseOnly bool
}

// ClaimTable maps canonical destination keys to their single winner.
type ClaimTable struct {
	canon   paths.Canonicalizer
	entries sync.Map // canonical key -> *Claim

	mu         sync.Mutex
	rejections []Rejection
}

// NewClaimTable returns an empty table using canon for keys.
func NewClaimTable(canon paths.Canonicalizer) *ClaimTable {
	return &ClaimTable{canon: canon}
}

// Claim tries to own destination for source. It returns the winning claim and
// whether this call won it.
func (t *ClaimTable) Claim(destination, source string) (*Claim, bool) {
	c := &Claim{Destination: destination, Source: source}
	existing, loaded := t.entries.LoadOrStore(t.canon.Key(destination), c)
	if !loaded {
		return c, true
	}
	winner := existing.(*Claim)
	t.mu.Lock()
	t.rejections = append(t.rejections, Rejection{
		Destination: destination,
		Source:      source,
		ClaimedBy:   winner.Source,
		CaseOnly:    paths.DiffersOnlyByCase(winner.Destination, destination),
	})
	t.mu.Unlock()
	return winner, false
}

// Complete marks a claim as written.
func (t *ClaimTable) Complete(c *Claim) { c.completed.Store(true) }

// Claims returns all winning claims ordered by destination.
func (t *ClaimTable) Claims() []*Claim {
	var out []*Claim
	t.entries.Range(func(_, v any) bool {
		out = append(out, v.(*Claim))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })
	return out
}

// Rejections returns the losing claims ordered by destination then source.
func (t *ClaimTable) Rejections() []Rejection {
	t.mu.Lock()
	out := append([]Rejection(nil), t.rejections...)
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Destination != out[j].Destination {
			return out[i].Destination < out[j].Destination
		}
		return out[i].Source < out[j].Source
	})
	return out
}
