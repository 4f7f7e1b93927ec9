package scroll

import "strconv"

// IDGenerator issues slot identifiers for one engine. Identifiers are never
// reissued while the generator lives, so a recycled slot can't collide with a
// fresh one in the host's reconciliation.
type IDGenerator struct {
	next uint64
}

// Next returns a fresh identifier: "0", "1", "2", ...
func (g *IDGenerator) Next() string {
	id := strconv.FormatUint(g.next, 10)
	g.next++
	return id
}

// Issued returns how many identifiers have been handed out
func (g *IDGenerator) Issued() uint64 {
	return g.next
}

// uidPool holds slot identifiers released by a shrinking window. They are
// handed out again before the generator mints new ones.
type uidPool struct {
	free []string
}

func (p *uidPool) put(uid string) {
	p.free = append(p.free, uid)
}

func (p *uidPool) take(gen *IDGenerator) string {
	if n := len(p.free); n > 0 {
		uid := p.free[n-1]
		p.free = p.free[:n-1]
		return uid
	}
	return gen.Next()
}

func (p *uidPool) reset() {
	p.free = nil
}
