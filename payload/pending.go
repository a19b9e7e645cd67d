package payload

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/camrig/camera"
)

type entry struct {
	edit Edit
	seq  uint64
}

// Pending collects the edits of one coalescing window. A later edit to a field
// replaces the earlier one. A restore discards everything before it.
type Pending struct {
	fields  map[camera.Field]entry
	restore *entry
	seq     uint64
}

// NewPending returns an empty edit set.
func NewPending() *Pending {
	return &Pending{fields: make(map[camera.Field]entry)}
}

// Add records e, replacing any pending edit of the same field.
func (p *Pending) Add(e Edit) {
	p.seq++
	if e.Kind == KindRestore {
		clear(p.fields)
		p.restore = &entry{edit: e, seq: p.seq}
		return
	}
	p.fields[e.Field] = entry{edit: e, seq: p.seq}
}

// Len returns the number of distinct pending edits.
func (p *Pending) Len() int {
	n := len(p.fields)
	if p.restore != nil {
		n++
	}
	return n
}

// Fields returns the union of all pending fields.
func (p *Pending) Fields() camera.Field {
	var m camera.Field
	if p.restore != nil {
		m |= p.restore.edit.Field
	}
	for f := range p.fields {
		m |= f
	}
	return m
}

// Get returns the pending edit for f, if any.
func (p *Pending) Get(f camera.Field) (Edit, bool) {
	e, ok := p.fields[f]
	return e.edit, ok
}

// Reset discards every pending edit.
func (p *Pending) Reset() {
	clear(p.fields)
	p.restore = nil
	p.seq = 0
}

// group is all pending edits of one Kind, ordered by arrival.
type group struct {
	kind  Kind
	last  uint64
	edits []Edit
}

// groups returns the pending edits grouped by kind, groups ordered by the
// arrival of their latest edit.
func (p *Pending) groups() []group {
	byKind := make(map[Kind]*group)
	entries := make([]entry, 0, len(p.fields))
	for _, e := range p.fields {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.seq, b.seq) })

	var out []*group
	for _, e := range entries {
		g, ok := byKind[e.edit.Kind]
		if !ok {
			g = &group{kind: e.edit.Kind}
			byKind[e.edit.Kind] = g
			out = append(out, g)
		}
		g.edits = append(g.edits, e.edit)
		g.last = e.seq
	}

	slices.SortFunc(out, func(a, b *group) int { return cmp.Compare(a.last, b.last) })
	res := make([]group, len(out))
	for i, g := range out {
		res[i] = *g
	}
	return res
}
