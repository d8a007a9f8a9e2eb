package schema

// Arena owns every clause of one document, keyed by identifier and kept
// in first-seen order.
type Arena struct {
	order   []string
	clauses map[string]*Clause
}

func NewArena() *Arena {
	return &Arena{clauses: make(map[string]*Clause)}
}

// Open returns the clause with id, creating it with title if it does not
// exist yet. An existing clause keeps its original title.
func (a *Arena) Open(id, title string) *Clause {
	if c, ok := a.clauses[id]; ok {
		return c
	}
	c := &Clause{ID: id, Title: title}
	a.clauses[id] = c
	a.order = append(a.order, id)
	return c
}

func (a *Arena) Get(id string) *Clause {
	return a.clauses[id]
}

func (a *Arena) Len() int {
	return len(a.order)
}

// IDs returns clause identifiers in first-seen order.
func (a *Arena) IDs() []string {
	return append([]string(nil), a.order...)
}
