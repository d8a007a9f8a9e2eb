package schema

// Context is the mutable traversal state for a single document.
type Context struct {
	Current        string
	PendingNumber  string
	PendingCaption string
	Counters       Counters
}

// Counters accumulate document statistics during traversal. Images are
// counted once they have been persisted.
type Counters struct {
	TotalImages  int
	ClauseImages int
	MiscImages   int
	TotalTables  int

	miscSeq int
}

// State reports which section-header state the context is in.
func (c *Context) State() string {
	switch {
	case c.PendingNumber != "":
		return "awaiting-title"
	case c.Current != "":
		return "in-clause"
	default:
		return "idle"
	}
}
