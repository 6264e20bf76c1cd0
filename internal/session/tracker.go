package session

// Tracker records which top-level questions have been the navigation target.
// The set only grows until Reset. It is owned by a Session and not locked on its own.
type Tracker struct {
	known   map[string]struct{}
	visited map[string]struct{}
	order   []string
}

func NewTracker(questionIDs []string) *Tracker {
	known := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		known[id] = struct{}{}
	}
	return &Tracker{known: known, visited: make(map[string]struct{})}
}

// Visit marks id as visited. Ids outside the paper are ignored. It reports whether id was new.
func (t *Tracker) Visit(id string) bool {
	if _, ok := t.known[id]; !ok {
		return false
	}
	if _, seen := t.visited[id]; seen {
		return false
	}
	t.visited[id] = struct{}{}
	t.order = append(t.order, id)
	return true
}

func (t *Tracker) Visited(id string) bool {
	_, ok := t.visited[id]
	return ok
}

func (t *Tracker) Count() int { return len(t.visited) }
func (t *Tracker) Total() int { return len(t.known) }

func (t *Tracker) Complete() bool {
	return len(t.known) > 0 && len(t.visited) == len(t.known)
}

// VisitedIDs returns ids in the order they were first visited.
func (t *Tracker) VisitedIDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Reset clears the set and marks first as visited.
func (t *Tracker) Reset(first string) {
	t.visited = make(map[string]struct{})
	t.order = nil
	if first != "" {
		t.Visit(first)
	}
}
