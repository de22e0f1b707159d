package domain

// TodoEntry is one task. ID is empty for entries written by older versions
// of the file; those are addressed by an id derived from their position.
type TodoEntry struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type TodoList []TodoEntry

// Clone returns a copy that can be mutated without touching l.
func (l TodoList) Clone() TodoList {
	out := make(TodoList, len(l))
	copy(out, l)
	return out
}
