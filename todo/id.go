package todo

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/ViniZap4/paper-server/domain"
)

var derivedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("paper:todos"))

// IDAt returns the id of the entry at i. Entries without a stored id get a
// name-based UUID of their position and text, which stays the same across
// reads as long as the entry keeps its place.
func IDAt(list domain.TodoList, i int) string {
	if id := list[i].ID; id != "" {
		return id
	}
	return uuid.NewSHA1(derivedNamespace, []byte(strconv.Itoa(i)+"\x00"+list[i].Text)).String()
}

// IndexOf returns the position of the entry with the given id, or -1.
func IndexOf(list domain.TodoList, id string) int {
	if id == "" {
		return -1
	}
	for i := range list {
		if IDAt(list, i) == id {
			return i
		}
	}
	return -1
}

// Item is an entry as shown to a presentation surface. Index is only a
// hint of the display order; mutations go by ID.
type Item struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
	Done  bool   `json:"done"`
}

func (s Snapshot) Items() []Item {
	items := make([]Item, len(s.Entries))
	for i, e := range s.Entries {
		items[i] = Item{ID: IDAt(s.Entries, i), Index: i, Text: e.Text, Done: e.Done}
	}
	return items
}
