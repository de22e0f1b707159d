package filesystem

import (
	"github.com/gobwas/glob"

	"github.com/ViniZap4/paper-server/domain"
)

// Match keeps the notes whose file name matches pattern. An empty pattern
// keeps everything. Only names are looked at, never contents.
func Match(notes []domain.Note, pattern string) ([]domain.Note, error) {
	if pattern == "" {
		return notes, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, domain.Invalid("filter notes", "bad pattern %q: %v", pattern, err)
	}

	out := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		if g.Match(n.Name) {
			out = append(out, n)
		}
	}
	return out, nil
}
