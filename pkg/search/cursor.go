package search

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rubiojr/postsearch/pkg/document"
)

// ErrInconsistentPage is returned when the store hands back a page that
// would break cursor pagination.
var ErrInconsistentPage = errors.New("inconsistent page")

// Cursor marks the end of a search page. The zero value is the absent
// cursor. Its value is the store's creationdate string, never reformatted.
type Cursor struct {
	value string
	set   bool
}

// ParseCursor reads a cursor from the wire. The empty string is the absent
// cursor.
func ParseCursor(raw string) Cursor {
	if raw == "" {
		return Cursor{}
	}
	return Cursor{value: raw, set: true}
}

// IsZero reports whether the cursor is absent.
func (c Cursor) IsZero() bool {
	return !c.set
}

// String returns the raw cursor value, "" when absent.
func (c Cursor) String() string {
	return c.value
}

// MarshalJSON encodes an absent cursor as null.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

func (c *Cursor) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Cursor{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding cursor: %w", err)
	}
	*c = ParseCursor(raw)
	return nil
}

// NextCursor derives the cursor following a page of at most pageSize docs:
// the creationdate of the last document of a full page. A short or empty
// page is the last one and yields the absent cursor.
func NextCursor(docs []document.Document, pageSize int) Cursor {
	if len(docs) == 0 || len(docs) < pageSize {
		return Cursor{}
	}
	return ParseCursor(docs[len(docs)-1].CreationDate)
}

// validatePage checks that docs can be paginated after cursor. Every
// document needs a creationdate, dates never descend, and the first one is
// strictly past the cursor.
func validatePage(after Cursor, docs []document.Document) error {
	prev := after.String()
	for i, d := range docs {
		if d.CreationDate == "" {
			return fmt.Errorf("%w: document %q has no creationdate", ErrInconsistentPage, d.ID)
		}
		if (i > 0 || !after.IsZero()) && d.CreationDate < prev {
			return fmt.Errorf("%w: creationdate %q of document %q is before %q", ErrInconsistentPage, d.CreationDate, d.ID, prev)
		}
		if i == 0 && !after.IsZero() && d.CreationDate == prev {
			return fmt.Errorf("%w: document %q repeats cursor %q", ErrInconsistentPage, d.ID, prev)
		}
		prev = d.CreationDate
	}
	return nil
}
