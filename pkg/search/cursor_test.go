package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/rubiojr/postsearch/pkg/document"
)

func TestParseCursor(t *testing.T) {
	if !ParseCursor("").IsZero() {
		t.Error("empty string should be the absent cursor")
	}
	c := ParseCursor("2008-07-31T21:42:52.667")
	if c.IsZero() || c.String() != "2008-07-31T21:42:52.667" {
		t.Errorf("cursor value was altered: %q", c)
	}
}

func TestCursorJSON(t *testing.T) {
	tests := []struct {
		name   string
		cursor Cursor
		want   string
	}{
		{"absent", Cursor{}, "null"},
		{"date", ParseCursor("2020-01-10"), `"2020-01-10"`},
		{"timestamp", ParseCursor("2008-07-31T21:42:52.667"), `"2008-07-31T21:42:52.667"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.cursor)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Fatalf("got %s, want %s", data, tt.want)
			}

			var back Cursor
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back != tt.cursor {
				t.Fatalf("decoded %+v, want %+v", back, tt.cursor)
			}
		})
	}

	var c Cursor
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Error("expected error decoding a numeric cursor")
	}
}

func TestNextCursor(t *testing.T) {
	page := func(n int) []document.Document {
		docs := make([]document.Document, n)
		for i := range docs {
			docs[i] = document.Document{ID: fmt.Sprintf("%d", i+1), CreationDate: fmt.Sprintf("2020-01-%02d", i+1)}
		}
		return docs
	}

	tests := []struct {
		name     string
		docs     []document.Document
		pageSize int
		want     string
	}{
		{"empty page", nil, 10, ""},
		{"short page", page(5), 10, ""},
		{"single short", page(1), 10, ""},
		{"full page", page(10), 10, "2020-01-10"},
		{"full page of two", page(2), 2, "2020-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextCursor(tt.docs, tt.pageSize)
			if got.String() != tt.want {
				t.Fatalf("NextCursor = %q, want %q", got, tt.want)
			}
			if got.IsZero() != (tt.want == "") {
				t.Fatalf("IsZero = %v for %q", got.IsZero(), tt.want)
			}
		})
	}
}

func TestValidatePage(t *testing.T) {
	page := func(dates ...string) []document.Document {
		docs := make([]document.Document, len(dates))
		for i, d := range dates {
			docs[i] = document.Document{ID: d, CreationDate: d}
		}
		return docs
	}

	tests := []struct {
		name    string
		after   Cursor
		docs    []document.Document
		wantErr bool
	}{
		{"empty", Cursor{}, nil, false},
		{"first page", Cursor{}, page("2020-01-01", "2020-01-02"), false},
		{"equal dates inside page", Cursor{}, page("2020-01-01", "2020-01-01"), false},
		{"after cursor", ParseCursor("2020-01-01"), page("2020-01-02", "2020-01-03"), false},
		{"descending", Cursor{}, page("2020-01-02", "2020-01-01"), true},
		{"repeats cursor", ParseCursor("2020-01-02"), page("2020-01-02"), true},
		{"before cursor", ParseCursor("2020-01-05"), page("2020-01-04"), true},
		{"missing date", Cursor{}, []document.Document{{ID: "x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePage(tt.after, tt.docs)
			if tt.wantErr {
				if !errors.Is(err, ErrInconsistentPage) {
					t.Fatalf("expected ErrInconsistentPage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseRequest(t *testing.T) {
	values := url.Values{}
	values.Add("q", "rust")
	values.Add("q", "go")
	values.Set("cursor", "2020-01-10")

	req := ParseRequest(values)
	if req.Query != "rust" {
		t.Errorf("expected first q value, got %q", req.Query)
	}
	if req.Cursor.String() != "2020-01-10" {
		t.Errorf("unexpected cursor %q", req.Cursor)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	empty := ParseRequest(url.Values{"cursor": {""}})
	if !empty.Cursor.IsZero() {
		t.Error("empty cursor parameter should be absent")
	}
	if !errors.Is(empty.Validate(), ErrEmptyQuery) {
		t.Error("expected ErrEmptyQuery for missing q")
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{AutocompleteKey("rust"), "autocomplete:rust"},
		{SearchKey("rust", Cursor{}), "search:rust:"},
		{SearchKey("rust", ParseCursor("2020-01-10")), "search:rust:2020-01-10"},
		{RankKey("rust"), "rank:rust"},
		{AutocompleteKey("go generics"), "autocomplete:go+generics"},
		{SearchKey("a:b", ParseCursor("2020-01-10T08:00:00.000")), "search:a%3Ab:2020-01-10T08%3A00%3A00.000"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got key %q, want %q", tt.got, tt.want)
		}
	}

	if SearchKey("a:b", Cursor{}) == SearchKey("a", ParseCursor("b")) {
		t.Error("keys collide across query and cursor")
	}
}
