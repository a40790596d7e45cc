// Package document defines the post record served by the search endpoints.
package document

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// TagSeparator delimits entries of Document.Tags.
const TagSeparator = "|"

// Document is a post as stored and as sent on the wire. Every field is a
// string, including the numeric-looking ones; CreationDate must sort
// lexicographically in chronological order.
type Document struct {
	ID           string `json:"id" bson:"id"`
	CreationDate string `json:"creationdate" bson:"creationdate"`
	Score        string `json:"score" bson:"score"`
	ViewCount    string `json:"viewcount" bson:"viewcount"`
	Body         string `json:"body" bson:"body"`
	Title        string `json:"title" bson:"title"`
	Tags         string `json:"tags" bson:"tags"`
}

// TagList splits Tags into its entries, dropping empty segments.
func (d Document) TagList() []string {
	return SplitTags(d.Tags)
}

// SplitTags parses a pipe-delimited tag string such as "|go|sqlite|".
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, TagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return TagSeparator + strings.Join(tags, TagSeparator) + TagSeparator
}

// NormalizeTags converts the older "<go><sqlite>" dump encoding to the pipe
// form. Pipe-delimited input is returned unchanged.
func NormalizeTags(tags string) string {
	if !strings.HasPrefix(tags, "<") {
		return tags
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(tags, "<"), ">")
	return JoinTags(strings.Split(trimmed, "><"))
}

// Titles extracts the titles of docs, preserving order.
func Titles(docs []Document) []string {
	titles := make([]string, len(docs))
	for i, d := range docs {
		titles[i] = d.Title
	}
	return titles
}

// Snippet renders the HTML body as plain text, collapsing whitespace and
// truncating to at most n runes. n <= 0 disables truncation.
func (d Document) Snippet(n int) string {
	text := d.Body
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.Body)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
