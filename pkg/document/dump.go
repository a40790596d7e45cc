package document

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ReadJSON decodes a posts.json array.
func ReadJSON(r io.Reader) ([]Document, error) {
	var docs []Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decoding posts json: %w", err)
	}
	for i := range docs {
		docs[i].Tags = NormalizeTags(docs[i].Tags)
	}
	return docs, nil
}

type postRow struct {
	ID           string `xml:"Id,attr"`
	CreationDate string `xml:"CreationDate,attr"`
	Score        string `xml:"Score,attr"`
	ViewCount    string `xml:"ViewCount,attr"`
	Body         string `xml:"Body,attr"`
	Title        string `xml:"Title,attr"`
	Tags         string `xml:"Tags,attr"`
}

// ReadXML streams the <row> elements of a StackExchange Posts.xml dump.
func ReadXML(r io.Reader) ([]Document, error) {
	dec := xml.NewDecoder(r)
	var docs []Document
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading posts xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "row" {
			continue
		}

		var row postRow
		if err := dec.DecodeElement(&row, &start); err != nil {
			return nil, fmt.Errorf("decoding row: %w", err)
		}
		docs = append(docs, Document{
			ID:           row.ID,
			CreationDate: row.CreationDate,
			Score:        row.Score,
			ViewCount:    row.ViewCount,
			Body:         row.Body,
			Title:        row.Title,
			Tags:         NormalizeTags(row.Tags),
		})
	}
	return docs, nil
}
