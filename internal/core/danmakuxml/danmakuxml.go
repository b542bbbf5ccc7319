// Package danmakuxml reads and writes the provider's danmaku XML exchange
// document: an <i> root with chat metadata followed by one <d> element per
// comment, the packed parameter string in the p attribute and the body as
// text content.
package danmakuxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
	"github.com/mizone/danmaku-insight/internal/core/params"
)

const (
	chatServer = "chat.bilibili.com"
	sourceTag  = "k-v"
)

type document struct {
	XMLName    xml.Name    `xml:"i"`
	ChatServer string      `xml:"chatserver"`
	ChatID     int64       `xml:"chatid"`
	Mission    int         `xml:"mission"`
	MaxLimit   int         `xml:"maxlimit"`
	State      int         `xml:"state"`
	RealName   int         `xml:"real_name"`
	Source     string      `xml:"source"`
	Entries    []entryElem `xml:"d"`
}

type entryElem struct {
	Params  string `xml:"p,attr"`
	Content string `xml:",chardata"`
}

// Entry is one comment lifted out of an exchange document, already decoded.
type Entry struct {
	Params     string
	Content    string
	TimeOffset float64
	Decoded    params.Params
}

// ParseStats counts what Parse saw and what it had to drop.
type ParseStats struct {
	Scanned int
	Skipped int
}

// Parse reads an exchange document and returns its decodable comments.
// Elements without a packed attribute, with an empty body or with a packed
// string that fails to decode are skipped and counted, never fatal. Only a
// document that is not danmaku XML at all returns an error.
func Parse(r io.Reader) ([]Entry, ParseStats, error) {
	var doc document

	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, ParseStats{}, fmt.Errorf("%w: %v", errs.ErrUnsupportedFormat, err)
	}

	entries := make([]Entry, 0, len(doc.Entries))
	stats := ParseStats{}

	for _, el := range doc.Entries {
		stats.Scanned++

		content := strings.TrimSpace(el.Content)
		if el.Params == "" || content == "" {
			stats.Skipped++
			continue
		}

		decoded, err := params.Decode(el.Params)
		if err != nil {
			stats.Skipped++
			continue
		}

		entries = append(entries, Entry{
			Params:     el.Params,
			Content:    content,
			TimeOffset: decoded.Time,
			Decoded:    decoded,
		})
	}

	return entries, stats, nil
}

// Render writes comments as an exchange document for episodeID. Rows are
// emitted in input order with their stored packed strings untouched.
func Render(w io.Writer, episodeID int64, comments []domain.RawComment) error {
	doc := document{
		ChatServer: chatServer,
		ChatID:     episodeID,
		MaxLimit:   len(comments),
		Source:     sourceTag,
		Entries:    make([]entryElem, len(comments)),
	}

	for i, c := range comments {
		doc.Entries[i] = entryElem{Params: c.Params, Content: c.Content}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode danmaku document: %w", err)
	}

	return nil
}
