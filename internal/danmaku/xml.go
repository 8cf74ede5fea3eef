package danmaku

import (
	"encoding/xml"
	"strings"

	"github.com/imi6/dandan/internal/apperr"
)

// Bilibili XML export: the root holds repeated <d> elements whose p
// attribute packs "time,mode,size,color,timestamp,pool,userid,dmid"
// and whose text content is the comment body.
type biliDocument struct {
	XMLName  xml.Name
	Comments []biliComment `xml:"d"`
}

type biliComment struct {
	Attrs string `xml:"p,attr"`
	Body  string `xml:",chardata"`
}

// ParseBilibiliXML parses a Bilibili comment export into raw DanDanPlay
// comments. Only the time, mode and color attribute fields survive; size,
// timestamp, pool, user and dmid are discarded. Elements with a blank
// attribute or no body are skipped; a document that is not well-formed XML
// fails with a format error.
func ParseBilibiliXML(content string) ([]RawComment, error) {
	var doc biliDocument
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, apperr.Formatf("failed to parse XML: %v", err)
	}

	comments := make([]RawComment, 0, len(doc.Comments))
	for idx, d := range doc.Comments {
		if d.Attrs == "" || d.Body == "" {
			continue
		}
		parts := strings.Split(d.Attrs, ",")
		if len(parts) < 4 {
			continue
		}
		comments = append(comments, RawComment{
			CID:      int64(idx),
			Position: parts[0] + "," + parts[1] + "," + parts[3],
			Text:     strings.TrimSpace(d.Body),
		})
	}
	return comments, nil
}
