package compile

import (
	"fmt"
	"strings"
	"time"

	"github.com/sjawhar/interview-minutes/internal/ledger"
)

type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading1
	Heading2
	Bullet
	Spacer
)

func (k BlockKind) String() string {
	switch k {
	case Heading1:
		return "heading1"
	case Heading2:
		return "heading2"
	case Bullet:
		return "bullet"
	case Spacer:
		return "spacer"
	default:
		return "paragraph"
	}
}

// Block is one rendering unit of a compiled document.
type Block struct {
	Kind BlockKind
	Text string
	Bold bool
}

// Document is the rendered minutes. The title is rendered ahead of the blocks.
type Document struct {
	Title  string
	Blocks []Block
}

// Count returns how many blocks of kind the document holds.
func (d Document) Count(kind BlockKind) int {
	n := 0
	for _, b := range d.Blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// ParseBlocks turns consolidated minutes text into blocks, one per line.
// Prefixes are matched in a fixed order: "# ", "## ", "- ", blank, then
// anything else is a paragraph.
func ParseBlocks(text string) []Block {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, Block{Kind: Heading1, Text: strings.TrimSpace(line[2:])})
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, Block{Kind: Heading2, Text: strings.TrimSpace(line[3:])})
		case strings.HasPrefix(line, "- "):
			blocks = append(blocks, Block{Kind: Bullet, Text: strings.TrimSpace(line[2:])})
		case line == "":
			blocks = append(blocks, Block{Kind: Spacer})
		default:
			blocks = append(blocks, Block{Kind: Paragraph, Text: line})
		}
	}
	return blocks
}

// FallbackDocument renders summaries grouped by category, in the order each
// category first appears. Summaries are expected in ascending question id.
func FallbackDocument(title string, summaries []ledger.Summary, date time.Time) Document {
	doc := Document{Title: title}
	doc.Blocks = append(doc.Blocks,
		Block{Kind: Paragraph, Text: "Date: " + date.Format("2006-01-02")},
		Block{Kind: Paragraph, Text: "Location: (not entered)"},
		Block{Kind: Spacer},
	)

	var categories []string
	grouped := make(map[string][]ledger.Summary)
	for _, s := range summaries {
		if _, seen := grouped[s.Category]; !seen {
			categories = append(categories, s.Category)
		}
		grouped[s.Category] = append(grouped[s.Category], s)
	}

	for _, category := range categories {
		doc.Blocks = append(doc.Blocks, Block{Kind: Heading2, Text: category})
		for _, s := range grouped[category] {
			doc.Blocks = append(doc.Blocks,
				Block{Kind: Paragraph, Text: fmt.Sprintf("%d. %s", s.QuestionID, s.QuestionText), Bold: true},
				Block{Kind: Paragraph, Text: "Summary: " + s.SummaryText},
				Block{Kind: Spacer},
			)
		}
	}
	return doc
}
