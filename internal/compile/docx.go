package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName  = "Yu Gothic"
	fontSize  = 11
	fontColor = "000000"
)

var reBold = regexp.MustCompile(`\*\*(.+?)\*\*`)

// writeDocx renders doc as an Office Open XML file at path.
func writeDocx(doc Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	out, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new docx: %w", err)
	}

	if doc.Title != "" {
		addRun(out.AddParagraph(""), doc.Title, true, 16)
		out.AddParagraph("")
	}

	for _, b := range doc.Blocks {
		switch b.Kind {
		case Heading1:
			addRun(out.AddParagraph(""), b.Text, true, 15)
		case Heading2:
			addRun(out.AddParagraph(""), b.Text, true, 13)
		case Bullet:
			addInline(out.AddParagraph(""), "• "+b.Text)
		case Spacer:
			out.AddParagraph("")
		default:
			if b.Bold {
				addRun(out.AddParagraph(""), b.Text, true, fontSize)
				continue
			}
			addInline(out.AddParagraph(""), b.Text)
		}
	}

	if err := out.SaveTo(path); err != nil {
		return fmt.Errorf("save docx %s: %w", path, err)
	}
	return nil
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(stripInline(text)).Font(fontName).Size(size).Color(fontColor)
	if bold {
		run.Bold(true)
	}
}

// addInline honours **bold** spans inside a line.
func addInline(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			addRun(p, part, false, fontSize)
		}
		if i < len(matches) {
			addRun(p, matches[i][1], true, fontSize)
		}
	}
}

func stripInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
