package digest

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderHTML converts the markdown digest into a standalone HTML fragment.
// Written alongside the markdown file when HTML output is enabled.
func RenderHTML(document string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(document))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return markdown.Render(doc, renderer)
}

// WriteHTMLFile writes the HTML rendering next to the markdown digest,
// replacing the .md extension with .html. Returns the written path.
func WriteHTMLFile(mdPath string, document string) (string, error) {
	path := strings.TrimSuffix(mdPath, ".md") + ".html"
	if err := os.WriteFile(path, RenderHTML(document), 0o644); err != nil {
		return "", fmt.Errorf("write digest html: %w", err)
	}
	return path, nil
}
