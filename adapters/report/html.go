package report

import (
	"bytes"
	"fmt"
	"io"

	"promohypo/domain/analysis"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTMLRenderer converts the markdown report into a standalone HTML page
type HTMLRenderer struct {
	markdown *MarkdownRenderer
}

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{markdown: NewMarkdownRenderer()}
}

// Render writes the report as HTML
func (r *HTMLRenderer) Render(w io.Writer, rep *analysis.Report) error {
	var md bytes.Buffer
	if err := r.markdown.Render(&md, rep); err != nil {
		return err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse(md.Bytes())

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Promotion analysis %s", rep.ID),
	})

	_, err := w.Write(markdown.Render(doc, renderer))
	return err
}
