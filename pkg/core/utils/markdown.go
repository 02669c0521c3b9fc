package utils

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips conversational filler and outer markdown code blocks.
// It ensures the output is pure Markdown ready for rendering.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	// Drop the opening fence line, including any info string (```markdown, ```json).
	body := strings.TrimSuffix(cleaned, "```")
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "```")
	}
	return strings.TrimSpace(body)
}

// ValidateMarkdown checks if the string is valid Markdown using Goldmark.
// Goldmark is very permissive, so this only rejects empty documents.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil && doc.HasChildren()
}

// MarkdownToHTML renders Markdown with Goldmark's CommonMark defaults.
func MarkdownToHTML(input string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText renders Markdown to HTML and returns its visible text with runs of
// whitespace collapsed. Used for titles and previews of model output.
func PlainText(input string) (string, error) {
	html, err := MarkdownToHTML(input)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// FirstHeading returns the text of the first heading in a Markdown document,
// or "" when there is none.
func FirstHeading(input string) string {
	html, err := MarkdownToHTML(input)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1, h2, h3, h4, h5, h6").First().Text())
}
