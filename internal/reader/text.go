package reader

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
)

// PlainText converts an HTML event description into searchable plain text.
// Full documents go through readability; fragments and anything readability
// cannot handle are flattened with the HTML tokenizer.
func PlainText(rawHTML string, pageURL string) string {
	trimmed := strings.TrimSpace(rawHTML)
	if trimmed == "" {
		return ""
	}

	if looksLikeDocument(trimmed) {
		if text := readableText(trimmed, pageURL); text != "" {
			return text
		}
	}
	return flattenHTML(trimmed)
}

func looksLikeDocument(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

func readableText(raw string, pageURL string) string {
	parsedURL, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || parsedURL.Host == "" {
		parsedURL = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}
	}

	article, err := readability.FromReader(strings.NewReader(raw), parsedURL)
	if err != nil {
		return ""
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return ""
	}

	text := CleanText(rendered.String())
	if text == "" {
		text = CleanText(article.Excerpt())
	}
	return text
}

var blockElements = map[string]bool{
	"address": true, "article": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true, "template": true,
}

func flattenHTML(raw string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(raw))

	var b strings.Builder
	skipDepth := 0
	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			// io.EOF or a malformed tail; both end the walk with what was read.
			return CleanText(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] && tokenType == html.StartTagToken {
				skipDepth++
				continue
			}
			if blockElements[tag] {
				b.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockElements[tag] {
				b.WriteString("\n")
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			b.Write(tokenizer.Text())
		}
	}
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}

// TruncateText clips text to maxChars runes and appends a single ellipsis rune when truncated.
func TruncateText(raw string, maxChars int) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if maxChars <= 0 {
		return trimmed, false
	}

	runes := []rune(trimmed)
	if len(runes) <= maxChars {
		return trimmed, false
	}
	if maxChars == 1 {
		return "…", true
	}

	clipped := strings.TrimSpace(string(runes[:maxChars-1]))
	if clipped == "" {
		return "…", true
	}

	return clipped + "…", true
}
