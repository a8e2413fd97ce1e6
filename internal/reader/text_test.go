package reader

import (
	"strings"
	"testing"
)

func TestPlainText_Fragment(t *testing.T) {
	t.Parallel()

	input := `<p>Join us for a <strong>Tech&nbsp;Talk</strong> on Go.</p><ul><li>Generics</li><li>Iterators</li></ul><script>alert("x")</script>`
	got := PlainText(input, "https://www.sympla.com.br/e1")
	want := "Join us for a Tech Talk on Go.\n\nGenerics\n\nIterators"
	if got != want {
		t.Fatalf("PlainText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestPlainText_Empty(t *testing.T) {
	t.Parallel()

	if got := PlainText("   ", ""); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestPlainText_PlainInput(t *testing.T) {
	t.Parallel()

	if got := PlainText("no markup at all", ""); got != "no markup at all" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestPlainText_DocumentKeepsBody(t *testing.T) {
	t.Parallel()

	paragraph := strings.Repeat("The meetup covers concurrency patterns in production Go services. ", 8)
	input := "<html><head><title>Event</title><style>p{color:red}</style></head><body><article><h1>Tech Talk on Go</h1><p>" +
		paragraph + "</p></article></body></html>"

	got := PlainText(input, "https://www.sympla.com.br/e1")
	if !strings.Contains(got, "concurrency patterns in production Go services") {
		t.Fatalf("expected body text to survive, got %q", got)
	}
	if strings.Contains(got, "color:red") {
		t.Fatalf("expected style content to be dropped, got %q", got)
	}
}

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	t.Parallel()

	input := "  First   paragraph \n\n Second\tparagraph \r\n\r\nThird line "
	got := CleanText(input)
	want := "First paragraph\n\nSecond paragraph\n\nThird line"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	got, truncated := TruncateText("abcdefghijklmnopqrstuvwxyz", 10)
	if !truncated {
		t.Fatalf("expected truncated=true")
	}
	if got != "abcdefghi…" {
		t.Fatalf("unexpected truncated text: %q", got)
	}

	full, wasTruncated := TruncateText("short", 10)
	if wasTruncated {
		t.Fatalf("expected truncated=false for short text")
	}
	if full != "short" {
		t.Fatalf("unexpected short text: %q", full)
	}
}
