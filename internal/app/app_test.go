package app

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/meetups/internal/meetup"
)

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	if code := Run(nil); code != 2 {
		t.Fatalf("expected usage exit code for no args, got %d", code)
	}
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("expected 0 for help, got %d", code)
	}
	if code := Run([]string{"publish"}); code != 2 {
		t.Fatalf("expected 2 for unknown command, got %d", code)
	}
	if code := Run([]string{"search", "-h"}); code != 0 {
		t.Fatalf("expected 0 for command help, got %d", code)
	}
	if code := Run([]string{"list", "--page", "0"}); code != 2 {
		t.Fatalf("expected 2 for invalid page, got %d", code)
	}
	if code := Run([]string{"sync", "--format", "xml"}); code != 2 {
		t.Fatalf("expected 2 for invalid format, got %d", code)
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	got, err := parseOutputFormat(" JSON ", outputFormatTable)
	if err != nil || got != outputFormatJSON {
		t.Fatalf("unexpected format: %q err=%v", got, err)
	}
	got, err = parseOutputFormat("", outputFormatTable)
	if err != nil || got != outputFormatTable {
		t.Fatalf("expected default format, got %q err=%v", got, err)
	}
	if _, err := parseOutputFormat("yaml", outputFormatTable); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  Tech Talk  ", 20); got != "Tech Talk" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := truncateForTable("Encontro de Programação", 10); got != "Encontr..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := renderTable(
		[]string{"ID", "Title"},
		[][]string{{"1", "Tech Talk on Go"}, {"2"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	for _, want := range []string{"ID", "TITLE", "Tech Talk on Go"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	if got := formatTimestamp(time.Time{}); got != "" {
		t.Fatalf("expected empty string for zero time, got %q", got)
	}
	loc := time.FixedZone("BRT", -3*60*60)
	if got := formatTimestamp(time.Date(2026, 3, 10, 19, 0, 0, 0, loc)); got != "2026-03-10T22:00:00Z" {
		t.Fatalf("unexpected timestamp: %q", got)
	}
	if got := formatTimestampPtr(nil); got != "" {
		t.Fatalf("expected empty string for nil, got %q", got)
	}
}

func TestScheduledSync_SkipsWhenDisabled(t *testing.T) {
	t.Parallel()

	service := meetup.NewService(nil, nil, nil, nil, meetup.Options{Enabled: false}, zerolog.Nop())
	job := scheduledSync(service, t.TempDir()+"/sync.lock", time.Second, zerolog.Nop())
	// A disabled service never reaches the nil store.
	job(t.Context())
}
