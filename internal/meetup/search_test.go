package meetup

import (
	"context"
	"errors"
	"testing"
)

func TestSearch_BlankCriteria(t *testing.T) {
	t.Parallel()

	svc := newTestService(testDeps{}, Options{})
	if _, err := svc.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyCriteria) {
		t.Fatalf("expected ErrEmptyCriteria, got %v", err)
	}
}

func TestSearch_IgnoresEnabledFlagAndCase(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.seed("Tech Talk on Go", baseDate, nil)
	store.seed("Cooking Night", baseDate, nil)
	svc := newTestService(testDeps{store: store}, Options{Enabled: false})

	items, err := svc.Search(context.Background(), "TALK")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Tech Talk on Go" {
		t.Fatalf("unexpected results: %+v", items)
	}
}

func TestList_ClampsPaging(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	for i := 0; i < 3; i++ {
		store.seed("Event", baseDate, nil)
	}
	svc := newTestService(testDeps{store: store}, Options{})

	result, err := svc.List(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Page != 1 || result.PageSize != MaxPageSize {
		t.Fatalf("unexpected paging: page=%d size=%d", result.Page, result.PageSize)
	}
	if result.Total != 3 || len(result.Items) != 3 {
		t.Fatalf("unexpected items: total=%d len=%d", result.Total, len(result.Items))
	}

	second, err := svc.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("unexpected page 2 size: %d", len(second.Items))
	}
}
