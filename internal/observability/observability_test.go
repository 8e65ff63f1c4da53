package observability

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

func TestTrackRecordsOutcome(t *testing.T) {
	NewRegistry()
	before := testutil.ToFloat64(cmdCounter.WithLabelValues("cart_view", "forbidden"))
	deniedBefore := PermissionDenied.Load()

	err := Track(context.Background(), "cart_view", func(context.Context) error {
		return fmt.Errorf("outside ticket: %w", common.ErrPermissionDenied)
	})
	if err == nil {
		t.Fatalf("error must be passed through")
	}
	if got := testutil.ToFloat64(cmdCounter.WithLabelValues("cart_view", "forbidden")); got != before+1 {
		t.Fatalf("counter %v want %v", got, before+1)
	}
	if PermissionDenied.Load() != deniedBefore+1 {
		t.Fatalf("denied counter not incremented")
	}
	if err := Track(context.Background(), "list", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if testutil.ToFloat64(cmdCounter.WithLabelValues("list", "ok")) < 1 {
		t.Fatalf("ok outcome not recorded")
	}
}

func TestRegistryIsShared(t *testing.T) {
	if NewRegistry() != NewRegistry() {
		t.Fatalf("registry should be created once")
	}
	if InitMetrics("storefront-bot", "") != nil {
		t.Fatalf("empty addr should not start a server")
	}
}

func TestSnapshotListsCounters(t *testing.T) {
	EventsDropped.Add(2)
	want := EventsDropped.Load()
	s := Snapshot()
	for _, name := range []string{"storefront_tickets_created_total", "storefront_cart_checkouts_total", "storefront_events_failed_total"} {
		if !strings.Contains(s, "# TYPE "+name+" counter\n") {
			t.Fatalf("snapshot missing %s:\n%s", name, s)
		}
	}
	line := fmt.Sprintf("storefront_events_dropped_total %d\n", want)
	if !strings.Contains(s, line) {
		t.Fatalf("snapshot missing %q:\n%s", line, s)
	}
}
