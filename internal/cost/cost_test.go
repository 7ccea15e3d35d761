package cost

import (
	"testing"
	"time"

	"github.com/GEJFY/llmgateway/internal/catalog"
	"github.com/GEJFY/llmgateway/internal/core"
)

func testTracker() *Tracker {
	cat := catalog.New([]catalog.Entry{
		{Provider: "azure", Tier: core.TierSOTA, ModelID: "gpt-4o", InputUSDPer1K: 1.0, OutputUSDPer1K: 2.0},
	})
	return New(cat)
}

func TestTracker_Record_ComputesCost(t *testing.T) {
	tr := testTracker()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := tr.Record(now, "azure", "gpt-4o", 100, 50, "req-1")
	// 100*1.0/1000 + 50*2.0/1000 = 0.1 + 0.1 = 0.2
	if got != 0.2 {
		t.Errorf("expected cost 0.2, got %v", got)
	}
}

func TestTracker_Record_UnpricedModel(t *testing.T) {
	tr := testTracker()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := tr.Record(now, "azure", "unknown-model", 100, 50, "req-2")
	if got != 0 {
		t.Errorf("expected zero cost for unpriced model, got %v", got)
	}

	records, _ := tr.List(Filter{})
	if len(records) != 1 || !records[0].Unpriced {
		t.Error("expected record flagged as unpriced")
	}
}

func TestTracker_MonthTotal(t *testing.T) {
	tr := testTracker()
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	tr.Record(march, "azure", "gpt-4o", 100, 50, "req-1")
	tr.Record(march, "azure", "gpt-4o", 200, 100, "req-2")
	tr.Record(april, "azure", "gpt-4o", 1000, 1000, "req-3")

	total := tr.MonthTotal(march)
	if total != 0.6 {
		t.Errorf("expected march total 0.6, got %v", total)
	}
}

func TestTracker_ProviderAndModelTotals(t *testing.T) {
	tr := testTracker()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tr.Record(now, "azure", "gpt-4o", 100, 50, "req-1")

	byProvider := tr.ProviderTotals(now)
	if byProvider["azure"] != 0.2 {
		t.Errorf("expected azure total 0.2, got %v", byProvider["azure"])
	}

	byModel := tr.ModelTotals(now)
	if byModel["gpt-4o"] != 0.2 {
		t.Errorf("expected gpt-4o total 0.2, got %v", byModel["gpt-4o"])
	}
}

func TestTracker_List_Pagination(t *testing.T) {
	tr := testTracker()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tr.Record(now, "azure", "gpt-4o", 10, 10, "req")
	}

	page, total := tr.List(Filter{Offset: 2, Limit: 2})
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}
	if page[0].Seq != 3 {
		t.Errorf("expected page to start at seq 3, got %d", page[0].Seq)
	}
}

func TestTracker_List_FilterByProviderAndModel(t *testing.T) {
	tr := testTracker()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tr.Record(now, "azure", "gpt-4o", 10, 10, "req-1")
	tr.Record(now, "aws", "anthropic.claude", 10, 10, "req-2")

	records, total := tr.List(Filter{Provider: "aws"})
	if total != 1 || records[0].Provider != "aws" {
		t.Errorf("expected single aws record, got %+v", records)
	}
}
