package crawler

import (
	"testing"
	"time"

	"github.com/tahles/directory-crawler/pkg/model"
)

func TestAggregateSystemStats(t *testing.T) {
	p1, p2 := 400, 600
	ads := []model.AdRecord{
		{AdFields: model.AdFields{Source: "titti", City: "Tel Aviv", Verified: true, Online: true, PriceMin: &p1}},
		{AdFields: model.AdFields{Source: "titti", City: "Tel Aviv", PriceMin: &p2}},
		{AdFields: model.AdFields{Source: "sexfire", City: "Haifa", Online: true}},
	}

	stats := AggregateSystemStats(ads)
	if stats.TotalAds != 3 || stats.TotalVerified != 1 || stats.TotalOnline != 2 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.AvgPriceMin != 500 {
		t.Errorf("AvgPriceMin = %v, want 500 (unpriced ads excluded)", stats.AvgPriceMin)
	}
	if stats.ByCity["Tel Aviv"] != 2 || stats.ByCity["Haifa"] != 1 {
		t.Errorf("ByCity = %v", stats.ByCity)
	}
	if stats.BySource["titti"] != 2 || stats.BySource["sexfire"] != 1 {
		t.Errorf("BySource = %v", stats.BySource)
	}
}

func TestAggregateSystemStatsEmpty(t *testing.T) {
	stats := AggregateSystemStats(nil)
	if stats.TotalAds != 0 || stats.AvgPriceMin != 0 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestPacerNextStaysInWindow(t *testing.T) {
	p := NewPacer(time.Second, 3*time.Second)
	for i := 0; i < 100; i++ {
		d := p.Next()
		if d < time.Second || d > 3*time.Second {
			t.Fatalf("delay %v outside [1s, 3s]", d)
		}
	}
}
