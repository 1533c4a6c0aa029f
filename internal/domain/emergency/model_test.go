package emergency

import "testing"

func TestCatalog_TwelveEntries(t *testing.T) {
	if len(Catalog) != 12 {
		t.Fatalf("catalog has %d entries, want 12", len(Catalog))
	}

	wantPriority := map[string]Priority{
		"chest_pain":      PriorityCritical,
		"breathing":       PriorityCritical,
		"unconscious":     PriorityCritical,
		"severe_bleeding": PriorityCritical,
		"stroke":          PriorityCritical,
		"accident":        PriorityHigh,
		"seizure":         PriorityHigh,
		"allergic":        PriorityHigh,
		"poisoning":       PriorityHigh,
		"burn":            PriorityHigh,
		"childbirth":      PriorityHigh,
		"other":           PriorityMedium,
	}
	for _, e := range Catalog {
		want, ok := wantPriority[e.Key]
		if !ok {
			t.Errorf("unexpected catalog key %q", e.Key)
			continue
		}
		if e.Priority != want {
			t.Errorf("%s priority = %s, want %s", e.Key, e.Priority, want)
		}
		if e.Label == "" {
			t.Errorf("%s has empty label", e.Key)
		}
	}
}

func TestLookup_KnownAndUnknown(t *testing.T) {
	got := Lookup("chest_pain")
	if got.Label != "Chest Pain / Heart Attack" || got.Priority != PriorityCritical {
		t.Errorf("chest_pain = %+v", got)
	}

	unknown := Lookup("snakebite")
	if unknown.Label != "snakebite" {
		t.Errorf("unknown label = %q, want the raw key", unknown.Label)
	}
	if unknown.Priority != PriorityHigh {
		t.Errorf("unknown priority = %s, want HIGH", unknown.Priority)
	}
}

func TestPriority_Rank(t *testing.T) {
	order := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	for i, p := range order {
		if p.Rank() != i {
			t.Errorf("%s rank = %d, want %d", p, p.Rank(), i)
		}
	}
	if Priority("UNKNOWN").Rank() <= PriorityLow.Rank() {
		t.Error("unknown priority must sort after LOW")
	}
}
