package volume

import (
	"reflect"
	"sort"
	"testing"
)

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestWalkSingleRegionNoSnapshots(t *testing.T) {
	req := ConstructionRequest{
		Kind: KindRegion,
		Opts: RegionOpts{Target: []string{"10.0.0.1:1000"}, ReadOnly: false},
	}

	targets, err := Walk(req)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(targets) != 0 {
		t.Fatalf("expected no read-only targets for a read-write region, got %v", targets)
	}
}

func TestWalkReadOnlyRegionLeaf(t *testing.T) {
	req := ConstructionRequest{
		Kind: KindRegion,
		Opts: RegionOpts{Target: []string{"10.0.0.2:2000"}, ReadOnly: true},
	}

	targets, err := Walk(req)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"10.0.0.2:2000"}
	if !reflect.DeepEqual(targets, want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
}

func TestWalkNestedTreeDuplicatesPreserved(t *testing.T) {
	req := ConstructionRequest{
		Kind: KindVolume,
		SubVolumes: []ConstructionRequest{
			{Kind: KindRegion, Opts: RegionOpts{Target: []string{"A"}, ReadOnly: true}},
		},
		ReadOnlyParent: &ConstructionRequest{
			Kind: KindRegion,
			Opts: RegionOpts{Target: []string{"B", "B"}, ReadOnly: true},
		},
	}

	targets, err := Walk(req)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	counts := map[string]int{}
	for _, target := range targets {
		counts[target]++
	}
	if counts["A"] != 1 {
		t.Errorf("A count = %d, want 1", counts["A"])
	}
	if counts["B"] != 2 {
		t.Errorf("B count = %d, want 2", counts["B"])
	}
}

func TestWalkURLAndFileContributeNothing(t *testing.T) {
	req := ConstructionRequest{
		Kind: KindVolume,
		SubVolumes: []ConstructionRequest{
			{Kind: KindURL},
			{Kind: KindFile},
		},
	}

	targets, err := Walk(req)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(targets) != 0 {
		t.Fatalf("expected no targets, got %v", targets)
	}
}

func TestWalkMalformedKindFails(t *testing.T) {
	req := ConstructionRequest{Kind: "bogus"}
	if _, err := Walk(req); err == nil {
		t.Fatal("expected error for unknown construction request kind")
	}
}

func TestWalkDepthCapped(t *testing.T) {
	// Build a chain deeper than maxWalkDepth via sub_volumes.
	var build func(depth int) ConstructionRequest
	build = func(depth int) ConstructionRequest {
		if depth == 0 {
			return ConstructionRequest{Kind: KindRegion, Opts: RegionOpts{Target: []string{"leaf"}, ReadOnly: true}}
		}
		return ConstructionRequest{Kind: KindVolume, SubVolumes: []ConstructionRequest{build(depth - 1)}}
	}

	deep := build(maxWalkDepth + 10)
	if _, err := Walk(deep); err == nil {
		t.Fatal("expected depth-capped error for an overly deep request")
	}
}

func TestParseAndEncodeRoundTrip(t *testing.T) {
	req := ConstructionRequest{
		Kind: KindVolume,
		SubVolumes: []ConstructionRequest{
			{Kind: KindRegion, Opts: RegionOpts{Target: []string{"10.0.0.1:1000"}, ReadOnly: true}},
		},
	}

	encoded, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := ParseConstructionRequest(encoded)
	if err != nil {
		t.Fatalf("ParseConstructionRequest: %v", err)
	}

	targets, err := Walk(decoded)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if want := []string{"10.0.0.1:1000"}; !reflect.DeepEqual(sortedCopy(targets), sortedCopy(want)) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := ParseConstructionRequest("not json"); err == nil {
		t.Fatal("expected parse error for invalid JSON")
	}
}
