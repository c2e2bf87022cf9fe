package selector

import (
	"strings"
	"testing"

	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
)

// sampleLeaves builds: r8 c8~ c8 r8 c4 R1 with ids 1..6.
func sampleLeaves() []*score.Leaf {
	eighth := duration.New(1, 8)
	leaves := []*score.Leaf{
		{ID: 1, Kind: score.KindRest, Duration: eighth},
		{ID: 2, Kind: score.KindNote, Duration: eighth, Tie: true},
		{ID: 3, Kind: score.KindNote, Duration: eighth},
		{ID: 4, Kind: score.KindRest, Duration: eighth},
		{ID: 5, Kind: score.KindNote, Duration: duration.New(1, 4), Tags: []string{"solo"}},
		{ID: 6, Kind: score.KindMultimeasureRest, Duration: duration.New(1, 1)},
	}
	return leaves
}

func ids(leaves []*score.Leaf) []int {
	out := make([]int, 0, len(leaves))
	for _, leaf := range leaves {
		out = append(out, leaf.ID)
	}
	return out
}

func assertIDs(t *testing.T, label string, got []*score.Leaf, want ...int) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", label, gotIDs, want)
		}
	}
}

func TestBuiltInSelectors(t *testing.T) {
	leaves := sampleLeaves()
	assertIDs(t, "leaves", Leaves().Select(leaves), 1, 2, 3, 4, 5, 6)
	assertIDs(t, "zero selector", Selector{}.Select(leaves), 1, 2, 3, 4, 5, 6)
	assertIDs(t, "pleaves", PLeaves().Select(leaves), 2, 3, 5)
	assertIDs(t, "pheads", PHeads().Select(leaves), 2, 5)
	assertIDs(t, "ptails", PTails().Select(leaves), 3, 5)
	assertIDs(t, "rests", Rests().Select(leaves), 1, 4, 6)
	assertIDs(t, "mmrests", MMRests().Select(leaves), 6)
	assertIDs(t, "tleaves", TLeaves().Select(leaves), 2, 3, 4, 5)
	assertIDs(t, "tagged", Tagged("solo").Select(leaves), 5)
	assertIDs(t, "leaf(-1)", Leaf(-1).Select(leaves), 6)
	assertIDs(t, "pleaf(1)", PLeaf(1).Select(leaves), 3)
}

func TestIndexOutOfRangeIsEmpty(t *testing.T) {
	if got := Leaf(10).Select(sampleLeaves()); len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", ids(got))
	}
	if got := PLeaves().Slice(5, End).Select(sampleLeaves()); len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", ids(got))
	}
}

func TestParseExpressions(t *testing.T) {
	leaves := sampleLeaves()
	cases := []struct {
		expr string
		want []int
	}{
		{"", []int{1, 2, 3, 4, 5, 6}},
		{"baca.leaves()", []int{1, 2, 3, 4, 5, 6}},
		{"pleaves[0:2]", []int{2, 3}},
		{"leaves[1:-1]", []int{2, 3, 4, 5}},
		{"leaves[-2:]", []int{5, 6}},
		{"leaf(0)", []int{1}},
		{"phead(-1)", []int{5}},
		{"pheads[0]", []int{2}},
		{"tagged(solo)", []int{5}},
		{"pleaves.exclude(solo)", []int{2, 3}},
	}
	for _, tc := range cases {
		sel, err := Parse(tc.expr)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.expr, err)
		}
		assertIDs(t, tc.expr, sel.Select(leaves), tc.want...)
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{"nope()", "leaf(x)", "pleaves[1", "leaves(3)", "tagged()"} {
		if _, err := Parse(expr); err == nil {
			t.Fatalf("expected %q to fail", expr)
		} else if !strings.HasPrefix(err.Error(), "selector:") {
			t.Fatalf("error for %q lacks prefix: %v", expr, err)
		}
	}
}

func TestSelectorNames(t *testing.T) {
	sel := MustParse("pleaves[1:]")
	if got := sel.String(); got != "pleaves()[1:]" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := Leaf(2).String(); got != "leaf(2)" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestLogicalTiesAcrossScopeEdge(t *testing.T) {
	leaves := sampleLeaves()
	voice := &score.Voice{Name: "MusicVoice", Leaves: leaves}
	scoped := leaves[2:]
	b := BoundsOf(voice, scoped)
	if b.Before == nil || b.Before.ID != 2 || b.After != nil {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	assertIDs(t, "pheads without bounds", PHeads().Select(scoped), 3, 5)
	assertIDs(t, "pheads within voice", PHeads().SelectWithin(scoped, b), 5)
	assertIDs(t, "sliced pheads within voice", PHeads().Slice(0, 1).SelectWithin(scoped, b), 5)

	eighth := duration.New(1, 8)
	head := &score.Leaf{ID: 7, Kind: score.KindNote, Duration: eighth}
	continuation := &score.Leaf{ID: 8, Kind: score.KindNote, Duration: eighth, RepeatTie: true}
	assertIDs(t, "ptails without bounds", PTails().Select([]*score.Leaf{head}), 7)
	assertIDs(t, "ptails within voice", PTails().SelectWithin([]*score.Leaf{head}, Bounds{After: continuation}))
}
