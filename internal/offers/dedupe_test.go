package offers

import (
	"fmt"
	"reflect"
	"testing"
)

func offersWithIDs(ids ...string) []Offer {
	out := make([]Offer, 0, len(ids))
	for i, id := range ids {
		out = append(out, Offer{OfferID: id, Name: fmt.Sprintf("offer %d", i)})
	}
	return out
}

func ids(in []Offer) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		out = append(out, o.OfferID)
	}
	return out
}

func TestDedupeKeepsFirstSeen(t *testing.T) {
	in := offersWithIDs("a", "b", "b", "c", "a")
	got := Dedupe(in)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	// First occurrence wins: "b" at index 1 carries Name "offer 1".
	if got[1].Name != "offer 1" {
		t.Errorf("kept %q, want the first-seen record", got[1].Name)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	in := offersWithIDs("x", "y", "x", "z")
	once := Dedupe(in)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestChunkPartitioning(t *testing.T) {
	cases := []struct {
		n, size   int
		wantSizes []int
	}{
		{0, 500, nil},
		{1, 500, []int{1}},
		{500, 500, []int{500}},
		{501, 500, []int{500, 1}},
		{5, 2, []int{2, 2, 1}},
		{6, 2, []int{2, 2, 2}},
		{3, 1, []int{1, 1, 1}},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d size=%d", tc.n, tc.size), func(t *testing.T) {
			in := make([]Offer, tc.n)
			for i := range in {
				in[i].OfferID = fmt.Sprintf("o%d", i)
			}
			chunks := Chunk(in, tc.size)

			var sizes []int
			var flat []Offer
			for _, c := range chunks {
				sizes = append(sizes, len(c))
				flat = append(flat, c...)
			}
			if !reflect.DeepEqual(sizes, tc.wantSizes) {
				t.Errorf("chunk sizes = %v, want %v", sizes, tc.wantSizes)
			}
			if tc.n > 0 && !reflect.DeepEqual(flat, in) {
				t.Error("chunks do not concatenate back to the input order")
			}
			wantChunks := (tc.n + tc.size - 1) / tc.size
			if len(chunks) != wantChunks {
				t.Errorf("chunk count = %d, want ceil(%d/%d)=%d", len(chunks), tc.n, tc.size, wantChunks)
			}
		})
	}
}

func TestChunkZeroSizeFallsBackToSingleChunk(t *testing.T) {
	in := offersWithIDs("a", "b")
	chunks := Chunk(in, 0)
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Errorf("got %d chunks, want the whole input in one", len(chunks))
	}
}
