package offers

// Dedupe collapses repeated offer IDs keeping the first occurrence, preserving
// order. Upstream pagination can return the same offer on multiple pages, so
// this runs after normalization and before the store upsert.
func Dedupe(in []Offer) []Offer {
	seen := make(map[string]struct{}, len(in))
	out := make([]Offer, 0, len(in))
	for _, o := range in {
		if _, ok := seen[o.OfferID]; ok {
			continue
		}
		seen[o.OfferID] = struct{}{}
		out = append(out, o)
	}
	return out
}

// Chunk partitions offers into ordered slices of at most size elements.
// The chunks reference the input's backing array.
func Chunk(in []Offer, size int) [][]Offer {
	if size <= 0 || len(in) == 0 {
		if len(in) == 0 {
			return nil
		}
		return [][]Offer{in}
	}
	out := make([][]Offer, 0, (len(in)+size-1)/size)
	for start := 0; start < len(in); start += size {
		end := start + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[start:end])
	}
	return out
}
