package offers

import (
	"strings"
)

// CountryAll is the sentinel for offers with no geo restriction.
const CountryAll = "ALL"

// Normalize converts one raw upstream record into the canonical Offer.
// Every coercion degrades to a safe default instead of failing, so a single
// malformed record can never abort a sync run. The only rejection is a missing
// offer_id (second return false), because offer_id is the storage key.
func Normalize(raw RawOffer) (Offer, bool) {
	id := strings.TrimSpace(string(raw.OfferID))
	if id == "" {
		return Offer{}, false
	}

	events := make([]OfferEvent, 0, len(raw.Events))
	for _, ev := range raw.Events {
		events = append(events, OfferEvent{
			ID:     strings.TrimSpace(string(ev.ID)),
			Name:   strings.TrimSpace(ev.Name),
			Payout: float64(ev.Payout),
		})
	}

	return Offer{
		OfferID:     id,
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description1),
		ClickURL:    strings.TrimSpace(raw.ClickURL),
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Network:     strings.TrimSpace(raw.Network),
		Payout:      float64(raw.Payout),
		Countries:   standardizeCountries(raw.CountryCode),
		Platforms:   orEmpty(raw.Platforms),
		Devices:     orEmpty(raw.Devices),
		Categories:  orEmpty(raw.Categories),
		Events:      events,
	}, true
}

// NormalizeAll maps a raw page onto canonical offers, dropping records that
// carry no offer_id. Count of dropped records is returned for the run log.
func NormalizeAll(raw []RawOffer) (out []Offer, dropped int) {
	out = make([]Offer, 0, len(raw))
	for _, r := range raw {
		o, ok := Normalize(r)
		if !ok {
			dropped++
			continue
		}
		out = append(out, o)
	}
	return out, dropped
}

// standardizeCountries resolves the upstream country_code union into a
// non-empty uppercase list, with ["ALL"] for every empty or ambiguous shape.
func standardizeCountries(c CountryCodes) []string {
	switch c.kind {
	case countryAbsent:
		return []string{CountryAll}

	case countryList:
		if len(c.list) == 1 && strings.EqualFold(strings.TrimSpace(c.list[0]), "all") {
			return []string{CountryAll}
		}
		out := upperTrimmed(c.list)
		if len(out) == 0 {
			return []string{CountryAll}
		}
		return out

	case countryCSV:
		out := upperTrimmed(strings.Split(c.csv, ","))
		if len(out) == 0 {
			return []string{CountryAll}
		}
		return out

	case countryMap:
		if len(c.keys) == 0 {
			return []string{CountryAll}
		}
		if allTwoLetterCodes(c.keys) {
			return upperTrimmed(c.keys)
		}
		vals := make([]string, 0, len(c.keys))
		for _, k := range c.keys {
			if v, ok := c.vals[k]; ok {
				vals = append(vals, v)
			}
		}
		if out := upperTrimmed(vals); len(out) > 0 {
			return out
		}
		return []string{CountryAll}

	default:
		return []string{CountryAll}
	}
}

func upperTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func allTwoLetterCodes(keys []string) bool {
	for _, k := range keys {
		if len(k) != 2 || !isAlpha(k[0]) || !isAlpha(k[1]) {
			return false
		}
	}
	return true
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func orEmpty(l StringList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
