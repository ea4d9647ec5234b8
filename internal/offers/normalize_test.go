package offers

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
)

func decodeRaw(t *testing.T, jsonStr string) RawOffer {
	t.Helper()
	var raw RawOffer
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		t.Fatalf("unmarshal raw offer: %v", err)
	}
	return raw
}

func TestStandardizeCountries(t *testing.T) {
	cases := []struct {
		name string
		json string // value of country_code, or "" for absent
		want []string
	}{
		{"absent", "", []string{"ALL"}},
		{"null", "null", []string{"ALL"}},
		{"empty string", `""`, []string{"ALL"}},
		{"whitespace string", `"   "`, []string{"ALL"}},
		{"single all array", `["all"]`, []string{"ALL"}},
		{"single All mixed case", `["All"]`, []string{"ALL"}},
		{"mixed case array", `["us", " ca ", "Gb"]`, []string{"US", "CA", "GB"}},
		{"array of empties", `["", "  "]`, []string{"ALL"}},
		{"empty array", `[]`, []string{"ALL"}},
		{"comma string", `"us, ca,gb"`, []string{"US", "CA", "GB"}},
		{"comma string with empties", `"us,,ca,"`, []string{"US", "CA"}},
		{"all as string", `"all"`, []string{"ALL"}},
		{"keyed object 2-letter", `{"US": "United States", "CA": "Canada"}`, []string{"US", "CA"}},
		{"keyed object lowercase keys", `{"us": "United States"}`, []string{"US"}},
		{"keyed object non-code keys", `{"United States": "us", "Canada": "ca"}`, []string{"US", "CA"}},
		{"empty object", `{}`, []string{"ALL"}},
		{"object no usable values", `{"region_group": 7}`, []string{"ALL"}},
		{"number", `42`, []string{"ALL"}},
		{"bool", `true`, []string{"ALL"}},
		{"multi-element with all", `["US", "all"]`, []string{"US", "ALL"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := `{"offer_id": "o1"}`
			if tc.json != "" {
				body = fmt.Sprintf(`{"offer_id": "o1", "country_code": %s}`, tc.json)
			}
			raw := decodeRaw(t, body)
			got := standardizeCountries(raw.CountryCode)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("countries = %v, want %v", got, tc.want)
			}
			if len(got) == 0 {
				t.Error("countries must never be empty")
			}
		})
	}
}

func TestPayoutCoercion(t *testing.T) {
	cases := []struct {
		name string
		json string
		want float64
	}{
		{"numeric string", `"12.5"`, 12.5},
		{"integer string", `"3"`, 3},
		{"number", `1.75`, 1.75},
		{"null", `null`, 0},
		{"non-numeric string", `"abc"`, 0},
		{"currency string", `"$5.00"`, 0},
		{"negative number", `-3`, 0},
		{"padded string", `" 2.25 "`, 2.25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := decodeRaw(t, fmt.Sprintf(`{"offer_id": "o1", "payout": %s}`, tc.json))
			o, ok := Normalize(raw)
			if !ok {
				t.Fatal("expected offer to normalize")
			}
			if o.Payout != tc.want {
				t.Errorf("payout = %v, want %v", o.Payout, tc.want)
			}
			if o.Payout < 0 {
				t.Error("payout must be non-negative")
			}
		})
	}
}

func TestPayoutMissing(t *testing.T) {
	raw := decodeRaw(t, `{"offer_id": "o1"}`)
	o, _ := Normalize(raw)
	if o.Payout != 0 {
		t.Errorf("missing payout = %v, want 0", o.Payout)
	}
}

func TestNormalizeFullRecord(t *testing.T) {
	raw := decodeRaw(t, `{
		"offer_id": 9120,
		"name": " Coin Rush ",
		"description1": "  Reach level 10  ",
		"click_url": "https://example.com/click",
		"image_url": "https://example.com/img.png",
		"network": "notik",
		"payout": "4.20",
		"country_code": {"US": "United States", "CA": "Canada"},
		"platforms": ["android", "ios", ""],
		"devices": ["mobile", null, 7],
		"categories": ["game"],
		"events": [
			{"id": 1, "name": "install", "payout": "0.50"},
			{"id": "2", "name": "level 10", "payout": "oops"}
		]
	}`)

	o, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected offer to normalize")
	}
	if o.OfferID != "9120" {
		t.Errorf("OfferID = %q, want 9120 (numeric id coerced)", o.OfferID)
	}
	if o.Name != "Coin Rush" {
		t.Errorf("Name = %q", o.Name)
	}
	if o.Description != "Reach level 10" {
		t.Errorf("Description = %q", o.Description)
	}
	if o.Payout != 4.20 {
		t.Errorf("Payout = %v", o.Payout)
	}
	if want := []string{"US", "CA"}; !reflect.DeepEqual(o.Countries, want) {
		t.Errorf("Countries = %v, want %v", o.Countries, want)
	}
	if want := []string{"android", "ios"}; !reflect.DeepEqual(o.Platforms, want) {
		t.Errorf("Platforms = %v, want %v", o.Platforms, want)
	}
	if want := []string{"mobile", "7"}; !reflect.DeepEqual(o.Devices, want) {
		t.Errorf("Devices = %v, want %v", o.Devices, want)
	}
	if len(o.Events) != 2 {
		t.Fatalf("Events count = %d, want 2", len(o.Events))
	}
	if o.Events[0].Payout != 0.5 {
		t.Errorf("event 0 payout = %v, want 0.5", o.Events[0].Payout)
	}
	if o.Events[1].Payout != 0 {
		t.Errorf("event 1 payout = %v, want 0 (unparseable coerces)", o.Events[1].Payout)
	}
	if o.IsDisabled {
		t.Error("fresh offers must not be disabled")
	}
}

func TestNormalizeMissingDescription(t *testing.T) {
	raw := decodeRaw(t, `{"offer_id": "o1"}`)
	o, _ := Normalize(raw)
	if o.Description != "" {
		t.Errorf("Description = %q, want empty string", o.Description)
	}
	if o.Platforms == nil || o.Devices == nil || o.Categories == nil {
		t.Error("list fields must be empty, not nil")
	}
}

func TestNormalizeRejectsMissingOfferID(t *testing.T) {
	for _, body := range []string{
		`{"name": "no id"}`,
		`{"offer_id": "", "name": "empty id"}`,
		`{"offer_id": "   ", "name": "blank id"}`,
	} {
		raw := decodeRaw(t, body)
		if _, ok := Normalize(raw); ok {
			t.Errorf("expected rejection for %s", body)
		}
	}
}

func TestNormalizeAllDropsBadRecords(t *testing.T) {
	var raws []RawOffer
	for _, body := range []string{
		`{"offer_id": "a"}`,
		`{"name": "no id"}`,
		`{"offer_id": "b"}`,
	} {
		raws = append(raws, decodeRaw(t, body))
	}
	out, dropped := NormalizeAll(raws)
	if len(out) != 2 || dropped != 1 {
		t.Errorf("got %d offers, %d dropped; want 2, 1", len(out), dropped)
	}
}
