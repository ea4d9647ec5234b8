package offers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Offer is the canonical offer shape stored and served by this service.
// Countries is never empty; the sentinel ["ALL"] means no geo restriction.
type Offer struct {
	OfferID     string       `json:"offer_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	ClickURL    string       `json:"click_url"`
	ImageURL    string       `json:"image_url"`
	Network     string       `json:"network"`
	Payout      float64      `json:"payout"`
	Countries   []string     `json:"countries"`
	Platforms   []string     `json:"platforms"`
	Devices     []string     `json:"devices"`
	Categories  []string     `json:"categories"`
	Events      []OfferEvent `json:"events"`
	IsDisabled  bool         `json:"is_disabled"`
}

// OfferEvent is a sub-milestone of an offer with its own payout.
type OfferEvent struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Payout float64 `json:"payout"`
}

// RawOffer is one record as returned by the upstream aggregator. Field types
// are inconsistent between records, so the fiddly ones decode through the
// flexible types below and only get pinned down by Normalize.
type RawOffer struct {
	OfferID      FlexString   `json:"offer_id"`
	Name         string       `json:"name"`
	Description1 string       `json:"description1"`
	ClickURL     string       `json:"click_url"`
	ImageURL     string       `json:"image_url"`
	Network      string       `json:"network"`
	Payout       FlexFloat    `json:"payout"`
	CountryCode  CountryCodes `json:"country_code"`
	Platforms    StringList   `json:"platforms"`
	Devices      StringList   `json:"devices"`
	Categories   StringList   `json:"categories"`
	Events       []RawEvent   `json:"events"`
}

// RawEvent is an upstream sub-milestone; its payout coerces independently.
type RawEvent struct {
	ID     FlexString `json:"id"`
	Name   string     `json:"name"`
	Payout FlexFloat  `json:"payout"`
}

// FlexString accepts a JSON string or number and holds it as a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*s = ""
		return nil
	}
	*s = FlexString(n.String())
	return nil
}

// FlexFloat accepts a JSON number or a numeric string. Anything that does not
// parse as a finite non-negative float coerces to 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = 0
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var v float64
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		v = parsed
	} else {
		if err := json.Unmarshal(b, &v); err != nil {
			return nil
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// StringList accepts a JSON array of loosely typed scalars and keeps the
// non-empty ones as strings. Any non-array input decodes to an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	*l = nil
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var items []any
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		switch v := it.(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				s = "true"
			}
		case nil:
			// skip
		default:
			s = fmt.Sprintf("%v", v)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// countryKind tags which upstream representation a country_code field used.
type countryKind int

const (
	countryAbsent countryKind = iota // null / missing / empty string
	countryList                      // ["us","ca"]
	countryCSV                       // "US,CA"
	countryMap                       // {"US":"United States"}
	countryOther                     // anything else (number, bool, ...)
)

// CountryCodes captures the upstream country_code field in whichever of its
// shapes it arrived. standardize in normalize.go pins it to the canonical
// uppercase list.
type CountryCodes struct {
	kind countryKind
	list []string          // countryList
	csv  string            // countryCSV
	keys []string          // countryMap, document order
	vals map[string]string // countryMap, string values only
}

func (c *CountryCodes) UnmarshalJSON(b []byte) error {
	*c = CountryCodes{}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			c.kind = countryOther
			return nil
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		c.kind = countryCSV
		c.csv = s
		return nil
	case '[':
		var items []any
		if err := json.Unmarshal(b, &items); err != nil {
			c.kind = countryOther
			return nil
		}
		c.kind = countryList
		for _, it := range items {
			if s, ok := it.(string); ok {
				c.list = append(c.list, s)
			}
		}
		return nil
	case '{':
		// Token-level decode so the document's key order survives.
		dec := json.NewDecoder(bytes.NewReader(b))
		if _, err := dec.Token(); err != nil { // opening brace
			c.kind = countryOther
			return nil
		}
		c.kind = countryMap
		c.vals = map[string]string{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil
			}
			key, _ := kt.(string)
			var val any
			if err := dec.Decode(&val); err != nil {
				return nil
			}
			c.keys = append(c.keys, key)
			if s, ok := val.(string); ok {
				c.vals[key] = s
			}
		}
		return nil
	default:
		c.kind = countryOther
		return nil
	}
}
