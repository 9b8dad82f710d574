// Package tags reads and writes the bracketed [NAME:arg:...] annotations
// embedded in loan and payment notes.
//
// Decoding is tolerant: anything that does not parse as a recognized tag is
// left alone and reported as absent. Encoding only appends.
package tags

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-ledger/pkg/utils"
)

// Kind is a tag name.
type Kind string

// Recognized tag families
const (
	PartialPaid        Kind = "PARTIAL_PAID"
	RenegotiationDate  Kind = "RENEGOTIATION_DATE"
	RenegotiatedFrom   Kind = "RENEGOTIATED_FROM"
	PreRenegotiation   Kind = "PRE_RENEGOTIATION"
	InterestOnly       Kind = "INTEREST_ONLY_PAYMENT"
	Amortization       Kind = "AMORTIZATION"
	DailyPenalty       Kind = "DAILY_PENALTY"
	OverdueConfig      Kind = "OVERDUE_CONFIG"
	ContratoAntigo     Kind = "CONTRATO_ANTIGO"
	HistoricalContract Kind = "HISTORICAL_CONTRACT"
)

// Overdue penalty types carried by OVERDUE_CONFIG.
const (
	PenaltyPercentage      = "percentage"
	PenaltyPercentageTotal = "percentage_total"
	PenaltyFixed           = "fixed"
)

// Tag is one decoded annotation. Only the fields of its family are set.
type Tag struct {
	Kind   Kind
	Index  int             // PARTIAL_PAID, DAILY_PENALTY
	Amount decimal.Decimal // PARTIAL_PAID, DAILY_PENALTY, OVERDUE_CONFIG value
	Date   time.Time       // RENEGOTIATION_DATE, RENEGOTIATED_FROM
	Type   string          // OVERDUE_CONFIG
	Days   int             // DAILY_PENALTY days overdue, 0 when not recorded
}

var tagPattern = regexp.MustCompile(`\[([A-Z][A-Z_]*)((?::[^\[\]:]*)*)\]`)

var numberPattern = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?$`)

type match struct {
	tag        Tag
	start, end int
}

// Parse returns every recognized tag in text, in order of appearance.
func Parse(text string) []Tag {
	matches := scan(text)
	out := make([]Tag, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.tag)
	}
	return out
}

// Find returns the recognized tags of one kind.
func Find(text string, kind Kind) []Tag {
	var out []Tag
	for _, t := range Parse(text) {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Has reports whether text carries at least one valid tag of kind.
func Has(text string, kind Kind) bool {
	return len(Find(text, kind)) > 0
}

// Marker builds an argument-less tag.
func Marker(kind Kind) Tag {
	return Tag{Kind: kind}
}

// String encodes the tag.
func (t Tag) String() string {
	switch t.Kind {
	case PartialPaid:
		return fmt.Sprintf("[%s:%d:%s]", t.Kind, t.Index, money(t.Amount))
	case DailyPenalty:
		if t.Days > 0 {
			return fmt.Sprintf("[%s:%d:%s:%d]", t.Kind, t.Index, money(t.Amount), t.Days)
		}
		return fmt.Sprintf("[%s:%d:%s]", t.Kind, t.Index, money(t.Amount))
	case RenegotiationDate, RenegotiatedFrom:
		return fmt.Sprintf("[%s:%s]", t.Kind, utils.FormatDate(t.Date))
	case OverdueConfig:
		return fmt.Sprintf("[%s:%s:%s]", t.Kind, t.Type, t.Amount.String())
	default:
		return fmt.Sprintf("[%s]", t.Kind)
	}
}

// money writes cents, keeping any finer digits so the value decodes unchanged.
func money(a decimal.Decimal) string {
	if a.Equal(a.Round(2)) {
		return a.StringFixed(2)
	}
	return a.String()
}

// Append adds tags to the end of text, separated by a space.
// Existing content, including tags this package does not know, is kept as is.
func Append(text string, ts ...Tag) string {
	if len(ts) == 0 {
		return text
	}
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, t.String())
	}
	encoded := strings.Join(parts, " ")
	if strings.TrimSpace(text) == "" {
		return encoded
	}
	return text + " " + encoded
}

// AppendMarker adds an argument-less tag unless text already carries it.
func AppendMarker(text string, kind Kind) string {
	if Has(text, kind) {
		return text
	}
	return Append(text, Marker(kind))
}

// Remove deletes the valid occurrences of kind from text.
// Malformed tags with the same name and every other tag are kept.
func Remove(text string, kind Kind) string {
	matches := scan(text)
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m.tag.Kind != kind {
			continue
		}
		start := m.start
		if start > last && text[start-1] == ' ' {
			start--
		}
		b.WriteString(text[last:start])
		last = m.end
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String())
}

func scan(text string) []match {
	var out []match
	for _, loc := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		name := Kind(text[loc[2]:loc[3]])
		var args []string
		if loc[4] < loc[5] {
			args = strings.Split(text[loc[4]+1:loc[5]], ":")
		}
		t, ok := decode(name, args)
		if !ok {
			continue
		}
		out = append(out, match{tag: t, start: loc[0], end: loc[1]})
	}
	return out
}

func decode(kind Kind, args []string) (Tag, bool) {
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	t := Tag{Kind: kind}

	switch kind {
	case PartialPaid:
		if len(args) != 2 {
			return t, false
		}
		index, ok := parseIndex(args[0])
		if !ok {
			return t, false
		}
		amount, ok := parseMoney(args[1])
		if !ok {
			return t, false
		}
		t.Index, t.Amount = index, amount
	case DailyPenalty:
		if len(args) != 2 && len(args) != 3 {
			return t, false
		}
		index, ok := parseIndex(args[0])
		if !ok {
			return t, false
		}
		amount, ok := parseMoney(args[1])
		if !ok {
			return t, false
		}
		t.Index, t.Amount = index, amount
		if len(args) == 3 {
			days, ok := parseIndex(args[2])
			if !ok {
				return t, false
			}
			t.Days = days
		}
	case RenegotiationDate, RenegotiatedFrom:
		if len(args) == 0 {
			return t, false
		}
		// RFC3339 values contain ':' and arrive split.
		date, ok := parseDate(strings.Join(args, ":"))
		if !ok {
			return t, false
		}
		t.Date = date
	case OverdueConfig:
		if len(args) != 2 {
			return t, false
		}
		switch args[0] {
		case PenaltyPercentage, PenaltyPercentageTotal, PenaltyFixed:
		default:
			return t, false
		}
		value, ok := parseMoney(args[1])
		if !ok {
			return t, false
		}
		t.Type, t.Amount = args[0], value
	case PreRenegotiation, InterestOnly, Amortization, ContratoAntigo, HistoricalContract:
	default:
		return t, false
	}
	return t, true
}

func parseAmount(s string) (decimal.Decimal, bool) {
	if !numberPattern.MatchString(s) {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// parseMoney accepts amounts that cannot be negative.
func parseMoney(s string) (decimal.Decimal, bool) {
	v, ok := parseAmount(s)
	if !ok || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}

var maxIndex = decimal.NewFromInt(math.MaxInt32)

func parseIndex(s string) (int, bool) {
	v, ok := parseMoney(s)
	if !ok || !v.Equal(v.Truncate(0)) || v.GreaterThan(maxIndex) {
		return 0, false
	}
	return int(v.IntPart()), true
}

func parseDate(s string) (time.Time, bool) {
	if len(s) < len(utils.DateLayout) {
		return time.Time{}, false
	}
	t, err := utils.ParseDate(s[:len(utils.DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
