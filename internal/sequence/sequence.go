// Package sequence assigns gap-free names to moves per (journal,
// sequence prefix), with date-based resets deduced from the name
// template observed on the journal's latest posted move.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/bookkeep/internal/ledger"
)

// Reset is the deduced numbering reset policy.
type Reset string

const (
	ResetNever   Reset = "never"
	ResetYearly  Reset = "yearly"
	ResetMonthly Reset = "monthly"
	// ResetFiscalYear resets on the company's fiscal-year boundary
	// instead of the calendar year.
	ResetFiscalYear Reset = "fiscal_year"
)

// The three template shapes a name is parsed against, most specific
// first. Groups: prefix fragments, date fields, the numeric field, and
// a non-numeric suffix.
var (
	monthlyRegex = regexp.MustCompile(`^(?P<prefix1>.*?)(?P<year>\d{4})(?P<prefix2>\D*?)(?P<month>\d{2})(?P<prefix3>\D+?)(?P<seq>\d+)(?P<suffix>\D*?)$`)
	yearlyRegex  = regexp.MustCompile(`^(?P<prefix1>.*?)(?P<year>\d{4})(?P<prefix2>\D+?)(?P<seq>\d+)(?P<suffix>\D*?)$`)
	fixedRegex   = regexp.MustCompile(`^(?P<prefix1>.*?)(?P<seq>\d{0,9})(?P<suffix>\D*?)$`)
)

// Parsed is a decomposed move name.
type Parsed struct {
	Reset   Reset
	Prefix1 string
	Prefix2 string
	Prefix3 string
	Suffix  string
	Year    int
	Month   int
	Seq     int
	SeqLen  int // digit width preserved on increment
}

// Parse decomposes a name against the monthly, yearly, and fixed shapes
// in that order. The empty placeholder name does not parse.
func Parse(name string) (Parsed, bool) {
	if name == "" || name == ledger.PlaceholderName {
		return Parsed{}, false
	}
	if m := match(monthlyRegex, name); m != nil {
		year, _ := strconv.Atoi(m["year"])
		month, _ := strconv.Atoi(m["month"])
		if month >= 1 && month <= 12 {
			seq, _ := strconv.Atoi(m["seq"])
			return Parsed{
				Reset:   ResetMonthly,
				Prefix1: m["prefix1"], Prefix2: m["prefix2"], Prefix3: m["prefix3"],
				Suffix: m["suffix"],
				Year:   year, Month: month,
				Seq: seq, SeqLen: len(m["seq"]),
			}, true
		}
	}
	if m := match(yearlyRegex, name); m != nil {
		year, _ := strconv.Atoi(m["year"])
		seq, _ := strconv.Atoi(m["seq"])
		return Parsed{
			Reset:   ResetYearly,
			Prefix1: m["prefix1"], Prefix2: m["prefix2"],
			Suffix: m["suffix"],
			Year:   year,
			Seq:    seq, SeqLen: len(m["seq"]),
		}, true
	}
	if m := match(fixedRegex, name); m != nil && m["seq"] != "" {
		seq, _ := strconv.Atoi(m["seq"])
		return Parsed{
			Reset:   ResetNever,
			Prefix1: m["prefix1"],
			Suffix:  m["suffix"],
			Seq:     seq, SeqLen: len(m["seq"]),
		}, true
	}
	return Parsed{}, false
}

func match(re *regexp.Regexp, s string) map[string]string {
	groups := re.FindStringSubmatch(s)
	if groups == nil {
		return nil
	}
	out := map[string]string{}
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = groups[i]
		}
	}
	return out
}

// Format renders the parsed template with a new sequence number and
// date, preserving the digit width of every numeric field.
func (p Parsed) Format(seq int, date time.Time) string {
	var b strings.Builder
	b.WriteString(p.Prefix1)
	switch p.Reset {
	case ResetMonthly:
		fmt.Fprintf(&b, "%04d", date.Year())
		b.WriteString(p.Prefix2)
		fmt.Fprintf(&b, "%02d", int(date.Month()))
		b.WriteString(p.Prefix3)
	case ResetYearly, ResetFiscalYear:
		fmt.Fprintf(&b, "%04d", date.Year())
		b.WriteString(p.Prefix2)
	}
	fmt.Fprintf(&b, "%0*d", p.SeqLen, seq)
	b.WriteString(p.Suffix)
	return b.String()
}

// SplitSequence separates a name into its sequence prefix (everything
// before the numeric field) and the number itself. Unparseable names
// yield the whole name as prefix with number 0.
func SplitSequence(name string) (prefix string, number int) {
	p, ok := Parse(name)
	if !ok {
		return name, 0
	}
	return p.SequencePrefix(), p.Seq
}

// SequencePrefix reconstructs the textual prefix preceding the numeric
// field, date fragments included.
func (p Parsed) SequencePrefix() string {
	var b strings.Builder
	b.WriteString(p.Prefix1)
	switch p.Reset {
	case ResetMonthly:
		fmt.Fprintf(&b, "%04d", p.Year)
		b.WriteString(p.Prefix2)
		fmt.Fprintf(&b, "%02d", p.Month)
		b.WriteString(p.Prefix3)
	case ResetYearly, ResetFiscalYear:
		fmt.Fprintf(&b, "%04d", p.Year)
		b.WriteString(p.Prefix2)
	}
	return b.String()
}

// PeriodFor computes the [start, end] date range of the current reset
// period. Fiscal-year resets follow the company's fiscal-year boundary.
func PeriodFor(reset Reset, date time.Time, company *ledger.Company) (time.Time, time.Time) {
	switch reset {
	case ResetMonthly:
		start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	case ResetYearly:
		start := time.Date(date.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(date.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	case ResetFiscalYear:
		lastMonth := time.December
		lastDay := 31
		if company != nil && company.FiscalYearLastMonth != 0 {
			lastMonth = company.FiscalYearLastMonth
			lastDay = company.FiscalYearLastDay
		}
		end := time.Date(date.Year(), lastMonth, lastDay, 0, 0, 0, 0, time.UTC)
		if date.After(end) {
			end = end.AddDate(1, 0, 0)
		}
		start := end.AddDate(-1, 0, 1)
		return start, end
	default:
		return time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
}

// DeduceReset picks the reset policy from an observed name, upgrading a
// yearly template to fiscal-year when the company's fiscal year does not
// end on December 31.
func DeduceReset(name string, company *ledger.Company) Reset {
	p, ok := Parse(name)
	if !ok {
		return ResetNever
	}
	if p.Reset == ResetYearly && company != nil &&
		(company.FiscalYearLastMonth != 0 && company.FiscalYearLastMonth != time.December || company.FiscalYearLastDay != 0 && company.FiscalYearLastDay != 31) {
		return ResetFiscalYear
	}
	return p.Reset
}
