// Package analysis implements the pure reconciliation core: normalization,
// fingerprinting, similarity scoring, duplicate clustering, delta analysis
// and per-company source-quality aggregation.
//
// It is transport- and storage-agnostic (same split as the tracker's kanban
// package): everything here is deterministic computation over in-memory
// JobSource records. Malformed content is never fatal — it degrades to
// indeterminate results. Only malformed configuration is an error.
package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// boilerplatePhrases are stripped from normalized description text before
// comparison. All entries must already be lowercase with collapsed
// whitespace so they match post-collapse text.
var boilerplatePhrases = []string{
	"we are an equal opportunity employer",
	"equal opportunity employer",
	"equal employment opportunity",
	"all qualified applicants will receive consideration for employment",
	"without regard to race, color, religion, sex, sexual orientation, gender identity, national origin, disability or veteran status",
	"without regard to race",
	"this employer participates in e-verify",
	"reasonable accommodations may be made",
	"powered by greenhouse",
	"powered by lever",
	"powered by workday",
	"apply through our applicant tracking system",
}

var (
	// bulletRe matches list glyphs and markup noise that carries no content.
	bulletRe = regexp.MustCompile(`[•●▪◦·*#>‣→]+`)
	// spaceRe collapses any whitespace run, including newlines and tabs.
	spaceRe = regexp.MustCompile(`\s+`)
	// locationSplitRe tokenizes location text on anything non-alphanumeric.
	locationSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

	salaryRangeRe  = regexp.MustCompile(`(?i)[$€£]\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?\s*(?:-|–|—|to|up to)\s*[$€£]?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?`)
	salarySingleRe = regexp.MustCompile(`(?i)[$€£]\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?`)
)

// SalaryRange is an extracted compensation band. Min == Max for a single
// advertised figure.
type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Normalized is the comparable form of one posting's content.
type Normalized struct {
	Title          string
	Text           string // normalized description; empty means non-comparable
	LocationTokens []string
	Salary         *SalaryRange // nil when no salary was detected
}

// Comparable reports whether the posting carries enough content to be
// scored against another posting. Non-comparable postings are excluded from
// pairwise similarity and land in singleton clusters.
func (n Normalized) Comparable() bool { return n.Text != "" }

// NormalizeSource canonicalizes one JobSource's raw content. Deterministic
// and side-effect free: identical input always yields identical output, and
// re-normalizing the output is a no-op.
func NormalizeSource(src model.JobSource) Normalized {
	n := Normalized{
		Title:          NormalizeText(src.Title),
		Text:           NormalizeText(src.DescriptionText),
		LocationTokens: locationTokens(src.LocationText),
	}
	// Prefer the dedicated salary field; fall back to scanning the
	// description for an advertised band.
	if r := parseSalary(src.SalaryText); r != nil {
		n.Salary = r
	} else {
		n.Salary = parseSalary(src.DescriptionText)
	}
	return n
}

// NormalizeText lowercases, strips bullet glyphs and boilerplate phrases,
// and collapses whitespace. Empty or whitespace-only input yields "".
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = bulletRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Removing a phrase can splice its neighbors into another boilerplate
	// phrase, so strip-and-collapse runs to a fixpoint.
	for {
		prev := s
		for _, phrase := range boilerplatePhrases {
			s = strings.ReplaceAll(s, phrase, " ")
		}
		s = spaceRe.ReplaceAllString(s, " ")
		s = strings.TrimSpace(s)
		if s == prev {
			return s
		}
	}
}

// locationTokens lowercases and splits location text into comparable
// tokens, e.g. "San Francisco, CA" → ["san" "francisco" "ca"].
func locationTokens(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	parts := locationSplitRe.Split(s, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// parseSalary extracts an advertised salary band from free text. Returns
// nil when no recognizable figure is present.
func parseSalary(s string) *SalaryRange {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if m := salaryRangeRe.FindStringSubmatch(s); m != nil {
		lo := parseAmount(m[1], m[2])
		hi := parseAmount(m[3], m[4])
		if lo > hi {
			lo, hi = hi, lo
		}
		return &SalaryRange{Min: lo, Max: hi}
	}
	if m := salarySingleRe.FindStringSubmatch(s); m != nil {
		v := parseAmount(m[1], m[2])
		return &SalaryRange{Min: v, Max: v}
	}
	return nil
}

func parseAmount(digits, kSuffix string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0
	}
	if kSuffix != "" {
		v *= 1000
	}
	return v
}
