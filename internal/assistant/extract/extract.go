// Package extract implements the field extractors: pure functions mapping
// raw user text to optional typed values for branch, category, gender and
// rank. Recognition is deliberately conservative; the flow layer applies its
// own permissive fallbacks.
package extract

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

var whitespace = regexp.MustCompile(`\s+`)

// Sanitize cleans user input before any processing: trim, escape HTML
// entities, collapse runs of whitespace, and cap the length.
func Sanitize(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	text = html.EscapeString(text)
	text = whitespace.ReplaceAllString(text, " ")
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text
}

type branchPattern struct {
	re   *regexp.Regexp
	code string
}

var branchPatterns = []branchPattern{
	{regexp.MustCompile(`(?i)\b(?:cse|computer\s*science)\b`), "CSE"},
	{regexp.MustCompile(`(?i)\b(?:ece|electronics)\b`), "ECE"},
	{regexp.MustCompile(`(?i)\b(?:eee|electrical)\b`), "EEE"},
	{regexp.MustCompile(`(?i)\b(?:it|information\s*technology)\b`), "IT"},
	{regexp.MustCompile(`(?i)\b(?:mech|mechanical)\b`), "MECH"},
	{regexp.MustCompile(`(?i)\bcivil\b`), "CIVIL"},
	{regexp.MustCompile(`(?i)\b(?:ai\s*(?:&amp;|&|and)?\s*ml|aiml|artificial\s*intelligence)\b`), "CSE (AI & ML)"},
	{regexp.MustCompile(`(?i)\b(?:data\s*science|ds|csd)\b`), "CSE (Data Science)"},
}

var allBranches = regexp.MustCompile(`(?i)\ball\b`)

type categoryPattern struct {
	re   *regexp.Regexp
	code string
}

// Order matters: BC-D absorbs the generic "obc" before narrower BC codes run.
var categoryPatterns = []categoryPattern{
	{regexp.MustCompile(`(?i)\boc\b|\bopen\b|\bgeneral\b`), "OC"},
	{regexp.MustCompile(`(?i)\bobc\b|\bbc[\s-]?d\b`), "BC-D"},
	{regexp.MustCompile(`(?i)\bbc[\s-]?a\b`), "BC-A"},
	{regexp.MustCompile(`(?i)\bbc[\s-]?b\b`), "BC-B"},
	{regexp.MustCompile(`(?i)\bbc[\s-]?e\b`), "BC-E"},
	{regexp.MustCompile(`(?i)\bsc\b`), "SC"},
	{regexp.MustCompile(`(?i)\bst\b`), "ST"},
	{regexp.MustCompile(`(?i)\bews\b`), "EWS"},
}

var (
	boyWords  = regexp.MustCompile(`(?i)\b(?:boy|boys|male|m)\b`)
	girlWords = regexp.MustCompile(`(?i)\b(?:girl|girls|female|f)\b`)

	kRank     = regexp.MustCompile(`(?i)(\d+)\s*k\b`)
	plainRank = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+)`)

	yearRe = regexp.MustCompile(`\b(20[1-3]\d)\b`)
)

// Fields is the production Extractors implementation.
type Fields struct{}

var _ model.Extractors = Fields{}

// Branch returns the first recognized branch code, or "".
func (Fields) Branch(text string) string {
	for _, p := range branchPatterns {
		if p.re.MatchString(text) {
			return p.code
		}
	}
	return ""
}

// Branches returns every distinct recognized branch code in order of first
// appearance, []string{"ALL"} for a literal "all", or nil.
func (f Fields) Branches(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range branchPatterns {
		if p.re.MatchString(text) && !seen[p.code] {
			seen[p.code] = true
			out = append(out, p.code)
		}
	}
	if out == nil && allBranches.MatchString(text) {
		return []string{"ALL"}
	}
	return out
}

func (Fields) Category(text string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(text) {
			return p.code
		}
	}
	return ""
}

func (Fields) Gender(text string) string {
	switch {
	case boyWords.MatchString(text):
		return "Boys"
	case girlWords.MatchString(text):
		return "Girls"
	default:
		return ""
	}
}

// Rank extracts a numeric rank, handling "21k", "21,000" and "21000" forms.
func (Fields) Rank(text string) (int, bool) {
	if m := kRank.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n * 1000, true
		}
	}
	if m := plainRank.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// Year extracts a 4-digit counselling year between 2010 and 2039.
func (Fields) Year(text string) (int, bool) {
	if m := yearRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}
