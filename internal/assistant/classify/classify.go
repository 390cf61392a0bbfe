// Package classify implements the keyword intent classifier. It labels a
// message as greeting, out-of-scope, cutoff, eligibility, mixed or
// informational; the dialogue engine treats the verdict as opaque.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
)

// Colleges other than ours. Any mention routes the query out of scope.
var otherColleges = []string{
	"iit", "nit", "iiit", "bits", "vit", "srm", "manipal",
	"amrita", "jntu", "osmania", "cbit", "chaitanya", "vasavi",
	"muffakham", "mgit", "cvr", "mlr", "anurag", "cmr",
	"gokaraju", "griet", "bvrit", "keshav", "matrusri",
	"stanley", "anna university", "mit", "harvard",
}

var comparePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcompar(e|ison|ing)\b`),
	regexp.MustCompile(`(?i)\bvs\.?\b`),
	regexp.MustCompile(`(?i)\bversus\b`),
	regexp.MustCompile(`(?i)\bbetter\s+than\b`),
	regexp.MustCompile(`(?i)\brankings?\s+(of|for)\b`),
	regexp.MustCompile(`(?i)\bnational\s+cutoff\b`),
	regexp.MustCompile(`(?i)\bpredict(ion|ed|ing)?\b`),
}

var cutoffKeywords = []string{
	"cutoff", "cut-off", "cut off",
	"last rank", "closing rank", "opening rank",
	"eapcet", "tseamcet", "ts eamcet", "ap eamcet", "tgeapcet",
	"seat allotment", "counselling", "counseling",
	"trend", "trends", "rank trend",
	"previous year", "previous years", "past year", "past years",
	"historical rank", "historical cutoff", "year by year",
	"over the years", "across years",
}

var eligibilityKeywords = []string{
	"eligible", "eligibility", "can i get", "will i get",
	"chance", "get admission", "my rank", "admission chance",
	"will i", "can i", "do i qualify", "am i eligible",
	"check eligibility", "seat eligibility", "rank check",
}

var greetingKeywords = []string{
	"hi", "hello", "hey", "thanks", "thank you", "bye",
	"good morning", "good afternoon", "good evening",
}

// Keyword is the production Classifier implementation.
type Keyword struct {
	ex      model.Extractors
	college model.CollegeConfig

	otherCollege []*regexp.Regexp
}

var _ model.Classifier = (*Keyword)(nil)

func NewKeyword(ex model.Extractors, college model.CollegeConfig) *Keyword {
	k := &Keyword{ex: ex, college: college}
	safe := strings.ToLower(college.ShortName)
	safeFull := strings.ToLower(college.Name)
	for _, c := range otherColleges {
		// Word boundaries avoid false positives like "mit" in "submit".
		if strings.Contains(safe, c) || strings.Contains(safeFull, c) {
			continue
		}
		k.otherCollege = append(k.otherCollege, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(c)+`\b`))
	}
	return k
}

func (k *Keyword) Classify(text string) model.Intent {
	if k.isGreeting(text) {
		return model.IntentGreeting
	}
	if k.mentionsOtherCollege(text) || hasCompareIntent(text) {
		return model.IntentOutOfScope
	}

	hasCutoff := containsAny(text, cutoffKeywords)
	hasEligibility := containsAny(text, eligibilityKeywords)
	wordCount := len(strings.Fields(text))

	if hasEligibility {
		return model.IntentEligibility
	}

	// Structured follow-up answers like "cse, bc-b, boy, 15000" carry no
	// cutoff keyword but at least three of the four fields.
	if k.looksLikeCutoffData(text) {
		if _, ok := k.ex.Rank(text); ok {
			return model.IntentEligibility
		}
		return model.IntentCutoff
	}

	if hasCutoff && wordCount > 12 {
		return model.IntentMixed
	}
	if hasCutoff {
		return model.IntentCutoff
	}
	return model.IntentInformational
}

func (k *Keyword) isGreeting(text string) bool {
	q := strings.ToLower(strings.TrimSpace(text))
	return containsAny(q, greetingKeywords) && len(strings.Fields(q)) <= 3
}

func (k *Keyword) mentionsOtherCollege(text string) bool {
	for _, re := range k.otherCollege {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func hasCompareIntent(text string) bool {
	for _, re := range comparePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (k *Keyword) looksLikeCutoffData(text string) bool {
	found := 0
	if len(k.ex.Branches(text)) > 0 {
		found++
	}
	if k.ex.Category(text) != "" {
		found++
	}
	if k.ex.Gender(text) != "" {
		found++
	}
	if _, ok := k.ex.Rank(text); ok {
		found++
	}
	return found >= 3
}

// IsNonEnglish reports whether the message is written mostly in a non-Latin
// script. Keyword matching is blind to such text, so the engine hands it to
// the LLM intent resolver instead.
func IsNonEnglish(text string) bool {
	letters, nonASCII := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	return letters > 0 && nonASCII*10 >= letters*3
}

func containsAny(text string, keywords []string) bool {
	q := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
