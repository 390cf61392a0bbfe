// Package cutoff resolves branch/category/gender queries against the
// counselling cutoff table. Lookups never approximate: missing data produces
// an explicit no-data message, not a guess.
package cutoff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
)

// Cutoff is one counselling round's closing rank for a seat.
type Cutoff struct {
	ID         uint   `gorm:"primaryKey"`
	Branch     string `gorm:"index:idx_cutoff_seat"`
	Category   string `gorm:"index:idx_cutoff_seat"`
	Gender     string `gorm:"index:idx_cutoff_seat"` // "Any" or "Female"
	Quota      string `gorm:"default:Convenor"`
	Year       int
	Round      int
	CutoffRank int
}

func (Cutoff) TableName() string { return "cutoffs" }

var branchAliases = map[string]string{
	"computer science":        "CSE",
	"computer":                "CSE",
	"cse":                     "CSE",
	"cs":                      "CSE",
	"ece":                     "ECE",
	"electronics":             "ECE",
	"eee":                     "EEE",
	"electrical":              "EEE",
	"it":                      "IT",
	"information technology":  "IT",
	"mech":                    "MECH",
	"mechanical":              "MECH",
	"civil":                   "CIVIL",
	"ai":                      "CSE (AI & ML)",
	"ai ml":                   "CSE (AI & ML)",
	"ai & ml":                 "CSE (AI & ML)",
	"aiml":                    "CSE (AI & ML)",
	"artificial intelligence": "CSE (AI & ML)",
	"data science":            "CSE (Data Science)",
	"ds":                      "CSE (Data Science)",
	"csd":                     "CSE (Data Science)",
}

var categoryAliases = map[string]string{
	"oc":      "OC",
	"general": "OC",
	"open":    "OC",
	"obc":     "BC-D",
	"bc-a":    "BC-A",
	"bc-b":    "BC-B",
	"bc-d":    "BC-D",
	"bc-e":    "BC-E",
	"bca":     "BC-A",
	"bcb":     "BC-B",
	"bcd":     "BC-D",
	"bce":     "BC-E",
	"sc":      "SC",
	"st":      "ST",
	"ews":     "EWS",
}

// NormalizeBranch maps free-form branch input to a canonical code. Unknown
// input is uppercased and tried as-is.
func NormalizeBranch(raw string) string {
	if b, ok := branchAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return b
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeCategory maps free-form category input to a canonical code.
func NormalizeCategory(raw string) string {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

// normalizeGender maps the collected gender to the seat-pool value used in
// the table. Only girls have a dedicated pool.
func normalizeGender(v model.Value) string {
	if strings.EqualFold(strings.TrimSpace(v.Text), "Girls") {
		return "Female"
	}
	return "Any"
}

// Store looks up cutoffs in Postgres.
type Store struct {
	db *gorm.DB
}

var _ model.CutoffLookup = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the cutoff table if missing.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Cutoff{})
}

// latest finds the most recent year/round row for a seat. found is false when
// no data exists for the combination.
func (s *Store) latest(ctx context.Context, branch, category, gender string) (*Cutoff, bool, error) {
	var row Cutoff
	err := s.db.WithContext(ctx).
		Where("branch = ? AND category = ? AND gender = ? AND quota = ?", branch, category, gender, "Convenor").
		Order("year DESC, round DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errx.WrapLookup(err)
	}
	return &row, true, nil
}

// Cutoff returns the closing-rank message for one branch.
func (s *Store) Cutoff(ctx context.Context, branch string, category, gender model.Value) (string, error) {
	b := NormalizeBranch(branch)
	c := NormalizeCategory(category.Text)
	row, found, err := s.latest(ctx, b, c, normalizeGender(gender))
	if err != nil {
		return "", err
	}
	if !found {
		return noDataMessage(b, c), nil
	}
	return fmt.Sprintf(
		"The closing cutoff rank for %s under %s category in Year %d, Round %d (%s quota) was **%s**.",
		row.Branch, row.Category, row.Year, row.Round, row.Quota, group(row.CutoffRank)), nil
}

// Eligibility compares a rank against the latest closing rank for one branch.
func (s *Store) Eligibility(ctx context.Context, rank int, branch string, category, gender model.Value) (string, error) {
	b := NormalizeBranch(branch)
	c := NormalizeCategory(category.Text)
	row, found, err := s.latest(ctx, b, c, normalizeGender(gender))
	if err != nil {
		return "", err
	}
	if !found {
		return noDataMessage(b, c), nil
	}
	if rank <= row.CutoffRank {
		return fmt.Sprintf(
			"With a rank of **%s**, you are **eligible** for %s under %s category (Year %d, Round %d, %s quota). The closing rank was **%s**.",
			group(rank), row.Branch, row.Category, row.Year, row.Round, row.Quota, group(row.CutoffRank)), nil
	}
	return fmt.Sprintf(
		"With a rank of **%s**, you are **not eligible** for %s under %s category (Year %d, Round %d, %s quota). The closing rank was **%s**. Your rank needs to be at or below %s for this seat.",
		group(rank), row.Branch, row.Category, row.Year, row.Round, row.Quota, group(row.CutoffRank), group(row.CutoffRank)), nil
}

// Branches returns the distinct branch codes present in the table, sorted.
func (s *Store) Branches(ctx context.Context) ([]string, error) {
	var branches []string
	err := s.db.WithContext(ctx).
		Model(&Cutoff{}).
		Distinct("branch").
		Order("branch").
		Pluck("branch", &branches).Error
	if err != nil {
		return nil, errx.WrapLookup(err)
	}
	return branches, nil
}

func noDataMessage(branch, category string) string {
	return fmt.Sprintf("No cutoff data found for %s / %s. The data may not be available yet.", branch, category)
}

func group(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
