package dedupe

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// Field weights. They sum to 100 and are fixed policy.
const (
	WeightEmail    = 40
	WeightPhone    = 35
	WeightName     = 20
	WeightCompany  = 15
	WeightLocation = 10
)

const (
	// FuzzyThreshold is the minimum similarity for a name or company name
	// to contribute to the score.
	FuzzyThreshold = 0.8

	// DuplicateScore is the score at or above which a match is a duplicate.
	DuplicateScore = 70
	// MediumScore is the lower bound of medium confidence.
	MediumScore = 40
	// MinMatchScore is the floor below which a comparison is not reported.
	MinMatchScore = 30

	// MaxMatches caps the number of matches returned by FindDuplicates.
	MaxMatches = 5
)

// Confidence classifies a match score.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ClassifyConfidence maps a 0-100 score to a Confidence.
func ClassifyConfidence(score int) Confidence {
	switch {
	case score >= DuplicateScore:
		return ConfidenceHigh
	case score >= MediumScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Match is the result of comparing a candidate against one existing buyer.
type Match struct {
	Buyer        model.Buyer `json:"buyer" yaml:"buyer"`
	MatchScore   int         `json:"match_score" yaml:"match_score"`
	MatchReasons []string    `json:"match_reasons" yaml:"match_reasons"`
	Confidence   Confidence  `json:"confidence" yaml:"confidence"`
}

// Result is the outcome of comparing a candidate against a collection.
type Result struct {
	IsDuplicate bool    `json:"is_duplicate" yaml:"is_duplicate"`
	Matches     []Match `json:"matches" yaml:"matches"`
	BestMatch   *Match  `json:"best_match,omitempty" yaml:"best_match,omitempty"`
}

// CheckDuplicate scores existing against candidate. Fields missing on either
// side are left out of both the score and the maximum possible score. It
// returns nil when the score is below MinMatchScore or no field matched.
func CheckDuplicate(candidate, existing model.Buyer) *Match {
	var (
		total, maxPossible float64
		reasons            []string
	)

	if a, b := NormalizeEmail(candidate.Email), NormalizeEmail(existing.Email); a != "" && b != "" {
		maxPossible += WeightEmail
		if a == b {
			total += WeightEmail
			reasons = append(reasons, "Exact email match")
		}
	}

	if a, b := NormalizePhone(candidate.Phone), NormalizePhone(existing.Phone); a != "" && b != "" {
		maxPossible += WeightPhone
		if a == b {
			total += WeightPhone
			reasons = append(reasons, "Exact phone match")
		}
	}

	if a, b := NormalizeName(candidate.Name), NormalizeName(existing.Name); a != "" && b != "" {
		maxPossible += WeightName
		if sim := StringSimilarity(a, b); sim >= FuzzyThreshold {
			total += WeightName * sim
			reasons = append(reasons, fmt.Sprintf("Name similarity: %d%%", percent(sim)))
		}
	}

	if a, b := NormalizeName(candidate.CompanyName), NormalizeName(existing.CompanyName); a != "" && b != "" {
		maxPossible += WeightCompany
		if sim := StringSimilarity(a, b); sim >= FuzzyThreshold {
			total += WeightCompany * sim
			reasons = append(reasons, fmt.Sprintf("Company name similarity: %d%%", percent(sim)))
		}
	}

	if hasLocation(candidate) && hasLocation(existing) {
		maxPossible += WeightLocation
		if locationKey(candidate) == locationKey(existing) {
			total += WeightLocation
			reasons = append(reasons, fmt.Sprintf("Same location: %s, %s", existing.City, existing.State))
		}
	}

	score := 0
	if maxPossible > 0 {
		score = int(math.Round(100 * total / maxPossible))
	}
	if score < MinMatchScore || len(reasons) == 0 {
		return nil
	}

	return &Match{
		Buyer:        existing,
		MatchScore:   score,
		MatchReasons: reasons,
		Confidence:   ClassifyConfidence(score),
	}
}

// FindDuplicates compares candidate against every existing buyer and returns
// the top MaxMatches matches, highest score first. Equal scores keep their
// input order.
func FindDuplicates(candidate model.Buyer, existing []model.Buyer) Result {
	var matches []Match
	for _, b := range existing {
		if m := CheckDuplicate(candidate, b); m != nil {
			matches = append(matches, *m)
		}
	}
	return newResult(rankMatches(matches))
}

// Without drops matches whose buyer id is in ignored and recomputes the best
// match and duplicate decision from what remains.
func (r Result) Without(ignored map[string]bool) Result {
	if len(ignored) == 0 {
		return r
	}
	kept := make([]Match, 0, len(r.Matches))
	for _, m := range r.Matches {
		if !ignored[m.Buyer.ID] {
			kept = append(kept, m)
		}
	}
	return newResult(kept)
}

func rankMatches(matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}

func newResult(matches []Match) Result {
	if matches == nil {
		matches = []Match{}
	}
	r := Result{Matches: matches}
	if len(matches) > 0 {
		best := matches[0]
		r.BestMatch = &best
		r.IsDuplicate = best.MatchScore >= DuplicateScore
	}
	return r
}

// hasLocation checks presence on the raw values; a punctuation-only city
// still counts as present and simply fails to match.
func hasLocation(b model.Buyer) bool {
	return strings.TrimSpace(b.City) != "" && strings.TrimSpace(b.State) != ""
}

func locationKey(b model.Buyer) string {
	return NormalizeName(b.City + " " + b.State)
}

func percent(sim float64) int {
	return int(math.Round(sim * 100))
}
