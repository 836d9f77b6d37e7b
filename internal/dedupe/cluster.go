package dedupe

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// Cluster groups a primary buyer with the records judged to duplicate it.
type Cluster struct {
	Primary    model.Buyer `json:"primary" yaml:"primary"`
	Duplicates []Match     `json:"duplicates" yaml:"duplicates"`
}

type indexedMatch struct {
	Match
	index int
}

// FindClusters groups a whole collection into duplicate clusters. Records are
// visited oldest first; each unclaimed record is compared against the other
// unclaimed records, and high-confidence matches join its cluster. A record is
// claimed by at most one cluster. Grouping is pairwise only: A~B and B~C do not
// pull C into A's cluster unless A~C also clears the bar.
func FindClusters(records []model.Buyer) []Cluster {
	ordered := make([]model.Buyer, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	claimed := make([]bool, len(ordered))
	var clusters []Cluster

	for i, rec := range ordered {
		if claimed[i] {
			continue
		}

		var cands []indexedMatch
		for j := range ordered {
			if j == i || claimed[j] {
				continue
			}
			if m := CheckDuplicate(rec, ordered[j]); m != nil {
				cands = append(cands, indexedMatch{Match: *m, index: j})
			}
		}
		sort.SliceStable(cands, func(a, b int) bool {
			return cands[a].MatchScore > cands[b].MatchScore
		})
		if len(cands) > MaxMatches {
			cands = cands[:MaxMatches]
		}

		var dups []Match
		for _, c := range cands {
			if c.Confidence == ConfidenceHigh || c.MatchScore >= DuplicateScore {
				dups = append(dups, c.Match)
				claimed[c.index] = true
			}
		}
		if len(dups) == 0 {
			continue
		}
		claimed[i] = true
		clusters = append(clusters, Cluster{Primary: rec, Duplicates: dups})
	}

	zap.L().Debug("dedupe: clustered collection",
		zap.Int("records", len(records)),
		zap.Int("clusters", len(clusters)),
	)
	return clusters
}
