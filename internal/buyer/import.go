package buyer

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyer-dedupe/internal/dedupe"
	"github.com/sells-group/buyer-dedupe/internal/model"
	"github.com/sells-group/buyer-dedupe/internal/resilience"
	"github.com/sells-group/buyer-dedupe/internal/store"
)

// SkippedRow records an import row rejected as a duplicate.
type SkippedRow struct {
	Row        int    `json:"row" yaml:"row"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	MatchedID  string `json:"matched_id" yaml:"matched_id"`
	MatchScore int    `json:"match_score" yaml:"match_score"`
}

// ImportReport summarizes an Import call.
type ImportReport struct {
	Total    int          `json:"total" yaml:"total"`
	Imported int64        `json:"imported" yaml:"imported"`
	Skipped  []SkippedRow `json:"skipped" yaml:"skipped"`
}

// Import stores rows for ownerID in one batch. With skipDuplicates, each row
// is checked against the owner's buyers and the rows accepted before it;
// duplicates are reported instead of stored. Rows repeating an explicit ID
// collapse to the last one, and the superseded rows are reported as skipped
// with a score of 100. Row numbers are 1-based.
func (s *Service) Import(ctx context.Context, ownerID string, rows []model.Buyer, skipDuplicates bool) (ImportReport, error) {
	report := ImportReport{Total: len(rows), Skipped: []SkippedRow{}}
	if ownerID == "" {
		return report, eris.Wrap(ErrInvalid, "buyer: owner id is required")
	}

	var pool []model.Buyer
	if skipDuplicates {
		existing, err := s.store.ListBuyers(ctx, store.BuyerFilter{OwnerID: ownerID})
		if err != nil {
			return report, eris.Wrap(err, "buyer: list existing for import")
		}
		pool = existing
	}

	accepted := make([]model.Buyer, 0, len(rows))
	// Explicit IDs seen in this batch, mapped to their slot in accepted and
	// their 1-based row. A later row with the same ID replaces the earlier one.
	batch := make(map[string]batchRow)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "buyer: import")
		}
		b := s.stamp(ownerID, row)

		if skipDuplicates {
			result, err := s.match(ctx, b, excludeID(pool, b.ID))
			if err != nil {
				return report, err
			}
			if result.IsDuplicate {
				report.Skipped = append(report.Skipped, skipped(i+1, b, result))
				continue
			}
			if row.ID != "" {
				pool = excludeID(pool, b.ID)
			}
			pool = append(pool, b)
		}

		if row.ID == "" {
			accepted = append(accepted, b)
			continue
		}
		if prev, ok := batch[b.ID]; ok {
			report.Skipped = append(report.Skipped, SkippedRow{
				Row:        prev.row,
				Name:       accepted[prev.slot].Name,
				MatchedID:  b.ID,
				MatchScore: 100,
			})
			accepted[prev.slot] = b
			batch[b.ID] = batchRow{slot: prev.slot, row: i + 1}
			continue
		}
		batch[b.ID] = batchRow{slot: len(accepted), row: i + 1}
		accepted = append(accepted, b)
	}
	sort.SliceStable(report.Skipped, func(i, j int) bool {
		return report.Skipped[i].Row < report.Skipped[j].Row
	})

	retry := s.retry
	retry.OnRetry = resilience.RetryLogger("import_buyers")
	n, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (int64, error) {
		return s.store.ImportBuyers(ctx, accepted)
	})
	if err != nil {
		return report, eris.Wrap(err, "buyer: import")
	}
	report.Imported = n

	zap.L().Info("buyer: import complete",
		zap.String("owner_id", ownerID),
		zap.Int("total", report.Total),
		zap.Int64("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

type batchRow struct {
	slot int
	row  int
}

func skipped(row int, b model.Buyer, result dedupe.Result) SkippedRow {
	return SkippedRow{
		Row:        row,
		Name:       b.Name,
		MatchedID:  result.BestMatch.Buyer.ID,
		MatchScore: result.BestMatch.MatchScore,
	}
}
