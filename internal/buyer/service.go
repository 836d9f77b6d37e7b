// Package buyer runs owner-scoped duplicate checks, merges, scans and imports
// against a buyer store.
package buyer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyer-dedupe/internal/dedupe"
	"github.com/sells-group/buyer-dedupe/internal/model"
	"github.com/sells-group/buyer-dedupe/internal/resilience"
	"github.com/sells-group/buyer-dedupe/internal/store"
)

var (
	// ErrDuplicate is returned by Create when the candidate scores as a
	// duplicate of an existing buyer and force is not set.
	ErrDuplicate = eris.New("buyer: duplicate")
	// ErrInvalid marks requests that can never succeed as given.
	ErrInvalid = eris.New("buyer: invalid request")
)

// Service wraps a store with the dedupe engine.
type Service struct {
	store             store.Store
	parallelThreshold int
	workers           int
	retry             resilience.RetryConfig
	now               func() time.Time
	newID             func() string
}

// Option configures a Service.
type Option func(*Service)

// WithParallelThreshold sets the collection size above which matching fans
// out over workers. Zero disables parallel matching.
func WithParallelThreshold(n int) Option {
	return func(s *Service) { s.parallelThreshold = n }
}

// WithWorkers caps the number of matching goroutines. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithRetry sets the retry policy for merge and import writes.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// NewService creates a Service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		retry: resilience.DefaultRetryConfig(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check scores candidate against the owner's buyers. A candidate that already
// has an ID is never matched against itself. Buyer IDs in ignored are dropped
// from the final matches.
func (s *Service) Check(ctx context.Context, ownerID string, candidate model.Buyer, ignored []string) (dedupe.Result, error) {
	if ownerID == "" {
		return dedupe.Result{}, eris.Wrap(ErrInvalid, "buyer: owner id is required")
	}

	existing, err := s.store.ListBuyers(ctx, store.BuyerFilter{OwnerID: ownerID})
	if err != nil {
		return dedupe.Result{}, eris.Wrap(err, "buyer: list existing")
	}

	result, err := s.match(ctx, candidate, excludeID(existing, candidate.ID))
	if err != nil {
		return dedupe.Result{}, err
	}
	if len(ignored) > 0 {
		set := make(map[string]bool, len(ignored))
		for _, id := range ignored {
			set[id] = true
		}
		result = result.Without(set)
	}

	fields := []zap.Field{
		zap.String("owner_id", ownerID),
		zap.Int("compared", len(existing)),
		zap.Int("matches", len(result.Matches)),
		zap.Bool("is_duplicate", result.IsDuplicate),
	}
	if result.BestMatch != nil {
		fields = append(fields,
			zap.String("buyer_id", result.BestMatch.Buyer.ID),
			zap.Int("match_score", result.BestMatch.MatchScore),
		)
	}
	zap.L().Info("buyer: duplicate check", fields...)

	return result, nil
}

// Create stores candidate for ownerID. Unless force is set, a candidate that
// scores as a duplicate is rejected with ErrDuplicate and the result that
// caused it. The returned result holds any lower-confidence matches.
func (s *Service) Create(ctx context.Context, ownerID string, candidate model.Buyer, force bool) (*model.Buyer, dedupe.Result, error) {
	var result dedupe.Result
	if !force {
		var err error
		result, err = s.Check(ctx, ownerID, candidate, nil)
		if err != nil {
			return nil, dedupe.Result{}, err
		}
		if result.IsDuplicate {
			return nil, result, eris.Wrapf(ErrDuplicate, "buyer: candidate matches %s (%d%%)",
				result.BestMatch.Buyer.ID, result.BestMatch.MatchScore)
		}
	} else if ownerID == "" {
		return nil, dedupe.Result{}, eris.Wrap(ErrInvalid, "buyer: owner id is required")
	}

	b := s.stamp(ownerID, candidate)
	if err := s.store.CreateBuyer(ctx, b); err != nil {
		return nil, result, eris.Wrap(err, "buyer: create")
	}

	zap.L().Info("buyer: created",
		zap.String("owner_id", ownerID),
		zap.String("buyer_id", b.ID),
		zap.Bool("forced", force),
	)
	return &b, result, nil
}

// Merge folds secondaryID into primaryID using choices, persists the merged
// record and deletes the secondary.
func (s *Service) Merge(ctx context.Context, ownerID, primaryID, secondaryID string, choices dedupe.MergeChoices) (*model.Buyer, error) {
	if ownerID == "" || primaryID == "" || secondaryID == "" {
		return nil, eris.Wrap(ErrInvalid, "buyer: owner, primary and secondary ids are required")
	}
	if primaryID == secondaryID {
		return nil, eris.Wrapf(ErrInvalid, "buyer: cannot merge %s into itself", primaryID)
	}

	primary, err := s.store.GetBuyer(ctx, ownerID, primaryID)
	if err != nil {
		return nil, eris.Wrap(err, "buyer: load primary")
	}
	secondary, err := s.store.GetBuyer(ctx, ownerID, secondaryID)
	if err != nil {
		return nil, eris.Wrap(err, "buyer: load secondary")
	}

	merged, err := dedupe.MergeBuyerData(*primary, *secondary, choices)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalid, "buyer: merge %s into %s: %s", secondaryID, primaryID, err)
	}

	retry := s.retry
	retry.OnRetry = resilience.RetryLogger("apply_merge")
	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		return s.store.ApplyMerge(ctx, merged, secondaryID)
	})
	if err != nil {
		return nil, eris.Wrap(err, "buyer: apply merge")
	}

	zap.L().Info("buyer: merged",
		zap.String("owner_id", ownerID),
		zap.String("buyer_id", primaryID),
		zap.String("secondary_id", secondaryID),
		zap.Int("choices", len(choices)),
	)
	return &merged, nil
}

// Scan groups the owner's buyers into duplicate clusters.
func (s *Service) Scan(ctx context.Context, ownerID string) ([]dedupe.Cluster, error) {
	if ownerID == "" {
		return nil, eris.Wrap(ErrInvalid, "buyer: owner id is required")
	}

	buyers, err := s.store.ListBuyers(ctx, store.BuyerFilter{OwnerID: ownerID})
	if err != nil {
		return nil, eris.Wrap(err, "buyer: list for scan")
	}

	clusters := dedupe.FindClusters(buyers)
	zap.L().Info("buyer: scan complete",
		zap.String("owner_id", ownerID),
		zap.Int("buyers", len(buyers)),
		zap.Int("clusters", len(clusters)),
	)
	return clusters, nil
}

func (s *Service) match(ctx context.Context, candidate model.Buyer, existing []model.Buyer) (dedupe.Result, error) {
	if s.parallelThreshold > 0 && len(existing) > s.parallelThreshold {
		result, err := dedupe.FindDuplicatesParallel(ctx, candidate, existing, s.workers)
		return result, eris.Wrap(err, "buyer: match")
	}
	return dedupe.FindDuplicates(candidate, existing), nil
}

// stamp assigns ownership, an ID when missing, and timestamps.
func (s *Service) stamp(ownerID string, b model.Buyer) model.Buyer {
	b = b.Clone()
	b.OwnerID = ownerID
	if b.ID == "" {
		b.ID = s.newID()
	}
	now := s.now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return b
}

func excludeID(buyers []model.Buyer, id string) []model.Buyer {
	if id == "" {
		return buyers
	}
	out := make([]model.Buyer, 0, len(buyers))
	for _, b := range buyers {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
