package dedupe

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// ErrUnsupportedBoth is returned when "both" is requested for a field whose
// values cannot be combined (the numeric budget fields).
var ErrUnsupportedBoth = eris.New("dedupe: \"both\" is not supported for numeric fields")

// MergeChoices selects, per field, which side of a merge wins. Fields absent
// from the map fall back to filling gaps in the primary from the secondary.
type MergeChoices map[model.Field]model.MergeChoice

// textSeparator joins text values merged with "both".
const textSeparator = "\n\n"

// now is replaced in tests.
var now = time.Now

// MergeBuyerData consolidates secondary into primary according to choices and
// returns the merged record. Neither input is modified. Identity fields always
// come from primary, tags are always unioned, the higher priority wins, and
// UpdatedAt is set to the time of the merge.
func MergeBuyerData(primary, secondary model.Buyer, choices MergeChoices) (model.Buyer, error) {
	if err := validateChoices(choices); err != nil {
		return model.Buyer{}, err
	}

	merged := primary.Clone()
	other := secondary.Clone()

	for _, f := range model.MergeableFields {
		choice, explicit := choices[f]
		kind, _ := f.Kind()

		switch kind {
		case model.KindText:
			p, s := merged.Text(f), other.Text(f)
			switch {
			case explicit && choice == model.ChoiceSecondary:
				if !isBlank(s) {
					merged.SetText(f, s)
				}
			case explicit && choice == model.ChoiceBoth:
				switch {
				case !isBlank(p) && !isBlank(s):
					merged.SetText(f, p+textSeparator+s)
				case isBlank(p):
					merged.SetText(f, s)
				}
			case !explicit:
				if isBlank(p) && !isBlank(s) {
					merged.SetText(f, s)
				}
			}

		case model.KindList:
			p, s := merged.List(f), other.List(f)
			switch {
			case explicit && choice == model.ChoiceSecondary:
				if len(s) > 0 {
					merged.SetList(f, s)
				}
			case explicit && choice == model.ChoiceBoth:
				merged.SetList(f, union(p, s))
			case !explicit:
				if len(p) == 0 && len(s) > 0 {
					merged.SetList(f, s)
				}
			}

		case model.KindNumber:
			p, s := merged.Number(f), other.Number(f)
			switch {
			case explicit && choice == model.ChoiceSecondary:
				if s != nil {
					merged.SetNumber(f, s)
				}
			case !explicit:
				if p == nil && s != nil {
					merged.SetNumber(f, s)
				}
			}
		}
	}

	merged.Priority = model.HigherPriority(primary.Priority, secondary.Priority)
	merged.Tags = union(merged.Tags, other.Tags)
	merged.UpdatedAt = now().UTC()

	return merged, nil
}

func validateChoices(choices MergeChoices) error {
	for f, c := range choices {
		kind, ok := f.Kind()
		if !ok {
			return eris.Errorf("dedupe: field %q is not mergeable", f)
		}
		if !c.Valid() {
			return eris.Errorf("dedupe: unknown merge choice %q for field %s", c, f)
		}
		if c == model.ChoiceBoth && kind == model.KindNumber {
			return eris.Wrapf(ErrUnsupportedBoth, "dedupe: merge field %s", f)
		}
	}
	return nil
}

// union returns the elements of a followed by those of b, keeping the first
// occurrence of each value. It returns nil when both are empty.
func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseMergeChoices converts wire field and choice names, such as
// {"markets": "both"}, into MergeChoices.
func ParseMergeChoices(raw map[string]string) (MergeChoices, error) {
	choices := make(MergeChoices, len(raw))
	for f, c := range raw {
		field, err := model.ParseField(f)
		if err != nil {
			return nil, err
		}
		choice, err := model.ParseMergeChoice(c)
		if err != nil {
			return nil, err
		}
		choices[field] = choice
	}
	return choices, nil
}
