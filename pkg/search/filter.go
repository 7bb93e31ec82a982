package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// FilterOp is one of the closed set of filter operators the search core
// accepts. Arbitrary caller-supplied predicates are not translated into store
// queries; everything outside this set is rejected before any I/O.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpIn  FilterOp = "in"
	OpGte FilterOp = "gte"
	OpLte FilterOp = "lte"
)

// Filter is a single post-ranking constraint on a contract's structured
// fields. Filters are applied after ranking and fusion so that the candidate
// pool's rank positions reflect the full corpus.
type Filter struct {
	Field  string   `json:"field"`
	Op     FilterOp `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// allowedFilters maps filterable fields to the operators valid for them.
var allowedFilters = map[string][]FilterOp{
	"status":        {OpEq, OpIn},
	"contract_type": {OpEq, OpIn},
	"value":         {OpGte, OpLte},
	"created_at":    {OpGte, OpLte},
}

// ValidateFilters checks every filter against the allowed field/operator set.
// Range values for created_at must parse as dates and range values for value
// must parse as numbers.
func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		ops, ok := allowedFilters[f.Field]
		if !ok {
			return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
				Msg: fmt.Sprintf("unknown filter field %q", f.Field)}
		}
		opOK := false
		for _, op := range ops {
			if f.Op == op {
				opOK = true
				break
			}
		}
		if !opOK {
			return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
				Msg: fmt.Sprintf("operator %q not allowed for field %q", f.Op, f.Field)}
		}

		switch f.Op {
		case OpIn:
			if len(f.Values) == 0 {
				return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
					Msg: fmt.Sprintf("in filter on %q requires values", f.Field)}
			}
		case OpGte, OpLte:
			if f.Value == "" {
				return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
					Msg: fmt.Sprintf("range filter on %q requires a value", f.Field)}
			}
			switch f.Field {
			case "created_at":
				if _, err := dateparse.ParseAny(f.Value); err != nil {
					return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
						Msg: fmt.Sprintf("unparseable date %q: %v", f.Value, err)}
				}
			case "value":
				if _, err := parseFloat(f.Value); err != nil {
					return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
						Msg: fmt.Sprintf("unparseable number %q", f.Value)}
				}
			}
		default:
			if f.Value == "" {
				return &Error{Op: "ValidateFilters", Err: ErrInvalidInput,
					Msg: fmt.Sprintf("eq filter on %q requires a value", f.Field)}
			}
		}
	}
	return nil
}

// matchesFilters reports whether a record satisfies every filter. Filters are
// assumed validated.
func matchesFilters(rec RecordSummary, filters []Filter) bool {
	for _, f := range filters {
		if !matchesFilter(rec, f) {
			return false
		}
	}
	return true
}

func matchesFilter(rec RecordSummary, f Filter) bool {
	switch f.Field {
	case "status":
		return matchString(rec.Status, f)
	case "contract_type":
		return matchString(rec.ContractType, f)
	case "value":
		if rec.Value == nil {
			return false
		}
		bound, err := parseFloat(f.Value)
		if err != nil {
			return false
		}
		if f.Op == OpGte {
			return *rec.Value >= bound
		}
		return *rec.Value <= bound
	case "created_at":
		bound, err := dateparse.ParseAny(f.Value)
		if err != nil {
			return false
		}
		if f.Op == OpGte {
			return !rec.CreatedAt.Before(bound)
		}
		return !rec.CreatedAt.After(bound)
	}
	return false
}

func matchString(got string, f Filter) bool {
	if f.Op == OpEq {
		return strings.EqualFold(got, f.Value)
	}
	for _, v := range f.Values {
		if strings.EqualFold(got, v) {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// canonicalFilterKey renders filters into a stable string for cache keys.
func canonicalFilterKey(filters []Filter) string {
	if len(filters) == 0 {
		return ""
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = fmt.Sprintf("%s:%s:%s:%s", f.Field, f.Op, f.Value, strings.Join(f.Values, "|"))
	}
	return strings.Join(parts, ";")
}
