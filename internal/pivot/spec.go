package pivot

import (
	"fmt"
	"strings"
)

// GroupColumn is one grouping level. Subtotal marks columns that may be
// rolled up into subtotal rows.
type GroupColumn struct {
	Name     string `json:"column" validate:"required"`
	Subtotal bool   `json:"subtotal"`
}

// GroupSpec lists grouping columns in nesting order.
type GroupSpec []GroupColumn

// By returns a grouping column that never gets its own subtotal rows.
func By(name string) GroupColumn { return GroupColumn{Name: name} }

// WithTotals returns a subtotal-eligible grouping column.
func WithTotals(name string) GroupColumn { return GroupColumn{Name: name, Subtotal: true} }

// Names returns the column names in order.
func (g GroupSpec) Names() []string {
	names := make([]string, len(g))
	for i, c := range g {
		names[i] = c.Name
	}
	return names
}

// eligible returns the positions of subtotal-eligible columns.
func (g GroupSpec) eligible() []int {
	var idx []int
	for i, c := range g {
		if c.Subtotal {
			idx = append(idx, i)
		}
	}
	return idx
}

// String renders the spec in the form accepted by ParseGroupSpec.
func (g GroupSpec) String() string {
	parts := make([]string, len(g))
	for i, c := range g {
		if c.Subtotal {
			parts[i] = c.Name + ":total"
		} else {
			parts[i] = c.Name
		}
	}
	return strings.Join(parts, ",")
}

// ParseGroupSpec parses a comma separated list such as "Factory:total,Name".
// A ":total" (or ":t", ":true", ":yes") suffix marks the column subtotal-eligible.
func ParseGroupSpec(s string) (GroupSpec, error) {
	var spec GroupSpec
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		name, flag, hasFlag := strings.Cut(field, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, invalidInput("", "empty column name in group spec %q", s)
		}
		col := By(name)
		if hasFlag {
			switch strings.ToLower(strings.TrimSpace(flag)) {
			case "total", "t", "true", "yes":
				col.Subtotal = true
			case "", "false", "no":
			default:
				return nil, invalidInput(name, "unknown group flag %q", flag)
			}
		}
		spec = append(spec, col)
	}
	if len(spec) == 0 {
		return nil, invalidInput("", "group spec %q names no columns", s)
	}
	return spec, nil
}

// AggOp is the aggregation applied to every value column.
type AggOp string

const (
	OpSum   AggOp = "sum"
	OpCount AggOp = "count"
	OpMean  AggOp = "mean"
	OpMin   AggOp = "min"
	OpMax   AggOp = "max"
)

// Ops lists the supported aggregation operators.
var Ops = []AggOp{OpSum, OpCount, OpMean, OpMin, OpMax}

// ParseAggOp resolves an operator name, case-insensitively. "avg" is accepted
// for mean.
func ParseAggOp(s string) (AggOp, error) {
	op := AggOp(strings.ToLower(strings.TrimSpace(s)))
	if op == "avg" || op == "average" {
		op = OpMean
	}
	if !op.Valid() {
		return "", &Error{Kind: ErrUnsupportedAggregation, Msg: fmt.Sprintf("operator %q is not one of %v", s, Ops)}
	}
	return op, nil
}

// Valid reports whether op can be computed in two stages.
func (op AggOp) Valid() bool {
	switch op {
	case OpSum, OpCount, OpMean, OpMin, OpMax:
		return true
	}
	return false
}

// Request describes one pivot build.
type Request struct {
	Groups GroupSpec
	Values []string
	Op     AggOp
}
