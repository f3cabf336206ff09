package pivot

import (
	"context"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// Option tunes BuildContext.
type Option func(*buildOptions)

type buildOptions struct {
	concurrency int
}

// WithConcurrency bounds how many subtotal levels are aggregated at once.
// Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(o *buildOptions) { o.concurrency = n }
}

// Build computes the subtotal pivot of ds described by req.
func Build(ds *Dataset, req Request) (*Table, error) {
	return BuildContext(context.Background(), ds, req)
}

// BuildContext is Build with cancellation and options. No partial table is
// returned on error.
func BuildContext(ctx context.Context, ds *Dataset, req Request, opts ...Option) (*Table, error) {
	o := buildOptions{concurrency: runtime.GOMAXPROCS(0)}
	for _, fn := range opts {
		fn(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	if err := Validate(ds, req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := aggregateBase(ds, req)
	if err != nil {
		return nil, err
	}

	subsets := subtotalSubsets(req.Groups)
	levels := make([]level, len(subsets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, on := range subsets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			levels[i] = base.regroup(on)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grand := base.regroup(nil)

	names := req.Groups.Names()
	t := &Table{
		GroupColumns: names,
		ValueColumns: slices.Clone(req.Values),
		Op:           req.Op,
	}
	if err := t.appendLevel(base, RowDetail); err != nil {
		return nil, err
	}
	for _, l := range levels {
		if err := t.appendLevel(l, RowSubtotal); err != nil {
			return nil, err
		}
	}
	if err := t.appendLevel(grand, RowGrandTotal); err != nil {
		return nil, err
	}

	t.sort()
	return t, nil
}

// Validate checks req against ds without aggregating anything.
func Validate(ds *Dataset, req Request) error {
	if ds == nil || len(ds.Rows) == 0 {
		return invalidInput("", "dataset is empty")
	}
	if len(req.Groups) == 0 {
		return invalidInput("", "at least one grouping column is required")
	}
	if len(req.Values) == 0 {
		return invalidInput("", "at least one value column is required")
	}
	if !req.Op.Valid() {
		return &Error{Kind: ErrUnsupportedAggregation, Msg: "operator " + strconv.Quote(string(req.Op)) + " cannot be re-aggregated across subtotal levels"}
	}

	grouped := make(map[string]bool, len(req.Groups))
	for _, g := range req.Groups {
		if g.Name == "" {
			return invalidInput("", "grouping column name is empty")
		}
		if grouped[g.Name] {
			return invalidInput(g.Name, "listed more than once in group spec")
		}
		if !ds.HasColumn(g.Name) {
			return invalidInput(g.Name, "unknown grouping column")
		}
		grouped[g.Name] = true
	}

	seen := make(map[string]bool, len(req.Values))
	for _, v := range req.Values {
		if grouped[v] {
			return invalidInput(v, "value column is also a grouping column")
		}
		if seen[v] {
			return invalidInput(v, "value column listed more than once")
		}
		if !ds.HasColumn(v) {
			return invalidInput(v, "unknown value column")
		}
		seen[v] = true
	}
	return nil
}

// level is one intermediate aggregation, tagged with the group column
// positions it was grouped on. Each row's parts line up with on.
type level struct {
	on   []int
	rows []levelRow
}

type levelRow struct {
	parts []KeyPart
	state []partial
}

func aggregateBase(ds *Dataset, req Request) (level, error) {
	n := len(req.Groups)
	base := level{on: make([]int, n)}
	for i := range base.on {
		base.on[i] = i
	}

	index := make(map[string]int)
	var buf []byte
	for ri, row := range ds.Rows {
		parts := make([]KeyPart, n)
		for i, g := range req.Groups {
			// missing grouping values group with the empty string
			parts[i] = keyPartOf(row[g.Name])
		}

		buf = encodeKey(buf[:0], parts)
		pos, ok := index[string(buf)]
		if !ok {
			pos = len(base.rows)
			index[string(buf)] = pos
			base.rows = append(base.rows, levelRow{parts: parts, state: make([]partial, len(req.Values))})
		}

		st := base.rows[pos].state
		for vi, col := range req.Values {
			v := row[col]
			switch v.Kind {
			case KindNumber:
				st[vi].addNumber(v.Num)
			case KindText:
				if req.Op != OpCount {
					return level{}, invalidInput(col, "row %d: non-numeric value %q", ri+1, v.Text)
				}
				st[vi].addPresent()
			}
		}
	}
	return base, nil
}

// regroup merges l onto the given group column positions, which must all be
// present in l.on. A nil on collapses everything into one row.
func (l level) regroup(on []int) level {
	pick := make([]int, len(on))
	for i, col := range on {
		pick[i] = slices.Index(l.on, col)
	}

	out := level{on: on}
	index := make(map[string]int)
	var buf []byte
	for _, r := range l.rows {
		parts := make([]KeyPart, len(pick))
		for i, p := range pick {
			parts[i] = r.parts[p]
		}
		buf = encodeKey(buf[:0], parts)
		pos, ok := index[string(buf)]
		if !ok {
			pos = len(out.rows)
			index[string(buf)] = pos
			out.rows = append(out.rows, levelRow{parts: parts, state: make([]partial, len(r.state))})
		}
		mergeAll(out.rows[pos].state, r.state)
	}
	if len(l.rows) == 0 && len(on) == 0 {
		out.rows = append(out.rows, levelRow{})
	}
	return out
}

// subtotalSubsets returns every combination of subtotal-eligible columns of
// size 1 up to min(k, n-1), in group spec order.
func subtotalSubsets(g GroupSpec) [][]int {
	eligible := g.eligible()
	maxSize := min(len(eligible), len(g)-1)
	var out [][]int
	for size := 1; size <= maxSize; size++ {
		combinations(eligible, size, func(c []int) {
			out = append(out, slices.Clone(c))
		})
	}
	return out
}

func combinations(items []int, size int, fn func([]int)) {
	chosen := make([]int, 0, size)
	var walk func(start int)
	walk = func(start int) {
		if len(chosen) == size {
			fn(chosen)
			return
		}
		for i := start; i <= len(items)-(size-len(chosen)); i++ {
			chosen = append(chosen, items[i])
			walk(i + 1)
			chosen = chosen[:len(chosen)-1]
		}
	}
	walk(0)
}

// reconcile widens each row key of l to width components, filling positions
// l was not grouped on with the total marker.
func reconcile(l level, width int) ([][]KeyPart, error) {
	seen := make(map[int]bool, len(l.on))
	for _, col := range l.on {
		if col < 0 || col >= width {
			return nil, &Error{Kind: ErrKeyReconciliation, Msg: "level grouped on column position " + strconv.Itoa(col) + " outside key of width " + strconv.Itoa(width)}
		}
		if seen[col] {
			return nil, &Error{Kind: ErrKeyReconciliation, Msg: "level grouped on column position " + strconv.Itoa(col) + " twice"}
		}
		seen[col] = true
	}

	keys := make([][]KeyPart, len(l.rows))
	for i, r := range l.rows {
		if len(r.parts) != len(l.on) {
			return nil, &Error{Kind: ErrKeyReconciliation, Msg: "row key has " + strconv.Itoa(len(r.parts)) + " components, level is grouped on " + strconv.Itoa(len(l.on))}
		}
		key := make([]KeyPart, width)
		for j := range key {
			key[j] = TotalPart()
		}
		for j, col := range l.on {
			key[col] = r.parts[j]
		}
		keys[i] = key
	}
	return keys, nil
}

func (t *Table) appendLevel(l level, kind RowKind) error {
	keys, err := reconcile(l, len(t.GroupColumns))
	if err != nil {
		return err
	}
	groupedOn := make([]string, len(l.on))
	for i, col := range l.on {
		groupedOn[i] = t.GroupColumns[col]
	}
	for i, r := range l.rows {
		values := make([]Value, len(t.ValueColumns))
		for vi := range values {
			if vi < len(r.state) {
				values[vi] = r.state[vi].finalize(t.Op)
			} else {
				values[vi] = (partial{}).finalize(t.Op)
			}
		}
		t.Rows = append(t.Rows, ResultRow{
			Key:       keys[i],
			Values:    values,
			Kind:      kind,
			GroupedOn: groupedOn,
			state:     r.state,
		})
	}
	return nil
}

func (t *Table) sort() {
	slices.SortStableFunc(t.Rows, func(a, b ResultRow) int {
		return compareKeys(a.Key, b.Key)
	})
}

// Regroup re-aggregates the detail rows of t on cols, which must be a subset
// of t's group columns. Re-aggregating on every group column reproduces the
// detail rows unchanged.
func Regroup(t *Table, cols []string) (*Table, error) {
	if len(cols) == 0 {
		return nil, invalidInput("", "at least one grouping column is required")
	}
	on := make([]int, len(cols))
	for i, c := range cols {
		pos := slices.Index(t.GroupColumns, c)
		if pos < 0 {
			return nil, invalidInput(c, "not a group column of the table")
		}
		if slices.Contains(on[:i], pos) {
			return nil, invalidInput(c, "listed more than once")
		}
		on[i] = pos
	}

	src := level{on: make([]int, len(t.GroupColumns))}
	for i := range src.on {
		src.on[i] = i
	}
	for _, r := range t.Rows {
		if r.Kind != RowDetail {
			continue
		}
		if r.state == nil {
			return nil, invalidInput("", "table rows carry no aggregation state")
		}
		src.rows = append(src.rows, levelRow{parts: r.Key, state: r.state})
	}

	out := &Table{
		GroupColumns: slices.Clone(cols),
		ValueColumns: slices.Clone(t.ValueColumns),
		Op:           t.Op,
	}
	// positions in the new table are 0..len(cols)-1
	l := src.regroup(on)
	l.on = make([]int, len(on))
	for i := range l.on {
		l.on[i] = i
	}
	if err := out.appendLevel(l, RowDetail); err != nil {
		return nil, err
	}
	out.sort()
	return out, nil
}

func encodeKey(buf []byte, parts []KeyPart) []byte {
	for _, p := range parts {
		if p.Numeric {
			buf = append(buf, 'n')
		} else {
			buf = append(buf, 's')
		}
		buf = strconv.AppendInt(buf, int64(len(p.Text)), 10)
		buf = append(buf, ':')
		buf = append(buf, p.Text...)
	}
	return buf
}
