package pivot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factoryDataset() *Dataset {
	return &Dataset{
		Columns: []string{"Factory", "Name", "Count"},
		Rows: []Row{
			{"Factory": Text("A"), "Name": Text("x"), "Count": Number(1)},
			{"Factory": Text("A"), "Name": Text("y"), "Count": Number(2)},
			{"Factory": Text("B"), "Name": Text("x"), "Count": Number(3)},
		},
	}
}

func sumRequest(groups ...GroupColumn) Request {
	return Request{Groups: groups, Values: []string{"Count"}, Op: OpSum}
}

func TestBuild_FactoryNameExample(t *testing.T) {
	table, err := Build(factoryDataset(), sumRequest(WithTotals("Factory"), WithTotals("Name")))
	require.NoError(t, err)

	expected := [][]string{
		{"A", "x", "1"},
		{"A", "y", "2"},
		{"A", "_TOTAL", "3"},
		{"B", "x", "3"},
		{"B", "_TOTAL", "3"},
		{"_TOTAL", "x", "4"},
		{"_TOTAL", "y", "2"},
		{"_TOTAL", "_TOTAL", "6"},
	}
	assert.Equal(t, expected, table.Records())
	assert.Equal(t, []string{"Factory", "Name", "Count"}, table.Header())
	assert.Equal(t, 3, table.Count(RowDetail))
	assert.Equal(t, 4, table.Count(RowSubtotal))
	assert.Equal(t, 1, table.Count(RowGrandTotal))

	grand := table.Rows[len(table.Rows)-1]
	assert.Equal(t, RowGrandTotal, grand.Kind)
	assert.Empty(t, grand.GroupedOn)

	sub := table.Find("_TOTAL", "x")
	require.NotNil(t, sub)
	assert.Equal(t, []string{"Name"}, sub.GroupedOn)
	assert.Equal(t, RowSubtotal, sub.Kind)
}

func TestBuild_RowCountLaw(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Region", "Team", "Person", "Amount"},
		Rows: []Row{
			{"Region": Text("East"), "Team": Text("red"), "Person": Text("ann"), "Amount": Number(5)},
			{"Region": Text("East"), "Team": Text("red"), "Person": Text("bob"), "Amount": Number(7)},
			{"Region": Text("East"), "Team": Text("blue"), "Person": Text("cy"), "Amount": Number(1)},
			{"Region": Text("West"), "Team": Text("blue"), "Person": Text("ann"), "Amount": Number(2)},
			{"Region": Text("West"), "Team": Text("green"), "Person": Text("dee"), "Amount": Number(9)},
		},
	}

	tests := []struct {
		name   string
		groups GroupSpec
	}{
		{"no eligible columns", GroupSpec{By("Region"), By("Team"), By("Person")}},
		{"one eligible column", GroupSpec{WithTotals("Region"), By("Team"), By("Person")}},
		{"two eligible columns", GroupSpec{WithTotals("Region"), WithTotals("Team"), By("Person")}},
		{"all eligible", GroupSpec{WithTotals("Region"), WithTotals("Team"), WithTotals("Person")}},
		{"single column", GroupSpec{WithTotals("Region")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{Groups: tt.groups, Values: []string{"Amount"}, Op: OpSum}
			table, err := Build(ds, req)
			require.NoError(t, err)

			base, err := aggregateBase(ds, req)
			require.NoError(t, err)
			expected := len(base.rows) + 1
			for _, on := range subtotalSubsets(tt.groups) {
				expected += len(base.regroup(on).rows)
			}
			assert.Equal(t, expected, table.Len())

			for _, r := range table.Rows {
				assert.Len(t, r.Key, len(tt.groups))
			}
			last := table.Rows[table.Len()-1]
			assert.Equal(t, RowGrandTotal, last.Kind)
			assert.Equal(t, "24", last.Values[0].String())
		})
	}
}

func TestSubtotalSubsets(t *testing.T) {
	tests := []struct {
		name     string
		groups   GroupSpec
		expected [][]int
	}{
		{"none eligible", GroupSpec{By("a"), By("b")}, nil},
		{"all of two eligible stops below full width", GroupSpec{WithTotals("a"), WithTotals("b")}, [][]int{{0}, {1}}},
		{"eligible subset smaller than width", GroupSpec{By("a"), WithTotals("b")}, [][]int{{1}}},
		{
			"three eligible",
			GroupSpec{WithTotals("a"), WithTotals("b"), WithTotals("c")},
			[][]int{{0}, {1}, {2}, {0, 1}, {0, 2}, {1, 2}},
		},
		{
			"two eligible of three",
			GroupSpec{WithTotals("a"), By("b"), WithTotals("c")},
			[][]int{{0}, {2}, {0, 2}},
		},
		{"single eligible column", GroupSpec{WithTotals("a")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, subtotalSubsets(tt.groups))
		})
	}
}

func TestBuild_SentinelOrdering(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Factory", "Name", "Count"},
		Rows: []Row{
			{"Factory": Text("zeta"), "Name": Text("~tilde"), "Count": Number(1)},
			{"Factory": Text("Zeta"), "Name": Text("zz"), "Count": Number(1)},
			{"Factory": Text("alpha"), "Name": Text("_TOTAL"), "Count": Number(1)},
			{"Factory": Text("alpha"), "Name": Text("b"), "Count": Number(1)},
		},
	}
	table, err := Build(ds, sumRequest(WithTotals("Factory"), WithTotals("Name")))
	require.NoError(t, err)

	for i, r := range table.Rows {
		for j := i + 1; j < len(table.Rows); j++ {
			other := table.Rows[j]
			if r.Kind == RowDetail && other.Kind != RowDetail && samePrefixBeforeTotal(r.Key, other.Key) {
				continue
			}
			if other.Kind == RowDetail && r.Kind != RowDetail && samePrefixBeforeTotal(other.Key, r.Key) {
				t.Fatalf("subtotal %v sorted before detail %v", r.KeyStrings(), other.KeyStrings())
			}
		}
	}

	// a literal "_TOTAL" data value is a detail row, not a rolled-up key
	assert.Equal(t, []string{"alpha", "b"}, table.Rows[0].KeyStrings())
	literal := table.Rows[1]
	assert.Equal(t, []string{"alpha", "_TOTAL"}, literal.KeyStrings())
	assert.Equal(t, RowDetail, literal.Kind)
	assert.False(t, literal.Key[1].Total)
	assert.Equal(t, []string{"alpha", "_TOTAL"}, table.Rows[2].KeyStrings())
	assert.Equal(t, RowSubtotal, table.Rows[2].Kind)
	assert.True(t, table.Rows[2].Key[1].Total)
	assert.Equal(t, RowGrandTotal, table.Rows[table.Len()-1].Kind)
}

// samePrefixBeforeTotal reports whether detail shares every component of
// subtotal up to the first rolled-up one.
func samePrefixBeforeTotal(detail, subtotal []KeyPart) bool {
	for i, k := range subtotal {
		if k.Total {
			return true
		}
		if compareParts(detail[i], k) != 0 {
			return false
		}
	}
	return false
}

func TestBuild_CaseInsensitiveSort(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Name", "Count"},
		Rows: []Row{
			{"Name": Text("banana"), "Count": Number(1)},
			{"Name": Text("Apple"), "Count": Number(1)},
			{"Name": Text("cherry"), "Count": Number(1)},
			{"Name": Text("apricot"), "Count": Number(1)},
		},
	}
	table, err := Build(ds, sumRequest(WithTotals("Name")))
	require.NoError(t, err)

	var keys []string
	for _, r := range table.Rows {
		keys = append(keys, r.Key[0].String())
	}
	assert.Equal(t, []string{"Apple", "apricot", "banana", "cherry", "_TOTAL"}, keys)
}

func TestBuild_NumericKeysSortNumerically(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Year", "Count"},
		Rows: []Row{
			{"Year": Number(10), "Count": Number(1)},
			{"Year": Number(9), "Count": Number(2)},
			{"Year": Number(100), "Count": Number(3)},
		},
	}
	table, err := Build(ds, sumRequest(By("Year")))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"9", "2"}, {"10", "1"}, {"100", "3"}, {"_TOTAL", "6"}}, table.Records())
}

func TestBuild_MixedKeyTypesKeepSubtotalsWithDetails(t *testing.T) {
	factories := []Value{Number(9), Text("5a"), Number(10), Number(100), Text("50b"), Number(7), Text("1z"), Number(20)}
	ds := &Dataset{Columns: []string{"Factory", "Name", "Count"}}
	for _, f := range factories {
		for _, name := range []string{"x", "y"} {
			ds.Rows = append(ds.Rows, Row{"Factory": f, "Name": Text(name), "Count": Number(1)})
		}
	}

	table, err := Build(ds, sumRequest(WithTotals("Factory"), By("Name")))
	require.NoError(t, err)
	require.Equal(t, 8*3+1, table.Len())

	var order []string
	for i, row := range table.Rows {
		switch row.Kind {
		case RowSubtotal:
			require.GreaterOrEqual(t, i, 2)
			factory := row.Key[0].String()
			for _, prev := range table.Rows[i-2 : i] {
				assert.Equal(t, RowDetail, prev.Kind)
				assert.Equal(t, factory, prev.Key[0].String(), "subtotal %d separated from its details", i)
			}
			assert.Equal(t, "2", row.Values[0].String())
			order = append(order, factory)
		case RowGrandTotal:
			assert.Equal(t, table.Len()-1, i)
		}
	}
	assert.Equal(t, []string{"7", "9", "10", "20", "100", "1z", "50b", "5a"}, order)
}

func TestBuild_MissingGroupsWithEmptyString(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Factory", "Name", "Count"},
		Rows: []Row{
			{"Factory": Text("A"), "Name": Missing(), "Count": Number(1)},
			{"Factory": Text("A"), "Name": Text(""), "Count": Number(2)},
			{"Factory": Text("A"), "Count": Number(4)},
		},
	}
	table, err := Build(ds, sumRequest(WithTotals("Factory"), By("Name")))
	require.NoError(t, err)

	assert.Equal(t, 1, table.Count(RowDetail))
	row := table.Find("A", "")
	require.NotNil(t, row)
	assert.Equal(t, "7", row.Values[0].String())
	assert.Equal(t, [][]string{{"A", "", "7"}, {"A", "_TOTAL", "7"}, {"_TOTAL", "_TOTAL", "7"}}, table.Records())
}

func TestBuild_EligibleColumnWithOneValue(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Factory", "Name", "Count"},
		Rows: []Row{
			{"Factory": Text("A"), "Name": Text("x"), "Count": Number(1)},
			{"Factory": Text("A"), "Name": Text("y"), "Count": Number(2)},
		},
	}
	table, err := Build(ds, sumRequest(WithTotals("Factory"), By("Name")))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"A", "x", "1"},
		{"A", "y", "2"},
		{"A", "_TOTAL", "3"},
		{"_TOTAL", "_TOTAL", "3"},
	}, table.Records())
}

func TestBuild_Operators(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Factory", "Name", "Count"},
		Rows: []Row{
			{"Factory": Text("A"), "Name": Text("x"), "Count": Number(1)},
			{"Factory": Text("A"), "Name": Text("x"), "Count": Number(5)},
			{"Factory": Text("A"), "Name": Text("y"), "Count": Number(3)},
			{"Factory": Text("B"), "Name": Text("x"), "Count": Missing()},
			{"Factory": Text("B"), "Name": Text("x"), "Count": Number(-2)},
		},
	}

	tests := []struct {
		op       AggOp
		detailAX string
		subtotA  string
		subtotX  string
		grand    string
	}{
		{OpSum, "6", "9", "4", "7"},
		{OpCount, "2", "3", "3", "4"},
		{OpMean, "3", "3", "1.3333333333333333", "1.75"},
		{OpMin, "1", "1", "-2", "-2"},
		{OpMax, "5", "5", "5", "5"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			table, err := Build(ds, Request{
				Groups: GroupSpec{WithTotals("Factory"), WithTotals("Name")},
				Values: []string{"Count"},
				Op:     tt.op,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.detailAX, table.Find("A", "x").Values[0].String())
			assert.Equal(t, tt.subtotA, table.Find("A", "_TOTAL").Values[0].String())
			assert.Equal(t, tt.subtotX, table.Find("_TOTAL", "x").Values[0].String())
			assert.Equal(t, tt.grand, table.Find("_TOTAL", "_TOTAL").Values[0].String())
		})
	}
}

func TestBuild_CountAcceptsText(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"team", "email"},
		Rows: []Row{
			{"team": Text("red"), "email": Text("a@x")},
			{"team": Text("red"), "email": Text("b@x")},
			{"team": Text("blue"), "email": Missing()},
		},
	}
	table, err := Build(ds, Request{Groups: GroupSpec{WithTotals("team")}, Values: []string{"email"}, Op: OpCount})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"blue", "0"}, {"red", "2"}, {"_TOTAL", "2"}}, table.Records())
}

func TestBuild_AllMissingValues(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"g", "v"},
		Rows:    []Row{{"g": Text("a"), "v": Missing()}},
	}

	sum, err := Build(ds, Request{Groups: GroupSpec{By("g")}, Values: []string{"v"}, Op: OpSum})
	require.NoError(t, err)
	assert.Equal(t, "0", sum.Find("a").Values[0].String())

	mean, err := Build(ds, Request{Groups: GroupSpec{By("g")}, Values: []string{"v"}, Op: OpMean})
	require.NoError(t, err)
	assert.True(t, mean.Find("a").Values[0].IsMissing())
}

func TestBuild_MultipleValueColumns(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Factory", "Total", "Assigned"},
		Rows: []Row{
			{"Factory": Text("A"), "Total": Number(10), "Assigned": Number(4)},
			{"Factory": Text("A"), "Total": Number(5), "Assigned": Number(5)},
			{"Factory": Text("B"), "Total": Number(1), "Assigned": Number(0)},
		},
	}
	table, err := Build(ds, Request{Groups: GroupSpec{WithTotals("Factory")}, Values: []string{"Total", "Assigned"}, Op: OpSum})
	require.NoError(t, err)

	assert.Equal(t, []string{"Factory", "Total", "Assigned"}, table.Header())
	assert.Equal(t, [][]string{
		{"A", "15", "9"},
		{"B", "1", "0"},
		{"_TOTAL", "16", "9"},
	}, table.Records())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ds      *Dataset
		req     Request
		kind    error
		message string
	}{
		{
			name: "nil dataset",
			ds:   nil,
			req:  sumRequest(By("Factory")),
			kind: ErrInvalidInput,
		},
		{
			name: "empty dataset",
			ds:   &Dataset{Columns: []string{"Factory", "Count"}},
			req:  sumRequest(By("Factory")),
			kind: ErrInvalidInput,
		},
		{
			name: "empty group spec",
			ds:   factoryDataset(),
			req:  Request{Values: []string{"Count"}, Op: OpSum},
			kind: ErrInvalidInput,
		},
		{
			name: "no value columns",
			ds:   factoryDataset(),
			req:  Request{Groups: GroupSpec{By("Factory")}, Op: OpSum},
			kind: ErrInvalidInput,
		},
		{
			name:    "unknown group column",
			ds:      factoryDataset(),
			req:     sumRequest(By("Plant")),
			kind:    ErrInvalidInput,
			message: `column "Plant"`,
		},
		{
			name:    "unknown value column",
			ds:      factoryDataset(),
			req:     Request{Groups: GroupSpec{By("Factory")}, Values: []string{"Qty"}, Op: OpSum},
			kind:    ErrInvalidInput,
			message: `column "Qty"`,
		},
		{
			name:    "value column overlaps group column",
			ds:      factoryDataset(),
			req:     Request{Groups: GroupSpec{By("Factory"), By("Name")}, Values: []string{"Name"}, Op: OpCount},
			kind:    ErrInvalidInput,
			message: "also a grouping column",
		},
		{
			name: "duplicate group column",
			ds:   factoryDataset(),
			req:  sumRequest(By("Factory"), WithTotals("Factory")),
			kind: ErrInvalidInput,
		},
		{
			name: "duplicate value column",
			ds:   factoryDataset(),
			req:  Request{Groups: GroupSpec{By("Factory")}, Values: []string{"Count", "Count"}, Op: OpSum},
			kind: ErrInvalidInput,
		},
		{
			name:    "non-numeric value for sum",
			ds:      factoryDataset(),
			req:     Request{Groups: GroupSpec{By("Factory")}, Values: []string{"Name"}, Op: OpSum},
			kind:    ErrInvalidInput,
			message: "non-numeric",
		},
		{
			name: "unsupported operator",
			ds:   factoryDataset(),
			req:  Request{Groups: GroupSpec{By("Factory")}, Values: []string{"Count"}, Op: AggOp("median")},
			kind: ErrUnsupportedAggregation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Build(tt.ds, tt.req)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.ErrorIs(t, err, tt.kind)

			var pe *Error
			assert.True(t, errors.As(err, &pe))
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestBuildContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := BuildContext(ctx, factoryDataset(), sumRequest(WithTotals("Factory"), WithTotals("Name")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, table)
}

func TestBuildContext_ConcurrencyDoesNotChangeResult(t *testing.T) {
	ds := &Dataset{Columns: []string{"a", "b", "c", "d", "v"}}
	for i := 0; i < 200; i++ {
		ds.Rows = append(ds.Rows, Row{
			"a": Text(string(rune('a' + i%3))),
			"b": Text(string(rune('k' + i%4))),
			"c": Number(float64(i % 5)),
			"d": Text(string(rune('p' + i%2))),
			"v": Number(float64(i)),
		})
	}
	req := Request{
		Groups: GroupSpec{WithTotals("a"), WithTotals("b"), WithTotals("c"), WithTotals("d")},
		Values: []string{"v"},
		Op:     OpMean,
	}

	sequential, err := BuildContext(context.Background(), ds, req, WithConcurrency(1))
	require.NoError(t, err)
	parallel, err := BuildContext(context.Background(), ds, req, WithConcurrency(8))
	require.NoError(t, err)

	assert.Equal(t, sequential.Records(), parallel.Records())
}

func TestRegroup_FullColumnSetIsIdentity(t *testing.T) {
	table, err := Build(factoryDataset(), sumRequest(WithTotals("Factory"), WithTotals("Name")))
	require.NoError(t, err)

	again, err := Regroup(table, []string{"Factory", "Name"})
	require.NoError(t, err)

	var details [][]string
	for i, r := range table.Records() {
		if table.Rows[i].Kind == RowDetail {
			details = append(details, r)
		}
	}
	assert.Equal(t, details, again.Records())
}

func TestRegroup_MatchesSubtotals(t *testing.T) {
	ds := factoryDataset()
	ds.Rows = append(ds.Rows, Row{"Factory": Text("B"), "Name": Text("y"), "Count": Number(10)})

	table, err := Build(ds, Request{Groups: GroupSpec{WithTotals("Factory"), WithTotals("Name")}, Values: []string{"Count"}, Op: OpMean})
	require.NoError(t, err)

	byName, err := Regroup(table, []string{"Name"})
	require.NoError(t, err)
	assert.Equal(t, table.Find("_TOTAL", "x").Values, byName.Find("x").Values)
	assert.Equal(t, table.Find("_TOTAL", "y").Values, byName.Find("y").Values)
}

func TestRegroup_Errors(t *testing.T) {
	table, err := Build(factoryDataset(), sumRequest(WithTotals("Factory"), WithTotals("Name")))
	require.NoError(t, err)

	_, err = Regroup(table, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Regroup(table, []string{"Plant"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Regroup(table, []string{"Name", "Name"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Regroup(&Table{GroupColumns: []string{"g"}, Rows: []ResultRow{{Key: []KeyPart{{Text: "a"}}}}}, []string{"g"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
