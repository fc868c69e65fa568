package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func mustAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleExpense() core.Record {
	return core.Record{
		ID:           1,
		OccurredOn:   core.NewDate(2024, 3, 5),
		CategoryName: "Food",
		Amount:       mustAmount("12.5"),
		Description:  "lunch",
	}
}

func TestFormatExpensesOnly(t *testing.T) {
	out, err := Format([]core.Record{sampleExpense()}, nil)
	require.NoError(t, err)

	want := strings.Join([]string{
		"{",
		`  "expenses": [`,
		"    {",
		`      "id": 1,`,
		`      "date": "2024-03-05",`,
		`      "category": "Food",`,
		`      "amount": 12.5,`,
		`      "description": "lunch"`,
		"    }",
		"  ]",
		"}",
	}, "\n")
	assert.Equal(t, want, out)
	assert.True(t, json.Valid([]byte(out)))
	assert.NotContains(t, out, "incomes")
}

func TestFormatIncomesPrecedeExpenses(t *testing.T) {
	income := core.Record{
		ID:           7,
		OccurredOn:   core.NewDate(2024, 3, 1),
		CategoryName: "Salary",
		Amount:       mustAmount("2500"),
		Description:  "march salary",
	}

	out, err := Format([]core.Record{sampleExpense()}, []core.Record{income})
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))

	incomesAt := strings.Index(out, `"incomes"`)
	expensesAt := strings.Index(out, `"expenses"`)
	require.GreaterOrEqual(t, incomesAt, 0)
	require.GreaterOrEqual(t, expensesAt, 0)
	assert.Less(t, incomesAt, expensesAt, "incomes key must precede expenses")
}

func TestFormatEmptyRecordSets(t *testing.T) {
	out, err := Format(nil, nil)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"expenses"`)
	assert.NotContains(t, out, `"incomes"`)

	out, err = Format(nil, []core.Record{})
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"incomes"`)
}

func TestFormatPassesStringContentsThrough(t *testing.T) {
	r := sampleExpense()
	r.Description = `lunch {with: "brackets", [commas]} & spaces`

	out, err := Format([]core.Record{r}, nil)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)), "output:\n%s", out)

	var doc struct {
		Expenses []struct {
			Description string `json:"description"`
		} `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Expenses, 1)
	assert.Equal(t, r.Description, doc.Expenses[0].Description)
}

func TestPrettyPrintStateMachine(t *testing.T) {
	got := prettyPrint(`{"a":1,"b":[true,null]}`)
	want := strings.Join([]string{
		"{",
		`  "a": 1,`,
		`  "b": [`,
		"    true,",
		"    null",
		"  ]",
		"}",
	}, "\n")
	assert.Equal(t, want, got)

	// Escaped quotes must not flip the in-string state.
	got = prettyPrint(`{"a":"he said \"hi, there\""}`)
	assert.Equal(t, "{\n  \"a\": \"he said \\\"hi, there\\\"\"\n}", got)
}
