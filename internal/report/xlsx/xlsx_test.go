package xlsx

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/report"
)

func sampleReport(locale string) report.Report {
	expenses := []core.Expense{
		{ID: "1", Amount: core.NewMoney(1200, 0), Category: core.Necessity, Description: "Rent", Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Amount: core.NewMoney(19, 99), Category: core.Want, Description: "Streaming", Date: time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC)},
	}
	summary := core.ComputeSummary(core.NewMoney(5000, 0), expenses)
	labels := report.LabelsFor(locale)
	labels.Location = time.UTC
	return report.Build(expenses, summary, labels)
}

func rawRows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

func TestRenderWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(sampleReport("pt-BR"), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Despesas", "Resumo"}, f.GetSheetList())

	expenses := rawRows(t, f, "Despesas")
	require.Len(t, expenses, 3)
	assert.Equal(t, []string{"Data", "Descrição", "Categoria", "Valor"}, expenses[0])
	assert.Equal(t, []string{"01/04/2025", "Rent", "Necessidade", "1200"}, expenses[1])
	assert.Equal(t, []string{"12/04/2025", "Streaming", "Desejo", "19.99"}, expenses[2])

	summary := rawRows(t, f, "Resumo")
	require.Len(t, summary, 13)
	assert.Equal(t, []string{"Item", "Valor"}, summary[0])
	assert.Equal(t, []string{"Renda Mensal", "5000"}, summary[1])
	assert.Equal(t, []string{"Restante - Desejos", "1480.01"}, summary[11])
}

func TestRenderEmptyReport(t *testing.T) {
	r := report.Build(nil, core.ComputeSummary(core.Money{}, nil), report.LabelsFor("en"))

	data, err := Bytes(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, [][]string{{"Date", "Description", "Category", "Amount"}}, rawRows(t, f, "Expenses"))
	assert.Len(t, rawRows(t, f, "Summary"), 13)
}

func TestWriterExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2025, time.April, 30, 12, 0, 0, 0, time.UTC)
	w := New(dir, WithClock(func() time.Time { return now }), WithLogger(applog.Discard()))

	path, err := w.Export(context.Background(), sampleReport("en"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Budget_50-30-20_2025-04-30.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Expenses", "Summary"}, f.GetSheetList())
}
