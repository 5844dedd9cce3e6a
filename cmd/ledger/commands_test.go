package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/model"
)

const testPage = `<html><body><table id="tabResult">
<tr id="Item + 1"><td><span class="txtTit2">AGUA MINERAL</span>
<span class="Rqtd"><strong>Qtde.:</strong>1</span>
<span class="RvlUnit"><strong>Vl. Unit.:</strong>&nbsp;2,50</span></td>
<td><span class="valor">2,50</span></td></tr>
<tr id="Item + 2"><td><span class="txtTit2">ARROZ 5KG</span>
<span class="Rqtd"><strong>Qtde.:</strong>1</span>
<span class="RvlUnit"><strong>Vl. Unit.:</strong>&nbsp;25,90</span></td>
<td><span class="valor">25,90</span></td></tr>
</table>
<div id="totalNota">
<div id="linhaTotal"><label>Qtd. total de itens:</label><span class="totalNumb">2</span></div>
<div id="linhaTotal"><label>Valor total R$:</label><span class="totalNumb">28,40</span></div>
<div id="linhaTotal"><label>Descontos R$:</label><span class="totalNumb">0,00</span></div>
</div></body></html>`

// newBackend serves the receipt page and an OpenAI compatible endpoint.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/nfce", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		reply := map[string]any{
			"model": "test",
			"choices": []map[string]any{{
				"message": map[string]string{
					"role":    "assistant",
					"content": `{"Beverages": [0], "Grains & Pasta": [1]}`,
				},
				"finish_reason": "stop",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLedgerCommands(t *testing.T) {
	server := newBackend(t)
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "ledger.prom")

	t.Setenv("HOME", dir)
	t.Setenv("LEDGER_LLM_API_KEY", "test-key")
	t.Setenv("LEDGER_LLM_BASE_URL", server.URL+"/v1")
	t.Setenv("LEDGER_METRICS_TEXTFILE", metricsFile)
	db := filepath.Join(dir, "ledger.db")
	receiptURL := server.URL + "/nfce?p=35240512345678000190"

	out, err := runCLI(t, "", "--db", db, "--log-level", "error", "ingest", "--date", "2024-05-31", receiptURL)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Receipt #1, 2024-05-31, 2 items, total R$ 28.40")
	assert.Contains(t, out, "2 classified")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ledger_receipts_ingested_total")

	out, err = runCLI(t, "", "--db", db, "receipts", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Beverages")
	assert.Contains(t, out, "[0] AGUA MINERAL")
	assert.Contains(t, out, "Grains & Pasta")

	out, err = runCLI(t, "", "--db", db, "receipts", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Receipt #1 is consistent")

	out, err = runCLI(t, "", "--db", db, "items", "recategorize", "1", "Household Items")
	require.NoError(t, err)
	assert.Contains(t, out, "AGUA MINERAL moved from Beverages to Household Items")

	out, err = runCLI(t, "", "--db", db, "patterns", "test", "Agua Mineral (3x)")
	require.NoError(t, err)
	assert.Contains(t, out, "Household Items")

	out, err = runCLI(t, "", "--db", db, "categories", "items", "Household Items")
	require.NoError(t, err)
	assert.Contains(t, out, "AGUA MINERAL")

	out, err = runCLI(t, "", "--db", db, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "May 2024")

	_, err = runCLI(t, "", "--db", db, "ingest", "--date", "2024-05-31", receiptURL)
	require.ErrorIs(t, err, common.ErrReceiptExists)
	assert.Contains(t, common.UserMessage(err), "--overwrite")

	out, err = runCLI(t, "n\n", "--db", db, "receipts", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing deleted")

	out, err = runCLI(t, "", "--db", db, "receipts", "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted receipt #1")

	out, err = runCLI(t, "", "--db", db, "receipts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No receipts yet")
}

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"receipts":   {"list", "show", "delete", "verify"},
		"items":      {"recategorize", "bundle"},
		"patterns":   {"list", "add", "delete", "test"},
		"categories": {"list", "items"},
	}

	for parent, children := range want {
		t.Run(parent, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{parent})
			require.NoError(t, err)
			names := make([]string, 0, len(cmd.Commands()))
			for _, c := range cmd.Commands() {
				names = append(names, c.Name())
			}
			assert.ElementsMatch(t, children, names)
		})
	}

	for _, name := range []string{"ingest", "categorize", "summary", "migrate", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestIngestFlags(t *testing.T) {
	cmd := ingestCmd()
	for _, name := range []string{"date", "overwrite", "file"} {
		assert.NotNil(t, cmd.Flag(name), "flag %s", name)
	}
	assert.Equal(t, "false", cmd.Flag("overwrite").DefValue)
}

func TestParseCategoryArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    model.Category
		wantErr bool
	}{
		{arg: "Beverages", want: model.CategoryBeverages},
		{arg: "grains & pasta", want: model.CategoryGrainsPasta},
		{arg: "Laticínios", want: model.CategoryDairy},
		{arg: "8", want: model.CategoryHouseholdItems},
		{arg: "Snacks", wantErr: true},
		{arg: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseCategoryArg(tt.arg)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHelpers(t *testing.T) {
	id, err := parseID("42", "receipt id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad, "receipt id")
		assert.ErrorIs(t, err, common.ErrValidation, bad)
	}

	indices, err := parseIndices([]string{"0", "3"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, indices)
	_, err = parseIndices([]string{"1", "-1"})
	assert.ErrorIs(t, err, common.ErrValidation)

	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	d, err := parseDate("", now)
	require.NoError(t, err)
	assert.Equal(t, now, d)
	d, err = parseDate("2024-05-31", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-31", d.Format(time.DateOnly))
	_, err = parseDate("31/05/2024", now)
	assert.ErrorIs(t, err, common.ErrValidation)
}
