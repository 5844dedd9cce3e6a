package extract

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiptPage = `<!DOCTYPE html>
<html><body>
<table id="tabResult">
  <tr id="Item + 1">
    <td><span class="txtTit2">BANANA PRATA KG</span>
      <span class="Rqtd"><strong>Qtde.:</strong>0,345</span>
      <span class="RvlUnit"><strong>Vl. Unit.:</strong>&nbsp;5,79</span></td>
    <td class="txtTit noWrap">Vl. Total<br><span class="valor">2,00</span></td>
  </tr>
  <tr id="Item + 2">
    <td><span class="txtTit2">COCA-COLA 2L</span>
      <span class="Rqtd"><strong>Qtde.:</strong>2</span>
      <span class="RvlUnit"><strong>Vl. Unit.:</strong>&nbsp;9,99</span></td>
    <td><span class="valor">19,98</span></td>
  </tr>
  <tr id="Item + 3">
    <td><span class="txtTit2">TV 50 POL</span>
      <span class="RvlUnit">1.999,00</span></td>
    <td><span class="valor">1.999,00</span></td>
  </tr>
  <tr id="Header"><td>not an item</td></tr>
</table>
<div id="totalNota">
  <div id="linhaTotal"><label>Qtd. total de itens:</label><span class="totalNumb">3</span></div>
  <div id="linhaTotal"><label>Valor total R$:</label><span class="totalNumb">2.020,98</span></div>
  <div id="linhaTotal"><label>Descontos R$:</label><span class="totalNumb">0,50</span></div>
</div>
</body></html>`

func TestExtract(t *testing.T) {
	res, err := Extract(strings.NewReader(receiptPage))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	banana := res.Items[0]
	assert.Equal(t, 0, banana.Index)
	assert.Equal(t, "BANANA PRATA KG", banana.Name)
	assert.True(t, banana.Quantity.Equal(decimal.RequireFromString("0.345")))
	assert.True(t, banana.UnitPrice.Equal(decimal.RequireFromString("5.79")))
	assert.True(t, banana.TotalPrice.Equal(decimal.RequireFromString("2.00")))

	coke := res.Items[1]
	assert.Equal(t, 1, coke.Index)
	assert.True(t, coke.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, coke.TotalPrice.Equal(decimal.RequireFromString("19.98")))

	tv := res.Items[2]
	assert.True(t, tv.Quantity.Equal(decimal.NewFromInt(1)), "missing quantity defaults to 1")
	assert.True(t, tv.TotalPrice.Equal(decimal.RequireFromString("1999")))

	assert.True(t, res.TotalAmount.Equal(decimal.RequireFromString("2020.98")))
	assert.True(t, res.TotalDiscount.Equal(decimal.RequireFromString("0.50")))
	assert.Equal(t, 3, res.TotalItemCount)
	assert.Empty(t, res.Warnings)
}

func TestExtractSkipsRowsWithoutName(t *testing.T) {
	page := `<table>
	  <tr id="Item + 1"><td><span class="Rqtd">1</span><span class="valor">3,00</span></td></tr>
	  <tr id="Item + 2"><td><span class="txtTit2">ARROZ 5KG</span><span class="valor">25,90</span></td></tr>
	</table>`

	res, err := Extract(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "ARROZ 5KG", res.Items[0].Name)
	assert.Equal(t, 0, res.Items[0].Index)
	assert.True(t, res.Items[0].UnitPrice.IsZero(), "missing unit price defaults to 0")
	assert.True(t, res.HasWarning(WarnMissingName))
}

func TestExtractMissingFooterIsNonFatal(t *testing.T) {
	page := `<table><tr id="Item + 1"><td><span class="txtTit2">LEITE</span><span class="valor">4,50</span></td></tr></table>`

	res, err := Extract(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	assert.True(t, res.TotalAmount.IsZero())
	assert.True(t, res.TotalDiscount.IsZero())
	assert.Zero(t, res.TotalItemCount)
	assert.True(t, res.HasWarning(WarnMissingTotal))
	assert.True(t, res.HasWarning(WarnTotalMismatch))
	assert.True(t, res.HasWarning(WarnCountMismatch))
}

func TestExtractTotalToleranceAndCount(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		count        string
		wantMismatch bool
		wantCount    bool
	}{
		{"exact", "10,00", "2", false, false},
		{"within tolerance", "10,01", "2", false, false},
		{"outside tolerance", "10,02", "2", true, false},
		{"count differs", "10,00", "3", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<table>
			  <tr id="Item1"><td><span class="txtTit2">A</span><span class="valor">4,00</span></td></tr>
			  <tr id="Item2"><td><span class="txtTit2">B</span><span class="valor">6,00</span></td></tr>
			</table>
			<div id="totalNota">
			  <div id="linhaTotal"><label>Qtd. total de itens:</label><span class="totalNumb">` + tt.count + `</span></div>
			  <div id="linhaTotal"><label>Valor total R$:</label><span class="totalNumb">` + tt.total + `</span></div>
			  <div id="linhaTotal"><label>Descontos R$:</label><span class="totalNumb">0,00</span></div>
			</div>`

			res, err := Extract(strings.NewReader(page))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMismatch, res.HasWarning(WarnTotalMismatch))
			assert.Equal(t, tt.wantCount, res.HasWarning(WarnCountMismatch))
		})
	}
}

func TestExtractEmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"empty", ""},
		{"plain text", "no receipt here"},
		{"unclosed tags", `<table><tr id="Item1"><td><span class="txtTit2">SABAO`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract(strings.NewReader(tt.page))
			require.NoError(t, err)
			assert.NotNil(t, res)
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5,99", "5.99"},
		{"R$ 1.234,56", "1234.56"},
		{"12.50", "12.5"},
		{"", "0"},
		{"abc", "0"},
		{"-1,50", "-1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseMoney(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	qty, ok := parseQuantity("Qtde.:0,345")
	require.True(t, ok)
	assert.True(t, qty.Equal(decimal.RequireFromString("0.345")))

	_, ok = parseQuantity("Qtde.:")
	assert.False(t, ok)
}
