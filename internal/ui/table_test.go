package ui

import (
	"math/big"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	assert.Equal(t, "ab   ", fit("ab", 5))
	assert.Equal(t, "abcde", fit("abcde", 5))
	assert.Equal(t, "abcd…", fit("abcdefgh", 5))
	assert.Equal(t, "…", fit("abc", 1))
	assert.Equal(t, "", fit("abc", 0))
	assert.Equal(t, 4, lipgloss.Width(fit("✓✓✓✓✓✓", 4)))
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{{Title: "NAME", Width: 6}, {Title: "ADDR", Width: 8}})
	tbl.AddRow("dev0", "0xabc")
	tbl.AddRow("attacker-long-name")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "ADDR")
	assert.Contains(t, lines[1], "──────")
	assert.Contains(t, lines[2], "dev0")
	assert.Contains(t, lines[3], "attac…")
}

func TestKeyValueBlock(t *testing.T) {
	out := KeyValueBlock("Contract", [][2]string{{"owner", "0x1"}, {"affiliates", "3"}})
	assert.Contains(t, out, "Contract")
	assert.Contains(t, out, "owner:")
	assert.Contains(t, out, "affiliates:")
	assert.Contains(t, out, "3")
}

func TestReceiptsTable(t *testing.T) {
	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	rs := []*chain.TxReceipt{
		{BlockNumber: 1, Value: new(big.Int), Status: types.ReceiptStatusSuccessful, GasUsed: 90000},
		{BlockNumber: 2, To: &to, Method: "joinPonzi", Value: big.NewInt(1e18), Status: types.ReceiptStatusFailed},
		{BlockNumber: 3, To: &to, Value: big.NewInt(1), Status: types.ReceiptStatusFailed},
	}
	tbl := ReceiptsTable(rs)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "deploy", tbl.Rows[0][3])
	assert.Equal(t, "success", tbl.Rows[0][6])
	assert.Equal(t, "joinPonzi", tbl.Rows[1][3])
	assert.Equal(t, "1", tbl.Rows[1][4])
	assert.Equal(t, "reverted", tbl.Rows[1][6])
	assert.Equal(t, "transfer", tbl.Rows[2][3])
}

func TestReceiptDetail(t *testing.T) {
	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	out := ReceiptDetail(&chain.TxReceipt{
		To: &to, Method: "ownerWithdraw", Value: new(big.Int),
		Status: types.ReceiptStatusFailed, RevertReason: "NotOwner()",
		GasUsed: 21000, EffectiveGasPrice: big.NewInt(1),
	})
	assert.Contains(t, out, "ownerWithdraw")
	assert.Contains(t, out, "reverted: NotOwner()")
	assert.Contains(t, out, to.Hex())
}
