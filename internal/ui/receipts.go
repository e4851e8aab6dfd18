package ui

import (
	"strconv"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
)

// ReceiptsTable lays out mined transactions one per row.
func ReceiptsTable(rs []*chain.TxReceipt) *Table {
	t := NewTable([]Column{
		{Title: "BLOCK", Width: 6},
		{Title: "TX", Width: 13},
		{Title: "FROM", Width: 13},
		{Title: "METHOD", Width: 18},
		{Title: "VALUE", Width: 14},
		{Title: "GAS", Width: 8},
		{Title: "STATUS", Width: 8},
	})
	for _, r := range rs {
		method := r.Method
		if method == "" {
			method = "transfer"
			if r.To == nil {
				method = "deploy"
			}
		}
		status := "success"
		if !r.Succeeded() {
			status = "reverted"
		}
		t.AddRow(
			strconv.FormatUint(r.BlockNumber, 10),
			TruncateAddr(r.TxHash.Hex()),
			TruncateAddr(r.From.Hex()),
			method,
			chain.WeiToETH(r.Value),
			strconv.FormatUint(r.GasUsed, 10),
			status,
		)
	}
	return t
}

// ReceiptDetail renders one receipt as a key-value block.
func ReceiptDetail(r *chain.TxReceipt) string {
	pairs := [][2]string{
		{"tx", r.TxHash.Hex()},
		{"block", strconv.FormatUint(r.BlockNumber, 10)},
		{"from", r.From.Hex()},
	}
	if r.To != nil {
		pairs = append(pairs, [2]string{"to", r.To.Hex()})
	} else {
		pairs = append(pairs, [2]string{"contract", r.ContractAddress.Hex()})
	}
	if r.Method != "" {
		pairs = append(pairs, [2]string{"method", r.Method})
	}
	pairs = append(pairs,
		[2]string{"value", FormatETH(r.Value)},
		[2]string{"gas used", strconv.FormatUint(r.GasUsed, 10)},
		[2]string{"fee", FormatETH(r.Fee())},
	)
	if r.Succeeded() {
		pairs = append(pairs, [2]string{"status", "success"})
	} else {
		reason := r.RevertReason
		if reason == "" {
			reason = "reverted"
		}
		pairs = append(pairs, [2]string{"status", "reverted: " + reason})
	}
	return KeyValueBlock("Receipt", pairs)
}
