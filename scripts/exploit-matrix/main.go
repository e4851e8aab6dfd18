// exploit-matrix: replays every exploit scenario against fresh contracts
// across a grid of prices and gas modes in parallel and prints a summary
// table.
//
// Run from the module root:
//
//	go run ./scripts/exploit-matrix
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/Mohsinsiddi/ponzilab/internal/scenario"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum/params"
)

// ── config ────────────────────────────────────────────────────────────────────

// prices in ETH: unit price, owner role price
var priceGrid = [][2]string{
	{"1", "10"},
	{"0.01", "0.1"},
	{"5", "1"},
}

// 0 estimates every transaction
var gasModes = []uint64{0, 3_000_000}

const (
	signerCount = 5
	runTimeout  = time.Minute
)

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	scenario string
	prices   string
	gas      string
	verdict  string
	detail   string
	sortKey  string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, entry := range scenario.All() {
		for _, prices := range priceGrid {
			for _, gas := range gasModes {
				wg.Add(1)
				go func(entry scenario.Entry, prices [2]string, gas uint64) {
					defer wg.Done()

					ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
					defer cancel()

					r := result{
						scenario: entry.Name,
						prices:   prices[0] + " / " + prices[1],
						gas:      gasLabel(gas),
						sortKey:  fmt.Sprintf("%s|%s|%s|%d", entry.Name, prices[0], prices[1], gas),
					}

					report, err := runOne(ctx, entry, prices, gas)
					switch {
					case err != nil:
						r.verdict = "error"
						r.detail = shortErr(err)
					case report.Succeeded:
						r.verdict = "EXPLOITED"
						r.detail = summary(report)
					default:
						r.verdict = "held"
						r.detail = summary(report)
					}

					mu.Lock()
					results = append(results, r)
					mu.Unlock()
				}(entry, prices, gas)
			}
		}
	}

	wg.Wait()

	printTable(results)
}

func runOne(ctx context.Context, entry scenario.Entry, prices [2]string, gas uint64) (*scenario.Report, error) {
	unit, err := chain.ParseETH(prices[0])
	if err != nil {
		return nil, err
	}
	owner, err := chain.ParseETH(prices[1])
	if err != nil {
		return nil, err
	}

	b := chain.NewBackend()
	signers := make([]*wallet.Signer, signerCount)
	for i := range signers {
		key, err := wallet.DevKey(i)
		if err != nil {
			return nil, err
		}
		signers[i] = wallet.NewKeySigner(wallet.DevName(i), key)
		b.Fund(signers[i].Address(), new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether)))
	}

	env, err := scenario.Setup(ctx, b, signers, ponzi.Params{UnitPrice: unit, OwnerRolePrice: owner}, scenario.WithGasLimit(gas))
	if err != nil {
		return nil, err
	}
	return entry.Run(ctx, env)
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool { return results[i].sortKey < results[j].sortKey })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "SCENARIO\tPRICES (ETH)\tGAS\tVERDICT\tDETAIL")
	fmt.Fprintln(w, strings.Repeat("-", 18)+"\t"+
		strings.Repeat("-", 12)+"\t"+
		strings.Repeat("-", 9)+"\t"+
		strings.Repeat("-", 9)+"\t"+
		strings.Repeat("-", 40))

	lastScenario := ""
	exploited := 0
	for _, r := range results {
		if r.scenario != lastScenario {
			if lastScenario != "" {
				fmt.Fprintln(w, "\t\t\t\t") // blank separator between scenarios
			}
			lastScenario = r.scenario
		}
		if r.verdict == "EXPLOITED" {
			exploited++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.scenario, r.prices, r.gas, r.verdict, r.detail)
	}
	w.Flush()

	fmt.Printf("\n%d/%d runs exploited the contract\n", exploited, len(results))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func gasLabel(gas uint64) string {
	if gas == 0 {
		return "estimate"
	}
	return fmt.Sprintf("%d", gas)
}

// summary joins the first two facts of a report.
func summary(r *scenario.Report) string {
	var parts []string
	for i, f := range r.Facts {
		if i == 2 {
			break
		}
		parts = append(parts, f.Label+"="+f.Value)
	}
	return strings.Join(parts, ", ")
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 50 {
		return s[:47] + "..."
	}
	return s
}
