package contract

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Selector pairs a function or error signature with its 4-byte selector.
type Selector struct {
	Kind      string // "function" | "error" | "event"
	Signature string // e.g. "joinPonzi(address[])"
	Hex       string // 0x-prefixed; full 32-byte topic for events
}

// Signature returns the canonical signature, e.g. "ownerWithdraw(address,uint256)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// functionSelector computes the 4-byte selector for a function or error.
func functionSelector(e ABIEntry) string {
	return "0x" + hex.EncodeToString(keccak([]byte(e.Signature()))[:4])
}

// eventTopic computes topic0 for an event.
func eventTopic(e ABIEntry) string {
	return "0x" + hex.EncodeToString(keccak([]byte(e.Signature())))
}

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Selectors lists every function, error and event of entries sorted by
// kind then signature.
func Selectors(entries []ABIEntry) []Selector {
	var out []Selector
	for _, e := range entries {
		switch e.Type {
		case "function", "error":
			out = append(out, Selector{Kind: e.Type, Signature: e.Signature(), Hex: functionSelector(e)})
		case "event":
			out = append(out, Selector{Kind: e.Type, Signature: e.Signature(), Hex: eventTopic(e)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind // function, event, error
		}
		return out[i].Signature < out[j].Signature
	})
	return out
}
