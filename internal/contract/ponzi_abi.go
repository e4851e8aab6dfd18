package contract

import "encoding/json"

// ABIEntry is one ABI entry (function, event, error, constructor).
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// PonziABI describes the PonziContract surface. The misspelled
// "addNewAffilliate" and "_afilliates" names are kept so selectors match
// the deployed Solidity contract.
//
// Run `ponzilab abi selectors` for the computed selector values.
var PonziABI = []ABIEntry{
	{
		Type: "constructor",
		Inputs: []ABIParam{
			{Name: "unitPrice", Type: "uint256"},
			{Name: "ownerRolePrice", Type: "uint256"},
		},
		StateMutability: "nonpayable",
	},
	// ── write ────────────────────────────────────────────────────────────────
	{
		Name: "joinPonzi", Type: "function",
		Inputs:          []ABIParam{{Name: "_afilliates", Type: "address[]"}},
		StateMutability: "payable",
	},
	{
		Name: "addNewAffilliate", Type: "function",
		Inputs:          []ABIParam{{Name: "newAfilliate", Type: "address"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "buyOwnerRole", Type: "function",
		Inputs:          []ABIParam{{Name: "newAdmin", Type: "address"}},
		StateMutability: "payable",
	},
	{
		Name: "ownerWithdraw", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "setDeadline", Type: "function",
		Inputs:          []ABIParam{{Name: "_regDeadline", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	// ── read ─────────────────────────────────────────────────────────────────
	{
		Name: "affiliatesCount", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "affiliates", Type: "function",
		Inputs:          []ABIParam{{Name: "index", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "view",
	},
	{
		Name: "isAffiliate", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "view",
	},
	{
		Name: "owner", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "view",
	},
	{
		Name: "registrationDeadline", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	// ── events ───────────────────────────────────────────────────────────────
	{
		Name: "OwnershipTransferred", Type: "event",
		Inputs: []ABIParam{
			{Name: "previousOwner", Type: "address", Indexed: true},
			{Name: "newOwner", Type: "address", Indexed: true},
		},
	},
	// ── errors ───────────────────────────────────────────────────────────────
	{Name: "DeadlinePassed", Type: "error", Inputs: []ABIParam{}},
	{Name: "IncorrectPayment", Type: "error", Inputs: []ABIParam{}},
	{Name: "AffiliateCountMismatch", Type: "error", Inputs: []ABIParam{}},
	{Name: "InsufficientPayment", Type: "error", Inputs: []ABIParam{}},
	{Name: "NotOwner", Type: "error", Inputs: []ABIParam{}},
	{Name: "InsufficientBalance", Type: "error", Inputs: []ABIParam{}},
	{Name: "IndexOutOfRange", Type: "error", Inputs: []ABIParam{}},
}

// PonziABIJSON returns the ABI as a JSON array.
func PonziABIJSON() []byte {
	data, err := json.Marshal(PonziABI)
	if err != nil {
		panic(err) // static data
	}
	return data
}
