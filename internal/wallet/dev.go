package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
)

// devKey0 is account #0 of the standard development mnemonic, so lab
// output lines up with what local node tooling prints.
const devKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// DevName is the account name of dev key i.
func DevName(i int) string { return "dev" + strconv.Itoa(i) }

// DevKey returns deterministic lab key i. Key 0 is the well-known
// development key; the rest are derived by hashing.
func DevKey(i int) (*ecdsa.PrivateKey, error) {
	if i < 0 {
		return nil, fmt.Errorf("wallet: negative dev index %d", i)
	}
	if i == 0 {
		return crypto.HexToECDSA(devKey0)
	}
	seed := crypto.Keccak256([]byte("ponzilab/dev/" + strconv.Itoa(i)))
	for {
		key, err := crypto.ToECDSA(seed)
		if err == nil {
			return key, nil
		}
		seed = crypto.Keccak256(seed)
	}
}
