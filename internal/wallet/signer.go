package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions for a signing account.
type Signer struct {
	account *Account
	ks      KeyStore

	once sync.Once
	key  *ecdsa.PrivateKey
	err  error
}

// NewSigner creates a signer for the given account.
func NewSigner(a *Account, ks KeyStore) (*Signer, error) {
	if !a.CanSign() {
		return nil, fmt.Errorf("%w: %s", ErrWatchOnly, a.Name)
	}
	return &Signer{account: a, ks: ks}, nil
}

// NewKeySigner signs with key directly, bypassing any keystore.
func NewKeySigner(name string, key *ecdsa.PrivateKey) *Signer {
	s := &Signer{
		account: &Account{Name: name, Address: crypto.PubkeyToAddress(key.PublicKey).Hex(), Type: TypeSigning},
		key:     key,
	}
	s.once.Do(func() {})
	return s
}

// Sign signs tx for chainID with the London signer.
func (s *Signer) Sign(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// SignTx signs tx and returns the raw RLP-encoded bytes.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	signed, err := s.Sign(tx, chainID)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// Address returns the signing address.
func (s *Signer) Address() common.Address {
	return s.account.CommonAddress()
}

// Name returns the account name.
func (s *Signer) Name() string {
	return s.account.Name
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	s.once.Do(func() {
		hexKey, err := s.ks.Retrieve(s.account.KeyRef)
		if err != nil {
			s.err = fmt.Errorf("retrieving key: %w", err)
			return
		}
		s.key, s.err = crypto.HexToECDSA(normaliseHexKey(hexKey))
		if s.err != nil {
			s.err = fmt.Errorf("parsing private key: %w", s.err)
		}
	})
	return s.key, s.err
}
