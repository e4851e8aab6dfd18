package wallet

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const keyringService = "ponzilab"

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("wallet: key not found")

// KeyStore keeps hex private keys under opaque references.
type KeyStore interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore is a KeyStore over a 99designs keyring.
type Keystore struct {
	ring keyring.Keyring
}

// NewKeystore wraps an open keyring.
func NewKeystore(ring keyring.Keyring) *Keystore {
	return &Keystore{ring: ring}
}

// NewMemoryKeystore returns a keystore that never touches disk.
func NewMemoryKeystore() *Keystore {
	return &Keystore{ring: keyring.NewArrayKeyring(nil)}
}

// OpenFileKeystore opens an encrypted file keyring in dir. Keys are
// encrypted with password.
func OpenFileKeystore(dir, password string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating keyring dir: %w", err)
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      keyringService,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(password),
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Keystore{ring: ring}, nil
}

// Store saves a private key for an account name and returns its reference.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	ref := keyringService + "." + name
	err := k.ring.Set(keyring.Item{
		Key:   ref,
		Data:  []byte(normaliseHexKey(hexKey)),
		Label: "ponzilab account " + name,
	})
	if err != nil {
		return "", fmt.Errorf("keyring store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key by its reference.
func (k *Keystore) Retrieve(ref string) (string, error) {
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keyring retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key. Deleting a missing key is not an error.
func (k *Keystore) Delete(ref string) error {
	err := k.ring.Remove(ref)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// Keys lists every stored reference.
func (k *Keystore) Keys() ([]string, error) {
	return k.ring.Keys()
}
