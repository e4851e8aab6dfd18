package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account types.
const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
	TypeDev       = "dev" // deterministic lab key, see DevKey
)

// Errors.
var (
	ErrAccountNotFound = errors.New("wallet: account not found")
	ErrAccountExists   = errors.New("wallet: account already exists")
	ErrInvalidKey      = errors.New("wallet: invalid private key")
	ErrWatchOnly       = errors.New("wallet: account is watch-only and cannot sign")
)

// Account holds metadata for a single identity. Private keys live in the
// keystore under KeyRef, never here.
type Account struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	KeyRef    string `json:"key_ref,omitempty"`
	DevIndex  int    `json:"dev_index,omitempty"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// CommonAddress returns the parsed address.
func (a *Account) CommonAddress() common.Address {
	return common.HexToAddress(a.Address)
}

// CanSign reports whether the account has a stored key.
func (a *Account) CanSign() bool {
	return a.Type == TypeSigning || a.Type == TypeDev
}

// Store is an interface for persisting accounts.
type Store interface {
	Load() ([]*Account, error)
	Save([]*Account) error
}

// Manager handles account CRUD.
type Manager struct {
	mu       sync.Mutex
	store    Store
	keys     KeyStore
	accounts map[string]*Account
	loaded   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore uses an in-memory store (useful for tests).
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
	}
}

// WithStore sets a custom store.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithKeyStore sets where private keys are kept.
func WithKeyStore(ks KeyStore) Option {
	return func(m *Manager) {
		m.keys = ks
	}
}

// NewManager creates a new account manager. Without options it keeps
// everything in memory.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		accounts: make(map[string]*Account),
		store:    &memStore{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.keys == nil {
		m.keys = NewMemoryKeystore()
	}
	return m
}

// Add registers a watch-only (or pre-built) account.
func (m *Manager) Add(name string, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return err
	}
	if _, exists := m.accounts[name]; exists {
		return fmt.Errorf("%w: %s", ErrAccountExists, name)
	}
	if !common.IsHexAddress(a.Address) {
		return fmt.Errorf("wallet: invalid address %q", a.Address)
	}
	a.Name = name
	a.Address = common.HexToAddress(a.Address).Hex()
	if a.Type == "" {
		a.Type = TypeWatchOnly
	}
	if a.CreatedAt == "" {
		a.CreatedAt = now()
	}
	m.accounts[name] = a
	return m.persist()
}

// AddWithKey derives the address from a hex private key and stores the
// account. The key goes to the keystore.
func (m *Manager) AddWithKey(name, hexKey string) (*Account, error) {
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return m.addKey(name, key, TypeSigning, 0)
}

// Generate creates an account with a fresh random key.
func (m *Manager) Generate(name string) (*Account, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return m.addKey(name, key, TypeSigning, 0)
}

// DevAccounts makes sure the first n deterministic lab accounts exist,
// named dev0 … dev(n-1), and returns them in index order. Existing ones are
// left untouched.
func (m *Manager) DevAccounts(n int) ([]*Account, error) {
	out := make([]*Account, 0, n)
	for i := 0; i < n; i++ {
		name := DevName(i)
		if a, err := m.Get(name); err == nil {
			out = append(out, a)
			continue
		}
		key, err := DevKey(i)
		if err != nil {
			return nil, err
		}
		a, err := m.addKey(name, key, TypeDev, i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Get returns an account by name.
func (m *Manager) Get(name string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return nil, err
	}
	a, ok := m.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	return a, nil
}

// Resolve finds an account by name or by hex address.
func (m *Manager) Resolve(nameOrAddr string) (*Account, error) {
	if a, err := m.Get(nameOrAddr); err == nil {
		return a, nil
	}
	if !common.IsHexAddress(nameOrAddr) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, nameOrAddr)
	}
	want := common.HexToAddress(nameOrAddr)
	for _, a := range m.List() {
		if a.CommonAddress() == want {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, nameOrAddr)
}

// Remove deletes an account and its stored key.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return err
	}
	a, ok := m.accounts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	if a.KeyRef != "" {
		if err := m.keys.Delete(a.KeyRef); err != nil {
			return fmt.Errorf("deleting key: %w", err)
		}
	}
	delete(m.accounts, name)
	return m.persist()
}

// List returns all accounts: dev accounts by index, then the rest by name.
func (m *Manager) List() []*Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load() //nolint:errcheck
	out := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Type == TypeDev, out[j].Type == TypeDev
		switch {
		case di && dj:
			return out[i].DevIndex < out[j].DevIndex
		case di != dj:
			return di
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SetDefault marks an account as the default sender.
func (m *Manager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return err
	}
	if _, ok := m.accounts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	for _, a := range m.accounts {
		a.IsDefault = a.Name == name
	}
	return m.persist()
}

// Default returns the default account, or nil if none.
func (m *Manager) Default() *Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load() //nolint:errcheck
	for _, a := range m.accounts {
		if a.IsDefault {
			return a
		}
	}
	if a, ok := m.accounts[DevName(0)]; ok {
		return a
	}
	if len(m.accounts) == 1 {
		for _, a := range m.accounts {
			return a
		}
	}
	return nil
}

// Signer returns a transaction signer for the named account.
func (m *Manager) Signer(name string) (*Signer, error) {
	a, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	return NewSigner(a, m.keys)
}

// --- internal ---

func (m *Manager) addKey(name string, key *ecdsa.PrivateKey, typ string, devIndex int) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return nil, err
	}
	if _, exists := m.accounts[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, name)
	}

	ref, err := m.keys.Store(name, common.Bytes2Hex(crypto.FromECDSA(key)))
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}

	a := &Account{
		Name:      name,
		Address:   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Type:      typ,
		KeyRef:    ref,
		DevIndex:  devIndex,
		CreatedAt: now(),
	}
	m.accounts[name] = a
	if err := m.persist(); err != nil {
		return nil, err
	}
	return a, nil
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	accounts, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		m.accounts[a.Name] = a
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	accounts := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return m.store.Save(accounts)
}

func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// --- in-memory store ---

type memStore struct {
	accounts []*Account
}

func (s *memStore) Load() ([]*Account, error) {
	return s.accounts, nil
}

func (s *memStore) Save(accounts []*Account) error {
	s.accounts = accounts
	return nil
}

// --- JSON file store ---

// JSONStore persists accounts to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed account store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Account, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return accounts, nil
}

func (s *JSONStore) Save(accounts []*Account) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
