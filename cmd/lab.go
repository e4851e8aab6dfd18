package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/client"
	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/Mohsinsiddi/ponzilab/internal/store"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// lab is the persisted chain plus the account book, opened for one command.
type lab struct {
	store    *store.Store
	backend  *chain.Backend
	accounts *wallet.Manager
	fresh    bool // no snapshot was stored yet
}

// openLab restores the chain from the config directory. Callers must Close.
func openLab() (*lab, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.ChainDBPath())
	if err != nil {
		return nil, err
	}
	l := &lab{store: st, backend: b}

	snap, err := st.LoadSnapshot()
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		l.fresh = true
	case err != nil:
		st.Close() //nolint:errcheck
		return nil, err
	default:
		if err := b.Restore(snap); err != nil {
			st.Close() //nolint:errcheck
			if errors.Is(err, chain.ErrInvalidChainID) {
				return nil, fmt.Errorf("%w\n  chain_id changed since the chain was created; run `ponzilab init --reset`", err)
			}
			return nil, err
		}
	}

	ks, err := wallet.OpenFileKeystore(cfg.KeyringDir(), cfg.KeyringPass())
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	l.accounts = wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.AccountsPath())),
		wallet.WithKeyStore(ks),
	)

	log.WithFields(logrus.Fields{
		"db":    st.Path(),
		"block": b.BlockNumber(),
		"fresh": l.fresh,
	}).Debug("chain opened")
	return l, nil
}

// newBackend returns an empty chain configured from cfg.
func newBackend() (*chain.Backend, error) {
	gasPrice, err := cfg.GasPrice()
	if err != nil {
		return nil, err
	}
	return chain.NewBackend(
		chain.WithChainID(cfg.ChainID),
		chain.WithGasPrice(gasPrice),
		chain.WithLogger(log),
	), nil
}

// reset wipes the stored chain and starts over at block 0.
func (l *lab) reset() error {
	if err := l.store.Reset(); err != nil {
		return err
	}
	b, err := newBackend()
	if err != nil {
		return err
	}
	l.backend = b
	l.fresh = true
	return nil
}

// save writes the current chain state back to disk.
func (l *lab) save() error {
	return l.store.SaveSnapshot(l.backend.Snapshot())
}

func (l *lab) Close() error {
	return l.store.Close()
}

// account resolves --from, then the configured default, then the account
// book's own default.
func (l *lab) account() (*wallet.Account, error) {
	ref := fromFlag
	if ref == "" {
		ref = cfg.DefaultAccount
	}
	if ref != "" {
		return l.accounts.Resolve(ref)
	}
	if a := l.accounts.Default(); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("no accounts yet; run `ponzilab init` first")
}

func (l *lab) signer() (*wallet.Signer, error) {
	a, err := l.account()
	if err != nil {
		return nil, err
	}
	s, err := l.accounts.Signer(a.Name)
	if errors.Is(err, wallet.ErrWatchOnly) {
		return nil, fmt.Errorf("account %q is watch-only and cannot sign transactions", a.Name)
	}
	return s, err
}

// session attaches to --contract (or the default contract). With sign set
// the session acts as the resolved account.
func (l *lab) session(sign bool) (*client.Session, error) {
	addr, err := cfg.ResolveContract(contractFlag)
	if err != nil {
		if errors.Is(err, config.ErrContractNotFound) {
			return nil, fmt.Errorf("%w\n  Deploy one with: ponzilab deploy", err)
		}
		return nil, err
	}
	if _, err := l.backend.Contract(addr); err != nil {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), err)
	}

	var s *wallet.Signer
	if sign {
		if s, err = l.signer(); err != nil {
			return nil, err
		}
	}
	sess := client.NewSession(l.backend, addr, s)
	if tx := sess.Transactor(); tx != nil {
		tx.GasLimit = cfg.GasLimit
	}
	return sess, nil
}

// txContext bounds a single transaction or call.
func txContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), config.TxTimeout)
}

// writeTx runs one state-changing contract call and persists the chain if
// the transaction was mined, reverted or not.
func writeTx(cmd *cobra.Command, send func(ctx context.Context, l *lab, sess *client.Session) (*chain.TxReceipt, error)) error {
	l, err := openLab()
	if err != nil {
		return err
	}
	defer l.Close() //nolint:errcheck

	sess, err := l.session(true)
	if err != nil {
		return err
	}

	ctx, cancel := txContext(cmd)
	defer cancel()

	receipt, txErr := send(ctx, l, sess)
	if receipt != nil {
		if err := l.save(); err != nil {
			return fmt.Errorf("saving chain: %w", err)
		}
		printReceipt(cmd, receipt)
	}
	return txErr
}

func printReceipt(cmd *cobra.Command, r *chain.TxReceipt) {
	out := cmd.OutOrStdout()
	method := r.Method
	if r.To == nil {
		method = "deploy"
	}
	line := fmt.Sprintf("%s mined in block %d  gas %d  fee %s", method, r.BlockNumber, r.GasUsed, ui.FormatETH(r.Fee()))
	if r.Succeeded() {
		fmt.Fprintln(out, ui.Success(line))
	} else {
		fmt.Fprintln(out, ui.Err(line+"  (reverted)"))
	}
	fmt.Fprintln(out, ui.Meta("  tx "+r.TxHash.Hex()))
}

// parseAddress accepts an account name or a hex address.
func (l *lab) parseAddress(ref string) (common.Address, error) {
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	a, err := l.accounts.Get(ref)
	if err != nil {
		return common.Address{}, fmt.Errorf("%q is neither an address nor a known account", ref)
	}
	return a.CommonAddress(), nil
}
