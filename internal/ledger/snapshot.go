package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type snapshot struct {
	Owners    map[common.Address]common.Address            `json:"owners"`
	Balances  map[common.Address]map[common.Address]uint64 `json:"balances"`
	Supply    map[common.Address]uint64                    `json:"supply"`
	UpdatedAt string                                       `json:"updated_at"`
}

// LoadMemoryLedger reads a ledger snapshot written by SaveFile. A missing
// file yields an empty ledger.
func LoadMemoryLedger(path string) (*MemoryLedger, error) {
	l := NewMemoryLedger()
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}
	for account, owner := range snap.Owners {
		l.owners[account] = owner
	}
	for asset, holders := range snap.Balances {
		for holder, amount := range holders {
			l.setBalance(asset, holder, amount)
		}
	}
	for asset, supply := range snap.Supply {
		l.supply[asset] = supply
	}
	return l, nil
}

// SaveFile writes the ledger to path through a temporary file.
func (l *MemoryLedger) SaveFile(path string) error {
	if path == "" {
		return nil
	}

	l.mu.RLock()
	snap := snapshot{
		Owners:    l.owners,
		Balances:  l.balances,
		Supply:    l.supply,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}
