// Package wallet tracks the records a single address owns: which are still
// spendable, which serial numbers they map to, and a JSON snapshot on disk.
// The ledger never learns any of this; spent detection works by re-deriving
// each record's serial number locally and asking the ledger whether it has
// appeared.
package wallet

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scipr-lab/zexe/internal/dpc"
)

// OwnedRecord is one record the wallet controls, with its derived serial
// number once known.
type OwnedRecord struct {
	Record       *dpc.Record `json:"record"`
	SerialNumber []byte      `json:"serialNumber,omitempty"`
	Spent        bool        `json:"spent"`
}

// Wallet holds an address key pair and its records.
type Wallet struct {
	mu sync.Mutex

	Address *dpc.AddressKeyPair `json:"address"`
	Records []*OwnedRecord      `json:"records"`

	log *zap.Logger
}

// New creates an empty wallet around an address.
func New(address *dpc.AddressKeyPair, log *zap.Logger) *Wallet {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wallet{Address: address, log: log}
}

// AddRecord registers a record the wallet now owns.
func (w *Wallet) AddRecord(r *dpc.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Records = append(w.Records, &OwnedRecord{Record: r})
	w.log.Debug("record added", zap.Binary("commitment", r.Commitment))
}

// UnspentRecords returns the records not yet marked spent.
func (w *Wallet) UnspentRecords() []*dpc.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*dpc.Record
	for _, or := range w.Records {
		if !or.Spent {
			out = append(out, or.Record)
		}
	}
	return out
}

// MarkSpent flags the record with the given commitment as consumed.
func (w *Wallet) MarkSpent(commitment []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, or := range w.Records {
		if string(or.Record.Commitment) == string(commitment) {
			or.Spent = true
			return
		}
	}
}

// SyncWithLedger derives each record's serial number and marks records
// whose serial number the ledger has seen. Returns how many records
// flipped to spent.
func (w *Wallet) SyncWithLedger(scheme *dpc.Scheme, pp *dpc.PublicParameters, ledger dpc.Ledger) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	flipped := 0
	for _, or := range w.Records {
		if or.SerialNumber == nil {
			sn, _, err := scheme.GenerateSerialNumber(pp, or.Record, &w.Address.Secret)
			if err != nil {
				return flipped, errors.Wrap(err, "wallet: derive serial number")
			}
			or.SerialNumber = sn
		}
		if !or.Spent && ledger.ContainsSerialNumber(or.SerialNumber) {
			or.Spent = true
			flipped++
		}
	}
	if flipped > 0 {
		w.log.Info("wallet synced", zap.Int("newlySpent", flipped))
	}
	return flipped, nil
}

// Save writes the wallet to path as JSON. The file contains the secret key
// material; keep it private.
func (w *Wallet) Save(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return errors.Wrap(err, "wallet: marshal")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "wallet: write")
	}
	return nil
}

// Load reads a wallet previously written by Save.
func Load(path string, log *zap.Logger) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "wallet: read")
	}
	w := &Wallet{}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, errors.Wrap(err, "wallet: unmarshal")
	}
	if log == nil {
		log = zap.NewNop()
	}
	w.log = log
	return w, nil
}
