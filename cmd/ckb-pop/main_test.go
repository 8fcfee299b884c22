package main

import (
	"crypto/sha256"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/config"
	"github.com/ckb-pop/cli/internal/errs"
	"github.com/ckb-pop/cli/internal/ledger"
	"github.com/ckb-pop/cli/internal/record"
)

func TestResolveSigner_NoneConfigured(t *testing.T) {
	e := env{cfg: config.Default(), logger: zap.NewNop()}
	if _, err := e.resolveSigner(); !errors.Is(err, errs.ErrNoSigner) {
		t.Fatalf("want ErrNoSigner, got %v", err)
	}
}

func TestResolveSigner_BrowserBinding(t *testing.T) {
	cfg := config.Default()
	cfg.Signer = config.SignerBinding{Method: "browser", Address: "ckt1qaddr"}
	e := env{cfg: cfg, logger: zap.NewNop()}

	s, err := e.resolveSigner()
	if err != nil {
		t.Fatalf("resolveSigner: %v", err)
	}
	if s.Address() != "ckt1qaddr" {
		t.Fatalf("address = %q", s.Address())
	}
}

func TestResolveSigner_UnknownMethod(t *testing.T) {
	cfg := config.Default()
	cfg.Signer = config.SignerBinding{Method: "abacus", Address: "ckt1qaddr"}
	e := env{cfg: cfg, logger: zap.NewNop()}
	if _, err := e.resolveSigner(); err == nil {
		t.Fatal("unknown method must fail")
	}
}

func TestEventRows_SkipsUndecodableCells(t *testing.T) {
	anchor := record.AnchorCellData("evt1", "ckt1qcreator", "mh")
	cells := []ledger.Cell{
		{OutputData: chain.EncodeHex(anchor), BlockNumber: 7},
		{OutputData: "0x0101ffff"}, // not JSON
		{OutputData: "zzz"},        // not even hex
	}

	rows := eventRows(cells)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].EventID != "evt1" || rows[0].CreatorAddress != "ckt1qcreator" || rows[0].MetadataHash != "mh" {
		t.Fatalf("row mismatch: %+v", rows[0])
	}
	if rows[0].BlockNumber != 7 {
		t.Fatalf("block number = %d", rows[0].BlockNumber)
	}
}

func TestBadgeRows_ExposesArgsHalves(t *testing.T) {
	eh := sha256.Sum256([]byte("evt1"))
	hh := sha256.Sum256([]byte("ckt1qholder"))
	args := append(append([]byte{}, eh[:]...), hh[:]...)

	cells := []ledger.Cell{
		{
			Output: chain.CellOutput{Type: &chain.Script{
				CodeHash: "0x" + "ab",
				HashType: chain.HashTypeType,
				Args:     chain.EncodeHex(args),
			}},
			OutputData: chain.EncodeHex(record.BadgeCellData("evt1", "ckt1qissuer", "")),
		},
		{OutputData: "0x01"}, // no type script
	}

	rows := badgeRows(cells)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].EventHash != chain.EncodeHex(eh[:]) {
		t.Fatalf("event hash = %s", rows[0].EventHash)
	}
	if rows[0].HolderHash != chain.EncodeHex(hh[:]) {
		t.Fatalf("holder hash = %s", rows[0].HolderHash)
	}
}

func TestOptString(t *testing.T) {
	if optString("") != nil {
		t.Fatal("empty string must map to nil")
	}
	if v := optString("x"); v == nil || *v != "x" {
		t.Fatalf("got %v", v)
	}
}
