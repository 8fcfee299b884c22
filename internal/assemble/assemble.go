// Package assemble builds unsigned CKB transactions carrying PoP records.
// The output side only: funding inputs and fees are the signer's job,
// since only the key holder can choose which of their cells to spend.
package assemble

import (
	"fmt"
	"math"

	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/contracts"
	"github.com/ckb-pop/cli/internal/popcrypto"
	"github.com/ckb-pop/cli/internal/record"
)

// Capacity constants. The minimum capacity formula must match the node's
// own acceptance rule exactly: (8 + occupied bytes) * 1 CKB.
const (
	cellOverheadBytes        = 8
	shannonsPerByte   uint64 = 100_000_000
)

// Assemble builds an unsigned transaction with exactly one output (the new
// record cell at minimum capacity) and one cell dependency.
func Assemble(recordData []byte, ownerLock, typeScript chain.Script, dep chain.CellDep) (chain.Transaction, error) {
	capacity, err := minCapacity(recordData, ownerLock, typeScript)
	if err != nil {
		return chain.Transaction{}, err
	}

	return chain.Transaction{
		CellDeps:   []chain.CellDep{dep},
		HeaderDeps: []string{},
		Inputs:     []chain.CellInput{},
		Outputs: []chain.CellOutput{{
			Capacity: chain.HexUint64(capacity),
			Lock:     ownerLock,
			Type:     &typeScript,
		}},
		OutputsData: []string{chain.EncodeHex(recordData)},
		Witnesses:   []string{},
	}, nil
}

// EventAnchorTx builds the unsigned transaction anchoring a new event.
// metadataHash may be empty.
func EventAnchorTx(info contracts.ScriptInfo, eventID, creatorAddress string, creatorLock chain.Script, metadataHash string) (chain.Transaction, error) {
	typeScript, err := typeScriptFor(info, eventID, creatorAddress)
	if err != nil {
		return chain.Transaction{}, err
	}
	data := record.AnchorCellData(eventID, creatorAddress, metadataHash)
	return Assemble(data, creatorLock, typeScript, info.CellDep())
}

// BadgeMintTx builds the unsigned transaction minting a badge for a
// recipient. proofHash may be empty for organizer mints.
func BadgeMintTx(info contracts.ScriptInfo, eventID, recipientAddress string, recipientLock chain.Script, issuerAddress, proofHash string) (chain.Transaction, error) {
	typeScript, err := typeScriptFor(info, eventID, recipientAddress)
	if err != nil {
		return chain.Transaction{}, err
	}
	data := record.BadgeCellData(eventID, issuerAddress, proofHash)
	return Assemble(data, recipientLock, typeScript, info.CellDep())
}

func typeScriptFor(info contracts.ScriptInfo, eventID, subject string) (chain.Script, error) {
	if err := chain.ValidateHash32(info.CodeHash); err != nil {
		return chain.Script{}, fmt.Errorf("script code hash: %w", err)
	}
	args := popcrypto.TypeScriptArgs(eventID, subject)
	return chain.Script{
		CodeHash: info.CodeHash,
		HashType: chain.HashTypeType,
		Args:     chain.EncodeHex(args),
	}, nil
}

// minCapacity computes the minimum holding cost of the record cell in
// shannons. Overflow is an invariant violation and fails loudly rather
// than clamping.
func minCapacity(data []byte, lock, typ chain.Script) (uint64, error) {
	lockBytes, err := lock.OccupiedBytes()
	if err != nil {
		return 0, fmt.Errorf("lock script: %w", err)
	}
	typeBytes, err := typ.OccupiedBytes()
	if err != nil {
		return 0, fmt.Errorf("type script: %w", err)
	}

	occupied := uint64(cellOverheadBytes) + lockBytes + typeBytes + uint64(len(data))
	if occupied > math.MaxUint64/shannonsPerByte {
		return 0, fmt.Errorf("capacity overflow: %d occupied bytes", occupied)
	}
	return occupied * shannonsPerByte, nil
}
