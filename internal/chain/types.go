// Package chain defines the CKB transaction and script wire types shared by
// the transaction assembler, the signer request payload, and the indexer
// query path. Field names and hex-quantity encoding must match the node's
// JSON-RPC format exactly.
package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Hash type values accepted by the node.
const (
	HashTypeData  = "data"
	HashTypeType  = "type"
	HashTypeData1 = "data1"
	HashTypeData2 = "data2"
)

// HexUint64 marshals as a 0x-prefixed hexadecimal JSON-RPC quantity.
type HexUint64 uint64

// MarshalJSON renders the quantity as "0x..." without leading zeros.
func (h HexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + strconv.FormatUint(uint64(h), 16))
}

// UnmarshalJSON parses a 0x-prefixed hexadecimal quantity.
func (h *HexUint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return fmt.Errorf("quantity %q missing 0x prefix", s)
	}
	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return fmt.Errorf("bad quantity %q: %w", s, err)
	}
	*h = HexUint64(v)
	return nil
}

// Script is a lock or type script reference.
type Script struct {
	CodeHash string `json:"code_hash"`
	HashType string `json:"hash_type"`
	Args     string `json:"args"`
}

// OccupiedBytes returns the storage footprint of the script inside a cell:
// 32 bytes of code hash, 1 byte of hash type, plus the raw args.
func (s Script) OccupiedBytes() (uint64, error) {
	if err := ValidateHash32(s.CodeHash); err != nil {
		return 0, fmt.Errorf("code_hash: %w", err)
	}
	args, err := DecodeHex(s.Args)
	if err != nil {
		return 0, fmt.Errorf("args: %w", err)
	}
	return 32 + 1 + uint64(len(args)), nil
}

// OutPoint references an output of a prior transaction.
type OutPoint struct {
	TxHash string    `json:"tx_hash"`
	Index  HexUint64 `json:"index"`
}

// CellInput spends a live cell.
type CellInput struct {
	Since          HexUint64 `json:"since"`
	PreviousOutput OutPoint  `json:"previous_output"`
}

// CellDep pins a code cell the transaction's scripts are loaded from.
type CellDep struct {
	OutPoint OutPoint `json:"out_point"`
	DepType  string   `json:"dep_type"`
}

// CellOutput is a new cell created by a transaction.
type CellOutput struct {
	Capacity HexUint64 `json:"capacity"`
	Lock     Script    `json:"lock"`
	Type     *Script   `json:"type,omitempty"`
}

// Transaction is the node's JSON transaction format. The assembler leaves
// inputs and witnesses empty; the signer fills them in.
type Transaction struct {
	Version     HexUint64    `json:"version"`
	CellDeps    []CellDep    `json:"cell_deps"`
	HeaderDeps  []string     `json:"header_deps"`
	Inputs      []CellInput  `json:"inputs"`
	Outputs     []CellOutput `json:"outputs"`
	OutputsData []string     `json:"outputs_data"`
	Witnesses   []string     `json:"witnesses"`
}

// EncodeHex renders bytes as a 0x-prefixed hex string.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex parses a 0x-prefixed hex string.
func DecodeHex(s string) ([]byte, error) {
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return nil, fmt.Errorf("hex %q missing 0x prefix", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("bad hex %q: %w", s, err)
	}
	return b, nil
}

// ValidateHash32 checks a 0x-prefixed 32-byte hash string.
func ValidateHash32(s string) error {
	b, err := DecodeHex(s)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("hash %q is %d bytes, want 32", s, len(b))
	}
	return nil
}
