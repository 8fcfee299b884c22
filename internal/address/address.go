// Package address decodes CKB addresses into lock scripts. Only the 2021
// full address format (bech32m, format type 0x00) is supported; short and
// deprecated full formats are rejected with an explicit message.
package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/ckb-pop/cli/internal/chain"
)

// Network names derived from the address prefix.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

const (
	charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

	// bech32m checksum constant (BIP-350). Computed locally because CKB
	// full addresses exceed the 90-character limit the stock decoders
	// enforce.
	bech32mConst = 0x2bc830a3

	fullFormatType = 0x00
)

var hashTypeNames = map[byte]string{
	0x00: chain.HashTypeData,
	0x01: chain.HashTypeType,
	0x02: chain.HashTypeData1,
	0x04: chain.HashTypeData2,
}

// Parse decodes a CKB full address into its network name and lock script.
func Parse(addr string) (string, chain.Script, error) {
	hrp, payload, err := decodeBech32m(addr)
	if err != nil {
		return "", chain.Script{}, fmt.Errorf("invalid address: %w", err)
	}

	var network string
	switch hrp {
	case "ckb":
		network = NetworkMainnet
	case "ckt":
		network = NetworkTestnet
	default:
		return "", chain.Script{}, fmt.Errorf("invalid address: unknown prefix %q", hrp)
	}

	if len(payload) < 1+32+1 {
		return "", chain.Script{}, fmt.Errorf("invalid address: payload too short (%d bytes)", len(payload))
	}
	if payload[0] != fullFormatType {
		return "", chain.Script{}, fmt.Errorf("invalid address: format type %#x is not the 2021 full format", payload[0])
	}
	hashType, ok := hashTypeNames[payload[33]]
	if !ok {
		return "", chain.Script{}, fmt.Errorf("invalid address: unknown hash type byte %#x", payload[33])
	}

	script := chain.Script{
		CodeHash: chain.EncodeHex(payload[1:33]),
		HashType: hashType,
		Args:     chain.EncodeHex(payload[34:]),
	}
	return network, script, nil
}

// decodeBech32m splits and checksums a bech32m string of any length and
// returns the hrp and the regrouped 8-bit payload.
func decodeBech32m(s string) (string, []byte, error) {
	if s == "" {
		return "", nil, fmt.Errorf("empty string")
	}
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return "", nil, fmt.Errorf("mixed case")
	}
	s = strings.ToLower(s)

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || sep+7 > len(s) {
		return "", nil, fmt.Errorf("missing or misplaced separator")
	}
	hrp, dataPart := s[:sep], s[sep+1:]

	data := make([]byte, len(dataPart))
	for i := 0; i < len(dataPart); i++ {
		v := strings.IndexByte(charset, dataPart[i])
		if v < 0 {
			return "", nil, fmt.Errorf("invalid character %q", dataPart[i])
		}
		data[i] = byte(v)
	}

	if polymod(hrpExpand(hrp), data) != bech32mConst {
		return "", nil, fmt.Errorf("checksum mismatch")
	}

	payload, err := bech32.ConvertBits(data[:len(data)-6], 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("regroup payload: %w", err)
	}
	return hrp, payload, nil
}

func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func polymod(chunks ...[]byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, values := range chunks {
		for _, v := range values {
			top := chk >> 25
			chk = (chk&0x1ffffff)<<5 ^ uint32(v)
			for i := 0; i < 5; i++ {
				if (top>>uint(i))&1 == 1 {
					chk ^= gen[i]
				}
			}
		}
	}
	return chk
}
