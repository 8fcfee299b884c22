package chain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHexUint64_Roundtrip(t *testing.T) {
	t.Parallel()
	for _, v := range []HexUint64{0, 1, 0x64, 0xffffffffffffffff} {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %d: %v", v, err)
		}
		var got HexUint64
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != v {
			t.Fatalf("roundtrip %d -> %s -> %d", v, b, got)
		}
	}
}

func TestHexUint64_WireForm(t *testing.T) {
	t.Parallel()
	b, _ := json.Marshal(HexUint64(100))
	if string(b) != `"0x64"` {
		t.Fatalf("got %s, want \"0x64\"", b)
	}

	var h HexUint64
	if err := json.Unmarshal([]byte(`"64"`), &h); err == nil {
		t.Fatalf("quantity without 0x prefix must fail")
	}
	if err := json.Unmarshal([]byte(`"0xzz"`), &h); err == nil {
		t.Fatalf("non-hex quantity must fail")
	}
}

func TestScript_OccupiedBytes(t *testing.T) {
	t.Parallel()
	s := Script{
		CodeHash: "0x" + strings.Repeat("ab", 32),
		HashType: HashTypeType,
		Args:     "0x" + strings.Repeat("00", 20),
	}
	n, err := s.OccupiedBytes()
	if err != nil {
		t.Fatalf("OccupiedBytes: %v", err)
	}
	if n != 32+1+20 {
		t.Fatalf("n=%d, want 53", n)
	}

	s.CodeHash = "0xabcd"
	if _, err := s.OccupiedBytes(); err == nil {
		t.Fatalf("short code hash must fail")
	}
	s.CodeHash = "0x" + strings.Repeat("ab", 32)
	s.Args = "nohex"
	if _, err := s.OccupiedBytes(); err == nil {
		t.Fatalf("unprefixed args must fail")
	}
}

func TestTransaction_JSONShape(t *testing.T) {
	t.Parallel()
	tx := Transaction{
		CellDeps:    []CellDep{{OutPoint: OutPoint{TxHash: "0x" + strings.Repeat("11", 32), Index: 1}, DepType: "code"}},
		HeaderDeps:  []string{},
		Inputs:      []CellInput{},
		Outputs:     []CellOutput{{Capacity: 14200000000, Lock: Script{CodeHash: "0x" + strings.Repeat("22", 32), HashType: HashTypeType, Args: "0x"}}},
		OutputsData: []string{"0x01"},
		Witnesses:   []string{},
	}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"version":"0x0"`, `"dep_type":"code"`, `"capacity":"0x34e62ce00"`, `"header_deps":[]`, `"inputs":[]`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("wire JSON missing %s:\n%s", key, b)
		}
	}
	// Optional type script must be omitted, never null.
	if strings.Contains(string(b), `"type"`) {
		t.Fatalf("absent type script should be omitted:\n%s", b)
	}
}

func TestValidateHash32(t *testing.T) {
	t.Parallel()
	if err := ValidateHash32("0x" + strings.Repeat("0f", 32)); err != nil {
		t.Fatalf("valid hash rejected: %v", err)
	}
	for _, in := range []string{"", "0x", "abcd", "0x" + strings.Repeat("0f", 31), "0x" + strings.Repeat("0f", 33)} {
		if err := ValidateHash32(in); err == nil {
			t.Fatalf("ValidateHash32(%q) should fail", in)
		}
	}
}
