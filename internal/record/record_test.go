package record

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestAnchorCellData_Shape(t *testing.T) {
	t.Parallel()
	data := AnchorCellData("evt1", "ckt1qcreator", "aa11")
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("anchor data is not JSON: %v", err)
	}
	if obj["event_id"] != "evt1" || obj["creator_address"] != "ckt1qcreator" || obj["metadata_hash"] != "aa11" {
		t.Fatalf("unexpected fields: %v", obj)
	}

	// Absent metadata hash must be omitted, not null.
	data = AnchorCellData("evt1", "ckt1qcreator", "")
	if strings.Contains(string(data), "metadata_hash") {
		t.Fatalf("empty metadata_hash should be omitted: %s", data)
	}
}

func TestAnchorCellData_KeyOrder(t *testing.T) {
	t.Parallel()
	data := AnchorCellData("e", "c", "m")
	want := `{"creator_address":"c","event_id":"e","metadata_hash":"m"}`
	if string(data) != want {
		t.Fatalf("wire bytes changed:\n got %s\nwant %s", data, want)
	}
}

func TestBadgeCellData_Layout(t *testing.T) {
	t.Parallel()
	data := BadgeCellData("evt1", "ckt1qissuer", "")
	if len(data) != BadgeCellSize {
		t.Fatalf("len=%d, want %d", len(data), BadgeCellSize)
	}
	if data[0] != 0x01 {
		t.Fatalf("version byte=%#x, want 0x01", data[0])
	}
	if data[1] != 0x01 {
		t.Fatalf("flags byte=%#x, want 0x01", data[1])
	}

	withProof := BadgeCellData("evt1", "ckt1qissuer", "proofhash")
	if len(withProof) != BadgeCellSize {
		t.Fatalf("len=%d, want %d", len(withProof), BadgeCellSize)
	}
	if bytes.Equal(data[2:], withProof[2:]) {
		t.Fatalf("content hash must change with proof hash")
	}
}

func TestBadgeCellData_Deterministic(t *testing.T) {
	t.Parallel()
	a := BadgeCellData("evt1", "issuer", "ph")
	b := BadgeCellData("evt1", "issuer", "ph")
	if !bytes.Equal(a, b) {
		t.Fatalf("badge data not deterministic")
	}
	c := BadgeCellData("evt2", "issuer", "ph")
	if bytes.Equal(a, c) {
		t.Fatalf("content hash must change with event id")
	}
}

func TestDecodeCellData(t *testing.T) {
	t.Parallel()
	obj, ok := DecodeCellData(AnchorCellData("evt1", "addr", ""))
	if !ok {
		t.Fatalf("anchor data should decode")
	}
	if obj["event_id"] != "evt1" {
		t.Fatalf("event_id=%v", obj["event_id"])
	}

	// Badge cells are binary; a listing must skip them, not abort.
	if _, ok := DecodeCellData(BadgeCellData("evt1", "addr", "")); ok {
		t.Fatalf("binary badge data should not decode")
	}
	if _, ok := DecodeCellData(nil); ok {
		t.Fatalf("nil data should not decode")
	}
	if _, ok := DecodeCellData([]byte(`[1,2]`)); ok {
		t.Fatalf("non-object JSON should not decode")
	}
}

func TestMetadataHash_StableAndSensitive(t *testing.T) {
	t.Parallel()
	loc := "berlin"
	m := EventMetadata{Name: "DevCon", Description: "annual", Location: &loc}
	h1 := MetadataHash(m)
	h2 := MetadataHash(m)
	if h1 != h2 || len(h1) != 64 {
		t.Fatalf("hash unstable or wrong length: %s / %s", h1, h2)
	}
	m.Name = "DevCon2"
	if MetadataHash(m) == h1 {
		t.Fatalf("hash must change with metadata")
	}
}
