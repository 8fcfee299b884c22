package popcrypto

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/ckb-pop/cli/internal/errs"
)

func TestEventID_Deterministic(t *testing.T) {
	t.Parallel()
	a := EventID("addr-A", 1700000000, "nonce1")
	b := EventID("addr-A", 1700000000, "nonce1")
	if a != b {
		t.Fatalf("EventID not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("len=%d, want 64", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Fatalf("not hex: %v", err)
	}
}

func TestEventID_ChangesWithEveryInput(t *testing.T) {
	t.Parallel()
	base := EventID("addr-A", 1700000000, "nonce1")
	if EventID("addr-B", 1700000000, "nonce1") == base {
		t.Fatalf("EventID must change with address")
	}
	if EventID("addr-A", 1700000001, "nonce1") == base {
		t.Fatalf("EventID must change with timestamp")
	}
	if EventID("addr-A", 1700000000, "nonce2") == base {
		t.Fatalf("EventID must change with nonce")
	}
}

func TestTypeScriptArgs_LengthAndOrder(t *testing.T) {
	t.Parallel()
	ab := TypeScriptArgs("event123", "address456")
	if len(ab) != 64 {
		t.Fatalf("len=%d, want 64", len(ab))
	}
	ba := TypeScriptArgs("address456", "event123")
	if string(ab) == string(ba) {
		t.Fatalf("args(a,b) must differ from args(b,a)")
	}
}

func TestQRPayload_Roundtrip(t *testing.T) {
	t.Parallel()
	orig := QRPayload{EventID: "abc123", Timestamp: 1700000000, Code: "deadbeef01234567"}
	got, err := ParseQRPayload(orig.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != orig {
		t.Fatalf("roundtrip mismatch: %+v != %+v", got, orig)
	}

	neg := QRPayload{EventID: "e", Timestamp: -5, Code: "c"}
	got, err = ParseQRPayload(neg.Encode())
	if err != nil || got != neg {
		t.Fatalf("negative timestamp roundtrip: %+v %v", got, err)
	}
}

func TestParseQRPayload_Rejects(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"",
		"only|two",
		"a|notanumber|c",
		"|123|code",
		"a|123|",
	} {
		if _, err := ParseQRPayload(in); err == nil {
			t.Fatalf("ParseQRPayload(%q) should fail", in)
		}
	}
}

func TestRotatingCode_Roundtrip(t *testing.T) {
	t.Parallel()
	secret := WindowSecret("evt1", 1700000000, "sig123")
	code := RotatingCode(secret, 1700000030)
	if len(code) != RotatingCodeLen {
		t.Fatalf("len=%d, want %d", len(code), RotatingCodeLen)
	}
	if code != RotatingCode(secret, 1700000030) {
		t.Fatalf("RotatingCode not deterministic")
	}
	if !VerifyRotatingCode(secret, 1700000030, code) {
		t.Fatalf("verify should accept the generated code")
	}
	if VerifyRotatingCode(secret, 1700000031, code) {
		t.Fatalf("verify must fail for ts+1")
	}
	if VerifyRotatingCode(secret, 1700000029, code) {
		t.Fatalf("verify must fail for ts-1")
	}
	if VerifyRotatingCode(secret, 1700000030, code[:8]) {
		t.Fatalf("verify must fail for truncated candidate")
	}
}

func TestWindowSecret_InputSensitivity(t *testing.T) {
	t.Parallel()
	s := WindowSecret("evt1", 1700000000, "sig")
	if s == WindowSecret("evt2", 1700000000, "sig") {
		t.Fatalf("secret must change with event id")
	}
	if s == WindowSecret("evt1", 1700000001, "sig") {
		t.Fatalf("secret must change with window start")
	}
	if s == WindowSecret("evt1", 1700000000, "sig2") {
		t.Fatalf("secret must change with signature")
	}
}

func TestCheckFreshness(t *testing.T) {
	t.Parallel()
	now := int64(1700000100)
	if err := CheckFreshness(now, now); err != nil {
		t.Fatalf("age 0 should be fresh: %v", err)
	}
	if err := CheckFreshness(now, now-60); err != nil {
		t.Fatalf("age 60 should be fresh: %v", err)
	}
	if err := CheckFreshness(now, now-61); !errors.Is(err, errs.ErrExpired) {
		t.Fatalf("age 61 should expire, got %v", err)
	}
	if err := CheckFreshness(now, now+1); !errors.Is(err, errs.ErrExpired) {
		t.Fatalf("future code should be rejected, got %v", err)
	}
}

func TestCodeBucket(t *testing.T) {
	t.Parallel()
	if got := CodeBucket(1700000044); got != 1700000030 {
		t.Fatalf("bucket=%d, want 1700000030", got)
	}
	if got := CodeBucket(1700000030); got != 1700000030 {
		t.Fatalf("aligned timestamp must map to itself, got %d", got)
	}
}

func TestAttendanceMessage_Format(t *testing.T) {
	t.Parallel()
	got := AttendanceMessage("EVT001", 1700000000, "addr-X")
	if got != "CKB-PoP|EVT001|1700000000|addr-X" {
		t.Fatalf("got %q", got)
	}
}

func TestWindowMessage_Format(t *testing.T) {
	t.Parallel()
	if got := WindowMessage("EVT001", 1700000000, nil); got != "CKB-PoP-Window|EVT001|1700000000|open" {
		t.Fatalf("open-ended: got %q", got)
	}
	end := int64(1700003600)
	if got := WindowMessage("EVT001", 1700000000, &end); got != "CKB-PoP-Window|EVT001|1700000000|1700003600" {
		t.Fatalf("bounded: got %q", got)
	}
}
