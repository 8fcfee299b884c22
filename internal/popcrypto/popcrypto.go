// Package popcrypto contains the pure derivation functions of the PoP
// protocol: event identifiers, type-script arguments, window secrets,
// rotating attendance codes, and the frozen signed-message templates.
// No I/O happens here.
package popcrypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ckb-pop/cli/internal/errs"
)

// Params
const (
	// RotatingCodeLen is the hex length of a rotating attendance code.
	// 64 bits of keyed hash: short enough to scan, long enough for a
	// single-use value that lives under a minute.
	RotatingCodeLen = 16

	// CodeBucketSeconds is the rotation cadence of attendance codes.
	CodeBucketSeconds = 30

	// FreshnessToleranceSeconds is the maximum accepted age of a code
	// timestamp at verification time.
	FreshnessToleranceSeconds = 60

	protocolTag = "CKB-PoP"
)

// EventID computes a deterministic event identifier from the creator's
// address, a unix timestamp, and a random nonce. Result is a 64-character
// lowercase hex string.
func EventID(creatorAddress string, timestamp int64, nonce string) string {
	h := sha256.New()
	h.Write([]byte(creatorAddress))
	h.Write(le64(timestamp))
	h.Write([]byte(nonce))
	return hex.EncodeToString(h.Sum(nil))
}

// TypeScriptArgs builds the 64-byte type-script args shared by the
// dob-badge and event-anchor scripts: SHA256(primary) || SHA256(secondary).
// The order is a protocol contract; writers and readers both rely on the
// event hash occupying the first half.
func TypeScriptArgs(primary, secondary string) []byte {
	out := make([]byte, 0, 64)
	ph := sha256.Sum256([]byte(primary))
	sh := sha256.Sum256([]byte(secondary))
	out = append(out, ph[:]...)
	out = append(out, sh[:]...)
	return out
}

// WindowSecret derives the shared secret for an attendance window from the
// event ID, window start timestamp, and the creator's signature over the
// window message. Deterministic given its three inputs; never persisted.
func WindowSecret(eventID string, windowStart int64, creatorSig string) [32]byte {
	h := sha256.New()
	h.Write([]byte(eventID))
	h.Write(le64(windowStart))
	h.Write([]byte(creatorSig))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// RotatingCode produces the 16-hex-character code embedded in each QR
// payload: HMAC-SHA256(secret, LE64(timestamp)) truncated to 64 bits.
// One-way; a disclosed code never reveals the window secret.
func RotatingCode(secret [32]byte, timestamp int64) string {
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(le64(timestamp))
	return hex.EncodeToString(mac.Sum(nil))[:RotatingCodeLen]
}

// VerifyRotatingCode regenerates the code for (secret, timestamp) and
// compares it against the candidate in constant time.
func VerifyRotatingCode(secret [32]byte, timestamp int64, candidate string) bool {
	want := RotatingCode(secret, timestamp)
	if len(candidate) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(candidate)) == 1
}

// CheckFreshness accepts a code timestamp only if its age at `now` is
// within the freshness tolerance. Codes from the future are rejected.
func CheckFreshness(now, codeTimestamp int64) error {
	age := now - codeTimestamp
	if age < 0 || age > FreshnessToleranceSeconds {
		return fmt.Errorf("%w: age %ds, maximum %ds", errs.ErrExpired, age, FreshnessToleranceSeconds)
	}
	return nil
}

// CodeBucket aligns a timestamp down to the rotation cadence.
func CodeBucket(timestamp int64) int64 {
	return timestamp - timestamp%CodeBucketSeconds
}

// QRPayload is the ephemeral three-field value encoded in every attendance
// QR code. It must round-trip exactly through Encode/ParseQRPayload.
type QRPayload struct {
	EventID   string
	Timestamp int64
	Code      string
}

// Encode renders the pipe-delimited wire form: event_id|timestamp|code.
func (p QRPayload) Encode() string {
	return fmt.Sprintf("%s|%d|%s", p.EventID, p.Timestamp, p.Code)
}

// ParseQRPayload parses the pipe-delimited QR string. It fails on missing
// fields, an empty event ID or code, and a non-integer timestamp.
func ParseQRPayload(data string) (QRPayload, error) {
	parts := strings.SplitN(data, "|", 3)
	if len(parts) != 3 {
		return QRPayload{}, fmt.Errorf("validation: expected event_id|timestamp|code, got %d field(s)", len(parts))
	}
	if parts[0] == "" {
		return QRPayload{}, fmt.Errorf("validation: empty event id")
	}
	if parts[2] == "" {
		return QRPayload{}, fmt.Errorf("validation: empty code")
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return QRPayload{}, fmt.Errorf("validation: bad timestamp %q", parts[1])
	}
	return QRPayload{EventID: parts[0], Timestamp: ts, Code: parts[2]}, nil
}

// AttendanceMessage is the message an attendee signs to prove they scanned
// a rotating code. Frozen format; changing it invalidates collected
// signatures.
func AttendanceMessage(eventID string, codeTimestamp int64, attendeeAddress string) string {
	return fmt.Sprintf("%s|%s|%d|%s", protocolTag, eventID, codeTimestamp, attendeeAddress)
}

// WindowMessage is the message an event creator signs to open an
// attendance window. end == nil renders as "open". Frozen format.
func WindowMessage(eventID string, windowStart int64, windowEnd *int64) string {
	end := "open"
	if windowEnd != nil {
		end = strconv.FormatInt(*windowEnd, 10)
	}
	return fmt.Sprintf("%s-Window|%s|%d|%s", protocolTag, eventID, windowStart, end)
}

func le64(v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return b[:]
}
