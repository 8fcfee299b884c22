// Package record builds and parses the on-chain cell payloads of the PoP
// protocol: the JSON event-anchor data and the fixed 34-byte badge data.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Badge cell layout constants.
const (
	BadgeCellSize = 34 // version(1) + flags(1) + content hash(32)

	badgeVersion     = 0x01
	badgeFlagHasMeta = 0x01
)

// anchorData is the event-anchor JSON payload. Keys serialize in
// alphabetical order; absent metadata_hash is omitted, never null.
type anchorData struct {
	CreatorAddress string `json:"creator_address"`
	EventID        string `json:"event_id"`
	MetadataHash   string `json:"metadata_hash,omitempty"`
}

// badgeContent is the canonical value hashed into a badge cell. Only the
// 32-byte hash of its compact JSON goes on-chain, so the cell stays at a
// fixed size regardless of metadata richness. Keys serialize in
// alphabetical order.
type badgeContent struct {
	EventID   string `json:"event_id"`
	Issuer    string `json:"issuer"`
	ProofHash string `json:"proof_hash,omitempty"`
	Protocol  string `json:"protocol"`
	Version   int    `json:"version"`
}

// AnchorCellData builds the JSON payload of an event-anchor cell.
// metadataHash may be empty.
func AnchorCellData(eventID, creatorAddress, metadataHash string) []byte {
	b, _ := json.Marshal(anchorData{
		CreatorAddress: creatorAddress,
		EventID:        eventID,
		MetadataHash:   metadataHash,
	})
	return b
}

// BadgeCellData builds the 34-byte payload of a dob-badge cell:
// [version | flags | SHA256(canonical content JSON)]. proofHash may be
// empty for organizer-minted badges without an attendance proof.
func BadgeCellData(eventID, issuer, proofHash string) []byte {
	content, _ := json.Marshal(badgeContent{
		EventID:   eventID,
		Issuer:    issuer,
		ProofHash: proofHash,
		Protocol:  "ckb-pop",
		Version:   1,
	})
	sum := sha256.Sum256(content)

	data := make([]byte, 0, BadgeCellSize)
	data = append(data, badgeVersion, badgeFlagHasMeta)
	data = append(data, sum[:]...)
	return data
}

// DecodeCellData best-effort parses cell data as a JSON object. It returns
// false for anything that is not one (badge cells, garbage), so a batch
// listing can skip undecodable cells instead of aborting.
func DecodeCellData(data []byte) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// EventMetadata is the off-chain event description. Only its hash is
// anchored; optional fields stay null in the hashed JSON so the hash is
// stable for a given creation call.
type EventMetadata struct {
	Description string  `json:"description"`
	EndTime     *string `json:"end_time"`
	ImageURL    *string `json:"image_url"`
	Location    *string `json:"location"`
	Name        string  `json:"name"`
	StartTime   *string `json:"start_time"`
}

// MetadataHash returns the SHA256 hex of the metadata's compact JSON form.
func MetadataHash(meta EventMetadata) string {
	b, _ := json.Marshal(meta)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
