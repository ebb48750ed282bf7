package nonce

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
)

// BuildAnnouncement computes the deterministic event_announcement
// commitment spec.md §4.D create_event requires: a binding of the
// oracle's pubkey, the event's nonce point, its outcome label set, and
// the metadata that fixes what is being attested to. The same inputs
// always serialize to the same bytes (spec.md §3 invariant: "never
// mutates after creation").
func BuildAnnouncement(
	oraclePubKey *btcec.PublicKey,
	noncePoint *btcec.PublicKey,
	outcomeLabels []string,
	signingDate time.Time,
	locations []string,
	scoringFields []string,
	numberOfPlacesWin int,
	totalAllowedEntries int,
) []byte {
	var buf bytes.Buffer
	buf.Write(oraclePubKey.SerializeCompressed())
	buf.Write(noncePoint.SerializeCompressed())

	writeStringList(&buf, outcomeLabels)
	writeUint64(&buf, uint64(signingDate.UTC().Unix()))
	writeStringList(&buf, locations)
	writeStringList(&buf, scoringFields)
	writeUint64(&buf, uint64(numberOfPlacesWin))
	writeUint64(&buf, uint64(totalAllowedEntries))

	return buf.Bytes()
}

// AnnouncementDigest returns the 32-byte hash of an announcement,
// used as the message an attestation signs over together with the
// winning outcome label (see Attest).
func AnnouncementDigest(announcement []byte) [32]byte {
	return sha256.Sum256(announcement)
}

func writeStringList(buf *bytes.Buffer, items []string) {
	writeUint64(buf, uint64(len(items)))
	for _, s := range items {
		writeUint64(buf, uint64(len(s)))
		buf.WriteString(s)
	}
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
