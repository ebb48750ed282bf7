package nonce

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

// AttestationMessage derives the 32-byte message an attestation signs
// over: the announcement's digest bound to the specific winning
// outcome label, so a signature over one event can never be replayed
// as an attestation for a different outcome (spec.md §8 invariant 9).
func AttestationMessage(announcement []byte, winningLabel string) [32]byte {
	digest := AnnouncementDigest(announcement)
	h := sha256.New()
	h.Write(digest[:])
	h.Write([]byte(winningLabel))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Attest produces a BIP-340/Schnorr signature over the winning outcome
// for an event (spec.md §4.D sign() step 5), signed under the exact
// nonce scalar committed at create_event time. secretNonce is the
// event's 32-byte secret nonce (the same scalar GenerateNonce produced
// and BuildAnnouncement's noncePoint commits to); it is threaded
// through schnorr.Sign via schnorr.CustomNonce so the produced
// signature's R matches the announced nonce point rather than one
// derived independently by the signing library. This is what lets
// revealing this signature hand counterparties the scalar needed to
// complete the adaptor path built against that committed point (spec.md
// §1, §9, glossary "Adaptor signature"). The returned bytes are the
// 64-byte serialized signature spec.md persists as
// attestation_signature.
func Attest(oraclePriv *btcec.PrivateKey, announcement []byte, winningLabel string, secretNonce []byte) ([]byte, error) {
	if len(secretNonce) != 32 {
		return nil, apierr.New(apierr.Fatal, "attest: committed nonce must be 32 bytes")
	}
	msg := AttestationMessage(announcement, winningLabel)

	var k [32]byte
	copy(k[:], secretNonce)

	sig, err := schnorr.Sign(oraclePriv, msg[:], schnorr.CustomNonce(k))
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "sign attestation", err)
	}
	return sig.Serialize(), nil
}

// VerifyAttestation reports whether sig is a valid attestation by
// oraclePub over announcement's winningLabel outcome.
func VerifyAttestation(oraclePub *btcec.PublicKey, announcement []byte, winningLabel string, sig []byte) (bool, error) {
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false, apierr.Wrap(apierr.InvalidInput, "parse attestation signature", err)
	}
	msg := AttestationMessage(announcement, winningLabel)
	return schnorr.Verify(parsed, msg[:], oraclePub), nil
}
