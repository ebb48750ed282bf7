// Package nonce implements oracle keypair management, per-event nonce
// generation, event announcement commitments, and BIP-340/Schnorr
// attestation signing (spec.md §4.D, §9).
package nonce

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/pem"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
)

const pemBlockType = "WXORACLE SECP256K1 PRIVATE KEY"

// LoadOrGenerateKey loads the oracle's signing key from a PEM file at
// path, generating and persisting a fresh keypair with 0600
// permissions if the file is absent (spec.md §6 "persisted state
// layout").
func LoadOrGenerateKey(path string) (*btcec.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		block, _ := pem.Decode(data)
		if block == nil || block.Type != pemBlockType {
			return nil, apierr.New(apierr.Fatal, "private key file is not a valid oracle key PEM block")
		}
		priv, _ := btcec.PrivKeyFromBytes(block.Bytes)
		return priv, nil
	}
	if !os.IsNotExist(err) {
		return nil, apierr.Wrap(apierr.Fatal, "read private key file", err)
	}

	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "generate oracle keypair", err)
	}

	block := &pem.Block{Type: pemBlockType, Bytes: priv.Serialize()}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "write private key file", err)
	}
	log.Infof("nonce: generated fresh oracle keypair, pubkey=%s", hex.EncodeToString(priv.PubKey().SerializeCompressed()))
	return priv, nil
}

// mustRandomBytes reads n cryptographically random bytes, wrapping any
// failure as Fatal since the platform RNG is assumed sound.
func mustRandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "read random bytes", err)
	}
	return buf, nil
}
