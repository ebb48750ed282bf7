package nonce

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

// Nonce is a per-event secret nonce and its public commitment point
// (spec.md §3 "nonce", §9 "nonce handling"). The secret half is
// stored as raw, unencrypted bytes in the event row's nonce column
// from CreateEvent until events.Sign sets that column to NULL; it is
// not encrypted at rest.
type Nonce struct {
	secret *btcec.PrivateKey
	Point  *btcec.PublicKey
}

// GenerateNonce creates a fresh 32-byte secret nonce and derives its
// public point on secp256k1 (spec.md §4.D create_event step 1).
func GenerateNonce() (*Nonce, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "generate event nonce", err)
	}
	return &Nonce{secret: priv, Point: priv.PubKey()}, nil
}

// SecretBytes returns the raw 32-byte nonce scalar. CreateEvent copies
// it into the event row.
func (n *Nonce) SecretBytes() []byte {
	return n.secret.Serialize()
}

// Zero overwrites the secret scalar's backing bytes so it cannot be
// recovered from process memory after signing (spec.md §9).
func (n *Nonce) Zero() {
	if n == nil || n.secret == nil {
		return
	}
	n.secret.Zero()
	n.secret = nil
}
