package vss

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// ReceiverKey is a receiver's long-term Diffie-Hellman key pair used solely
// to secure the point-to-point delivery of VSS shares over the (public,
// authenticated-but-not-confidential) bulletin board. This mirrors the
// ephemeral-DH-plus-AEAD construction used for EncryptedDeal delivery
// throughout the retrieval pack's (t,n) VSS implementations.
type ReceiverKey struct {
	Pub     group.Element
	Private group.RingElement
}

// NewReceiverKey samples a fresh Diffie-Hellman key pair in grp.
func NewReceiverKey(grp group.Group, src io.Reader) (ReceiverKey, error) {
	if src == nil {
		src = rand.Reader
	}
	sk, err := grp.Ring().Random(src)
	if err != nil {
		return ReceiverKey{}, fmt.Errorf("vss: sampling receiver key: %w", err)
	}
	pk := grp.Generator().Exp(sk)
	return ReceiverKey{Pub: pk, Private: sk}, nil
}

// EncryptedShare is a labeled, ephemeral-DH-encrypted (value, random) share
// pair, as published by a dealer for one receiver.
type EncryptedShare struct {
	Ephemeral  group.Element
	Nonce      []byte
	Ciphertext []byte
}

// EncryptShare encrypts a (value, random) share pair to recipientPub, binding
// the ciphertext to label so it cannot be replayed across VSS instances.
func EncryptShare(grp group.Group, recipientPub group.Element, label []byte, valueShare, randomShare group.RingElement, src io.Reader) (EncryptedShare, error) {
	if src == nil {
		src = rand.Reader
	}
	skEph, err := grp.Ring().Random(src)
	if err != nil {
		return EncryptedShare{}, fmt.Errorf("vss: sampling ephemeral key: %w", err)
	}
	pkEph := grp.Generator().Exp(skEph)
	dh := recipientPub.Exp(skEph)

	aead, err := aeadFromSharedSecret(dh, label)
	if err != nil {
		return EncryptedShare{}, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(src, nonce); err != nil {
		return EncryptedShare{}, fmt.Errorf("vss: sampling nonce: %w", err)
	}
	plaintext := append(valueShare.Bytes(), randomShare.Bytes()...)
	ct := aead.Seal(nil, nonce, plaintext, label)
	return EncryptedShare{Ephemeral: pkEph, Nonce: nonce, Ciphertext: ct}, nil
}

// DecryptShare reverses EncryptShare using the recipient's private key.
func DecryptShare(grp group.Group, recipientSk group.RingElement, label []byte, enc EncryptedShare) (valueShare, randomShare group.RingElement, err error) {
	dh := enc.Ephemeral.Exp(recipientSk)
	aead, err := aeadFromSharedSecret(dh, label)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := aead.Open(nil, enc.Nonce, enc.Ciphertext, label)
	if err != nil {
		return nil, nil, fmt.Errorf("vss: decrypting share: %w", err)
	}
	ring := grp.Ring()
	half := len(plaintext) / 2
	vs, err := ring.FromBytes(plaintext[:half])
	if err != nil {
		return nil, nil, fmt.Errorf("vss: decoding value share: %w", err)
	}
	rs, err := ring.FromBytes(plaintext[half:])
	if err != nil {
		return nil, nil, fmt.Errorf("vss: decoding random share: %w", err)
	}
	return vs, rs, nil
}

func aeadFromSharedSecret(dh group.Element, label []byte) (cipherAEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, dh.Bytes(), nil, append([]byte("mixnet-vss-share"), label...))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("vss: deriving channel key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("vss: constructing AEAD: %w", err)
	}
	return aead, nil
}

// cipherAEAD is the minimal interface this package needs from an AEAD
// construction.
type cipherAEAD interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}
