// Package sshexec dials the builder server as root and runs the bootstrap
// payload on it, streaming merged output back.
package sshexec

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair is an in-memory SSH key generated for a single builder run. It is
// never written to disk.
type KeyPair struct {
	Signer ssh.Signer
}

// GenerateKey creates a fresh ECDSA P-256 key pair.
func GenerateKey() (*KeyPair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key for ssh: %w", err)
	}
	return &KeyPair{Signer: signer}, nil
}

// AuthorizedKey returns the single-line authorized_keys form of the public
// key.
func (k *KeyPair) AuthorizedKey() string {
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(k.Signer.PublicKey())))
}

// Tag returns the server tag the Scaleway bootscript reads to seed root's
// authorized_keys. Tags cannot carry spaces, so the key type and base64 body
// are joined with an underscore.
func (k *KeyPair) Tag() string {
	pub := k.Signer.PublicKey()
	return fmt.Sprintf("AUTHORIZED_KEY=%s_%s", pub.Type(), base64.StdEncoding.EncodeToString(pub.Marshal()))
}
