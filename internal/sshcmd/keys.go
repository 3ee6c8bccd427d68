package sshcmd

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexjbarnes/build-cli/internal/machines"
	"golang.org/x/crypto/ssh"
)

const (
	keyDirPerm     = 0o700
	privateKeyPerm = 0o600
	publicKeyPerm  = 0o644

	keyComment = "build-cli"
)

// KeyRegistrar adds an authorized_keys line to the machine.
type KeyRegistrar interface {
	Add(ctx context.Context, line string) (machines.Response, error)
}

// EnsureIdentity makes sure an ECDSA P-256 keypair exists at path and is
// registered with the machine. Nothing happens when path.pub is already
// present. path.pub is only written once registration succeeded, so a
// failed attempt is retried on the next call. It reports whether a new
// key was generated.
func EnsureIdentity(ctx context.Context, path string, registrar KeyRegistrar) (bool, error) {
	pubPath := path + ".pub"

	_, err := os.Stat(pubPath)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", pubPath, err)
	}

	line, err := generateKeypair(path)
	if err != nil {
		return false, err
	}

	if _, err := registrar.Add(ctx, line); err != nil {
		return true, fmt.Errorf("registering %s: %w", pubPath, err)
	}

	if err := os.WriteFile(pubPath, []byte(line+"\n"), publicKeyPerm); err != nil {
		return true, fmt.Errorf("writing public key: %w", err)
	}

	return true, nil
}

// generateKeypair writes a new OpenSSH private key to path, replacing any
// previous one, and returns its public authorized_keys line.
func generateKeypair(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), keyDirPerm); err != nil {
		return "", fmt.Errorf("creating key directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generating ecdsa key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(key, keyComment)
	if err != nil {
		return "", fmt.Errorf("encoding private key: %w", err)
	}

	pub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("encoding public key: %w", err)
	}

	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))) + " " + keyComment

	if err := os.WriteFile(path, pem.EncodeToMemory(block), privateKeyPerm); err != nil {
		return "", fmt.Errorf("writing private key: %w", err)
	}

	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, privateKeyPerm); err != nil {
		return "", fmt.Errorf("securing private key: %w", err)
	}

	return line, nil
}
