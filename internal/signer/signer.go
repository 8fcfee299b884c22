// Package signer obtains CKB signatures and approvals from external
// custody devices. The tool never holds key material: every implementation
// delegates to an external wallet through a short-lived local handshake.
package signer

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/chain"
)

// Method selects a signing back-end. The set is closed: only the browser
// handshake is implemented in depth; the others are structurally identical
// state machines with a different transport and slot in here when built.
type Method string

// Known signing methods.
const (
	MethodBrowser       Method = "browser"
	MethodLedger        Method = "ledger"
	MethodPasskey       Method = "passkey"
	MethodWalletConnect Method = "walletconnect"
)

// ParseMethod validates a method name from flags or config.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodBrowser, MethodLedger, MethodPasskey, MethodWalletConnect:
		return Method(s), nil
	}
	return "", fmt.Errorf("validation: unknown signer method %q", s)
}

// Signer produces signatures without holding private keys locally.
type Signer interface {
	// Address is the CKB address this signer controls.
	Address() string

	// SignMessage signs an arbitrary message and returns a hex-encoded
	// recoverable signature (65 bytes = 130 hex chars).
	SignMessage(ctx context.Context, message string) (string, error)

	// SignTransaction presents an unsigned transaction to the external
	// signer for approval and returns it completed and signed, ready to
	// broadcast.
	SignTransaction(ctx context.Context, tx chain.Transaction) (chain.Transaction, error)
}

// Options configures a signer session.
type Options struct {
	// Logger for session diagnostics. Required.
	Logger *zap.Logger

	// Timeout bounds the callback wait. Zero means DefaultTimeout.
	Timeout time.Duration

	// Ports are candidate loopback ports tried in order before falling
	// back to an OS-assigned one. Nil means DefaultPorts.
	Ports []int

	// OpenViewer launches the interactive viewer at the given URL. Nil
	// means the platform opener. Launch failure is non-fatal.
	OpenViewer func(url string) error

	// Out receives the fallback address for manual navigation when the
	// viewer cannot be launched. Nil means os.Stderr.
	Out io.Writer
}

// New builds a signer for the chosen method.
func New(method Method, address string, opts Options) (Signer, error) {
	switch method {
	case MethodBrowser:
		return NewBrowser(address, opts), nil
	case MethodLedger, MethodPasskey, MethodWalletConnect:
		return nil, fmt.Errorf("%s signer is not implemented yet", method)
	default:
		return nil, fmt.Errorf("validation: unknown signer method %q", method)
	}
}
