package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/errs"
)

// DefaultTimeout bounds the wait for the wallet callback. The user has to
// review and approve in the viewer, so it is generous.
const DefaultTimeout = 5 * time.Minute

// DefaultPorts are the loopback ports tried before asking the OS for one.
var DefaultPorts = []int{8391, 8392, 8393, 8394, 8395, 8396, 8397, 8398, 8399}

// Request kinds served to the viewer.
const (
	kindConnect         = "connect"
	kindSignMessage     = "sign-message"
	kindSignTransaction = "sign-transaction"
)

// requestDescriptor is what the viewer reads from GET /session: the action
// it must present to the wallet plus its parameters. Single-use; a new
// session gets a new descriptor.
type requestDescriptor struct {
	SessionID   string             `json:"session_id"`
	Kind        string             `json:"kind"`
	Address     string             `json:"address,omitempty"`
	Message     string             `json:"message,omitempty"`
	Transaction *chain.Transaction `json:"transaction,omitempty"`
}

// callbackResult is the single result write the viewer POSTs to /callback.
// An explicit error field fails the session with that message.
type callbackResult struct {
	Error       string             `json:"error,omitempty"`
	Signature   string             `json:"signature,omitempty"`
	Address     string             `json:"address,omitempty"`
	Transaction *chain.Transaction `json:"transaction,omitempty"`
}

// BrowserSigner signs by opening the user's browser to a page that
// connects to a CKB wallet and posts the result back to a temporary
// loopback listener.
type BrowserSigner struct {
	address string
	opts    Options
}

// NewBrowser constructs a browser signer for the given address.
func NewBrowser(address string, opts Options) *BrowserSigner {
	return &BrowserSigner{address: address, opts: opts}
}

// Address returns the CKB address this signer controls.
func (b *BrowserSigner) Address() string { return b.address }

// SignMessage runs one handshake session and returns the hex recoverable
// signature the wallet produced.
func (b *BrowserSigner) SignMessage(ctx context.Context, message string) (string, error) {
	res, err := runSession(ctx, requestDescriptor{
		Kind:    kindSignMessage,
		Address: b.address,
		Message: message,
	}, b.opts)
	if err != nil {
		return "", err
	}
	sig := strings.TrimPrefix(res.Signature, "0x")
	if len(sig) != 130 {
		return "", fmt.Errorf("wallet returned a %d-char signature, want 130 hex chars", len(sig))
	}
	if _, err := hex.DecodeString(sig); err != nil {
		return "", fmt.Errorf("wallet returned a non-hex signature: %w", err)
	}
	return sig, nil
}

// SignTransaction runs one handshake session; the wallet completes funding
// inputs and fees, signs, and returns the full transaction.
func (b *BrowserSigner) SignTransaction(ctx context.Context, tx chain.Transaction) (chain.Transaction, error) {
	res, err := runSession(ctx, requestDescriptor{
		Kind:        kindSignTransaction,
		Address:     b.address,
		Transaction: &tx,
	}, b.opts)
	if err != nil {
		return chain.Transaction{}, err
	}
	if res.Transaction == nil {
		return chain.Transaction{}, fmt.Errorf("wallet callback carried no transaction")
	}
	return *res.Transaction, nil
}

// Connect runs a handshake session whose result is the wallet's address
// rather than a signature. Used once to bind the tool to a wallet.
func Connect(ctx context.Context, opts Options) (string, error) {
	res, err := runSession(ctx, requestDescriptor{Kind: kindConnect}, opts)
	if err != nil {
		return "", err
	}
	if res.Address == "" {
		return "", fmt.Errorf("wallet callback carried no address")
	}
	return res.Address, nil
}

// session holds the exactly-once completion state of one handshake.
type session struct {
	desc   requestDescriptor
	logger *zap.Logger

	mu      sync.Mutex
	done    bool
	outcome chan callbackOutcome
}

type callbackOutcome struct {
	result callbackResult
	err    error
}

// runSession executes the full handshake state machine: bind a loopback
// listener, launch the viewer, serve the three session endpoints, and wait
// for exactly one callback or a deadline.
func runSession(ctx context.Context, desc requestDescriptor, opts Options) (callbackResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	open := opts.OpenViewer
	if open == nil {
		open = openViewer
	}

	id, err := uuid.NewV4()
	if err != nil {
		return callbackResult{}, fmt.Errorf("session id: %w", err)
	}
	desc.SessionID = id.String()

	lis, err := bindLoopback(opts.Ports)
	if err != nil {
		return callbackResult{}, err
	}

	s := &session{
		desc:    desc,
		logger:  logger.With(zap.String("session", desc.SessionID), zap.String("kind", desc.Kind)),
		outcome: make(chan callbackOutcome, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/session", s.handleDescriptor)
	mux.HandleFunc("/callback", s.handleCallback)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if serveErr := srv.Serve(lis); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("session listener failed", zap.Error(serveErr))
		}
	}()
	// Torn down on every exit path; after the first callback no further
	// completion is possible anyway (s.done guards it).
	defer srv.Close()

	url := "http://" + lis.Addr().String()
	s.logger.Info("signer session open", zap.String("url", url))
	if err := open(url); err != nil {
		s.logger.Warn("could not launch viewer", zap.Error(err))
		fmt.Fprintf(out, "Could not open a browser automatically.\nNavigate to %s to continue.\n", url)
	}

	select {
	case o := <-s.outcome:
		if o.err != nil {
			return callbackResult{}, o.err
		}
		if o.result.Error != "" {
			return callbackResult{}, fmt.Errorf("wallet rejected request: %s", o.result.Error)
		}
		s.logger.Info("signer session completed")
		return o.result, nil
	case <-time.After(timeout):
		return callbackResult{}, fmt.Errorf("%w: no wallet callback within %s", errs.ErrSessionClosed, timeout)
	case <-ctx.Done():
		return callbackResult{}, ctx.Err()
	}
}

// bindLoopback tries the candidate ports in order, then an OS-assigned
// port. Exhaustion of all of them fails loudly.
func bindLoopback(ports []int) (net.Listener, error) {
	if ports == nil {
		ports = DefaultPorts
	}
	for _, p := range ports {
		lis, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p))
		if err == nil {
			return lis, nil
		}
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: %d candidates and OS-assigned all failed: %v", errs.ErrPortExhausted, len(ports), err)
	}
	return lis, nil
}

// handlePage serves the interactive signing page.
func (s *session) handlePage(w http.ResponseWriter, r *http.Request) {
	// ServeMux routes every unknown path here; only the root is a real
	// endpoint, the rest get a generic not-found.
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(signerPage)
}

// handleDescriptor serves the request descriptor the viewer acts on.
func (s *session) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.desc)
}

// handleCallback accepts the single result write. The first callback wins,
// well-formed or not; later ones are rejected with 409 and never alter the
// resolved result.
func (s *session) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		http.Error(w, "session already completed", http.StatusConflict)
		return
	}
	s.done = true
	s.mu.Unlock()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err == nil {
		var res callbackResult
		if jsonErr := json.Unmarshal(body, &res); jsonErr != nil {
			err = fmt.Errorf("malformed callback body: %w", jsonErr)
		} else {
			s.outcome <- callbackOutcome{result: res}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
	}

	s.logger.Warn("bad callback", zap.Error(err))
	s.outcome <- callbackOutcome{err: err}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// openViewer launches the platform browser opener.
func openViewer(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
