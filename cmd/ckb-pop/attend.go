package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/address"
	"github.com/ckb-pop/cli/internal/assemble"
	"github.com/ckb-pop/cli/internal/notify"
	"github.com/ckb-pop/cli/internal/popcrypto"
	"github.com/ckb-pop/cli/internal/window"
)

// cmdWindow opens an attendance window: one signature over the window
// message seeds the secret, then the loop runs locally until the end time
// or an interrupt.
func cmdWindow(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("window", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	duration := fs.Int64("duration", 0, "window length in seconds (0 = open-ended)")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}
	if *duration < 0 {
		fail(fmt.Errorf("validation: negative duration %d", *duration))
	}

	s, err := e.resolveSigner()
	if err != nil {
		fail(err)
	}

	start := time.Now().Unix()
	var end int64
	var endPtr *int64
	if *duration > 0 {
		end = start + *duration
		endPtr = &end
	}

	sig, err := s.SignMessage(ctx, popcrypto.WindowMessage(*id, start, endPtr))
	if err != nil {
		fail(err)
	}
	secret := popcrypto.WindowSecret(*id, start, sig)

	w := window.Open(*id, start, end, secret, window.TextRenderer{Out: os.Stdout}, e.logger)
	if err := w.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			// Interrupt forfeits the window; the signature cannot be replayed.
			fmt.Fprintln(os.Stderr, "window closed (interrupted)")
			return
		}
		fail(err)
	}
	fmt.Fprintln(os.Stderr, "window closed (reached end time)")
}

// cmdAttend turns a scanned QR payload into a badge: freshness check, one
// signature over the attendance message, then a self-funded mint.
func cmdAttend(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("attend", flag.ExitOnError)
	qr := fs.String("qr", "", "scanned payload: event_id|timestamp|code")
	_ = fs.Parse(args)
	if *qr == "" {
		fmt.Fprintln(os.Stderr, "need -qr")
		os.Exit(1)
	}

	payload, err := popcrypto.ParseQRPayload(*qr)
	if err != nil {
		fail(err)
	}
	if err := popcrypto.CheckFreshness(time.Now().Unix(), payload.Timestamp); err != nil {
		fail(err)
	}

	s, err := e.resolveSigner()
	if err != nil {
		fail(err)
	}
	_, attendeeLock, err := address.Parse(s.Address())
	if err != nil {
		fail(err)
	}
	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	msg := popcrypto.AttendanceMessage(payload.EventID, payload.Timestamp, s.Address())
	sig, err := s.SignMessage(ctx, msg)
	if err != nil {
		fail(err)
	}
	proof := sha256.Sum256([]byte(sig))
	proofHash := hex.EncodeToString(proof[:])

	unsigned, err := assemble.BadgeMintTx(scripts.DOBBadge, payload.EventID, s.Address(), attendeeLock, s.Address(), proofHash)
	if err != nil {
		fail(err)
	}
	signed, err := s.SignTransaction(ctx, unsigned)
	if err != nil {
		fail(err)
	}

	qctx, cancel := queryCtx(ctx)
	defer cancel()
	txHash, err := e.client().SendTransaction(qctx, signed)
	if err != nil {
		fail(err)
	}

	e.logger.Info("attendance badge minted",
		zap.String("event_id", payload.EventID),
		zap.String("tx_hash", txHash),
	)
	e.notifier().BadgeMinted(ctx, notify.MintRecord{
		EventID:  payload.EventID,
		Holder:   s.Address(),
		Issuer:   s.Address(),
		TxHash:   txHash,
		MintedAt: time.Now().Unix(),
	})

	printJSON(struct {
		EventID   string `json:"event_id"`
		ProofHash string `json:"proof_hash"`
		TxHash    string `json:"tx_hash"`
	}{payload.EventID, proofHash, txHash})
}
