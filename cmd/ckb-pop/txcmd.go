package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// cmdTxStatus reports the confirmation state of a broadcast transaction.
// One shot, no polling; callers who want to wait can re-run it.
func cmdTxStatus(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("tx-status", flag.ExitOnError)
	hash := fs.String("hash", "", "transaction hash (0x…)")
	_ = fs.Parse(args)
	if *hash == "" {
		fmt.Fprintln(os.Stderr, "need -hash")
		os.Exit(1)
	}

	qctx, cancel := queryCtx(ctx)
	defer cancel()
	st, err := e.client().GetTransaction(qctx, *hash)
	if err != nil {
		fail(err)
	}
	printJSON(struct {
		TxHash    string  `json:"tx_hash"`
		Status    string  `json:"status"`
		BlockHash *string `json:"block_hash,omitempty"`
	}{*hash, st.Status, st.BlockHash})
}
