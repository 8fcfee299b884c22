package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/address"
	"github.com/ckb-pop/cli/internal/assemble"
	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/ledger"
	"github.com/ckb-pop/cli/internal/notify"
	"github.com/ckb-pop/cli/internal/popcrypto"
	"github.com/ckb-pop/cli/internal/record"
)

// cmdBadgeMint is the organizer-side mint: the signer funds a badge cell
// locked to the recipient, with no attendance proof attached.
func cmdBadgeMint(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("badge-mint", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	to := fs.String("to", "", "recipient address")
	_ = fs.Parse(args)
	if *id == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "need -id and -to")
		os.Exit(1)
	}

	s, err := e.resolveSigner()
	if err != nil {
		fail(err)
	}
	network, recipientLock, err := address.Parse(*to)
	if err != nil {
		fail(err)
	}
	if network != e.cfg.Network {
		fail(fmt.Errorf("validation: recipient address is for %s, config network is %s", network, e.cfg.Network))
	}
	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	unsigned, err := assemble.BadgeMintTx(scripts.DOBBadge, *id, *to, recipientLock, s.Address(), "")
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

	e.logger.Info("badge minted",
		zap.String("event_id", *id),
		zap.String("holder", *to),
		zap.String("tx_hash", txHash),
	)
	e.notifier().BadgeMinted(ctx, notify.MintRecord{
		EventID:  *id,
		Holder:   *to,
		Issuer:   s.Address(),
		TxHash:   txHash,
		MintedAt: time.Now().Unix(),
	})

	printJSON(struct {
		EventID string `json:"event_id"`
		Holder  string `json:"holder"`
		TxHash  string `json:"tx_hash"`
	}{*id, *to, txHash})
}

// badgeRow is the listing shape for badge cells. The cell carries only a
// content hash, so rows expose the raw payload plus script args halves.
type badgeRow struct {
	EventHash   string         `json:"event_hash"`
	HolderHash  string         `json:"holder_hash"`
	CellData    string         `json:"cell_data"`
	OutPoint    chain.OutPoint `json:"out_point"`
	BlockNumber uint64         `json:"block_number"`
}

func badgeRows(cells []ledger.Cell) []badgeRow {
	rows := []badgeRow{}
	for _, c := range cells {
		if c.Output.Type == nil {
			continue
		}
		args, err := chain.DecodeHex(c.Output.Type.Args)
		if err != nil || len(args) != 64 {
			continue
		}
		rows = append(rows, badgeRow{
			EventHash:   chain.EncodeHex(args[:32]),
			HolderHash:  chain.EncodeHex(args[32:]),
			CellData:    c.OutputData,
			OutPoint:    c.OutPoint,
			BlockNumber: uint64(c.BlockNumber),
		})
	}
	return rows
}

func cmdBadgeList(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("badge-list", flag.ExitOnError)
	id := fs.String("id", "", "only badges for this event id")
	holder := fs.String("holder", "", "only badges held by this address")
	_ = fs.Parse(args)

	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	qctx, cancel := queryCtx(ctx)
	defer cancel()
	cli := e.client()

	var cells []ledger.Cell
	if *id != "" {
		cells, err = cli.FindBadgesForEvent(qctx, scripts.DOBBadge.CodeHash, *id)
	} else {
		cells, err = cli.FindAllBadges(qctx, scripts.DOBBadge.CodeHash)
	}
	if err != nil {
		fail(err)
	}

	if *holder != "" {
		want := ledger.SubjectHashHex(*holder)
		kept := cells[:0]
		for _, c := range cells {
			if ledger.MatchesSubject(c, want) {
				kept = append(kept, c)
			}
		}
		cells = kept
	}
	printJSON(badgeRows(cells))
}

// cmdBadgeVerify answers one question: does a live, well-formed badge cell
// bind this exact (event, holder) pair. Exact args match, no prefix scan.
func cmdBadgeVerify(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("badge-verify", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	holder := fs.String("holder", "", "holder address")
	_ = fs.Parse(args)
	if *id == "" || *holder == "" {
		fmt.Fprintln(os.Stderr, "need -id and -holder")
		os.Exit(1)
	}

	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	qctx, cancel := queryCtx(ctx)
	defer cancel()
	key := ledger.TypeExactSearch(scripts.DOBBadge.CodeHash, popcrypto.TypeScriptArgs(*id, *holder))
	cells, err := e.client().GetAllCells(qctx, key)
	if err != nil {
		fail(err)
	}

	verified := false
	for _, c := range cells {
		data, err := chain.DecodeHex(c.OutputData)
		if err == nil && len(data) == record.BadgeCellSize && data[0] == 0x01 {
			verified = true
			break
		}
	}
	printJSON(struct {
		EventID  string `json:"event_id"`
		Holder   string `json:"holder"`
		Verified bool   `json:"verified"`
		Cells    int    `json:"cells"`
	}{*id, *holder, verified, len(cells)})
	if !verified {
		os.Exit(1)
	}
}
