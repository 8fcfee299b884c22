package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	u "github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/address"
	"github.com/ckb-pop/cli/internal/assemble"
	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/errs"
	"github.com/ckb-pop/cli/internal/ledger"
	"github.com/ckb-pop/cli/internal/popcrypto"
	"github.com/ckb-pop/cli/internal/record"
)

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// cmdEventCreate derives a fresh event ID, anchors it on chain, and prints
// the identifiers the organizer needs for every later command.
func cmdEventCreate(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("event-create", flag.ExitOnError)
	name := fs.String("name", "", "event name")
	description := fs.String("description", "", "event description")
	location := fs.String("location", "", "venue")
	imageURL := fs.String("image", "", "image URL")
	startTime := fs.String("start", "", "start time (RFC3339)")
	endTime := fs.String("end", "", "end time (RFC3339)")
	_ = fs.Parse(args)
	if *name == "" {
		fmt.Fprintln(os.Stderr, "need -name")
		os.Exit(1)
	}

	s, err := e.resolveSigner()
	if err != nil {
		fail(err)
	}
	_, creatorLock, err := address.Parse(s.Address())
	if err != nil {
		fail(err)
	}
	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	nonce, err := u.NewV4()
	if err != nil {
		fail(err)
	}
	createdAt := time.Now().Unix()
	eventID := popcrypto.EventID(s.Address(), createdAt, nonce.String())

	metadataHash := record.MetadataHash(record.EventMetadata{
		Description: *description,
		EndTime:     optString(*endTime),
		ImageURL:    optString(*imageURL),
		Location:    optString(*location),
		Name:        *name,
		StartTime:   optString(*startTime),
	})

	unsigned, err := assemble.EventAnchorTx(scripts.EventAnchor, eventID, s.Address(), creatorLock, metadataHash)
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

	e.logger.Info("event anchored",
		zap.String("event_id", eventID),
		zap.String("tx_hash", txHash),
	)
	printJSON(struct {
		EventID      string `json:"event_id"`
		MetadataHash string `json:"metadata_hash"`
		TxHash       string `json:"tx_hash"`
	}{eventID, metadataHash, txHash})
}

// eventRow is the listing shape for anchor cells.
type eventRow struct {
	EventID        string         `json:"event_id"`
	CreatorAddress string         `json:"creator_address"`
	MetadataHash   string         `json:"metadata_hash,omitempty"`
	OutPoint       chain.OutPoint `json:"out_point"`
	BlockNumber    uint64         `json:"block_number"`
}

func eventRows(cells []ledger.Cell) []eventRow {
	rows := []eventRow{}
	for _, c := range cells {
		data, err := chain.DecodeHex(c.OutputData)
		if err != nil {
			continue
		}
		obj, ok := record.DecodeCellData(data)
		if !ok {
			continue
		}
		row := eventRow{OutPoint: c.OutPoint, BlockNumber: uint64(c.BlockNumber)}
		row.EventID, _ = obj["event_id"].(string)
		row.CreatorAddress, _ = obj["creator_address"].(string)
		row.MetadataHash, _ = obj["metadata_hash"].(string)
		rows = append(rows, row)
	}
	return rows
}

func cmdEventList(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("event-list", flag.ExitOnError)
	creator := fs.String("creator", "", "only events anchored by this address")
	_ = fs.Parse(args)

	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	qctx, cancel := queryCtx(ctx)
	defer cancel()
	cells, err := e.client().FindAllEventAnchors(qctx, scripts.EventAnchor.CodeHash)
	if err != nil {
		fail(err)
	}

	if *creator != "" {
		// Creator is the second half of the args; not indexable, filter here.
		want := ledger.SubjectHashHex(*creator)
		kept := cells[:0]
		for _, c := range cells {
			if ledger.MatchesSubject(c, want) {
				kept = append(kept, c)
			}
		}
		cells = kept
	}
	printJSON(eventRows(cells))
}

func cmdEventShow(ctx context.Context, e env, args []string) {
	fs := flag.NewFlagSet("event-show", flag.ExitOnError)
	id := fs.String("id", "", "event id (64 hex chars)")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	scripts, err := e.scripts()
	if err != nil {
		fail(err)
	}

	qctx, cancel := queryCtx(ctx)
	defer cancel()
	cells, err := e.client().FindEventAnchors(qctx, scripts.EventAnchor.CodeHash, *id)
	if err != nil {
		fail(err)
	}
	rows := eventRows(cells)
	if len(rows) == 0 {
		fail(fmt.Errorf("%w: event %s", errs.ErrNotFound, *id))
	}
	printJSON(rows[0])
}
