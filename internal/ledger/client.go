// Package ledger is the read/write path against a CKB node and its
// built-in indexer, over JSON-RPC. The search-key shapes here must agree
// byte-for-byte with what the indexer filters on.
package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/errs"
)

// Search modes accepted by the indexer.
const (
	SearchModeExact  = "exact"
	SearchModePrefix = "prefix"
)

const pageLimit = 100

// SearchKey is the indexer's get_cells filter.
type SearchKey struct {
	Script           chain.Script `json:"script"`
	ScriptType       string       `json:"script_type"`
	ScriptSearchMode string       `json:"script_search_mode"`
	WithData         bool         `json:"with_data"`
}

// Cell is one indexed live cell.
type Cell struct {
	OutPoint    chain.OutPoint   `json:"out_point"`
	Output      chain.CellOutput `json:"output"`
	OutputData  string           `json:"output_data"`
	BlockNumber chain.HexUint64  `json:"block_number"`
	TxIndex     chain.HexUint64  `json:"tx_index"`
}

// CellPage is one get_cells response page.
type CellPage struct {
	Objects    []Cell `json:"objects"`
	LastCursor string `json:"last_cursor"`
}

// TxStatus is the confirmation state of a transaction.
type TxStatus struct {
	Status    string  `json:"status"`
	BlockHash *string `json:"block_hash"`
}

// Client speaks JSON-RPC to one node URL.
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// New builds a client for the node at url.
func New(url string, logger *zap.Logger) *Client {
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type rpcRequest struct {
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip, surfacing server error text
// verbatim.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{ID: 1, JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: node returned HTTP %d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%s: rpc error %d: %s", method, rr.Error.Code, rr.Error.Message)
	}

	c.logger.Debug("rpc",
		zap.String("method", method),
		zap.Duration("dur", time.Since(start)),
	)

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// GetCells runs one paginated get_cells call. cursor == "" starts from the
// beginning.
func (c *Client) GetCells(ctx context.Context, key SearchKey, order string, limit uint64, cursor string) (CellPage, error) {
	var after any
	if cursor != "" {
		after = cursor
	}
	var page CellPage
	err := c.call(ctx, "get_cells", []any{key, order, chain.HexUint64(limit), after}, &page)
	return page, err
}

// GetAllCells follows the indexer's cursor across pages and collects every
// match in first-seen order. A failed page fails the whole listing:
// truncation would be indistinguishable from "no more results".
func (c *Client) GetAllCells(ctx context.Context, key SearchKey) ([]Cell, error) {
	var all []Cell
	cursor := ""
	for {
		page, err := c.GetCells(ctx, key, "asc", pageLimit, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Objects) == 0 {
			return all, nil
		}
		all = append(all, page.Objects...)
		if page.LastCursor == "" {
			return all, nil
		}
		cursor = page.LastCursor
	}
}

// SendTransaction broadcasts a signed transaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, tx chain.Transaction) (string, error) {
	var hash string
	if err := c.call(ctx, "send_transaction", []any{tx, "passthrough"}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetTransaction fetches the confirmation status of a transaction, or
// ErrNotFound if the node does not know it.
func (c *Client) GetTransaction(ctx context.Context, txHash string) (TxStatus, error) {
	if err := chain.ValidateHash32(txHash); err != nil {
		return TxStatus{}, fmt.Errorf("validation: %w", err)
	}
	var result *struct {
		TxStatus TxStatus `json:"tx_status"`
	}
	if err := c.call(ctx, "get_transaction", []any{txHash}, &result); err != nil {
		return TxStatus{}, err
	}
	if result == nil {
		return TxStatus{}, fmt.Errorf("%w: transaction %s", errs.ErrNotFound, txHash)
	}
	return result.TxStatus, nil
}

// GetTipBlockNumber returns the current chain tip.
func (c *Client) GetTipBlockNumber(ctx context.Context) (uint64, error) {
	var tip chain.HexUint64
	if err := c.call(ctx, "get_tip_block_number", []any{}, &tip); err != nil {
		return 0, err
	}
	return uint64(tip), nil
}

// TypePrefixSearch builds a search key matching cells whose type script
// has the given code hash and whose args start with the given bytes.
func TypePrefixSearch(codeHash string, argsPrefix []byte) SearchKey {
	return SearchKey{
		Script: chain.Script{
			CodeHash: codeHash,
			HashType: chain.HashTypeType,
			Args:     chain.EncodeHex(argsPrefix),
		},
		ScriptType:       "type",
		ScriptSearchMode: SearchModePrefix,
		WithData:         true,
	}
}

// TypeExactSearch builds a search key matching the full 64-byte args.
func TypeExactSearch(codeHash string, args []byte) SearchKey {
	key := TypePrefixSearch(codeHash, args)
	key.ScriptSearchMode = SearchModeExact
	return key
}

// FindEventAnchors returns the anchor cells for one event ID (prefix match
// on SHA256(event_id), the first half of the args).
func (c *Client) FindEventAnchors(ctx context.Context, anchorCodeHash, eventID string) ([]Cell, error) {
	h := sha256.Sum256([]byte(eventID))
	return c.GetAllCells(ctx, TypePrefixSearch(anchorCodeHash, h[:]))
}

// FindAllEventAnchors returns every anchor cell (empty prefix).
func (c *Client) FindAllEventAnchors(ctx context.Context, anchorCodeHash string) ([]Cell, error) {
	return c.GetAllCells(ctx, TypePrefixSearch(anchorCodeHash, nil))
}

// FindBadgesForEvent returns the badge cells minted for one event.
func (c *Client) FindBadgesForEvent(ctx context.Context, badgeCodeHash, eventID string) ([]Cell, error) {
	h := sha256.Sum256([]byte(eventID))
	return c.GetAllCells(ctx, TypePrefixSearch(badgeCodeHash, h[:]))
}

// FindAllBadges returns every badge cell across all events.
func (c *Client) FindAllBadges(ctx context.Context, badgeCodeHash string) ([]Cell, error) {
	return c.GetAllCells(ctx, TypePrefixSearch(badgeCodeHash, nil))
}

// SubjectHashHex returns the hex form of SHA256(subject) used in the
// second half of the 64-byte args.
func SubjectHashHex(subject string) string {
	h := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(h[:])
}

// MatchesSubject reports whether a cell's type-script args carry the given
// subject hash in their second half. The subject hash is not a searchable
// prefix, so subject-scoped queries fetch broad and filter locally.
func MatchesSubject(cell Cell, subjectHashHex string) bool {
	if cell.Output.Type == nil {
		return false
	}
	args, err := chain.DecodeHex(cell.Output.Type.Args)
	if err != nil || len(args) < 64 {
		return false
	}
	return hex.EncodeToString(args[32:64]) == subjectHashHex
}
