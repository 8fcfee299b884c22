// Command ckb-pop anchors events, runs attendance windows, and mints
// proof-of-presence badges on Nervos CKB. Signing is always delegated to an
// external wallet; the tool never touches private keys.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ckb-pop/cli/internal/config"
	"github.com/ckb-pop/cli/internal/contracts"
	"github.com/ckb-pop/cli/internal/errs"
	"github.com/ckb-pop/cli/internal/ledger"
	"github.com/ckb-pop/cli/internal/notify"
	"github.com/ckb-pop/cli/internal/signer"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// env carries the resolved per-invocation state into command handlers.
type env struct {
	cfg      config.Config
	logger   *zap.Logger
	registry contracts.Registry
}

func (e env) client() *ledger.Client {
	return ledger.New(e.cfg.RPCURL(), e.logger)
}

func (e env) scripts() (contracts.NetworkScripts, error) {
	return e.registry.ForNetwork(e.cfg.Network)
}

func (e env) notifier() *notify.Notifier {
	return notify.New(e.cfg.NotifyURL, e.logger)
}

// resolveSigner builds a signer from the saved binding, or ErrNoSigner when
// neither config nor flags name a wallet.
func (e env) resolveSigner() (signer.Signer, error) {
	if e.cfg.Signer.Address == "" || e.cfg.Signer.Method == "" {
		return nil, fmt.Errorf("%w: run signer-set or signer-connect first", errs.ErrNoSigner)
	}
	method, err := signer.ParseMethod(e.cfg.Signer.Method)
	if err != nil {
		return nil, err
	}
	return signer.New(method, e.cfg.Signer.Address, signer.Options{Logger: e.logger})
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `ckb-pop CLI
Usage:
  ckb-pop [-network testnet|mainnet] [-rpc-url URL] [-signer METHOD] [-address ADDR] [-v] <cmd> [args]

Commands:
  version
  signer-set      -method <browser|ledger|passkey|walletconnect> -address <ckb…/ckt…>
  signer-connect                                   (browser handshake, saves address)
  signer-status
  event-create    -name <text> [-description/-location/-image/-start/-end …]
  event-list      [-creator <addr>]
  event-show      -id <event_id>
  window          -id <event_id> [-duration <seconds>]  (0 = open-ended)
  attend          -qr <event_id|timestamp|code>
  badge-mint      -id <event_id> -to <addr>
  badge-list      [-id <event_id>] [-holder <addr>]
  badge-verify    -id <event_id> -holder <addr>
  tx-status       -hash <0x…>
`)
	os.Exit(2)
}

func main() {
	// global flags
	network := flag.String("network", "", "network override (testnet|mainnet)")
	rpcURL := flag.String("rpc-url", "", "node RPC endpoint override")
	signerMethod := flag.String("signer", "", "signer method override")
	signerAddr := flag.String("address", "", "signer address override")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if *network != "" {
		cfg.Network = *network
	}
	if *rpcURL != "" {
		if cfg.Network == "mainnet" {
			cfg.MainnetRPC = *rpcURL
		} else {
			cfg.TestnetRPC = *rpcURL
		}
	}
	if *signerMethod != "" {
		cfg.Signer.Method = *signerMethod
	}
	if *signerAddr != "" {
		cfg.Signer.Address = *signerAddr
	}

	e := env{cfg: cfg, logger: logger, registry: contracts.Builtin()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "version":
		fmt.Printf("ckb-pop %s (%s)\n", version, buildDate)
	case "signer-set":
		cmdSignerSet(e, args)
	case "signer-connect":
		cmdSignerConnect(ctx, e)
	case "signer-status":
		cmdSignerStatus(e)
	case "event-create":
		cmdEventCreate(ctx, e, args)
	case "event-list":
		cmdEventList(ctx, e, args)
	case "event-show":
		cmdEventShow(ctx, e, args)
	case "window":
		cmdWindow(ctx, e, args)
	case "attend":
		cmdAttend(ctx, e, args)
	case "badge-mint":
		cmdBadgeMint(ctx, e, args)
	case "badge-list":
		cmdBadgeList(ctx, e, args)
	case "badge-verify":
		cmdBadgeVerify(ctx, e, args)
	case "tx-status":
		cmdTxStatus(ctx, e, args)
	default:
		usage()
	}
}

// queryCtx bounds query-only commands. Interactive flows (signing, the
// window loop) manage their own deadlines.
func queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 60*time.Second)
}
