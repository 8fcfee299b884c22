package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ckb-pop/cli/internal/address"
	"github.com/ckb-pop/cli/internal/config"
	"github.com/ckb-pop/cli/internal/signer"
)

// cmdSignerSet binds a signing method and wallet address without any
// network interaction.
func cmdSignerSet(e env, args []string) {
	fs := flag.NewFlagSet("signer-set", flag.ExitOnError)
	method := fs.String("method", "browser", "signing method")
	addr := fs.String("address", "", "wallet address")
	_ = fs.Parse(args)
	if *addr == "" {
		fmt.Fprintln(os.Stderr, "need -address")
		os.Exit(1)
	}

	if _, err := signer.ParseMethod(*method); err != nil {
		fail(err)
	}
	network, _, err := address.Parse(*addr)
	if err != nil {
		fail(err)
	}
	if network != e.cfg.Network {
		fail(fmt.Errorf("validation: address is for %s, config network is %s", network, e.cfg.Network))
	}

	e.cfg.Signer = config.SignerBinding{Method: *method, Address: *addr}
	if err := config.Save(e.cfg); err != nil {
		fail(err)
	}
	fmt.Println("ok")
}

// cmdSignerConnect runs the browser handshake to discover the wallet
// address, then persists the binding.
func cmdSignerConnect(ctx context.Context, e env) {
	addr, err := signer.Connect(ctx, signer.Options{Logger: e.logger})
	if err != nil {
		fail(err)
	}
	network, _, err := address.Parse(addr)
	if err != nil {
		fail(fmt.Errorf("wallet returned a bad address: %w", err))
	}
	if network != e.cfg.Network {
		fail(fmt.Errorf("validation: wallet address is for %s, config network is %s", network, e.cfg.Network))
	}

	e.cfg.Signer = config.SignerBinding{Method: string(signer.MethodBrowser), Address: addr}
	if err := config.Save(e.cfg); err != nil {
		fail(err)
	}
	printJSON(e.cfg.Signer)
}

func cmdSignerStatus(e env) {
	printJSON(struct {
		Network string               `json:"network"`
		RPCURL  string               `json:"rpc_url"`
		Signer  config.SignerBinding `json:"signer"`
	}{e.cfg.Network, e.cfg.RPCURL(), e.cfg.Signer})
}
