package contracts

import (
	"errors"
	"testing"

	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/errs"
)

func TestBuiltin_TestnetHashesAreValid(t *testing.T) {
	t.Parallel()
	ns, err := Builtin().ForNetwork("testnet")
	if err != nil {
		t.Fatalf("testnet must be deployed: %v", err)
	}
	for name, info := range map[string]ScriptInfo{"dob-badge": ns.DOBBadge, "event-anchor": ns.EventAnchor} {
		if err := chain.ValidateHash32(info.CodeHash); err != nil {
			t.Fatalf("%s code hash: %v", name, err)
		}
		if err := chain.ValidateHash32(info.DeployTxHash); err != nil {
			t.Fatalf("%s deploy tx hash: %v", name, err)
		}
		if err := chain.ValidateHash32(info.DataHash); err != nil {
			t.Fatalf("%s data hash: %v", name, err)
		}
	}
}

func TestBuiltin_SharedDeployTx(t *testing.T) {
	t.Parallel()
	ns, _ := Builtin().ForNetwork("testnet")
	if ns.DOBBadge.DeployTxHash != ns.EventAnchor.DeployTxHash {
		t.Fatalf("both scripts should share one deploy tx")
	}
	if ns.DOBBadge.DeployOutIndex != 0 || ns.EventAnchor.DeployOutIndex != 1 {
		t.Fatalf("unexpected deploy indexes: %d %d", ns.DOBBadge.DeployOutIndex, ns.EventAnchor.DeployOutIndex)
	}
}

func TestForNetwork_NotDeployed(t *testing.T) {
	t.Parallel()
	_, err := Builtin().ForNetwork("mainnet")
	if !errors.Is(err, errs.ErrNotDeployed) {
		t.Fatalf("mainnet should report ErrNotDeployed, got %v", err)
	}
}

func TestScriptInfo_CellDep(t *testing.T) {
	t.Parallel()
	info := ScriptInfo{DeployTxHash: "0xabc", DeployOutIndex: 3}
	dep := info.CellDep()
	if dep.OutPoint.TxHash != "0xabc" || dep.OutPoint.Index != 3 || dep.DepType != "code" {
		t.Fatalf("unexpected dep: %+v", dep)
	}
}
