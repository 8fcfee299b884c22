// Package contracts holds the deployment coordinates of the PoP on-chain
// scripts. The registry is an explicit value injected at startup so tests
// can substitute fixtures; nothing here is a package-level singleton.
package contracts

import (
	"fmt"

	"github.com/ckb-pop/cli/internal/chain"
	"github.com/ckb-pop/cli/internal/errs"
)

// ScriptInfo describes one deployed script.
type ScriptInfo struct {
	// CodeHash is the type-ID code hash (0x-prefixed, 32 bytes).
	CodeHash string
	// DeployTxHash is the transaction the script binary was deployed in.
	DeployTxHash string
	// DeployOutIndex is the output index within the deploy transaction.
	DeployOutIndex uint32
	// DataHash is the data hash of the compiled script binary.
	DataHash string
}

// CellDep returns the dependency a transaction must carry to load the
// script.
func (s ScriptInfo) CellDep() chain.CellDep {
	return chain.CellDep{
		OutPoint: chain.OutPoint{TxHash: s.DeployTxHash, Index: chain.HexUint64(s.DeployOutIndex)},
		DepType:  "code",
	}
}

// NetworkScripts bundles the two protocol scripts of one network.
type NetworkScripts struct {
	DOBBadge    ScriptInfo
	EventAnchor ScriptInfo
}

// Registry maps network names to script deployments.
type Registry struct {
	networks map[string]NetworkScripts
}

// New builds a registry from explicit deployments; used by tests and by
// future mainnet wiring.
func New(networks map[string]NetworkScripts) Registry {
	m := make(map[string]NetworkScripts, len(networks))
	for k, v := range networks {
		m[k] = v
	}
	return Registry{networks: m}
}

// Builtin returns the registry of known deployments. Only testnet is
// deployed today.
func Builtin() Registry {
	return New(map[string]NetworkScripts{
		"testnet": {
			DOBBadge: ScriptInfo{
				CodeHash:       "0xb36ed7616c4c87c0779a6c1238e78a84ea68a2638173f25ed140650e0454fbb9",
				DeployTxHash:   "0x9ae36ae06c449d704bc20af5c455c32a220f73249b5b95a15e8a1e352848fda9",
				DeployOutIndex: 0,
				DataHash:       "0x3da692e19366c26dace65eaa1d6517ca9e4f555cb78a608bfb41d0ea4c5c468b",
			},
			EventAnchor: ScriptInfo{
				CodeHash:       "0xd565d738ad5ac99addddc59fd3af5e0d54469dc9834cf766260c7e0d23c70b37",
				DeployTxHash:   "0x9ae36ae06c449d704bc20af5c455c32a220f73249b5b95a15e8a1e352848fda9",
				DeployOutIndex: 1,
				DataHash:       "0xde6f3d1814ec3bf5aceaf8fe754f9c82affc4de9f277aa6519b5ad52e892807b",
			},
		},
	})
}

// ForNetwork returns the deployments for a network, or ErrNotDeployed.
func (r Registry) ForNetwork(name string) (NetworkScripts, error) {
	ns, ok := r.networks[name]
	if !ok {
		return NetworkScripts{}, fmt.Errorf("%w: %s", errs.ErrNotDeployed, name)
	}
	return ns, nil
}
