package scan

import (
	"fmt"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

// TargetType says which target list a scan runs over.
type TargetType string

const (
	TargetSymbols TargetType = "Symbols"
	TargetMarkets TargetType = "Markets"
)

func (t TargetType) Valid() bool { return t == TargetSymbols || t == TargetMarkets }

// Target is a scan's target set. Exactly the list matching Type is populated.
type Target struct {
	Type    TargetType
	Symbols []string
	Markets []string
}

// SymbolsTarget and MarketsTarget build a target of the matching type.
func SymbolsTarget(symbols ...string) Target {
	return Target{Type: TargetSymbols, Symbols: symbols}
}

func MarketsTarget(markets ...string) Target {
	return Target{Type: TargetMarkets, Markets: markets}
}

// Validate reports a contract error when the declared list is empty or the
// other list is populated.
func (t Target) Validate() error {
	switch t.Type {
	case TargetSymbols:
		if len(t.Markets) > 0 {
			return zserrors.Contract("Target.Markets", "symbols target must not carry markets")
		}
		if len(t.Symbols) == 0 {
			return zserrors.Contract("Target.Symbols", "symbols target requires at least one symbol")
		}
	case TargetMarkets:
		if len(t.Symbols) > 0 {
			return zserrors.Contract("Target.Symbols", "markets target must not carry symbols")
		}
		if len(t.Markets) == 0 {
			return zserrors.Contract("Target.Markets", "markets target requires at least one market")
		}
	default:
		return zserrors.Contract("Target.Type", fmt.Sprintf("unknown target type %q", string(t.Type)))
	}
	return nil
}

// List returns the populated list for t.Type.
func (t Target) List() []string {
	if t.Type == TargetMarkets {
		return t.Markets
	}
	return t.Symbols
}
