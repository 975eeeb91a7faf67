package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/wire"
)

// ResolveInput turns a user-provided value into bytes.
//
//   - "" or "-": read stdin
//   - "@path": read the file at path
//   - anything else: the value itself
func ResolveInput(value string, stdin io.Reader) ([]byte, error) {
	switch {
	case value == "" || value == "-":
		return io.ReadAll(stdin)
	case strings.HasPrefix(value, "@"):
		return os.ReadFile(strings.TrimPrefix(value, "@"))
	default:
		return []byte(value), nil
	}
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// ResolveCriteria reads a boolean criteria tuple.
func ResolveCriteria(value string, stdin io.Reader) (criteria.BoolNode, error) {
	data, err := ResolveInput(value, stdin)
	if err != nil {
		return nil, err
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return wire.DecodeBoolNode(v)
}

// ResolveRank reads a numeric rank expression. Empty means no rank.
func ResolveRank(value string, stdin io.Reader) (criteria.NumericOperand, error) {
	if value == "" {
		return nil, nil
	}
	data, err := ResolveInput(value, stdin)
	if err != nil {
		return nil, err
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return wire.DecodeNumeric(v)
}

// ResolveTarget builds a target from the --symbols and --markets flags.
// Exactly one must be given.
func ResolveTarget(symbols, markets []string) (scan.Target, error) {
	switch {
	case len(symbols) > 0 && len(markets) > 0:
		return scan.Target{}, fmt.Errorf("--symbols and --markets are mutually exclusive")
	case len(symbols) > 0:
		return scan.SymbolsTarget(symbols...), nil
	case len(markets) > 0:
		return scan.MarketsTarget(markets...), nil
	default:
		return scan.Target{}, fmt.Errorf("one of --symbols or --markets is required")
	}
}
