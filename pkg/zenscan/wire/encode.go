package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
)

// DateLayout is the on-wire date literal format.
const DateLayout = time.RFC3339Nano

// Encode writes n as a tagged tuple. Literal operands are emitted as bare
// JSON values, nested nodes as nested tuples.
func Encode(n criteria.Node) []any {
	switch v := n.(type) {
	case *criteria.Constant:
		return tuple(v.Kind(), criteria.NotationNamed)
	case *criteria.Not:
		return tuple(v.Kind(), criteria.NotationNamed, EncodeBool(v.Operand()))
	case *criteria.Comparison:
		return tuple(v.Kind(), criteria.NotationNamed, EncodeBool(v.Left()), EncodeBool(v.Right()))
	case *criteria.Logical:
		ops := v.Operands()
		params := make([]any, len(ops))
		for i, op := range ops {
			params[i] = EncodeBool(op)
		}
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.HasValue:
		return tuple(v.Kind(), criteria.NotationNamed, fieldParams(v.Kind(), v.Field(), v.SubField())...)
	case *criteria.BooleanEquals:
		params := append(fieldParams(v.Kind(), v.Field(), v.SubField()), v.Target())
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.DecimalEquals:
		params := append(fieldParams(v.Kind(), v.Field(), v.SubField()), EncodeNumeric(v.Target()))
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.DecimalInRange:
		params := append(fieldParams(v.Kind(), v.Field(), v.SubField()), EncodeNumeric(v.Min()), EncodeNumeric(v.Max()))
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.DateEquals:
		params := append(fieldParams(v.Kind(), v.Field(), v.SubField()), EncodeDate(v.Target()))
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.DateInRange:
		params := append(fieldParams(v.Kind(), v.Field(), v.SubField()), EncodeDate(v.Min()), EncodeDate(v.Max()))
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.StringContains:
		params := append(fieldParams(v.Kind(), v.Field(), v.SubField()), v.Value(), v.As().String(), v.IgnoreCase())
		return tuple(v.Kind(), criteria.NotationNamed, params...)
	case *criteria.Unary:
		return tuple(v.Kind(), v.Notation(), EncodeNumeric(v.Operand()))
	case *criteria.Binary:
		return tuple(v.Kind(), v.Notation(), EncodeNumeric(v.Left()), EncodeNumeric(v.Right()))
	case *criteria.DecimalField:
		return tuple(v.Kind(), criteria.NotationNamed, fieldParams(v.Kind(), v.Field(), v.SubField())...)
	case *criteria.DateField:
		return tuple(v.Kind(), criteria.NotationNamed, fieldParams(v.Kind(), v.Field(), v.SubField())...)
	}
	panic(fmt.Sprintf("wire: cannot encode node %T", n))
}

func tuple(k criteria.Kind, n criteria.Notation, params ...any) []any {
	out := make([]any, 0, len(params)+1)
	out = append(out, tagOf(k, n))
	return append(out, params...)
}

func fieldParams(k criteria.Kind, name, sub string) []any {
	if k.HasSubField() {
		return []any{name, sub}
	}
	return []any{name}
}

// EncodeBool writes a boolean operand: a bare bool for a literal, a tuple
// for a node.
func EncodeBool(op criteria.BoolOperand) any {
	switch v := op.(type) {
	case criteria.BoolLit:
		return bool(v)
	case criteria.BoolNode:
		return Encode(v)
	}
	return nil
}

// EncodeNumeric writes a numeric operand. A nil operand (an absent range
// bound) is written as null; a shorthand field accessor as its bare name.
func EncodeNumeric(op criteria.NumericOperand) any {
	switch v := op.(type) {
	case criteria.NumLit:
		return float64(v)
	case *criteria.DecimalField:
		if v.Notation() == criteria.NotationShorthand {
			return v.Field()
		}
		return Encode(v)
	case criteria.NumericNode:
		return Encode(v)
	}
	return nil
}

// EncodeDate writes a date operand. Decoded literals keep their
// original spelling; others use DateLayout.
func EncodeDate(op criteria.DateOperand) any {
	switch v := op.(type) {
	case criteria.DateLit:
		if text := v.Text(); text != "" {
			return text
		}
		return v.Format(DateLayout)
	case criteria.DateNode:
		return Encode(v)
	}
	return nil
}

// Marshal encodes n and serialises the tuple as JSON.
func Marshal(n criteria.Node) ([]byte, error) {
	return json.Marshal(Encode(n))
}
