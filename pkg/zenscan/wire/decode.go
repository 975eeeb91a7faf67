package wire

import (
	"encoding/json"
	"fmt"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

// Unmarshal parses JSON text and decodes it as a tagged tuple.
func Unmarshal(data []byte) (criteria.Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, zserrors.Wrap(zserrors.ErrDecode, "criteria json", err)
	}
	return Decode(v)
}

// Decode converts a tagged tuple ([]any as produced by encoding/json) into
// a criteria node. Unknown tags, wrong arity and parameters of the wrong
// value category are reported as decode errors; nothing is coerced.
func Decode(v any) (criteria.Node, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, zserrors.Decode("", 0, fmt.Sprintf("expected tagged tuple, got %s", describe(v)))
	}
	if len(arr) == 0 {
		return nil, zserrors.Decode("", 0, "empty tuple")
	}
	tag, ok := arr[0].(string)
	if !ok {
		return nil, zserrors.Decode("", 0, fmt.Sprintf("tuple tag must be a string, got %s", describe(arr[0])))
	}
	params := arr[1:]

	kind, notation, ok := resolveTag(tag, len(params))
	if !ok {
		if tag == TagSymPlus || tag == TagSymMinus {
			return nil, zserrors.Decode(tag, 0, fmt.Sprintf("expects 1 or 2 parameters, got %d", len(params)))
		}
		return nil, zserrors.Decode(tag, 0, "unknown tag")
	}
	sh := shapeOf(kind)
	if !sh.accepts(len(params)) {
		return nil, zserrors.Decode(tag, 0, fmt.Sprintf("expects %d parameters, got %d", len(sh.params), len(params)))
	}

	d := decoder{tag: tag, shape: sh, params: params}
	node, err := d.build(kind, notation)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// DecodeBoolNode decodes a tuple that must be boolean-valued.
func DecodeBoolNode(v any) (criteria.BoolNode, error) {
	n, err := Decode(v)
	if err != nil {
		return nil, err
	}
	b, ok := n.(criteria.BoolNode)
	if !ok {
		return nil, zserrors.Decode(tagOf(n.Kind(), criteria.NotationNamed), 0, fmt.Sprintf("expected boolean criteria, got %s", n.Kind().Category()))
	}
	return b, nil
}

// DecodeBool decodes a boolean operand: a bare bool or a boolean tuple.
func DecodeBool(v any) (criteria.BoolOperand, error) {
	return decodeBool("", 0, v)
}

// DecodeNumeric decodes a numeric operand: a number, a field shorthand or a
// numeric tuple.
func DecodeNumeric(v any) (criteria.NumericOperand, error) {
	return decodeNumeric("", 0, v)
}

// DecodeDate decodes a date operand: an RFC 3339 string or a date tuple.
func DecodeDate(v any) (criteria.DateOperand, error) {
	return decodeDate("", 0, v)
}

type decoder struct {
	tag    string
	shape  shape
	params []any
}

// arg returns the 1-based position and value of parameter i.
func (d decoder) arg(i int) (int, any) { return i + 1, d.params[i] }

func (d decoder) field(i int) (string, error) {
	pos, v := d.arg(i)
	s, ok := v.(string)
	if !ok || s == "" {
		return "", d.mismatch(pos, paramField, v)
	}
	return s, nil
}

func (d decoder) str(i int) (string, error) {
	pos, v := d.arg(i)
	s, ok := v.(string)
	if !ok {
		return "", d.mismatch(pos, paramString, v)
	}
	return s, nil
}

func (d decoder) boolLiteral(i int) (bool, error) {
	pos, v := d.arg(i)
	b, ok := v.(bool)
	if !ok {
		return false, d.mismatch(pos, paramBoolLiteral, v)
	}
	return b, nil
}

func (d decoder) containsAs(i int) (criteria.ContainsAs, error) {
	pos, v := d.arg(i)
	s, ok := v.(string)
	if !ok {
		return 0, d.mismatch(pos, paramContainsAs, v)
	}
	as, ok := criteria.ParseContainsAs(s)
	if !ok {
		return 0, zserrors.Decode(d.tag, pos, fmt.Sprintf("unknown match mode %q", s))
	}
	return as, nil
}

func (d decoder) boolean(i int) (criteria.BoolOperand, error) {
	pos, v := d.arg(i)
	return decodeBool(d.tag, pos, v)
}

func (d decoder) numeric(i int) (criteria.NumericOperand, error) {
	pos, v := d.arg(i)
	return decodeNumeric(d.tag, pos, v)
}

func (d decoder) numericOpt(i int) (criteria.NumericOperand, error) {
	if _, v := d.arg(i); v == nil {
		return nil, nil
	}
	return d.numeric(i)
}

func (d decoder) date(i int) (criteria.DateOperand, error) {
	pos, v := d.arg(i)
	return decodeDate(d.tag, pos, v)
}

func (d decoder) dateOpt(i int) (criteria.DateOperand, error) {
	if _, v := d.arg(i); v == nil {
		return nil, nil
	}
	return d.date(i)
}

func (d decoder) mismatch(pos int, want param, got any) error {
	return zserrors.Decode(d.tag, pos, fmt.Sprintf("expected %s parameter, got %s", want, describe(got)))
}

// fieldRef reads the field (and, for sub-field kinds, sub-field) names that
// lead every field predicate. It returns the index of the next parameter.
func (d decoder) fieldRef(k criteria.Kind) (name, sub string, next int, err error) {
	if name, err = d.field(0); err != nil {
		return "", "", 0, err
	}
	if !k.HasSubField() {
		return name, "", 1, nil
	}
	if sub, err = d.field(1); err != nil {
		return "", "", 0, err
	}
	return name, sub, 2, nil
}

// wrapShape turns a constructor failure into a decode error at the tuple.
func (d decoder) wrapShape(err error) error {
	if err == nil {
		return nil
	}
	e := zserrors.Decode(d.tag, 0, "invalid node")
	e.Cause = err
	return e
}

func (d decoder) build(k criteria.Kind, notation criteria.Notation) (criteria.Node, error) {
	switch k {
	case criteria.KindAll:
		return criteria.NewAll(), nil
	case criteria.KindNone:
		return criteria.NewNone(), nil

	case criteria.KindNot:
		op, err := d.boolean(0)
		if err != nil {
			return nil, err
		}
		n, err := criteria.NewNot(op)
		return n, d.wrapShape(err)

	case criteria.KindEquals, criteria.KindGreaterThan, criteria.KindGreaterThanOrEqual,
		criteria.KindLessThan, criteria.KindLessThanOrEqual:
		left, err := d.boolean(0)
		if err != nil {
			return nil, err
		}
		right, err := d.boolean(1)
		if err != nil {
			return nil, err
		}
		n, err := criteria.NewComparison(k, left, right)
		return n, d.wrapShape(err)

	case criteria.KindAnd, criteria.KindOr:
		ops := make([]criteria.BoolOperand, len(d.params))
		for i := range d.params {
			op, err := d.boolean(i)
			if err != nil {
				return nil, err
			}
			ops[i] = op
		}
		var n *criteria.Logical
		var err error
		if k == criteria.KindAnd {
			n, err = criteria.NewAnd(ops...)
		} else {
			n, err = criteria.NewOr(ops...)
		}
		return n, d.wrapShape(err)

	case criteria.KindFieldHasValue, criteria.KindSubFieldHasValue:
		name, sub, _, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindFieldHasValue {
			n, err := criteria.NewFieldHasValue(name)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewSubFieldHasValue(name, sub)
		return n, d.wrapShape(err)

	case criteria.KindBooleanFieldEquals, criteria.KindBooleanSubFieldEquals:
		name, sub, next, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		target, err := d.boolLiteral(next)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindBooleanFieldEquals {
			n, err := criteria.NewBooleanFieldEquals(name, target)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewBooleanSubFieldEquals(name, sub, target)
		return n, d.wrapShape(err)

	case criteria.KindDecimalFieldEquals, criteria.KindDecimalSubFieldEquals:
		name, sub, next, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		target, err := d.numeric(next)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindDecimalFieldEquals {
			n, err := criteria.NewDecimalFieldEquals(name, target)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewDecimalSubFieldEquals(name, sub, target)
		return n, d.wrapShape(err)

	case criteria.KindDecimalFieldInRange, criteria.KindDecimalSubFieldInRange:
		name, sub, next, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		lo, err := d.numericOpt(next)
		if err != nil {
			return nil, err
		}
		hi, err := d.numericOpt(next + 1)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindDecimalFieldInRange {
			n, err := criteria.NewDecimalFieldInRange(name, lo, hi)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewDecimalSubFieldInRange(name, sub, lo, hi)
		return n, d.wrapShape(err)

	case criteria.KindDateFieldEquals, criteria.KindDateSubFieldEquals:
		name, sub, next, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		target, err := d.date(next)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindDateFieldEquals {
			n, err := criteria.NewDateFieldEquals(name, target)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewDateSubFieldEquals(name, sub, target)
		return n, d.wrapShape(err)

	case criteria.KindDateFieldInRange, criteria.KindDateSubFieldInRange:
		name, sub, next, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		lo, err := d.dateOpt(next)
		if err != nil {
			return nil, err
		}
		hi, err := d.dateOpt(next + 1)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindDateFieldInRange {
			n, err := criteria.NewDateFieldInRange(name, lo, hi)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewDateSubFieldInRange(name, sub, lo, hi)
		return n, d.wrapShape(err)

	case criteria.KindStringFieldContains, criteria.KindStringSubFieldContains:
		name, sub, next, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		value, err := d.str(next)
		if err != nil {
			return nil, err
		}
		as, err := d.containsAs(next + 1)
		if err != nil {
			return nil, err
		}
		ignoreCase, err := d.boolLiteral(next + 2)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindStringFieldContains {
			n, err := criteria.NewStringFieldContains(name, value, as, ignoreCase)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewStringSubFieldContains(name, sub, value, as, ignoreCase)
		return n, d.wrapShape(err)

	case criteria.KindNeg, criteria.KindPos, criteria.KindAbs:
		op, err := d.numeric(0)
		if err != nil {
			return nil, err
		}
		var n *criteria.Unary
		switch k {
		case criteria.KindNeg:
			n, err = criteria.NewNeg(op)
		case criteria.KindPos:
			n, err = criteria.NewPos(op)
		default:
			n, err = criteria.NewAbs(op)
		}
		if err != nil {
			return nil, d.wrapShape(err)
		}
		n, err = n.WithNotation(notation)
		return n, d.wrapShape(err)

	case criteria.KindAdd, criteria.KindDiv, criteria.KindMod, criteria.KindMul, criteria.KindSub:
		left, err := d.numeric(0)
		if err != nil {
			return nil, err
		}
		right, err := d.numeric(1)
		if err != nil {
			return nil, err
		}
		var n *criteria.Binary
		switch k {
		case criteria.KindAdd:
			n, err = criteria.NewAdd(left, right)
		case criteria.KindDiv:
			n, err = criteria.NewDiv(left, right)
		case criteria.KindMod:
			n, err = criteria.NewMod(left, right)
		case criteria.KindMul:
			n, err = criteria.NewMul(left, right)
		default:
			n, err = criteria.NewSub(left, right)
		}
		if err != nil {
			return nil, d.wrapShape(err)
		}
		n, err = n.WithNotation(notation)
		return n, d.wrapShape(err)

	case criteria.KindGetDecimalFieldValue, criteria.KindGetDecimalSubFieldValue:
		name, sub, _, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindGetDecimalFieldValue {
			n, err := criteria.NewGetDecimalFieldValue(name)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewGetDecimalSubFieldValue(name, sub)
		return n, d.wrapShape(err)

	case criteria.KindGetDateFieldValue, criteria.KindGetDateSubFieldValue:
		name, sub, _, err := d.fieldRef(k)
		if err != nil {
			return nil, err
		}
		if k == criteria.KindGetDateFieldValue {
			n, err := criteria.NewGetDateFieldValue(name)
			return n, d.wrapShape(err)
		}
		n, err := criteria.NewGetDateSubFieldValue(name, sub)
		return n, d.wrapShape(err)
	}
	panic(fmt.Sprintf("wire: no decoder for kind %d", int(k)))
}

func decodeBool(tag string, pos int, v any) (criteria.BoolOperand, error) {
	switch x := v.(type) {
	case bool:
		return criteria.BoolLit(x), nil
	case []any:
		n, err := Decode(x)
		if err != nil {
			return nil, err
		}
		if b, ok := n.(criteria.BoolNode); ok {
			return b, nil
		}
		return nil, categoryMismatch(tag, pos, criteria.CategoryBool, n)
	}
	return nil, zserrors.Decode(tag, pos, fmt.Sprintf("expected %s parameter, got %s", paramBool, describe(v)))
}

func decodeNumeric(tag string, pos int, v any) (criteria.NumericOperand, error) {
	switch x := v.(type) {
	case float64:
		return criteria.NumLit(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, zserrors.Decode(tag, pos, fmt.Sprintf("invalid number %q", x.String()))
		}
		return criteria.NumLit(f), nil
	case int:
		return criteria.NumLit(x), nil
	case int64:
		return criteria.NumLit(x), nil
	case string:
		n, err := criteria.NewGetDecimalFieldValue(x)
		if err != nil {
			e := zserrors.Decode(tag, pos, "invalid field shorthand")
			e.Cause = err
			return nil, e
		}
		return n.WithNotation(criteria.NotationShorthand)
	case []any:
		n, err := Decode(x)
		if err != nil {
			return nil, err
		}
		if num, ok := n.(criteria.NumericNode); ok {
			return num, nil
		}
		return nil, categoryMismatch(tag, pos, criteria.CategoryNumeric, n)
	}
	return nil, zserrors.Decode(tag, pos, fmt.Sprintf("expected %s parameter, got %s", paramNumeric, describe(v)))
}

func decodeDate(tag string, pos int, v any) (criteria.DateOperand, error) {
	switch x := v.(type) {
	case string:
		lit, err := criteria.ParseDateLit(x)
		if err != nil {
			return nil, zserrors.Decode(tag, pos, fmt.Sprintf("invalid date literal %q", x))
		}
		return lit, nil
	case []any:
		n, err := Decode(x)
		if err != nil {
			return nil, err
		}
		if d, ok := n.(criteria.DateNode); ok {
			return d, nil
		}
		return nil, categoryMismatch(tag, pos, criteria.CategoryDate, n)
	}
	return nil, zserrors.Decode(tag, pos, fmt.Sprintf("expected %s parameter, got %s", paramDate, describe(v)))
}

func categoryMismatch(tag string, pos int, want criteria.Category, got criteria.Node) error {
	return zserrors.Decode(tag, pos, fmt.Sprintf("expected %s parameter, got %s %s", want, got.Kind().Category(), got.Kind()))
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number, int, int64:
		return "number"
	case string:
		return fmt.Sprintf("string %q", x)
	case []any:
		return "tuple"
	default:
		return fmt.Sprintf("%T", v)
	}
}
