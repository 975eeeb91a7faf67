package criteria

import (
	"fmt"
	"math"
	"reflect"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

func missing(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// checkNumeric rejects literal operands that have no decimal spelling.
func checkNumeric(kind Kind, slot string, op NumericOperand) error {
	if v, ok := op.(NumLit); ok && (math.IsNaN(float64(v)) || math.IsInf(float64(v), 0)) {
		return shapeErr(kind, slot, fmt.Sprintf("literal %v is not finite", float64(v)))
	}
	return nil
}

func shapeErr(kind Kind, slot, msg string) error {
	return zserrors.Shape(slot, fmt.Sprintf("%s: %s", kind, msg))
}

func newField(kind Kind, name, sub string) (field, error) {
	if name == "" {
		return field{}, shapeErr(kind, "field", "field name is required")
	}
	if kind.HasSubField() {
		if sub == "" {
			return field{}, shapeErr(kind, "subField", "sub-field name is required")
		}
	} else if sub != "" {
		return field{}, shapeErr(kind, "subField", "kind does not take a sub-field")
	}
	return field{name: name, sub: sub}, nil
}

func NewAll() *Constant  { return &Constant{kind: KindAll} }
func NewNone() *Constant { return &Constant{kind: KindNone} }

func NewNot(operand BoolOperand) (*Not, error) {
	if missing(operand) {
		return nil, shapeErr(KindNot, "operand", "operand is required")
	}
	return &Not{operand: operand}, nil
}

func NewEquals(left, right BoolOperand) (*Comparison, error) {
	return newComparison(KindEquals, left, right)
}

func NewGreaterThan(left, right BoolOperand) (*Comparison, error) {
	return newComparison(KindGreaterThan, left, right)
}

func NewGreaterThanOrEqual(left, right BoolOperand) (*Comparison, error) {
	return newComparison(KindGreaterThanOrEqual, left, right)
}

func NewLessThan(left, right BoolOperand) (*Comparison, error) {
	return newComparison(KindLessThan, left, right)
}

func NewLessThanOrEqual(left, right BoolOperand) (*Comparison, error) {
	return newComparison(KindLessThanOrEqual, left, right)
}

// NewComparison builds any of the five left/right comparison kinds.
func NewComparison(kind Kind, left, right BoolOperand) (*Comparison, error) {
	switch kind {
	case KindEquals, KindGreaterThan, KindGreaterThanOrEqual, KindLessThan, KindLessThanOrEqual:
		return newComparison(kind, left, right)
	default:
		return nil, shapeErr(kind, "kind", "not a comparison kind")
	}
}

func newComparison(kind Kind, left, right BoolOperand) (*Comparison, error) {
	if missing(left) {
		return nil, shapeErr(kind, "left", "left operand is required")
	}
	if missing(right) {
		return nil, shapeErr(kind, "right", "right operand is required")
	}
	return &Comparison{kind: kind, left: left, right: right}, nil
}

func NewAnd(operands ...BoolOperand) (*Logical, error) {
	return newLogical(KindAnd, operands)
}

func NewOr(operands ...BoolOperand) (*Logical, error) {
	return newLogical(KindOr, operands)
}

func newLogical(kind Kind, operands []BoolOperand) (*Logical, error) {
	ops := make([]BoolOperand, len(operands))
	for i, op := range operands {
		if missing(op) {
			return nil, shapeErr(kind, fmt.Sprintf("operands[%d]", i), "operand is required")
		}
		ops[i] = op
	}
	return &Logical{kind: kind, operands: ops}, nil
}

func NewFieldHasValue(name string) (*HasValue, error) {
	return newHasValue(KindFieldHasValue, name, "")
}

func NewSubFieldHasValue(name, sub string) (*HasValue, error) {
	return newHasValue(KindSubFieldHasValue, name, sub)
}

func newHasValue(kind Kind, name, sub string) (*HasValue, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	return &HasValue{kind: kind, field: f}, nil
}

func NewBooleanFieldEquals(name string, target bool) (*BooleanEquals, error) {
	return newBooleanEquals(KindBooleanFieldEquals, name, "", target)
}

func NewBooleanSubFieldEquals(name, sub string, target bool) (*BooleanEquals, error) {
	return newBooleanEquals(KindBooleanSubFieldEquals, name, sub, target)
}

func newBooleanEquals(kind Kind, name, sub string, target bool) (*BooleanEquals, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	return &BooleanEquals{kind: kind, field: f, target: target}, nil
}

func NewDecimalFieldEquals(name string, target NumericOperand) (*DecimalEquals, error) {
	return newDecimalEquals(KindDecimalFieldEquals, name, "", target)
}

func NewDecimalSubFieldEquals(name, sub string, target NumericOperand) (*DecimalEquals, error) {
	return newDecimalEquals(KindDecimalSubFieldEquals, name, sub, target)
}

func newDecimalEquals(kind Kind, name, sub string, target NumericOperand) (*DecimalEquals, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	if missing(target) {
		return nil, shapeErr(kind, "target", "target is required")
	}
	if err := checkNumeric(kind, "target", target); err != nil {
		return nil, err
	}
	return &DecimalEquals{kind: kind, field: f, target: target}, nil
}

// NewDecimalFieldInRange builds a range predicate; pass nil for an
// unbounded side. At least one bound is required.
func NewDecimalFieldInRange(name string, lo, hi NumericOperand) (*DecimalInRange, error) {
	return newDecimalInRange(KindDecimalFieldInRange, name, "", lo, hi)
}

func NewDecimalSubFieldInRange(name, sub string, lo, hi NumericOperand) (*DecimalInRange, error) {
	return newDecimalInRange(KindDecimalSubFieldInRange, name, sub, lo, hi)
}

func newDecimalInRange(kind Kind, name, sub string, lo, hi NumericOperand) (*DecimalInRange, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	if missing(lo) {
		lo = nil
	}
	if missing(hi) {
		hi = nil
	}
	if lo == nil && hi == nil {
		return nil, shapeErr(kind, "min", "at least one of min or max is required")
	}
	if lo != nil {
		if err := checkNumeric(kind, "min", lo); err != nil {
			return nil, err
		}
	}
	if hi != nil {
		if err := checkNumeric(kind, "max", hi); err != nil {
			return nil, err
		}
	}
	return &DecimalInRange{kind: kind, field: f, min: lo, max: hi}, nil
}

func NewDateFieldEquals(name string, target DateOperand) (*DateEquals, error) {
	return newDateEquals(KindDateFieldEquals, name, "", target)
}

func NewDateSubFieldEquals(name, sub string, target DateOperand) (*DateEquals, error) {
	return newDateEquals(KindDateSubFieldEquals, name, sub, target)
}

func newDateEquals(kind Kind, name, sub string, target DateOperand) (*DateEquals, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	if missing(target) {
		return nil, shapeErr(kind, "target", "target is required")
	}
	return &DateEquals{kind: kind, field: f, target: target}, nil
}

func NewDateFieldInRange(name string, lo, hi DateOperand) (*DateInRange, error) {
	return newDateInRange(KindDateFieldInRange, name, "", lo, hi)
}

func NewDateSubFieldInRange(name, sub string, lo, hi DateOperand) (*DateInRange, error) {
	return newDateInRange(KindDateSubFieldInRange, name, sub, lo, hi)
}

func newDateInRange(kind Kind, name, sub string, lo, hi DateOperand) (*DateInRange, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	if missing(lo) {
		lo = nil
	}
	if missing(hi) {
		hi = nil
	}
	if lo == nil && hi == nil {
		return nil, shapeErr(kind, "min", "at least one of min or max is required")
	}
	return &DateInRange{kind: kind, field: f, min: lo, max: hi}, nil
}

func NewStringFieldContains(name, value string, as ContainsAs, ignoreCase bool) (*StringContains, error) {
	return newStringContains(KindStringFieldContains, name, "", value, as, ignoreCase)
}

func NewStringSubFieldContains(name, sub, value string, as ContainsAs, ignoreCase bool) (*StringContains, error) {
	return newStringContains(KindStringSubFieldContains, name, sub, value, as, ignoreCase)
}

func newStringContains(kind Kind, name, sub, value string, as ContainsAs, ignoreCase bool) (*StringContains, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	if as.String() == "?" {
		return nil, shapeErr(kind, "as", fmt.Sprintf("unknown match mode %d", int(as)))
	}
	return &StringContains{kind: kind, field: f, value: value, as: as, ignoreCase: ignoreCase}, nil
}

func NewNeg(operand NumericOperand) (*Unary, error) { return newUnary(KindNeg, operand) }
func NewPos(operand NumericOperand) (*Unary, error) { return newUnary(KindPos, operand) }
func NewAbs(operand NumericOperand) (*Unary, error) { return newUnary(KindAbs, operand) }

func newUnary(kind Kind, operand NumericOperand) (*Unary, error) {
	if missing(operand) {
		return nil, shapeErr(kind, "operand", "operand is required")
	}
	if err := checkNumeric(kind, "operand", operand); err != nil {
		return nil, err
	}
	return &Unary{kind: kind, operand: operand}, nil
}

// WithNotation returns a copy spelled with n. Only Neg and Pos have a
// symbolic spelling.
func (n *Unary) WithNotation(notation Notation) (*Unary, error) {
	switch notation {
	case NotationNamed:
	case NotationSymbolic:
		if n.kind == KindAbs {
			return nil, shapeErr(n.kind, "notation", "no symbolic spelling")
		}
	default:
		return nil, shapeErr(n.kind, "notation", "unsupported notation")
	}
	cp := *n
	cp.notation = notation
	return &cp, nil
}

func NewAdd(left, right NumericOperand) (*Binary, error) { return newBinary(KindAdd, left, right) }
func NewDiv(left, right NumericOperand) (*Binary, error) { return newBinary(KindDiv, left, right) }
func NewMod(left, right NumericOperand) (*Binary, error) { return newBinary(KindMod, left, right) }
func NewMul(left, right NumericOperand) (*Binary, error) { return newBinary(KindMul, left, right) }
func NewSub(left, right NumericOperand) (*Binary, error) { return newBinary(KindSub, left, right) }

func newBinary(kind Kind, left, right NumericOperand) (*Binary, error) {
	if missing(left) {
		return nil, shapeErr(kind, "left", "left operand is required")
	}
	if missing(right) {
		return nil, shapeErr(kind, "right", "right operand is required")
	}
	if err := checkNumeric(kind, "left", left); err != nil {
		return nil, err
	}
	if err := checkNumeric(kind, "right", right); err != nil {
		return nil, err
	}
	return &Binary{kind: kind, left: left, right: right}, nil
}

// WithNotation returns a copy spelled with n.
func (n *Binary) WithNotation(notation Notation) (*Binary, error) {
	if notation != NotationNamed && notation != NotationSymbolic {
		return nil, shapeErr(n.kind, "notation", "unsupported notation")
	}
	cp := *n
	cp.notation = notation
	return &cp, nil
}

func NewGetDecimalFieldValue(name string) (*DecimalField, error) {
	return newDecimalField(KindGetDecimalFieldValue, name, "")
}

func NewGetDecimalSubFieldValue(name, sub string) (*DecimalField, error) {
	return newDecimalField(KindGetDecimalSubFieldValue, name, sub)
}

func newDecimalField(kind Kind, name, sub string) (*DecimalField, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	return &DecimalField{kind: kind, field: f}, nil
}

// WithNotation returns a copy spelled with n. Only a plain field accessor
// has a shorthand (bare field name) spelling.
func (n *DecimalField) WithNotation(notation Notation) (*DecimalField, error) {
	switch notation {
	case NotationNamed:
	case NotationShorthand:
		if n.kind != KindGetDecimalFieldValue {
			return nil, shapeErr(n.kind, "notation", "no shorthand spelling")
		}
	default:
		return nil, shapeErr(n.kind, "notation", "unsupported notation")
	}
	cp := *n
	cp.notation = notation
	return &cp, nil
}

func NewGetDateFieldValue(name string) (*DateField, error) {
	return newDateField(KindGetDateFieldValue, name, "")
}

func NewGetDateSubFieldValue(name, sub string) (*DateField, error) {
	return newDateField(KindGetDateSubFieldValue, name, sub)
}

func newDateField(kind Kind, name, sub string) (*DateField, error) {
	f, err := newField(kind, name, sub)
	if err != nil {
		return nil, err
	}
	return &DateField{kind: kind, field: f}, nil
}
