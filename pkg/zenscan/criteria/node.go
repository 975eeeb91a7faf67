package criteria

import "time"

// Node is one node of a scan criteria tree. Nodes are immutable; build them
// with the New* constructors.
type Node interface {
	Kind() Kind
	isNode()
}

// BoolOperand is either a BoolLit or a boolean-valued node.
type BoolOperand interface {
	isBoolOperand()
}

// NumericOperand is either a NumLit or a numeric-valued node.
type NumericOperand interface {
	isNumericOperand()
}

// DateOperand is either a DateLit or a date-valued node.
type DateOperand interface {
	isDateOperand()
}

// BoolNode is a boolean-valued node.
type BoolNode interface {
	Node
	BoolOperand
}

// NumericNode is a numeric-valued node.
type NumericNode interface {
	Node
	NumericOperand
}

// DateNode is a date-valued node.
type DateNode interface {
	Node
	DateOperand
}

// BoolLit is a literal boolean operand.
type BoolLit bool

func (BoolLit) isBoolOperand() {}

// NumLit is a literal numeric operand.
type NumLit float64

func (NumLit) isNumericOperand() {}

// DateLit is a literal date operand. Literals read with ParseDateLit
// remember their spelling so a decoded tree re-encodes unchanged.
type DateLit struct {
	time.Time
	text string
}

// ParseDateLit parses an RFC 3339 literal and keeps s as its spelling.
func ParseDateLit(s string) (DateLit, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return DateLit{}, err
	}
	return DateLit{Time: t, text: s}, nil
}

// Text returns the spelling the literal was parsed from, or "" when it
// was built from a time.Time.
func (d DateLit) Text() string { return d.text }

func (DateLit) isDateOperand() {}

// Constant is All or None.
type Constant struct {
	kind Kind
}

func (n *Constant) Kind() Kind   { return n.kind }
func (*Constant) isNode()        {}
func (*Constant) isBoolOperand() {}

// Not negates a boolean operand.
type Not struct {
	operand BoolOperand
}

func (*Not) Kind() Kind             { return KindNot }
func (*Not) isNode()                {}
func (*Not) isBoolOperand()         {}
func (n *Not) Operand() BoolOperand { return n.operand }

// Comparison is Equals, GreaterThan, GreaterThanOrEqual, LessThan or
// LessThanOrEqual over two boolean operands.
type Comparison struct {
	kind        Kind
	left, right BoolOperand
}

func (n *Comparison) Kind() Kind         { return n.kind }
func (*Comparison) isNode()              {}
func (*Comparison) isBoolOperand()       {}
func (n *Comparison) Left() BoolOperand  { return n.left }
func (n *Comparison) Right() BoolOperand { return n.right }

// Logical is And or Or over an ordered operand list.
type Logical struct {
	kind     Kind
	operands []BoolOperand
}

func (n *Logical) Kind() Kind   { return n.kind }
func (*Logical) isNode()        {}
func (*Logical) isBoolOperand() {}

// Operands returns a copy of the operand list in declaration order.
func (n *Logical) Operands() []BoolOperand {
	out := make([]BoolOperand, len(n.operands))
	copy(out, n.operands)
	return out
}

// field is embedded by every node that references a named field.
type field struct {
	name string
	sub  string
}

// Field returns the referenced field name.
func (f field) Field() string { return f.name }

// SubField returns the referenced sub-field name; empty for plain field kinds.
func (f field) SubField() string { return f.sub }

// HasValue is FieldHasValue or SubFieldHasValue.
type HasValue struct {
	kind Kind
	field
}

func (n *HasValue) Kind() Kind   { return n.kind }
func (*HasValue) isNode()        {}
func (*HasValue) isBoolOperand() {}

// BooleanEquals is BooleanFieldEquals or BooleanSubFieldEquals.
type BooleanEquals struct {
	kind Kind
	field
	target bool
}

func (n *BooleanEquals) Kind() Kind   { return n.kind }
func (*BooleanEquals) isNode()        {}
func (*BooleanEquals) isBoolOperand() {}
func (n *BooleanEquals) Target() bool { return n.target }

// DecimalEquals is DecimalFieldEquals or DecimalSubFieldEquals.
type DecimalEquals struct {
	kind Kind
	field
	target NumericOperand
}

func (n *DecimalEquals) Kind() Kind             { return n.kind }
func (*DecimalEquals) isNode()                  {}
func (*DecimalEquals) isBoolOperand()           {}
func (n *DecimalEquals) Target() NumericOperand { return n.target }

// DecimalInRange is DecimalFieldInRange or DecimalSubFieldInRange. A nil
// bound is unbounded on that side.
type DecimalInRange struct {
	kind Kind
	field
	min, max NumericOperand
}

func (n *DecimalInRange) Kind() Kind          { return n.kind }
func (*DecimalInRange) isNode()               {}
func (*DecimalInRange) isBoolOperand()        {}
func (n *DecimalInRange) Min() NumericOperand { return n.min }
func (n *DecimalInRange) Max() NumericOperand { return n.max }

// DateEquals is DateFieldEquals or DateSubFieldEquals.
type DateEquals struct {
	kind Kind
	field
	target DateOperand
}

func (n *DateEquals) Kind() Kind          { return n.kind }
func (*DateEquals) isNode()               {}
func (*DateEquals) isBoolOperand()        {}
func (n *DateEquals) Target() DateOperand { return n.target }

// DateInRange is DateFieldInRange or DateSubFieldInRange.
type DateInRange struct {
	kind Kind
	field
	min, max DateOperand
}

func (n *DateInRange) Kind() Kind       { return n.kind }
func (*DateInRange) isNode()            {}
func (*DateInRange) isBoolOperand()     {}
func (n *DateInRange) Min() DateOperand { return n.min }
func (n *DateInRange) Max() DateOperand { return n.max }

// StringContains is StringFieldContains or StringSubFieldContains.
type StringContains struct {
	kind Kind
	field
	value      string
	as         ContainsAs
	ignoreCase bool
}

func (n *StringContains) Kind() Kind       { return n.kind }
func (*StringContains) isNode()            {}
func (*StringContains) isBoolOperand()     {}
func (n *StringContains) Value() string    { return n.value }
func (n *StringContains) As() ContainsAs   { return n.as }
func (n *StringContains) IgnoreCase() bool { return n.ignoreCase }

// Unary is Neg, Pos or Abs.
type Unary struct {
	kind     Kind
	operand  NumericOperand
	notation Notation
}

func (n *Unary) Kind() Kind              { return n.kind }
func (*Unary) isNode()                   {}
func (*Unary) isNumericOperand()         {}
func (n *Unary) Operand() NumericOperand { return n.operand }
func (n *Unary) Notation() Notation      { return n.notation }

// Binary is Add, Div, Mod, Mul or Sub.
type Binary struct {
	kind        Kind
	left, right NumericOperand
	notation    Notation
}

func (n *Binary) Kind() Kind            { return n.kind }
func (*Binary) isNode()                 {}
func (*Binary) isNumericOperand()       {}
func (n *Binary) Left() NumericOperand  { return n.left }
func (n *Binary) Right() NumericOperand { return n.right }
func (n *Binary) Notation() Notation    { return n.notation }

// DecimalField is GetDecimalFieldValue or GetDecimalSubFieldValue.
type DecimalField struct {
	kind Kind
	field
	notation Notation
}

func (n *DecimalField) Kind() Kind         { return n.kind }
func (*DecimalField) isNode()              {}
func (*DecimalField) isNumericOperand()    {}
func (n *DecimalField) Notation() Notation { return n.notation }

// DateField is GetDateFieldValue or GetDateSubFieldValue.
type DateField struct {
	kind Kind
	field
}

func (n *DateField) Kind() Kind   { return n.kind }
func (*DateField) isNode()        {}
func (*DateField) isDateOperand() {}
