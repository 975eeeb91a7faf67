// Package wire converts criteria trees to and from the Zenith tagged-tuple
// grammar: ["Tag", param1, param2, ...].
package wire

import (
	"fmt"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
)

// Wire tags. Operators have symbolic aliases; "+" and "-" are overloaded by
// arity.
const (
	TagAll  = "All"
	TagNone = "None"
	TagNot  = "Not"
	TagAnd  = "And"
	TagOr   = "Or"

	TagEquals             = "="
	TagGreaterThan        = ">"
	TagGreaterThanOrEqual = ">="
	TagLessThan           = "<"
	TagLessThanOrEqual    = "<="

	TagFieldHasValue          = "FieldHasValue"
	TagSubFieldHasValue       = "SubFieldHasValue"
	TagBooleanFieldEquals     = "BooleanFieldEquals"
	TagBooleanSubFieldEquals  = "BooleanSubFieldEquals"
	TagDecimalFieldEquals     = "DecimalFieldEquals"
	TagDecimalSubFieldEquals  = "DecimalSubFieldEquals"
	TagDecimalFieldInRange    = "DecimalFieldInRange"
	TagDecimalSubFieldInRange = "DecimalSubFieldInRange"
	TagDateFieldEquals        = "DateFieldEquals"
	TagDateSubFieldEquals     = "DateSubFieldEquals"
	TagDateFieldInRange       = "DateFieldInRange"
	TagDateSubFieldInRange    = "DateSubFieldInRange"
	TagStringFieldContains    = "StringFieldContains"
	TagStringSubFieldContains = "StringSubFieldContains"

	TagNeg = "Neg"
	TagPos = "Pos"
	TagAbs = "Abs"
	TagAdd = "Add"
	TagDiv = "Div"
	TagMod = "Mod"
	TagMul = "Mul"
	TagSub = "Sub"

	TagSymPlus  = "+"
	TagSymMinus = "-"
	TagSymMul   = "*"
	TagSymDiv   = "/"
	TagSymMod   = "%"

	TagGetDecimalFieldValue    = "GetDecimalFieldValue"
	TagGetDecimalSubFieldValue = "GetDecimalSubFieldValue"
	TagGetDateFieldValue       = "GetDateFieldValue"
	TagGetDateSubFieldValue    = "GetDateSubFieldValue"
)

// param is the expected type of one positional tuple parameter.
type param int

const (
	paramBool        param = iota // literal bool or boolean tuple
	paramNumeric                  // literal number, numeric tuple or field shorthand
	paramNumericOpt               // paramNumeric or null
	paramDate                     // RFC 3339 string or date tuple
	paramDateOpt                  // paramDate or null
	paramField                    // non-empty field name
	paramString                   // any string
	paramContainsAs               // FromStart | FromEnd | Exact | None
	paramBoolLiteral              // literal bool only
)

func (p param) String() string {
	switch p {
	case paramBool:
		return "boolean"
	case paramNumeric, paramNumericOpt:
		return "numeric"
	case paramDate, paramDateOpt:
		return "date"
	case paramField:
		return "field name"
	case paramString:
		return "string"
	case paramContainsAs:
		return "match mode"
	case paramBoolLiteral:
		return "boolean literal"
	default:
		return "?"
	}
}

// shape is the parameter list for a kind. Variadic shapes repeat their only
// parameter zero or more times.
type shape struct {
	params   []param
	variadic bool
}

func (s shape) accepts(n int) bool {
	if s.variadic {
		return true
	}
	return n == len(s.params)
}

func (s shape) at(i int) param {
	if s.variadic {
		return s.params[0]
	}
	return s.params[i]
}

// shapeOf is the tag->parameter-shape table, keyed by kind. It panics on a
// kind outside the closed set.
func shapeOf(k criteria.Kind) shape {
	fixed := func(ps ...param) shape { return shape{params: ps} }
	switch k {
	case criteria.KindAll, criteria.KindNone:
		return fixed()
	case criteria.KindNot:
		return fixed(paramBool)
	case criteria.KindEquals, criteria.KindGreaterThan, criteria.KindGreaterThanOrEqual,
		criteria.KindLessThan, criteria.KindLessThanOrEqual:
		return fixed(paramBool, paramBool)
	case criteria.KindAnd, criteria.KindOr:
		return shape{params: []param{paramBool}, variadic: true}
	case criteria.KindFieldHasValue:
		return fixed(paramField)
	case criteria.KindSubFieldHasValue:
		return fixed(paramField, paramField)
	case criteria.KindBooleanFieldEquals:
		return fixed(paramField, paramBoolLiteral)
	case criteria.KindBooleanSubFieldEquals:
		return fixed(paramField, paramField, paramBoolLiteral)
	case criteria.KindDecimalFieldEquals:
		return fixed(paramField, paramNumeric)
	case criteria.KindDecimalSubFieldEquals:
		return fixed(paramField, paramField, paramNumeric)
	case criteria.KindDecimalFieldInRange:
		return fixed(paramField, paramNumericOpt, paramNumericOpt)
	case criteria.KindDecimalSubFieldInRange:
		return fixed(paramField, paramField, paramNumericOpt, paramNumericOpt)
	case criteria.KindDateFieldEquals:
		return fixed(paramField, paramDate)
	case criteria.KindDateSubFieldEquals:
		return fixed(paramField, paramField, paramDate)
	case criteria.KindDateFieldInRange:
		return fixed(paramField, paramDateOpt, paramDateOpt)
	case criteria.KindDateSubFieldInRange:
		return fixed(paramField, paramField, paramDateOpt, paramDateOpt)
	case criteria.KindStringFieldContains:
		return fixed(paramField, paramString, paramContainsAs, paramBoolLiteral)
	case criteria.KindStringSubFieldContains:
		return fixed(paramField, paramField, paramString, paramContainsAs, paramBoolLiteral)
	case criteria.KindNeg, criteria.KindPos, criteria.KindAbs:
		return fixed(paramNumeric)
	case criteria.KindAdd, criteria.KindDiv, criteria.KindMod, criteria.KindMul, criteria.KindSub:
		return fixed(paramNumeric, paramNumeric)
	case criteria.KindGetDecimalFieldValue, criteria.KindGetDateFieldValue:
		return fixed(paramField)
	case criteria.KindGetDecimalSubFieldValue, criteria.KindGetDateSubFieldValue:
		return fixed(paramField, paramField)
	}
	panic(fmt.Sprintf("wire: no parameter shape for kind %d", int(k)))
}

// tagOf returns the tag a kind is written with under the given notation. It
// panics on a kind outside the closed set.
func tagOf(k criteria.Kind, n criteria.Notation) string {
	symbolic := n == criteria.NotationSymbolic
	switch k {
	case criteria.KindAll:
		return TagAll
	case criteria.KindNone:
		return TagNone
	case criteria.KindNot:
		return TagNot
	case criteria.KindEquals:
		return TagEquals
	case criteria.KindGreaterThan:
		return TagGreaterThan
	case criteria.KindGreaterThanOrEqual:
		return TagGreaterThanOrEqual
	case criteria.KindLessThan:
		return TagLessThan
	case criteria.KindLessThanOrEqual:
		return TagLessThanOrEqual
	case criteria.KindAnd:
		return TagAnd
	case criteria.KindOr:
		return TagOr
	case criteria.KindFieldHasValue:
		return TagFieldHasValue
	case criteria.KindSubFieldHasValue:
		return TagSubFieldHasValue
	case criteria.KindBooleanFieldEquals:
		return TagBooleanFieldEquals
	case criteria.KindBooleanSubFieldEquals:
		return TagBooleanSubFieldEquals
	case criteria.KindDecimalFieldEquals:
		return TagDecimalFieldEquals
	case criteria.KindDecimalSubFieldEquals:
		return TagDecimalSubFieldEquals
	case criteria.KindDecimalFieldInRange:
		return TagDecimalFieldInRange
	case criteria.KindDecimalSubFieldInRange:
		return TagDecimalSubFieldInRange
	case criteria.KindDateFieldEquals:
		return TagDateFieldEquals
	case criteria.KindDateSubFieldEquals:
		return TagDateSubFieldEquals
	case criteria.KindDateFieldInRange:
		return TagDateFieldInRange
	case criteria.KindDateSubFieldInRange:
		return TagDateSubFieldInRange
	case criteria.KindStringFieldContains:
		return TagStringFieldContains
	case criteria.KindStringSubFieldContains:
		return TagStringSubFieldContains
	case criteria.KindNeg:
		if symbolic {
			return TagSymMinus
		}
		return TagNeg
	case criteria.KindPos:
		if symbolic {
			return TagSymPlus
		}
		return TagPos
	case criteria.KindAbs:
		return TagAbs
	case criteria.KindAdd:
		if symbolic {
			return TagSymPlus
		}
		return TagAdd
	case criteria.KindDiv:
		if symbolic {
			return TagSymDiv
		}
		return TagDiv
	case criteria.KindMod:
		if symbolic {
			return TagSymMod
		}
		return TagMod
	case criteria.KindMul:
		if symbolic {
			return TagSymMul
		}
		return TagMul
	case criteria.KindSub:
		if symbolic {
			return TagSymMinus
		}
		return TagSub
	case criteria.KindGetDecimalFieldValue:
		return TagGetDecimalFieldValue
	case criteria.KindGetDecimalSubFieldValue:
		return TagGetDecimalSubFieldValue
	case criteria.KindGetDateFieldValue:
		return TagGetDateFieldValue
	case criteria.KindGetDateSubFieldValue:
		return TagGetDateSubFieldValue
	}
	panic(fmt.Sprintf("wire: no tag for kind %d", int(k)))
}

// resolveTag maps a wire tag and its parameter count to a kind. The
// overloaded "+" and "-" are disambiguated by arity; every other tag names
// exactly one kind.
func resolveTag(tag string, arity int) (criteria.Kind, criteria.Notation, bool) {
	named := criteria.NotationNamed
	sym := criteria.NotationSymbolic
	switch tag {
	case TagSymPlus:
		switch arity {
		case 1:
			return criteria.KindPos, sym, true
		case 2:
			return criteria.KindAdd, sym, true
		}
		return 0, 0, false
	case TagSymMinus:
		switch arity {
		case 1:
			return criteria.KindNeg, sym, true
		case 2:
			return criteria.KindSub, sym, true
		}
		return 0, 0, false
	case TagSymMul:
		return criteria.KindMul, sym, true
	case TagSymDiv:
		return criteria.KindDiv, sym, true
	case TagSymMod:
		return criteria.KindMod, sym, true
	}
	for _, k := range criteria.Kinds() {
		if tagOf(k, named) == tag {
			return k, named, true
		}
	}
	return 0, 0, false
}
