package criteria

// Kind discriminates criteria nodes. The set is closed; the wire codec
// switches over it exhaustively.
type Kind int

const (
	KindAll Kind = iota
	KindNone
	KindNot
	KindEquals
	KindGreaterThan
	KindGreaterThanOrEqual
	KindLessThan
	KindLessThanOrEqual
	KindAnd
	KindOr

	KindFieldHasValue
	KindSubFieldHasValue
	KindBooleanFieldEquals
	KindBooleanSubFieldEquals
	KindDecimalFieldEquals
	KindDecimalSubFieldEquals
	KindDecimalFieldInRange
	KindDecimalSubFieldInRange
	KindDateFieldEquals
	KindDateSubFieldEquals
	KindDateFieldInRange
	KindDateSubFieldInRange
	KindStringFieldContains
	KindStringSubFieldContains

	KindNeg
	KindPos
	KindAbs
	KindAdd
	KindDiv
	KindMod
	KindMul
	KindSub
	KindGetDecimalFieldValue
	KindGetDecimalSubFieldValue

	KindGetDateFieldValue
	KindGetDateSubFieldValue

	kindCount
)

var kindNames = [kindCount]string{
	KindAll:                     "All",
	KindNone:                    "None",
	KindNot:                     "Not",
	KindEquals:                  "Equals",
	KindGreaterThan:             "GreaterThan",
	KindGreaterThanOrEqual:      "GreaterThanOrEqual",
	KindLessThan:                "LessThan",
	KindLessThanOrEqual:         "LessThanOrEqual",
	KindAnd:                     "And",
	KindOr:                      "Or",
	KindFieldHasValue:           "FieldHasValue",
	KindSubFieldHasValue:        "SubFieldHasValue",
	KindBooleanFieldEquals:      "BooleanFieldEquals",
	KindBooleanSubFieldEquals:   "BooleanSubFieldEquals",
	KindDecimalFieldEquals:      "DecimalFieldEquals",
	KindDecimalSubFieldEquals:   "DecimalSubFieldEquals",
	KindDecimalFieldInRange:     "DecimalFieldInRange",
	KindDecimalSubFieldInRange:  "DecimalSubFieldInRange",
	KindDateFieldEquals:         "DateFieldEquals",
	KindDateSubFieldEquals:      "DateSubFieldEquals",
	KindDateFieldInRange:        "DateFieldInRange",
	KindDateSubFieldInRange:     "DateSubFieldInRange",
	KindStringFieldContains:     "StringFieldContains",
	KindStringSubFieldContains:  "StringSubFieldContains",
	KindNeg:                     "Neg",
	KindPos:                     "Pos",
	KindAbs:                     "Abs",
	KindAdd:                     "Add",
	KindDiv:                     "Div",
	KindMod:                     "Mod",
	KindMul:                     "Mul",
	KindSub:                     "Sub",
	KindGetDecimalFieldValue:    "GetDecimalFieldValue",
	KindGetDecimalSubFieldValue: "GetDecimalSubFieldValue",
	KindGetDateFieldValue:       "GetDateFieldValue",
	KindGetDateSubFieldValue:    "GetDateSubFieldValue",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "?"
	}
	return kindNames[k]
}

// Valid reports whether k is a member of the closed set.
func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Category is the value category a node produces.
type Category int

const (
	CategoryBool Category = iota
	CategoryNumeric
	CategoryDate
)

func (c Category) String() string {
	switch c {
	case CategoryBool:
		return "boolean"
	case CategoryNumeric:
		return "numeric"
	case CategoryDate:
		return "date"
	default:
		return "?"
	}
}

func (k Kind) Category() Category {
	switch k {
	case KindNeg, KindPos, KindAbs,
		KindAdd, KindDiv, KindMod, KindMul, KindSub,
		KindGetDecimalFieldValue, KindGetDecimalSubFieldValue:
		return CategoryNumeric
	case KindGetDateFieldValue, KindGetDateSubFieldValue:
		return CategoryDate
	default:
		return CategoryBool
	}
}

// HasSubField reports whether nodes of this kind reference a sub-field.
func (k Kind) HasSubField() bool {
	switch k {
	case KindSubFieldHasValue, KindBooleanSubFieldEquals,
		KindDecimalSubFieldEquals, KindDecimalSubFieldInRange,
		KindDateSubFieldEquals, KindDateSubFieldInRange,
		KindStringSubFieldContains,
		KindGetDecimalSubFieldValue, KindGetDateSubFieldValue:
		return true
	default:
		return false
	}
}

// ContainsAs is the match mode of a string-contains predicate.
type ContainsAs int

const (
	ContainsNone ContainsAs = iota
	ContainsFromStart
	ContainsFromEnd
	ContainsExact
)

func (a ContainsAs) String() string {
	switch a {
	case ContainsNone:
		return "None"
	case ContainsFromStart:
		return "FromStart"
	case ContainsFromEnd:
		return "FromEnd"
	case ContainsExact:
		return "Exact"
	default:
		return "?"
	}
}

// ParseContainsAs is the inverse of ContainsAs.String.
func ParseContainsAs(s string) (ContainsAs, bool) {
	switch s {
	case "None":
		return ContainsNone, true
	case "FromStart":
		return ContainsFromStart, true
	case "FromEnd":
		return ContainsFromEnd, true
	case "Exact":
		return ContainsExact, true
	default:
		return 0, false
	}
}

// Notation records how an arithmetic or accessor node was spelled on the
// wire so re-encoding a decoded tuple reproduces it.
type Notation uint8

const (
	NotationNamed     Notation = iota // ["Add", l, r], ["GetDecimalFieldValue", f]
	NotationSymbolic                  // ["+", l, r], ["-", x]
	NotationShorthand                 // bare "Field" in a numeric slot
)
