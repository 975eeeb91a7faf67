package criteria

// Equal reports whether a and b are structurally identical: same kinds, same
// operand order, same literal values and the same wire notation.
func Equal(a, b Node) bool {
	if missing(a) || missing(b) {
		return missing(a) && missing(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Constant:
		_, ok := b.(*Constant)
		return ok
	case *Not:
		y, ok := b.(*Not)
		return ok && equalBool(x.operand, y.operand)
	case *Comparison:
		y, ok := b.(*Comparison)
		return ok && equalBool(x.left, y.left) && equalBool(x.right, y.right)
	case *Logical:
		y, ok := b.(*Logical)
		if !ok || len(x.operands) != len(y.operands) {
			return false
		}
		for i := range x.operands {
			if !equalBool(x.operands[i], y.operands[i]) {
				return false
			}
		}
		return true
	case *HasValue:
		y, ok := b.(*HasValue)
		return ok && x.field == y.field
	case *BooleanEquals:
		y, ok := b.(*BooleanEquals)
		return ok && x.field == y.field && x.target == y.target
	case *DecimalEquals:
		y, ok := b.(*DecimalEquals)
		return ok && x.field == y.field && equalNumeric(x.target, y.target)
	case *DecimalInRange:
		y, ok := b.(*DecimalInRange)
		return ok && x.field == y.field && equalNumeric(x.min, y.min) && equalNumeric(x.max, y.max)
	case *DateEquals:
		y, ok := b.(*DateEquals)
		return ok && x.field == y.field && equalDate(x.target, y.target)
	case *DateInRange:
		y, ok := b.(*DateInRange)
		return ok && x.field == y.field && equalDate(x.min, y.min) && equalDate(x.max, y.max)
	case *StringContains:
		y, ok := b.(*StringContains)
		return ok && x.field == y.field && x.value == y.value && x.as == y.as && x.ignoreCase == y.ignoreCase
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.notation == y.notation && equalNumeric(x.operand, y.operand)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.notation == y.notation && equalNumeric(x.left, y.left) && equalNumeric(x.right, y.right)
	case *DecimalField:
		y, ok := b.(*DecimalField)
		return ok && x.field == y.field && x.notation == y.notation
	case *DateField:
		y, ok := b.(*DateField)
		return ok && x.field == y.field
	}
	return false
}

func equalBool(a, b BoolOperand) bool {
	switch x := a.(type) {
	case BoolLit:
		y, ok := b.(BoolLit)
		return ok && x == y
	case BoolNode:
		y, ok := b.(BoolNode)
		return ok && Equal(x, y)
	}
	return a == nil && b == nil
}

func equalNumeric(a, b NumericOperand) bool {
	switch x := a.(type) {
	case NumLit:
		y, ok := b.(NumLit)
		return ok && x == y
	case NumericNode:
		y, ok := b.(NumericNode)
		return ok && Equal(x, y)
	}
	return a == nil && b == nil
}

func equalDate(a, b DateOperand) bool {
	switch x := a.(type) {
	case DateLit:
		y, ok := b.(DateLit)
		return ok && x.Equal(y.Time)
	case DateNode:
		y, ok := b.(DateNode)
		return ok && Equal(x, y)
	}
	return a == nil && b == nil
}
