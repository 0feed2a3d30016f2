package ast

// Operator is an operator of a binary or unary operation.
type Operator int

// Binary and unary operators. Neg and Plus are the unary versions of - and +.
const (
	NoOp Operator = iota
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
	Not
	Neg
	Plus
)

var opNames = [...]string{
	NoOp: "<noop>",
	Add:  "+",
	Sub:  "-",
	Mul:  "*",
	Div:  "/",
	Mod:  "%",
	Pow:  "^",
	Eq:   "==",
	Ne:   "!=",
	Lt:   "<",
	Le:   "<=",
	Gt:   ">",
	Ge:   ">=",
	And:  "&&",
	Or:   "||",
	Not:  "!",
	Neg:  "-",
	Plus: "+",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return opNames[NoOp]
	}
	return opNames[op]
}

// IsArithmetic is true for + - * / % ^ and unary - +.
func (op Operator) IsArithmetic() bool {
	return op >= Add && op <= Pow || op == Neg || op == Plus
}

// IsComparison is true for == != < <= > >=.
func (op Operator) IsComparison() bool {
	return op >= Eq && op <= Ge
}

// IsLogical is true for && || and !.
func (op Operator) IsLogical() bool {
	return op == And || op == Or || op == Not
}

// IsUnary is true for ! and unary - +.
func (op Operator) IsUnary() bool {
	return op >= Not
}

// BinaryOperator finds the binary operator for a lexeme.
func BinaryOperator(lexeme string) (Operator, bool) {
	for op := Add; op <= Or; op++ {
		if opNames[op] == lexeme {
			return op, true
		}
	}
	return NoOp, false
}

// UnaryOperator finds the unary operator for a lexeme.
func UnaryOperator(lexeme string) (Operator, bool) {
	switch lexeme {
	case "!":
		return Not, true
	case "-":
		return Neg, true
	case "+":
		return Plus, true
	}
	return NoOp, false
}
