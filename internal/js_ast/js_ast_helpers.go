package js_ast

import (
	"strings"

	"github.com/asyncrequire/asyncrequire/internal/logger"
)

func Assign(a Expr, b Expr) Expr {
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpAssign, Left: a, Right: b}}
}

func AssignStmt(a Expr, b Expr) Stmt {
	return Stmt{Loc: a.Loc, Data: &SExpr{Value: Assign(a, b)}}
}

func JoinWithComma(a Expr, b Expr) Expr {
	if a.Data == nil {
		return b
	}
	if b.Data == nil {
		return a
	}
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpComma, Left: a, Right: b}}
}

func JoinAllWithComma(all []Expr) (result Expr) {
	for _, value := range all {
		result = JoinWithComma(result, value)
	}
	return
}

// DotChain turns a dotted path such as "module.exports" into the member
// expression that reads it. Every segment must be an identifier.
func DotChain(loc logger.Loc, path string) Expr {
	parts := strings.Split(path, ".")
	result := Expr{Loc: loc, Data: &EIdentifier{Name: parts[0]}}
	for _, part := range parts[1:] {
		result = Expr{Loc: loc, Data: &EDot{Target: result, Name: part, NameLoc: loc}}
	}
	return result
}

// IsDotChain reports whether the path can be passed to "DotChain"
func IsDotChain(path string) bool {
	if path == "" {
		return false
	}
	for _, part := range strings.Split(path, ".") {
		if !IsIdentifier(part) {
			return false
		}
	}
	return true
}

// Member reads "name" off of "target", falling back to a computed index
// when the name is not a valid identifier (e.g. "exports['foo-bar']").
func Member(loc logger.Loc, target Expr, name string) Expr {
	if IsIdentifier(name) {
		return Expr{Loc: loc, Data: &EDot{Target: target, Name: name, NameLoc: loc}}
	}
	return Expr{Loc: loc, Data: &EIndex{Target: target, Index: Expr{Loc: loc, Data: &EString{Value: name}}}}
}

// ForEachBindingName calls the visitor once for every identifier a binding
// pattern introduces, in source order.
func ForEachBindingName(binding Binding, visit func(loc logger.Loc, name string)) {
	switch b := binding.Data.(type) {
	case *BMissing:

	case *BIdentifier:
		visit(binding.Loc, b.Name)

	case *BArray:
		for _, item := range b.Items {
			ForEachBindingName(item.Binding, visit)
		}

	case *BObject:
		for _, property := range b.Properties {
			ForEachBindingName(property.Value, visit)
		}

	default:
		panic("Internal error")
	}
}

func BindingNames(binding Binding) (names []LocName) {
	ForEachBindingName(binding, func(loc logger.Loc, name string) {
		names = append(names, LocName{Loc: loc, Name: name})
	})
	return
}

func IsOptionalChain(value Expr) bool {
	switch e := value.Data.(type) {
	case *EDot:
		return e.OptionalChain != OptionalChainNone
	case *EIndex:
		return e.OptionalChain != OptionalChainNone
	case *ECall:
		return e.OptionalChain != OptionalChainNone
	}
	return false
}

// IsPrimitiveLiteral returns true for expressions that can be printed
// without needing parentheses in any position.
func IsPrimitiveLiteral(data E) bool {
	switch data.(type) {
	case *ENull, *EBoolean, *EString, *ENumber, *EBigInt:
		return true
	}
	return false
}
