package estree

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/logger"
)

type node = map[string]interface{}

type encoder struct{}

// Encode is the inverse of "Decode". Only "start" offsets are written since
// the tree doesn't remember where nodes end.
func Encode(program js_ast.Program) ([]byte, error) {
	e := encoder{}
	return json.Marshal(e.program(program))
}

func newNode(nodeType string, loc logger.Loc) node {
	return node{"type": nodeType, "start": loc.Start}
}

func (e encoder) program(program js_ast.Program) node {
	result := newNode("Program", program.Loc)
	switch p := program.Data.(type) {
	case *js_ast.PModule:
		result["sourceType"] = "module"
		result["body"] = e.stmts(p.Body)
	case *js_ast.PScript:
		result["sourceType"] = "script"
		result["body"] = e.stmts(p.Body)
	default:
		panic("Internal error")
	}
	return result
}

func (e encoder) stmts(stmts []js_ast.Stmt) []interface{} {
	result := make([]interface{}, 0, len(stmts))
	for _, stmt := range stmts {
		result = append(result, e.stmt(stmt))
	}
	return result
}

func (e encoder) stmtOrNil(stmt js_ast.Stmt) interface{} {
	if stmt.Data == nil {
		return nil
	}
	return e.stmt(stmt)
}

func (e encoder) block(loc logger.Loc, stmts []js_ast.Stmt) node {
	result := newNode("BlockStatement", loc)
	result["body"] = e.stmts(stmts)
	return result
}

func (e encoder) identifier(name js_ast.LocName) node {
	result := newNode("Identifier", name.Loc)
	result["name"] = name.Name
	return result
}

func (e encoder) identifierOrNil(name *js_ast.LocName) interface{} {
	if name == nil {
		return nil
	}
	return e.identifier(*name)
}

func (e encoder) stringLiteral(loc logger.Loc, value string) node {
	result := newNode("Literal", loc)
	result["value"] = value
	return result
}

// Names that aren't valid identifiers are written as string literals
func (e encoder) moduleExportName(loc logger.Loc, name string) node {
	if js_ast.IsIdentifier(name) {
		return e.identifier(js_ast.LocName{Loc: loc, Name: name})
	}
	return e.stringLiteral(loc, name)
}

func (e encoder) attributes(attributes []js_ast.ImportAttribute) []interface{} {
	result := make([]interface{}, 0, len(attributes))
	for _, attribute := range attributes {
		item := newNode("ImportAttribute", attribute.Loc)
		item["key"] = e.moduleExportName(attribute.Loc, attribute.Key)
		item["value"] = e.stringLiteral(attribute.Loc, attribute.Value)
		result = append(result, item)
	}
	return result
}

// Wraps a declaration in "ExportNamedDeclaration" if it was exported
func (e encoder) maybeExport(loc logger.Loc, isExport bool, declaration node) node {
	if !isExport {
		return declaration
	}
	result := newNode("ExportNamedDeclaration", loc)
	result["declaration"] = declaration
	result["specifiers"] = []interface{}{}
	result["source"] = nil
	return result
}

func (e encoder) stmt(stmt js_ast.Stmt) node {
	loc := stmt.Loc

	switch s := stmt.Data.(type) {
	case *js_ast.SBlock:
		return e.block(loc, s.Stmts)

	case *js_ast.SEmpty:
		return newNode("EmptyStatement", loc)

	case *js_ast.SDebugger:
		return newNode("DebuggerStatement", loc)

	case *js_ast.SDirective:
		result := newNode("ExpressionStatement", loc)
		result["expression"] = e.stringLiteral(loc, s.Value)
		result["directive"] = s.Value
		return result

	case *js_ast.SExpr:
		result := newNode("ExpressionStatement", loc)
		result["expression"] = e.expr(s.Value)
		return result

	case *js_ast.SFunction:
		return e.maybeExport(loc, s.IsExport, e.fn("FunctionDeclaration", loc, s.Fn))

	case *js_ast.SClass:
		return e.maybeExport(loc, s.IsExport, e.class("ClassDeclaration", loc, s.Class))

	case *js_ast.SLocal:
		return e.maybeExport(loc, s.IsExport, e.local(loc, s))

	case *js_ast.SLabel:
		result := newNode("LabeledStatement", loc)
		result["label"] = e.identifier(s.Name)
		result["body"] = e.stmt(s.Stmt)
		return result

	case *js_ast.SIf:
		result := newNode("IfStatement", loc)
		result["test"] = e.expr(s.Test)
		result["consequent"] = e.stmt(s.Yes)
		result["alternate"] = e.stmtOrNil(s.NoOrNil)
		return result

	case *js_ast.SFor:
		result := newNode("ForStatement", loc)
		result["init"] = e.forInit(s.InitOrNil)
		result["test"] = e.exprOrNil(s.TestOrNil)
		result["update"] = e.exprOrNil(s.UpdateOrNil)
		result["body"] = e.stmt(s.Body)
		return result

	case *js_ast.SForIn:
		result := newNode("ForInStatement", loc)
		result["left"] = e.forInit(s.Init)
		result["right"] = e.expr(s.Value)
		result["body"] = e.stmt(s.Body)
		return result

	case *js_ast.SForOf:
		result := newNode("ForOfStatement", loc)
		result["await"] = s.IsAwait
		result["left"] = e.forInit(s.Init)
		result["right"] = e.expr(s.Value)
		result["body"] = e.stmt(s.Body)
		return result

	case *js_ast.SDoWhile:
		result := newNode("DoWhileStatement", loc)
		result["body"] = e.stmt(s.Body)
		result["test"] = e.expr(s.Test)
		return result

	case *js_ast.SWhile:
		result := newNode("WhileStatement", loc)
		result["test"] = e.expr(s.Test)
		result["body"] = e.stmt(s.Body)
		return result

	case *js_ast.SWith:
		result := newNode("WithStatement", loc)
		result["object"] = e.expr(s.Value)
		result["body"] = e.stmt(s.Body)
		return result

	case *js_ast.STry:
		result := newNode("TryStatement", loc)
		result["block"] = e.block(s.BlockLoc, s.Block.Stmts)
		result["handler"] = nil
		result["finalizer"] = nil
		if s.Catch != nil {
			handler := newNode("CatchClause", s.Catch.Loc)
			handler["param"] = nil
			if s.Catch.BindingOrNil.Data != nil {
				handler["param"] = e.binding(s.Catch.BindingOrNil)
			}
			handler["body"] = e.block(s.Catch.BlockLoc, s.Catch.Block.Stmts)
			result["handler"] = handler
		}
		if s.Finally != nil {
			result["finalizer"] = e.block(s.Finally.Loc, s.Finally.Block.Stmts)
		}
		return result

	case *js_ast.SSwitch:
		result := newNode("SwitchStatement", loc)
		result["discriminant"] = e.expr(s.Test)
		cases := make([]interface{}, 0, len(s.Cases))
		for _, c := range s.Cases {
			item := newNode("SwitchCase", c.Loc)
			item["test"] = e.exprOrNil(c.ValueOrNil)
			item["consequent"] = e.stmts(c.Body)
			cases = append(cases, item)
		}
		result["cases"] = cases
		return result

	case *js_ast.SReturn:
		result := newNode("ReturnStatement", loc)
		result["argument"] = e.exprOrNil(s.ValueOrNil)
		return result

	case *js_ast.SThrow:
		result := newNode("ThrowStatement", loc)
		result["argument"] = e.expr(s.Value)
		return result

	case *js_ast.SBreak:
		result := newNode("BreakStatement", loc)
		result["label"] = e.identifierOrNil(s.Label)
		return result

	case *js_ast.SContinue:
		result := newNode("ContinueStatement", loc)
		result["label"] = e.identifierOrNil(s.Label)
		return result

	case *js_ast.SImport:
		result := newNode("ImportDeclaration", loc)
		specifiers := make([]interface{}, 0, len(s.Specifiers))
		for _, specifier := range s.Specifiers {
			var item node
			switch sp := specifier.Data.(type) {
			case *js_ast.ISDefault:
				item = newNode("ImportDefaultSpecifier", specifier.Loc)
				item["local"] = e.identifier(sp.Local)
			case *js_ast.ISNamespace:
				item = newNode("ImportNamespaceSpecifier", specifier.Loc)
				item["local"] = e.identifier(sp.Local)
			case *js_ast.ISNamed:
				item = newNode("ImportSpecifier", specifier.Loc)
				item["imported"] = e.moduleExportName(sp.ImportedLoc, sp.ImportedName())
				item["local"] = e.identifier(sp.Local)
			default:
				panic("Internal error")
			}
			specifiers = append(specifiers, item)
		}
		result["specifiers"] = specifiers
		result["source"] = e.stringLiteral(s.PathLoc, s.Path)
		result["attributes"] = e.attributes(s.Attributes)
		return result

	case *js_ast.SExportClause:
		result := newNode("ExportNamedDeclaration", loc)
		result["declaration"] = nil
		result["specifiers"] = e.clauseItems(s.Items)
		result["source"] = nil
		return result

	case *js_ast.SExportFrom:
		result := newNode("ExportNamedDeclaration", loc)
		result["declaration"] = nil
		result["specifiers"] = e.clauseItems(s.Items)
		result["source"] = e.stringLiteral(s.PathLoc, s.Path)
		result["attributes"] = e.attributes(s.Attributes)
		return result

	case *js_ast.SExportStar:
		result := newNode("ExportAllDeclaration", loc)
		result["exported"] = nil
		if s.Alias != nil {
			result["exported"] = e.moduleExportName(s.Alias.Loc, s.Alias.Name)
		}
		result["source"] = e.stringLiteral(s.PathLoc, s.Path)
		result["attributes"] = e.attributes(s.Attributes)
		return result

	case *js_ast.SExportDefault:
		result := newNode("ExportDefaultDeclaration", loc)
		switch v := s.Value.Data.(type) {
		case *js_ast.SExpr:
			result["declaration"] = e.expr(v.Value)
		case *js_ast.SFunction:
			result["declaration"] = e.fn("FunctionDeclaration", s.Value.Loc, v.Fn)
		case *js_ast.SClass:
			result["declaration"] = e.class("ClassDeclaration", s.Value.Loc, v.Class)
		default:
			panic("Internal error")
		}
		return result

	default:
		panic("Internal error")
	}
}

func (e encoder) clauseItems(items []js_ast.ClauseItem) []interface{} {
	result := make([]interface{}, 0, len(items))
	for _, item := range items {
		specifier := newNode("ExportSpecifier", item.Name.Loc)
		specifier["local"] = e.moduleExportName(item.Name.Loc, item.Name.Name)
		alias, aliasLoc := item.Alias, item.AliasLoc
		if alias == "" {
			alias, aliasLoc = item.Name.Name, item.Name.Loc
		}
		specifier["exported"] = e.moduleExportName(aliasLoc, alias)
		result = append(result, specifier)
	}
	return result
}

func (e encoder) local(loc logger.Loc, s *js_ast.SLocal) node {
	result := newNode("VariableDeclaration", loc)
	result["kind"] = s.Kind.String()
	decls := make([]interface{}, 0, len(s.Decls))
	for _, decl := range s.Decls {
		item := newNode("VariableDeclarator", decl.Binding.Loc)
		item["id"] = e.binding(decl.Binding)
		item["init"] = e.exprOrNil(decl.ValueOrNil)
		decls = append(decls, item)
	}
	result["declarations"] = decls
	return result
}

func (e encoder) forInit(stmt js_ast.Stmt) interface{} {
	switch s := stmt.Data.(type) {
	case nil:
		return nil
	case *js_ast.SLocal:
		return e.local(stmt.Loc, s)
	case *js_ast.SExpr:
		return e.assignTarget(s.Value)
	default:
		panic("Internal error")
	}
}

func (e encoder) fn(nodeType string, loc logger.Loc, fn js_ast.Fn) node {
	result := newNode(nodeType, loc)
	result["id"] = e.identifierOrNil(fn.Name)
	result["async"] = fn.IsAsync
	result["generator"] = fn.IsGenerator
	result["params"] = e.args(fn.Args, fn.HasRestArg)
	result["body"] = e.block(fn.Body.Loc, fn.Body.Stmts)
	return result
}

func (e encoder) args(args []js_ast.Arg, hasRestArg bool) []interface{} {
	result := make([]interface{}, 0, len(args))
	for i, arg := range args {
		param := e.binding(arg.Binding)
		if arg.DefaultOrNil.Data != nil {
			pattern := newNode("AssignmentPattern", arg.Binding.Loc)
			pattern["left"] = param
			pattern["right"] = e.expr(arg.DefaultOrNil)
			param = pattern
		}
		if hasRestArg && i+1 == len(args) {
			rest := newNode("RestElement", arg.Binding.Loc)
			rest["argument"] = param
			param = rest
		}
		result = append(result, param)
	}
	return result
}

func (e encoder) class(nodeType string, loc logger.Loc, class js_ast.Class) node {
	result := newNode(nodeType, loc)
	result["id"] = e.identifierOrNil(class.Name)
	result["superClass"] = e.exprOrNil(class.ExtendsOrNil)

	elements := make([]interface{}, 0, len(class.Properties))
	for _, property := range class.Properties {
		if property.Kind == js_ast.PropertyClassStaticBlock {
			item := newNode("StaticBlock", property.ClassStaticBlock.Loc)
			item["body"] = e.stmts(property.ClassStaticBlock.Stmts)
			elements = append(elements, item)
			continue
		}

		if fn, ok := property.ValueOrNil.Data.(*js_ast.EFunction); ok && (property.IsMethod || property.Kind != js_ast.PropertyNormal) {
			item := newNode("MethodDefinition", property.Key.Loc)
			item["key"] = e.propertyKey(property.Key, property.IsComputed, property.PreferQuotedKey)
			item["computed"] = property.IsComputed
			item["static"] = property.IsStatic
			switch {
			case property.Kind == js_ast.PropertyGet:
				item["kind"] = "get"
			case property.Kind == js_ast.PropertySet:
				item["kind"] = "set"
			case isConstructorKey(property):
				item["kind"] = "constructor"
			default:
				item["kind"] = "method"
			}
			item["value"] = e.fn("FunctionExpression", property.ValueOrNil.Loc, fn.Fn)
			elements = append(elements, item)
			continue
		}

		item := newNode("PropertyDefinition", property.Key.Loc)
		item["key"] = e.propertyKey(property.Key, property.IsComputed, property.PreferQuotedKey)
		item["computed"] = property.IsComputed
		item["static"] = property.IsStatic
		item["value"] = e.exprOrNil(property.InitializerOrNil)
		elements = append(elements, item)
	}

	body := newNode("ClassBody", class.BodyLoc)
	body["body"] = elements
	result["body"] = body
	return result
}

func isConstructorKey(property js_ast.Property) bool {
	if property.IsStatic || property.IsComputed {
		return false
	}
	key, ok := property.Key.Data.(*js_ast.EString)
	return ok && key.Value == "constructor"
}

func (e encoder) propertyKey(key js_ast.Expr, isComputed bool, preferQuoted bool) node {
	if !isComputed {
		switch k := key.Data.(type) {
		case *js_ast.EString:
			if !preferQuoted && js_ast.IsIdentifier(k.Value) {
				return e.identifier(js_ast.LocName{Loc: key.Loc, Name: k.Value})
			}
			return e.stringLiteral(key.Loc, k.Value)

		case *js_ast.EPrivateIdentifier:
			result := newNode("PrivateIdentifier", key.Loc)
			result["name"] = k.Name
			return result
		}
	}
	return e.expr(key)
}

func (e encoder) binding(binding js_ast.Binding) node {
	loc := binding.Loc

	switch b := binding.Data.(type) {
	case *js_ast.BIdentifier:
		return e.identifier(js_ast.LocName{Loc: loc, Name: b.Name})

	case *js_ast.BArray:
		result := newNode("ArrayPattern", loc)
		elements := make([]interface{}, 0, len(b.Items))
		for i, item := range b.Items {
			if _, ok := item.Binding.Data.(*js_ast.BMissing); ok {
				elements = append(elements, nil)
				continue
			}
			element := e.binding(item.Binding)
			if item.DefaultValueOrNil.Data != nil {
				pattern := newNode("AssignmentPattern", item.Binding.Loc)
				pattern["left"] = element
				pattern["right"] = e.expr(item.DefaultValueOrNil)
				element = pattern
			}
			if b.HasSpread && i+1 == len(b.Items) {
				rest := newNode("RestElement", item.Binding.Loc)
				rest["argument"] = element
				element = rest
			}
			elements = append(elements, element)
		}
		result["elements"] = elements
		return result

	case *js_ast.BObject:
		result := newNode("ObjectPattern", loc)
		properties := make([]interface{}, 0, len(b.Properties))
		for _, property := range b.Properties {
			if property.IsSpread {
				rest := newNode("RestElement", property.Value.Loc)
				rest["argument"] = e.binding(property.Value)
				properties = append(properties, rest)
				continue
			}

			item := newNode("Property", property.Key.Loc)
			item["key"] = e.propertyKey(property.Key, property.IsComputed, property.PreferQuotedKey)
			item["computed"] = property.IsComputed
			item["kind"] = "init"
			item["method"] = false
			item["shorthand"] = isShorthandBinding(property)
			value := e.binding(property.Value)
			if property.DefaultValueOrNil.Data != nil {
				pattern := newNode("AssignmentPattern", property.Value.Loc)
				pattern["left"] = value
				pattern["right"] = e.expr(property.DefaultValueOrNil)
				value = pattern
			}
			item["value"] = value
			properties = append(properties, item)
		}
		result["properties"] = properties
		return result

	default:
		panic("Internal error")
	}
}

func isShorthandBinding(property js_ast.PropertyBinding) bool {
	key, ok := property.Key.Data.(*js_ast.EString)
	if !ok || property.IsComputed || property.PreferQuotedKey {
		return false
	}
	id, ok := property.Value.Data.(*js_ast.BIdentifier)
	return ok && id.Name == key.Value
}

// The inverse of the decoder's "assignTarget"
func (e encoder) assignTarget(expr js_ast.Expr) node {
	loc := expr.Loc

	switch x := expr.Data.(type) {
	case *js_ast.EArray:
		result := newNode("ArrayPattern", loc)
		elements := make([]interface{}, 0, len(x.Items))
		for _, item := range x.Items {
			if _, ok := item.Data.(*js_ast.EMissing); ok {
				elements = append(elements, nil)
				continue
			}
			elements = append(elements, e.assignTarget(item))
		}
		result["elements"] = elements
		return result

	case *js_ast.EObject:
		result := newNode("ObjectPattern", loc)
		properties := make([]interface{}, 0, len(x.Properties))
		for _, property := range x.Properties {
			if property.Kind == js_ast.PropertySpread {
				rest := newNode("RestElement", property.ValueOrNil.Loc)
				rest["argument"] = e.assignTarget(property.ValueOrNil)
				properties = append(properties, rest)
				continue
			}

			item := newNode("Property", property.Key.Loc)
			item["key"] = e.propertyKey(property.Key, property.IsComputed, property.PreferQuotedKey)
			item["computed"] = property.IsComputed
			item["kind"] = "init"
			item["method"] = false
			item["shorthand"] = property.WasShorthand
			value := e.assignTarget(property.ValueOrNil)
			if property.InitializerOrNil.Data != nil {
				pattern := newNode("AssignmentPattern", property.ValueOrNil.Loc)
				pattern["left"] = value
				pattern["right"] = e.expr(property.InitializerOrNil)
				value = pattern
			}
			item["value"] = value
			properties = append(properties, item)
		}
		result["properties"] = properties
		return result

	case *js_ast.EBinary:
		if x.Op == js_ast.BinOpAssign {
			result := newNode("AssignmentPattern", loc)
			result["left"] = e.assignTarget(x.Left)
			result["right"] = e.expr(x.Right)
			return result
		}

	case *js_ast.ESpread:
		result := newNode("RestElement", loc)
		result["argument"] = e.assignTarget(x.Value)
		return result
	}

	return e.expr(expr)
}

func (e encoder) exprOrNil(expr js_ast.Expr) interface{} {
	if expr.Data == nil {
		return nil
	}
	return e.expr(expr)
}

func (e encoder) exprs(exprs []js_ast.Expr) []interface{} {
	result := make([]interface{}, 0, len(exprs))
	for _, expr := range exprs {
		result = append(result, e.expr(expr))
	}
	return result
}

func (e encoder) number(loc logger.Loc, value float64) node {
	switch {
	case math.IsNaN(value):
		return e.identifier(js_ast.LocName{Loc: loc, Name: "NaN"})

	case value < 0 || (value == 0 && math.Signbit(value)):
		result := newNode("UnaryExpression", loc)
		result["operator"] = "-"
		result["prefix"] = true
		result["argument"] = e.number(loc, -value)
		return result

	case math.IsInf(value, 1):
		return e.identifier(js_ast.LocName{Loc: loc, Name: "Infinity"})
	}

	result := newNode("Literal", loc)
	result["value"] = value
	return result
}

func (e encoder) expr(expr js_ast.Expr) node {
	loc := expr.Loc

	switch x := expr.Data.(type) {
	case *js_ast.EIdentifier:
		return e.identifier(js_ast.LocName{Loc: loc, Name: x.Name})

	case *js_ast.EPrivateIdentifier:
		result := newNode("PrivateIdentifier", loc)
		result["name"] = x.Name
		return result

	case *js_ast.EString:
		return e.stringLiteral(loc, x.Value)

	case *js_ast.ENumber:
		return e.number(loc, x.Value)

	case *js_ast.EBoolean:
		result := newNode("Literal", loc)
		result["value"] = x.Value
		return result

	case *js_ast.ENull:
		result := newNode("Literal", loc)
		result["value"] = nil
		return result

	case *js_ast.EBigInt:
		result := newNode("Literal", loc)
		result["value"] = nil
		result["bigint"] = x.Value
		return result

	case *js_ast.ERegExp:
		slash := strings.LastIndexByte(x.Value, '/')
		if slash < 1 || x.Value[0] != '/' {
			panic("Internal error")
		}
		result := newNode("Literal", loc)
		result["value"] = nil
		result["regex"] = map[string]interface{}{
			"pattern": x.Value[1:slash],
			"flags":   x.Value[slash+1:],
		}
		return result

	case *js_ast.EThis:
		return newNode("ThisExpression", loc)

	case *js_ast.ESuper:
		return newNode("Super", loc)

	case *js_ast.ENewTarget:
		return e.metaProperty(loc, "new", "target")

	case *js_ast.EImportMeta:
		return e.metaProperty(loc, "import", "meta")

	case *js_ast.EArray:
		result := newNode("ArrayExpression", loc)
		elements := make([]interface{}, 0, len(x.Items))
		for _, item := range x.Items {
			if _, ok := item.Data.(*js_ast.EMissing); ok {
				elements = append(elements, nil)
				continue
			}
			elements = append(elements, e.expr(item))
		}
		result["elements"] = elements
		return result

	case *js_ast.ESpread:
		result := newNode("SpreadElement", loc)
		result["argument"] = e.expr(x.Value)
		return result

	case *js_ast.EObject:
		result := newNode("ObjectExpression", loc)
		properties := make([]interface{}, 0, len(x.Properties))
		for _, property := range x.Properties {
			properties = append(properties, e.property(property))
		}
		result["properties"] = properties
		return result

	case *js_ast.EFunction:
		return e.fn("FunctionExpression", loc, x.Fn)

	case *js_ast.EArrow:
		result := newNode("ArrowFunctionExpression", loc)
		result["id"] = nil
		result["async"] = x.IsAsync
		result["generator"] = false
		result["params"] = e.args(x.Args, x.HasRestArg)
		if len(x.Body.Stmts) == 1 && x.PreferExpr {
			if ret, ok := x.Body.Stmts[0].Data.(*js_ast.SReturn); ok && ret.ValueOrNil.Data != nil {
				result["expression"] = true
				result["body"] = e.expr(ret.ValueOrNil)
				return result
			}
		}
		result["expression"] = false
		result["body"] = e.block(x.Body.Loc, x.Body.Stmts)
		return result

	case *js_ast.EClass:
		return e.class("ClassExpression", loc, x.Class)

	case *js_ast.ETemplate:
		template := e.template(loc, x)
		if x.TagOrNil.Data == nil {
			return template
		}
		result := newNode("TaggedTemplateExpression", loc)
		result["tag"] = e.expr(x.TagOrNil)
		result["quasi"] = template
		return result

	case *js_ast.EUnary:
		if x.Op.IsUpdate() {
			result := newNode("UpdateExpression", loc)
			result["operator"] = js_ast.OpTable[x.Op].Text
			result["prefix"] = x.Op.IsPrefix()
			result["argument"] = e.assignTarget(x.Value)
			return result
		}
		result := newNode("UnaryExpression", loc)
		result["operator"] = js_ast.OpTable[x.Op].Text
		result["prefix"] = true
		result["argument"] = e.expr(x.Value)
		return result

	case *js_ast.EBinary:
		return e.binary(loc, x)

	case *js_ast.EIf:
		result := newNode("ConditionalExpression", loc)
		result["test"] = e.expr(x.Test)
		result["consequent"] = e.expr(x.Yes)
		result["alternate"] = e.expr(x.No)
		return result

	case *js_ast.ENew:
		result := newNode("NewExpression", loc)
		result["callee"] = e.expr(x.Target)
		result["arguments"] = e.exprs(x.Args)
		return result

	case *js_ast.ECall, *js_ast.EDot, *js_ast.EIndex:
		if js_ast.IsOptionalChain(expr) {
			result := newNode("ChainExpression", loc)
			result["expression"] = e.chainLink(expr)
			return result
		}
		return e.chainLink(expr)

	case *js_ast.EAwait:
		result := newNode("AwaitExpression", loc)
		result["argument"] = e.expr(x.Value)
		return result

	case *js_ast.EYield:
		result := newNode("YieldExpression", loc)
		result["argument"] = e.exprOrNil(x.ValueOrNil)
		result["delegate"] = x.IsStar
		return result

	case *js_ast.EImportCall:
		result := newNode("ImportExpression", loc)
		result["source"] = e.expr(x.Expr)
		if x.OptionsOrNil.Data != nil {
			result["options"] = e.expr(x.OptionsOrNil)
		}
		return result

	default:
		panic("Internal error")
	}
}

func (e encoder) metaProperty(loc logger.Loc, meta string, property string) node {
	result := newNode("MetaProperty", loc)
	result["meta"] = e.identifier(js_ast.LocName{Loc: loc, Name: meta})
	result["property"] = e.identifier(js_ast.LocName{Loc: loc, Name: property})
	return result
}

func (e encoder) binary(loc logger.Loc, x *js_ast.EBinary) node {
	switch {
	case x.Op == js_ast.BinOpComma:
		// Flatten "(a, b), c" into a single sequence
		var exprs []js_ast.Expr
		var visit func(js_ast.Expr)
		visit = func(expr js_ast.Expr) {
			if comma, ok := expr.Data.(*js_ast.EBinary); ok && comma.Op == js_ast.BinOpComma {
				visit(comma.Left)
				visit(comma.Right)
				return
			}
			exprs = append(exprs, expr)
		}
		visit(js_ast.Expr{Loc: loc, Data: x})
		result := newNode("SequenceExpression", loc)
		result["expressions"] = e.exprs(exprs)
		return result

	case x.Op.IsAssign():
		result := newNode("AssignmentExpression", loc)
		result["operator"] = js_ast.OpTable[x.Op].Text
		result["left"] = e.assignTarget(x.Left)
		result["right"] = e.expr(x.Right)
		return result

	case x.Op == js_ast.BinOpLogicalOr || x.Op == js_ast.BinOpLogicalAnd || x.Op == js_ast.BinOpNullishCoalescing:
		result := newNode("LogicalExpression", loc)
		result["operator"] = js_ast.OpTable[x.Op].Text
		result["left"] = e.expr(x.Left)
		result["right"] = e.expr(x.Right)
		return result

	default:
		result := newNode("BinaryExpression", loc)
		result["operator"] = js_ast.OpTable[x.Op].Text
		result["left"] = e.expr(x.Left)
		result["right"] = e.expr(x.Right)
		return result
	}
}

func (e encoder) property(property js_ast.Property) node {
	if property.Kind == js_ast.PropertySpread {
		result := newNode("SpreadElement", property.ValueOrNil.Loc)
		result["argument"] = e.expr(property.ValueOrNil)
		return result
	}

	result := newNode("Property", property.Key.Loc)
	result["key"] = e.propertyKey(property.Key, property.IsComputed, property.PreferQuotedKey)
	result["computed"] = property.IsComputed
	result["method"] = property.IsMethod && property.Kind == js_ast.PropertyNormal
	result["shorthand"] = property.WasShorthand
	switch property.Kind {
	case js_ast.PropertyGet:
		result["kind"] = "get"
	case js_ast.PropertySet:
		result["kind"] = "set"
	default:
		result["kind"] = "init"
	}
	result["value"] = e.expr(property.ValueOrNil)
	return result
}

func (e encoder) template(loc logger.Loc, x *js_ast.ETemplate) node {
	result := newNode("TemplateLiteral", loc)
	quasis := []interface{}{e.templateElement(x.HeadLoc, x.HeadRaw, x.HeadCooked, len(x.Parts) == 0)}
	values := make([]interface{}, 0, len(x.Parts))
	for i, part := range x.Parts {
		values = append(values, e.expr(part.Value))
		quasis = append(quasis, e.templateElement(part.TailLoc, part.TailRaw, part.TailCooked, i+1 == len(x.Parts)))
	}
	result["quasis"] = quasis
	result["expressions"] = values
	return result
}

func (e encoder) templateElement(loc logger.Loc, raw string, cooked *string, isTail bool) node {
	result := newNode("TemplateElement", loc)
	value := map[string]interface{}{"raw": raw, "cooked": nil}
	if cooked != nil {
		value["cooked"] = *cooked
	}
	result["value"] = value
	result["tail"] = isTail
	return result
}

// Encodes a member access or call that may be part of an optional chain.
// Links after the first "?." stay inside the same "ChainExpression", but a
// link with no optional flag starts a new, unrelated expression.
func (e encoder) chainLink(expr js_ast.Expr) node {
	loc := expr.Loc

	target := func(value js_ast.Expr, flag js_ast.OptionalChain) interface{} {
		if flag != js_ast.OptionalChainNone && js_ast.IsOptionalChain(value) {
			return e.chainLink(value)
		}
		return e.expr(value)
	}

	switch x := expr.Data.(type) {
	case *js_ast.ECall:
		result := newNode("CallExpression", loc)
		result["callee"] = target(x.Target, x.OptionalChain)
		result["arguments"] = e.exprs(x.Args)
		result["optional"] = x.OptionalChain == js_ast.OptionalChainStart
		return result

	case *js_ast.EDot:
		result := newNode("MemberExpression", loc)
		result["object"] = target(x.Target, x.OptionalChain)
		result["property"] = e.identifier(js_ast.LocName{Loc: x.NameLoc, Name: x.Name})
		result["computed"] = false
		result["optional"] = x.OptionalChain == js_ast.OptionalChainStart
		return result

	case *js_ast.EIndex:
		result := newNode("MemberExpression", loc)
		result["object"] = target(x.Target, x.OptionalChain)
		if private, ok := x.Index.Data.(*js_ast.EPrivateIdentifier); ok {
			property := newNode("PrivateIdentifier", x.Index.Loc)
			property["name"] = private.Name
			result["property"] = property
			result["computed"] = false
		} else {
			result["property"] = e.expr(x.Index)
			result["computed"] = true
		}
		result["optional"] = x.OptionalChain == js_ast.OptionalChainStart
		return result

	default:
		panic("Internal error")
	}
}
