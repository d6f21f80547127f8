package estree

// This package converts between ESTree JSON and the tree in "js_ast". The
// JSON is expected to look like what acorn produces: every node has a "type"
// and a "start" byte offset, optional chains are wrapped in "ChainExpression"
// nodes, and directives are expression statements with a "directive" field.
// The "start" offsets become the locations used in log messages.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/logger"
)

// DecodeError is returned for JSON that isn't a valid ESTree program. "Path"
// is the chain of fields leading to the bad node, such as
// "body[2].specifiers[0].local", and "Type" is that node's type if it has one.
type DecodeError struct {
	Path string
	Type string
	Text string
}

func (e *DecodeError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s (%s): %s", e.Path, e.Type, e.Text)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Text)
}

// Decoding stops at the first problem by panicking with this, which is then
// recovered in "Decode"
type decodePanic struct {
	err *DecodeError
}

type object = map[string]interface{}

type decoder struct {
	path     []string
	isModule bool
}

var unaryOps = map[string]js_ast.OpCode{
	"+":      js_ast.UnOpPos,
	"-":      js_ast.UnOpNeg,
	"~":      js_ast.UnOpCpl,
	"!":      js_ast.UnOpNot,
	"void":   js_ast.UnOpVoid,
	"typeof": js_ast.UnOpTypeof,
	"delete": js_ast.UnOpDelete,
}

var binaryOps = make(map[string]js_ast.OpCode)
var assignOps = make(map[string]js_ast.OpCode)

func init() {
	for op := js_ast.BinOpAdd; op <= js_ast.BinOpBitwiseXor; op++ {
		binaryOps[js_ast.OpTable[op].Text] = op
	}
	for op := js_ast.BinOpAssign; op <= js_ast.BinOpLogicalAndAssign; op++ {
		assignOps[js_ast.OpTable[op].Text] = op
	}
}

func Decode(contents []byte) (result js_ast.Program, err error) {
	var root interface{}
	jsonDecoder := json.NewDecoder(bytes.NewReader(contents))
	jsonDecoder.UseNumber()
	if jsonErr := jsonDecoder.Decode(&root); jsonErr != nil {
		return js_ast.Program{}, &DecodeError{Path: "<root>", Text: fmt.Sprintf("Invalid JSON: %s", jsonErr.Error())}
	}

	d := &decoder{}
	defer func() {
		if r := recover(); r != nil {
			if p, ok := r.(decodePanic); ok {
				result = js_ast.Program{}
				err = p.err
				return
			}
			panic(r)
		}
	}()

	result = d.program(d.asObject(root))
	return
}

func (d *decoder) push(segment string) {
	d.path = append(d.path, segment)
}

func (d *decoder) pop() {
	d.path = d.path[:len(d.path)-1]
}

func (d *decoder) fail(node object, text string) {
	path := strings.Join(d.path, ".")
	if path == "" {
		path = "<root>"
	}
	nodeType, _ := node["type"].(string)
	panic(decodePanic{err: &DecodeError{Path: path, Type: nodeType, Text: text}})
}

func describe(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	case string:
		return "a string"
	case []interface{}:
		return "an array"
	case object:
		return "an object"
	}
	return fmt.Sprintf("%T", value)
}

func (d *decoder) asObject(value interface{}) object {
	node, ok := value.(object)
	if !ok {
		d.fail(nil, fmt.Sprintf("Expected a node but found %s", describe(value)))
	}
	return node
}

func (d *decoder) nodeType(node object) string {
	nodeType, ok := node["type"].(string)
	if !ok {
		d.fail(node, "Missing the \"type\" field")
	}
	return nodeType
}

func (d *decoder) loc(node object) logger.Loc {
	if start, ok := node["start"].(json.Number); ok {
		if value, err := start.Int64(); err == nil {
			return logger.Loc{Start: int32(value)}
		}
	}
	return logger.Loc{}
}

// Returns nil if the field is missing or null
func (d *decoder) optionalNode(parent object, key string) object {
	value, ok := parent[key]
	if !ok || value == nil {
		return nil
	}
	node, ok := value.(object)
	if !ok {
		d.fail(parent, fmt.Sprintf("Expected %q to be a node but found %s", key, describe(value)))
	}
	return node
}

func (d *decoder) requiredNode(parent object, key string) object {
	node := d.optionalNode(parent, key)
	if node == nil {
		d.fail(parent, fmt.Sprintf("Missing required field %q", key))
	}
	return node
}

func (d *decoder) optionalString(parent object, key string) (string, bool) {
	value, ok := parent[key]
	if !ok || value == nil {
		return "", false
	}
	text, ok := value.(string)
	if !ok {
		d.fail(parent, fmt.Sprintf("Expected %q to be a string but found %s", key, describe(value)))
	}
	return text, true
}

func (d *decoder) requiredString(parent object, key string) string {
	text, ok := d.optionalString(parent, key)
	if !ok {
		d.fail(parent, fmt.Sprintf("Missing required field %q", key))
	}
	return text
}

// A missing boolean is treated as false
func (d *decoder) boolean(parent object, key string) bool {
	value, ok := parent[key]
	if !ok || value == nil {
		return false
	}
	flag, ok := value.(bool)
	if !ok {
		d.fail(parent, fmt.Sprintf("Expected %q to be a boolean but found %s", key, describe(value)))
	}
	return flag
}

// Calls "visit" with each element of an array of nodes. Null elements are
// passed as nil, which callers reject unless they allow holes.
func (d *decoder) eachNode(parent object, key string, visit func(node object)) {
	value, ok := parent[key]
	if !ok {
		d.fail(parent, fmt.Sprintf("Missing required field %q", key))
	}
	items, ok := value.([]interface{})
	if !ok {
		d.fail(parent, fmt.Sprintf("Expected %q to be an array but found %s", key, describe(value)))
	}
	for i, item := range items {
		d.push(fmt.Sprintf("%s[%d]", key, i))
		if item == nil {
			visit(nil)
		} else {
			visit(d.asObject(item))
		}
		d.pop()
	}
}

// Like "eachNode" but a missing field is the same as an empty array
func (d *decoder) eachOptionalNode(parent object, key string, visit func(node object)) {
	if value, ok := parent[key]; ok && value != nil {
		d.eachNode(parent, key, visit)
	}
}

func (d *decoder) program(node object) js_ast.Program {
	if nodeType := d.nodeType(node); nodeType != "Program" {
		d.fail(node, fmt.Sprintf("Expected a Program node but found %q", nodeType))
	}

	loc := d.loc(node)
	sourceType, _ := d.optionalString(node, "sourceType")
	switch sourceType {
	case "module":
		d.isModule = true
		return js_ast.Program{Loc: loc, Data: &js_ast.PModule{Body: d.stmts(node, "body")}}

	case "script", "":
		return js_ast.Program{Loc: loc, Data: &js_ast.PScript{Body: d.stmts(node, "body")}}

	default:
		d.fail(node, fmt.Sprintf("Unknown source type %q", sourceType))
		panic("unreachable")
	}
}

func (d *decoder) stmts(parent object, key string) []js_ast.Stmt {
	stmts := []js_ast.Stmt{}
	d.eachNode(parent, key, func(node object) {
		if node == nil {
			d.fail(nil, "Expected a statement but found null")
		}
		stmts = append(stmts, d.stmt(node))
	})
	return stmts
}

func (d *decoder) stmtField(parent object, key string) js_ast.Stmt {
	node := d.requiredNode(parent, key)
	d.push(key)
	stmt := d.stmt(node)
	d.pop()
	return stmt
}

func (d *decoder) stmtOrNil(parent object, key string) js_ast.Stmt {
	if d.optionalNode(parent, key) == nil {
		return js_ast.Stmt{}
	}
	return d.stmtField(parent, key)
}

func (d *decoder) block(parent object, key string) (logger.Loc, js_ast.SBlock) {
	node := d.requiredNode(parent, key)
	d.push(key)
	if nodeType := d.nodeType(node); nodeType != "BlockStatement" {
		d.fail(node, fmt.Sprintf("Expected a BlockStatement but found %q", nodeType))
	}
	block := js_ast.SBlock{Stmts: d.stmts(node, "body")}
	d.pop()
	return d.loc(node), block
}

func (d *decoder) identifier(node object) js_ast.LocName {
	if nodeType := d.nodeType(node); nodeType != "Identifier" {
		d.fail(node, fmt.Sprintf("Expected an Identifier but found %q", nodeType))
	}
	return js_ast.LocName{Loc: d.loc(node), Name: d.requiredString(node, "name")}
}

func (d *decoder) identifierField(parent object, key string) js_ast.LocName {
	node := d.requiredNode(parent, key)
	d.push(key)
	name := d.identifier(node)
	d.pop()
	return name
}

func (d *decoder) identifierOrNil(parent object, key string) *js_ast.LocName {
	if d.optionalNode(parent, key) == nil {
		return nil
	}
	name := d.identifierField(parent, key)
	return &name
}

func (d *decoder) stmt(node object) js_ast.Stmt {
	loc := d.loc(node)
	nodeType := d.nodeType(node)

	switch nodeType {
	case "ExpressionStatement":
		if directive, ok := d.optionalString(node, "directive"); ok {
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SDirective{Value: directive}}
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: d.exprField(node, "expression")}}

	case "BlockStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: d.stmts(node, "body")}}

	case "EmptyStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case "DebuggerStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case "ReturnStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: d.exprOrNil(node, "argument")}}

	case "ThrowStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: d.exprField(node, "argument")}}

	case "IfStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{
			Test:    d.exprField(node, "test"),
			Yes:     d.stmtField(node, "consequent"),
			NoOrNil: d.stmtOrNil(node, "alternate"),
		}}

	case "ForStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{
			InitOrNil:   d.forInit(node, "init", false),
			TestOrNil:   d.exprOrNil(node, "test"),
			UpdateOrNil: d.exprOrNil(node, "update"),
			Body:        d.stmtField(node, "body"),
		}}

	case "ForInStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{
			Init:  d.forInit(node, "left", true),
			Value: d.exprField(node, "right"),
			Body:  d.stmtField(node, "body"),
		}}

	case "ForOfStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{
			Init:    d.forInit(node, "left", true),
			Value:   d.exprField(node, "right"),
			Body:    d.stmtField(node, "body"),
			IsAwait: d.boolean(node, "await"),
		}}

	case "WhileStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: d.exprField(node, "test"), Body: d.stmtField(node, "body")}}

	case "DoWhileStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: d.stmtField(node, "body"), Test: d.exprField(node, "test")}}

	case "WithStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWith{Value: d.exprField(node, "object"), Body: d.stmtField(node, "body")}}

	case "LabeledStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{Name: d.identifierField(node, "label"), Stmt: d.stmtField(node, "body")}}

	case "BreakStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: d.identifierOrNil(node, "label")}}

	case "ContinueStatement":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: d.identifierOrNil(node, "label")}}

	case "TryStatement":
		return js_ast.Stmt{Loc: loc, Data: d.try(node)}

	case "SwitchStatement":
		s := &js_ast.SSwitch{Test: d.exprField(node, "discriminant"), Cases: []js_ast.Case{}}
		d.eachNode(node, "cases", func(child object) {
			if child == nil || d.nodeType(child) != "SwitchCase" {
				d.fail(child, "Expected a SwitchCase")
			}
			s.Cases = append(s.Cases, js_ast.Case{
				Loc:        d.loc(child),
				ValueOrNil: d.exprOrNil(child, "test"),
				Body:       d.stmts(child, "consequent"),
			})
		})
		return js_ast.Stmt{Loc: loc, Data: s}

	case "VariableDeclaration":
		return js_ast.Stmt{Loc: loc, Data: d.local(node)}

	case "FunctionDeclaration":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: d.fn(node)}}

	case "ClassDeclaration":
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: d.class(node)}}

	case "ImportDeclaration", "ExportNamedDeclaration", "ExportDefaultDeclaration", "ExportAllDeclaration":
		if !d.isModule {
			d.fail(node, "Import and export declarations are only allowed when \"sourceType\" is \"module\"")
		}
		return d.moduleDecl(node, loc, nodeType)
	}

	d.fail(node, fmt.Sprintf("Unknown statement type %q", nodeType))
	panic("unreachable")
}

func (d *decoder) try(node object) *js_ast.STry {
	s := &js_ast.STry{}
	s.BlockLoc, s.Block = d.block(node, "block")

	if handler := d.optionalNode(node, "handler"); handler != nil {
		d.push("handler")
		catch := &js_ast.Catch{Loc: d.loc(handler)}
		if param := d.optionalNode(handler, "param"); param != nil {
			catch.BindingOrNil = d.bindingField(handler, "param")
		}
		catch.BlockLoc, catch.Block = d.block(handler, "body")
		s.Catch = catch
		d.pop()
	}

	if finalizer := d.optionalNode(node, "finalizer"); finalizer != nil {
		finally := &js_ast.Finally{}
		finally.Loc, finally.Block = d.block(node, "finalizer")
		s.Finally = finally
	}

	if s.Catch == nil && s.Finally == nil {
		d.fail(node, "Expected a \"handler\" or a \"finalizer\"")
	}
	return s
}

// The left side of "for-in" and "for-of" loops is either a declaration or an
// assignment target
func (d *decoder) forInit(parent object, key string, isRequired bool) js_ast.Stmt {
	var node object
	if isRequired {
		node = d.requiredNode(parent, key)
	} else if node = d.optionalNode(parent, key); node == nil {
		return js_ast.Stmt{}
	}

	d.push(key)
	defer d.pop()
	loc := d.loc(node)
	if d.nodeType(node) == "VariableDeclaration" {
		return js_ast.Stmt{Loc: loc, Data: d.local(node)}
	}
	if isRequired {
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: d.assignTarget(node)}}
	}
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: d.expr(node)}}
}

func (d *decoder) local(node object) *js_ast.SLocal {
	s := &js_ast.SLocal{Decls: []js_ast.Decl{}}

	switch kind := d.requiredString(node, "kind"); kind {
	case "var":
		s.Kind = js_ast.LocalVar
	case "let":
		s.Kind = js_ast.LocalLet
	case "const":
		s.Kind = js_ast.LocalConst
	default:
		d.fail(node, fmt.Sprintf("Unsupported declaration kind %q", kind))
	}

	d.eachNode(node, "declarations", func(child object) {
		if child == nil || d.nodeType(child) != "VariableDeclarator" {
			d.fail(child, "Expected a VariableDeclarator")
		}
		s.Decls = append(s.Decls, js_ast.Decl{
			Binding:    d.bindingField(child, "id"),
			ValueOrNil: d.exprOrNil(child, "init"),
		})
	})
	return s
}

// Import sources are always string literals
func (d *decoder) source(parent object) (string, logger.Loc) {
	node := d.requiredNode(parent, "source")
	d.push("source")
	defer d.pop()
	if value, ok := node["value"].(string); ok && d.nodeType(node) == "Literal" {
		return value, d.loc(node)
	}
	d.fail(node, "Expected a string literal")
	panic("unreachable")
}

// Module export names can be identifiers or string literals
func (d *decoder) moduleExportName(parent object, key string) js_ast.LocName {
	node := d.requiredNode(parent, key)
	d.push(key)
	defer d.pop()
	switch d.nodeType(node) {
	case "Identifier":
		return d.identifier(node)
	case "Literal":
		if value, ok := node["value"].(string); ok {
			return js_ast.LocName{Loc: d.loc(node), Name: value}
		}
	}
	d.fail(node, "Expected an identifier or a string literal")
	panic("unreachable")
}

func (d *decoder) attributes(parent object) []js_ast.ImportAttribute {
	var attributes []js_ast.ImportAttribute

	// Older parsers call these "assertions"
	key := "attributes"
	if _, ok := parent[key]; !ok {
		key = "assertions"
	}

	d.eachOptionalNode(parent, key, func(node object) {
		if node == nil || d.nodeType(node) != "ImportAttribute" {
			d.fail(node, "Expected an ImportAttribute")
		}
		value := d.requiredNode(node, "value")
		text, ok := value["value"].(string)
		if !ok {
			d.push("value")
			d.fail(value, "Expected a string literal")
		}
		attributes = append(attributes, js_ast.ImportAttribute{
			Loc:   d.loc(node),
			Key:   d.moduleExportName(node, "key").Name,
			Value: text,
		})
	})
	return attributes
}

func (d *decoder) clauseItems(node object) []js_ast.ClauseItem {
	items := []js_ast.ClauseItem{}
	d.eachNode(node, "specifiers", func(child object) {
		if child == nil || d.nodeType(child) != "ExportSpecifier" {
			d.fail(child, "Expected an ExportSpecifier")
		}
		exported := d.moduleExportName(child, "exported")
		items = append(items, js_ast.ClauseItem{
			Name:     d.moduleExportName(child, "local"),
			Alias:    exported.Name,
			AliasLoc: exported.Loc,
		})
	})
	return items
}

func (d *decoder) moduleDecl(node object, loc logger.Loc, nodeType string) js_ast.Stmt {
	switch nodeType {
	case "ImportDeclaration":
		s := &js_ast.SImport{}
		s.Path, s.PathLoc = d.source(node)
		s.Attributes = d.attributes(node)
		d.eachNode(node, "specifiers", func(child object) {
			if child == nil {
				d.fail(nil, "Expected an import specifier but found null")
			}
			specifier := js_ast.ImportSpecifier{Loc: d.loc(child)}
			switch d.nodeType(child) {
			case "ImportDefaultSpecifier":
				specifier.Data = &js_ast.ISDefault{Local: d.identifierField(child, "local")}
			case "ImportNamespaceSpecifier":
				specifier.Data = &js_ast.ISNamespace{Local: d.identifierField(child, "local")}
			case "ImportSpecifier":
				imported := d.moduleExportName(child, "imported")
				specifier.Data = &js_ast.ISNamed{
					Local:       d.identifierField(child, "local"),
					Imported:    imported.Name,
					ImportedLoc: imported.Loc,
				}
			default:
				d.fail(child, "Expected an import specifier")
			}
			s.Specifiers = append(s.Specifiers, specifier)
		})
		return js_ast.Stmt{Loc: loc, Data: s}

	case "ExportNamedDeclaration":
		if declaration := d.optionalNode(node, "declaration"); declaration != nil {
			stmt := d.stmtField(node, "declaration")
			switch s := stmt.Data.(type) {
			case *js_ast.SLocal:
				s.IsExport = true
			case *js_ast.SFunction:
				s.IsExport = true
			case *js_ast.SClass:
				s.IsExport = true
			default:
				d.push("declaration")
				d.fail(declaration, "Expected a variable, function, or class declaration")
			}
			return js_ast.Stmt{Loc: loc, Data: stmt.Data}
		}

		items := d.clauseItems(node)
		if d.optionalNode(node, "source") == nil {
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items}}
		}
		s := &js_ast.SExportFrom{Items: items}
		s.Path, s.PathLoc = d.source(node)
		s.Attributes = d.attributes(node)
		return js_ast.Stmt{Loc: loc, Data: s}

	case "ExportDefaultDeclaration":
		declaration := d.requiredNode(node, "declaration")
		var value js_ast.Stmt
		switch d.nodeType(declaration) {
		case "FunctionDeclaration", "ClassDeclaration":
			value = d.stmtField(node, "declaration")
		default:
			expr := d.exprField(node, "declaration")
			value = js_ast.Stmt{Loc: expr.Loc, Data: &js_ast.SExpr{Value: expr}}
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{Value: value}}

	case "ExportAllDeclaration":
		s := &js_ast.SExportStar{}
		if d.optionalNode(node, "exported") != nil {
			alias := d.moduleExportName(node, "exported")
			s.Alias = &alias
		}
		s.Path, s.PathLoc = d.source(node)
		s.Attributes = d.attributes(node)
		return js_ast.Stmt{Loc: loc, Data: s}
	}

	panic("Internal error")
}

func (d *decoder) fn(node object) js_ast.Fn {
	fn := js_ast.Fn{
		Name:        d.identifierOrNil(node, "id"),
		IsAsync:     d.boolean(node, "async"),
		IsGenerator: d.boolean(node, "generator"),
	}
	fn.Args, fn.HasRestArg = d.args(node)
	fn.Body.Loc, fn.Body.Stmts = d.fnBlock(node)
	return fn
}

func (d *decoder) fnBlock(node object) (logger.Loc, []js_ast.Stmt) {
	loc, block := d.block(node, "body")
	return loc, block.Stmts
}

func (d *decoder) args(node object) (args []js_ast.Arg, hasRestArg bool) {
	args = []js_ast.Arg{}
	d.eachNode(node, "params", func(child object) {
		if child == nil {
			d.fail(nil, "Expected a parameter but found null")
		}
		if hasRestArg {
			d.fail(child, "A rest parameter must be last")
		}
		switch d.nodeType(child) {
		case "RestElement":
			hasRestArg = true
			args = append(args, js_ast.Arg{Binding: d.bindingField(child, "argument")})
		case "AssignmentPattern":
			args = append(args, js_ast.Arg{Binding: d.bindingField(child, "left"), DefaultOrNil: d.exprField(child, "right")})
		default:
			args = append(args, js_ast.Arg{Binding: d.binding(child)})
		}
	})
	return
}

func (d *decoder) class(node object) js_ast.Class {
	class := js_ast.Class{
		Name:         d.identifierOrNil(node, "id"),
		ExtendsOrNil: d.exprOrNil(node, "superClass"),
		Properties:   []js_ast.Property{},
	}

	body := d.requiredNode(node, "body")
	d.push("body")
	class.BodyLoc = d.loc(body)
	d.eachNode(body, "body", func(child object) {
		if child == nil {
			d.fail(nil, "Expected a class element but found null")
		}
		switch d.nodeType(child) {
		case "MethodDefinition":
			property := js_ast.Property{
				IsMethod:   true,
				IsStatic:   d.boolean(child, "static"),
				IsComputed: d.boolean(child, "computed"),
			}
			property.Key, property.PreferQuotedKey = d.propertyKey(child, property.IsComputed)
			switch kind := d.requiredString(child, "kind"); kind {
			case "constructor", "method":
			case "get":
				property.Kind = js_ast.PropertyGet
			case "set":
				property.Kind = js_ast.PropertySet
			default:
				d.fail(child, fmt.Sprintf("Unknown method kind %q", kind))
			}
			value := d.requiredNode(child, "value")
			d.push("value")
			if d.nodeType(value) != "FunctionExpression" {
				d.fail(value, "Expected a FunctionExpression")
			}
			property.ValueOrNil = js_ast.Expr{Loc: d.loc(value), Data: &js_ast.EFunction{Fn: d.fn(value)}}
			d.pop()
			class.Properties = append(class.Properties, property)

		case "PropertyDefinition":
			property := js_ast.Property{
				IsStatic:         d.boolean(child, "static"),
				IsComputed:       d.boolean(child, "computed"),
				InitializerOrNil: d.exprOrNil(child, "value"),
			}
			property.Key, property.PreferQuotedKey = d.propertyKey(child, property.IsComputed)
			class.Properties = append(class.Properties, property)

		case "StaticBlock":
			class.Properties = append(class.Properties, js_ast.Property{
				Kind:             js_ast.PropertyClassStaticBlock,
				ClassStaticBlock: &js_ast.ClassStaticBlock{Loc: d.loc(child), Stmts: d.stmts(child, "body")},
			})

		default:
			d.fail(child, "Expected a class element")
		}
	})
	d.pop()
	return class
}

// Non-computed keys are stored as strings. The second return value is true
// when the key was written as a string literal.
func (d *decoder) propertyKey(parent object, isComputed bool) (js_ast.Expr, bool) {
	node := d.requiredNode(parent, "key")
	d.push("key")
	defer d.pop()

	if isComputed {
		return d.expr(node), false
	}

	loc := d.loc(node)
	switch d.nodeType(node) {
	case "Identifier":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: d.requiredString(node, "name")}}, false
	case "PrivateIdentifier":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EPrivateIdentifier{Name: d.requiredString(node, "name")}}, false
	case "Literal":
		key := d.literal(node)
		_, isString := key.Data.(*js_ast.EString)
		return key, isString
	}

	d.fail(node, "Expected an identifier or a literal")
	panic("unreachable")
}

func (d *decoder) bindingField(parent object, key string) js_ast.Binding {
	node := d.requiredNode(parent, key)
	d.push(key)
	binding := d.binding(node)
	d.pop()
	return binding
}

func (d *decoder) binding(node object) js_ast.Binding {
	loc := d.loc(node)

	switch nodeType := d.nodeType(node); nodeType {
	case "Identifier":
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: d.requiredString(node, "name")}}

	case "ArrayPattern":
		b := &js_ast.BArray{Items: []js_ast.ArrayBinding{}}
		d.eachNode(node, "elements", func(child object) {
			if b.HasSpread {
				d.fail(child, "A rest element must be last")
			}
			if child == nil {
				b.Items = append(b.Items, js_ast.ArrayBinding{Binding: js_ast.Binding{Data: &js_ast.BMissing{}}})
				return
			}
			switch d.nodeType(child) {
			case "RestElement":
				b.HasSpread = true
				b.Items = append(b.Items, js_ast.ArrayBinding{Binding: d.bindingField(child, "argument")})
			case "AssignmentPattern":
				b.Items = append(b.Items, js_ast.ArrayBinding{
					Binding:           d.bindingField(child, "left"),
					DefaultValueOrNil: d.exprField(child, "right"),
				})
			default:
				b.Items = append(b.Items, js_ast.ArrayBinding{Binding: d.binding(child)})
			}
		})
		return js_ast.Binding{Loc: loc, Data: b}

	case "ObjectPattern":
		b := &js_ast.BObject{Properties: []js_ast.PropertyBinding{}}
		d.eachNode(node, "properties", func(child object) {
			if child == nil {
				d.fail(nil, "Expected a property but found null")
			}
			switch d.nodeType(child) {
			case "RestElement":
				b.Properties = append(b.Properties, js_ast.PropertyBinding{
					Key:      js_ast.Expr{Loc: d.loc(child), Data: &js_ast.EMissing{}},
					Value:    d.bindingField(child, "argument"),
					IsSpread: true,
				})
			case "Property":
				property := js_ast.PropertyBinding{IsComputed: d.boolean(child, "computed")}
				property.Key, property.PreferQuotedKey = d.propertyKey(child, property.IsComputed)
				value := d.requiredNode(child, "value")
				if d.nodeType(value) == "AssignmentPattern" {
					d.push("value")
					property.Value = d.bindingField(value, "left")
					property.DefaultValueOrNil = d.exprField(value, "right")
					d.pop()
				} else {
					property.Value = d.bindingField(child, "value")
				}
				b.Properties = append(b.Properties, property)
			default:
				d.fail(child, "Expected a Property or a RestElement")
			}
		})
		return js_ast.Binding{Loc: loc, Data: b}

	default:
		d.fail(node, fmt.Sprintf("Unknown binding pattern type %q", nodeType))
		panic("unreachable")
	}
}

// Assignment targets are stored as expressions, so "[a, b] = c" becomes an
// array literal on the left of an assignment
func (d *decoder) assignTarget(node object) js_ast.Expr {
	loc := d.loc(node)

	switch d.nodeType(node) {
	case "ArrayPattern":
		e := &js_ast.EArray{Items: []js_ast.Expr{}}
		d.eachNode(node, "elements", func(child object) {
			if child == nil {
				e.Items = append(e.Items, js_ast.Expr{Data: &js_ast.EMissing{}})
				return
			}
			e.Items = append(e.Items, d.assignTarget(child))
		})
		return js_ast.Expr{Loc: loc, Data: e}

	case "ObjectPattern":
		e := &js_ast.EObject{Properties: []js_ast.Property{}}
		d.eachNode(node, "properties", func(child object) {
			if child == nil {
				d.fail(nil, "Expected a property but found null")
			}
			switch d.nodeType(child) {
			case "RestElement":
				e.Properties = append(e.Properties, js_ast.Property{
					Kind:       js_ast.PropertySpread,
					ValueOrNil: d.assignTargetField(child, "argument"),
				})
			case "Property":
				property := js_ast.Property{
					IsComputed:   d.boolean(child, "computed"),
					WasShorthand: d.boolean(child, "shorthand"),
				}
				property.Key, property.PreferQuotedKey = d.propertyKey(child, property.IsComputed)
				value := d.requiredNode(child, "value")
				if d.nodeType(value) == "AssignmentPattern" {
					d.push("value")
					property.ValueOrNil = d.assignTargetField(value, "left")
					property.InitializerOrNil = d.exprField(value, "right")
					d.pop()
				} else {
					property.ValueOrNil = d.assignTargetField(child, "value")
				}
				e.Properties = append(e.Properties, property)
			default:
				d.fail(child, "Expected a Property or a RestElement")
			}
		})
		return js_ast.Expr{Loc: loc, Data: e}

	case "AssignmentPattern":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{
			Op:    js_ast.BinOpAssign,
			Left:  d.assignTargetField(node, "left"),
			Right: d.exprField(node, "right"),
		}}

	case "RestElement":
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: d.assignTargetField(node, "argument")}}
	}

	return d.expr(node)
}

func (d *decoder) assignTargetField(parent object, key string) js_ast.Expr {
	node := d.requiredNode(parent, key)
	d.push(key)
	expr := d.assignTarget(node)
	d.pop()
	return expr
}

func (d *decoder) exprField(parent object, key string) js_ast.Expr {
	node := d.requiredNode(parent, key)
	d.push(key)
	expr := d.expr(node)
	d.pop()
	return expr
}

func (d *decoder) exprOrNil(parent object, key string) js_ast.Expr {
	if d.optionalNode(parent, key) == nil {
		return js_ast.Expr{}
	}
	return d.exprField(parent, key)
}

func (d *decoder) exprs(parent object, key string) []js_ast.Expr {
	exprs := []js_ast.Expr{}
	d.eachNode(parent, key, func(node object) {
		if node == nil {
			d.fail(nil, "Expected an expression but found null")
		}
		exprs = append(exprs, d.expr(node))
	})
	return exprs
}

func (d *decoder) expr(node object) js_ast.Expr {
	loc := d.loc(node)
	nodeType := d.nodeType(node)

	switch nodeType {
	case "Identifier":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: d.requiredString(node, "name")}}

	case "PrivateIdentifier":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EPrivateIdentifier{Name: d.requiredString(node, "name")}}

	case "Literal":
		return d.literal(node)

	case "ThisExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case "Super":
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case "ArrayExpression":
		e := &js_ast.EArray{Items: []js_ast.Expr{}}
		d.eachNode(node, "elements", func(child object) {
			if child == nil {
				e.Items = append(e.Items, js_ast.Expr{Data: &js_ast.EMissing{}})
				return
			}
			e.Items = append(e.Items, d.expr(child))
		})
		return js_ast.Expr{Loc: loc, Data: e}

	case "ObjectExpression":
		e := &js_ast.EObject{Properties: []js_ast.Property{}}
		d.eachNode(node, "properties", func(child object) {
			if child == nil {
				d.fail(nil, "Expected a property but found null")
			}
			e.Properties = append(e.Properties, d.property(child))
		})
		return js_ast.Expr{Loc: loc, Data: e}

	case "SpreadElement":
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: d.exprField(node, "argument")}}

	case "FunctionExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: d.fn(node)}}

	case "ArrowFunctionExpression":
		return js_ast.Expr{Loc: loc, Data: d.arrow(node)}

	case "ClassExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: d.class(node)}}

	case "TemplateLiteral":
		return js_ast.Expr{Loc: loc, Data: d.template(node, js_ast.Expr{})}

	case "TaggedTemplateExpression":
		tag := d.exprField(node, "tag")
		quasi := d.requiredNode(node, "quasi")
		d.push("quasi")
		template := d.template(quasi, tag)
		d.pop()
		return js_ast.Expr{Loc: loc, Data: template}

	case "UnaryExpression":
		operator := d.requiredString(node, "operator")
		op, ok := unaryOps[operator]
		if !ok {
			d.fail(node, fmt.Sprintf("Unknown unary operator %q", operator))
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: op, Value: d.exprField(node, "argument")}}

	case "UpdateExpression":
		var op js_ast.OpCode
		isPrefix := d.boolean(node, "prefix")
		switch operator := d.requiredString(node, "operator"); {
		case operator == "++" && isPrefix:
			op = js_ast.UnOpPreInc
		case operator == "--" && isPrefix:
			op = js_ast.UnOpPreDec
		case operator == "++":
			op = js_ast.UnOpPostInc
		case operator == "--":
			op = js_ast.UnOpPostDec
		default:
			d.fail(node, fmt.Sprintf("Unknown update operator %q", operator))
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: op, Value: d.assignTargetField(node, "argument")}}

	case "BinaryExpression", "LogicalExpression":
		operator := d.requiredString(node, "operator")
		op, ok := binaryOps[operator]
		if !ok {
			d.fail(node, fmt.Sprintf("Unknown binary operator %q", operator))
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{Op: op, Left: d.exprField(node, "left"), Right: d.exprField(node, "right")}}

	case "AssignmentExpression":
		operator := d.requiredString(node, "operator")
		op, ok := assignOps[operator]
		if !ok {
			d.fail(node, fmt.Sprintf("Unknown assignment operator %q", operator))
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{Op: op, Left: d.assignTargetField(node, "left"), Right: d.exprField(node, "right")}}

	case "ConditionalExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIf{
			Test: d.exprField(node, "test"),
			Yes:  d.exprField(node, "consequent"),
			No:   d.exprField(node, "alternate"),
		}}

	case "SequenceExpression":
		exprs := d.exprs(node, "expressions")
		if len(exprs) == 0 {
			d.fail(node, "Expected at least one expression")
		}
		return js_ast.JoinAllWithComma(exprs)

	case "CallExpression":
		expr, _ := d.call(node, false)
		return expr

	case "MemberExpression":
		expr, _ := d.member(node, false)
		return expr

	case "ChainExpression":
		inner := d.requiredNode(node, "expression")
		d.push("expression")
		expr, _ := d.chainLink(inner)
		d.pop()
		return expr

	case "NewExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: d.exprField(node, "callee"), Args: d.exprs(node, "arguments")}}

	case "AwaitExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: d.exprField(node, "argument")}}

	case "YieldExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{ValueOrNil: d.exprOrNil(node, "argument"), IsStar: d.boolean(node, "delegate")}}

	case "ImportExpression":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EImportCall{Expr: d.exprField(node, "source"), OptionsOrNil: d.exprOrNil(node, "options")}}

	case "MetaProperty":
		meta := d.identifierField(node, "meta").Name
		property := d.identifierField(node, "property").Name
		switch {
		case meta == "new" && property == "target":
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{}}
		case meta == "import" && property == "meta":
			return js_ast.Expr{Loc: loc, Data: &js_ast.EImportMeta{}}
		}
		d.fail(node, fmt.Sprintf("Unknown meta property \"%s.%s\"", meta, property))

	case "ParenthesizedExpression":
		return d.exprField(node, "expression")
	}

	d.fail(node, fmt.Sprintf("Unknown expression type %q", nodeType))
	panic("unreachable")
}

func (d *decoder) literal(node object) js_ast.Expr {
	loc := d.loc(node)

	if regex := d.optionalNode(node, "regex"); regex != nil {
		d.push("regex")
		value := "/" + d.requiredString(regex, "pattern") + "/" + d.requiredString(regex, "flags")
		d.pop()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Value: value}}
	}

	if bigint, ok := d.optionalString(node, "bigint"); ok {
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: bigint}}
	}

	value, ok := node["value"]
	if !ok {
		d.fail(node, "Missing required field \"value\"")
	}
	switch v := value.(type) {
	case nil:
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}
	case bool:
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: v}}
	case string:
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: v}}
	case json.Number:
		number, err := v.Float64()
		if err != nil {
			d.fail(node, fmt.Sprintf("Invalid number %q", v.String()))
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: number}}
	}

	d.fail(node, fmt.Sprintf("Unexpected literal value of %s", describe(value)))
	panic("unreachable")
}

func (d *decoder) property(node object) js_ast.Property {
	switch d.nodeType(node) {
	case "SpreadElement":
		return js_ast.Property{Kind: js_ast.PropertySpread, ValueOrNil: d.exprField(node, "argument")}

	case "Property":
		property := js_ast.Property{
			IsComputed:   d.boolean(node, "computed"),
			IsMethod:     d.boolean(node, "method"),
			WasShorthand: d.boolean(node, "shorthand"),
		}
		property.Key, property.PreferQuotedKey = d.propertyKey(node, property.IsComputed)
		property.ValueOrNil = d.exprField(node, "value")
		switch kind := d.requiredString(node, "kind"); kind {
		case "init":
		case "get":
			property.Kind = js_ast.PropertyGet
		case "set":
			property.Kind = js_ast.PropertySet
		default:
			d.fail(node, fmt.Sprintf("Unknown property kind %q", kind))
		}
		return property
	}

	d.fail(node, "Expected a Property or a SpreadElement")
	panic("unreachable")
}

func (d *decoder) arrow(node object) *js_ast.EArrow {
	arrow := &js_ast.EArrow{IsAsync: d.boolean(node, "async")}
	arrow.Args, arrow.HasRestArg = d.args(node)

	body := d.requiredNode(node, "body")
	if d.boolean(node, "expression") || d.nodeType(body) != "BlockStatement" {
		value := d.exprField(node, "body")
		arrow.Body = js_ast.FnBody{Loc: value.Loc, Stmts: []js_ast.Stmt{{Loc: value.Loc, Data: &js_ast.SReturn{ValueOrNil: value}}}}
		arrow.PreferExpr = true
	} else {
		arrow.Body.Loc, arrow.Body.Stmts = d.fnBlock(node)
	}
	return arrow
}

func (d *decoder) template(node object, tag js_ast.Expr) *js_ast.ETemplate {
	if nodeType := d.nodeType(node); nodeType != "TemplateLiteral" {
		d.fail(node, fmt.Sprintf("Expected a TemplateLiteral but found %q", nodeType))
	}

	type quasi struct {
		loc    logger.Loc
		raw    string
		cooked *string
	}
	var quasis []quasi
	d.eachNode(node, "quasis", func(child object) {
		if child == nil || d.nodeType(child) != "TemplateElement" {
			d.fail(child, "Expected a TemplateElement")
		}
		value := d.requiredNode(child, "value")
		d.push("value")
		q := quasi{loc: d.loc(child), raw: d.requiredString(value, "raw")}
		if cooked, ok := d.optionalString(value, "cooked"); ok {
			q.cooked = &cooked
		}
		d.pop()
		quasis = append(quasis, q)
	})

	values := d.exprs(node, "expressions")
	if len(quasis) != len(values)+1 {
		d.fail(node, fmt.Sprintf("Expected %d quasis for %d expressions but found %d", len(values)+1, len(values), len(quasis)))
	}

	template := &js_ast.ETemplate{
		TagOrNil:   tag,
		HeadLoc:    quasis[0].loc,
		HeadRaw:    quasis[0].raw,
		HeadCooked: quasis[0].cooked,
	}
	for i, value := range values {
		tail := quasis[i+1]
		template.Parts = append(template.Parts, js_ast.TemplatePart{
			Value:      value,
			TailLoc:    tail.loc,
			TailRaw:    tail.raw,
			TailCooked: tail.cooked,
		})
	}
	return template
}

// Decodes one link of an optional chain. The second return value is true if
// this link or an earlier one in the same chain uses "?.", which is what
// decides between "OptionalChainContinue" and "OptionalChainNone". A nested
// "ChainExpression" is a parenthesized chain and starts over.
func (d *decoder) chainLink(node object) (js_ast.Expr, bool) {
	switch d.nodeType(node) {
	case "MemberExpression":
		return d.member(node, true)
	case "CallExpression":
		return d.call(node, true)
	}
	return d.expr(node), false
}

func chainFlag(isOptional bool, isAfterOptional bool) js_ast.OptionalChain {
	if isOptional {
		return js_ast.OptionalChainStart
	}
	if isAfterOptional {
		return js_ast.OptionalChainContinue
	}
	return js_ast.OptionalChainNone
}

func (d *decoder) chainTarget(parent object, key string, isInChain bool) (js_ast.Expr, bool) {
	node := d.requiredNode(parent, key)
	d.push(key)
	defer d.pop()
	if isInChain {
		return d.chainLink(node)
	}
	return d.expr(node), false
}

func (d *decoder) member(node object, isInChain bool) (js_ast.Expr, bool) {
	loc := d.loc(node)
	target, isAfterOptional := d.chainTarget(node, "object", isInChain)
	isOptional := d.boolean(node, "optional")
	flag := chainFlag(isOptional, isAfterOptional)

	property := d.requiredNode(node, "property")
	if d.boolean(node, "computed") {
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIndex{
			Target:        target,
			Index:         d.exprField(node, "property"),
			OptionalChain: flag,
		}}, isOptional || isAfterOptional
	}

	d.push("property")
	defer d.pop()
	switch d.nodeType(property) {
	case "Identifier":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EDot{
			Target:        target,
			Name:          d.requiredString(property, "name"),
			NameLoc:       d.loc(property),
			OptionalChain: flag,
		}}, isOptional || isAfterOptional

	case "PrivateIdentifier":
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIndex{
			Target:        target,
			Index:         js_ast.Expr{Loc: d.loc(property), Data: &js_ast.EPrivateIdentifier{Name: d.requiredString(property, "name")}},
			OptionalChain: flag,
		}}, isOptional || isAfterOptional
	}

	d.fail(property, "Expected an Identifier or a PrivateIdentifier")
	panic("unreachable")
}

func (d *decoder) call(node object, isInChain bool) (js_ast.Expr, bool) {
	loc := d.loc(node)
	target, isAfterOptional := d.chainTarget(node, "callee", isInChain)
	isOptional := d.boolean(node, "optional")
	return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
		Target:        target,
		Args:          d.exprs(node, "arguments"),
		OptionalChain: chainFlag(isOptional, isAfterOptional),
	}}, isOptional || isAfterOptional
}
