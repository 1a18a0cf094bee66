package ast

import (
	"fmt"
	"go/token"
	"io"
	"strconv"
	"strings"

	"github.com/ListenOcean/goPreload/configs"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/pkg/errors"
)

// The hookpoint structure holds every AST node generated for one intercepted
// symbol.
type Hookpoint struct {
	// Exported C symbol name, also the name of the wrapper.
	Symbol string
	// Name of the binding parameter of the user hook.
	Binding string
	// Library the real symbol is resolved from, empty for RTLD_NEXT.
	Library string
	// Go function type of the real symbol, e.g. `func(C.int) C.size_t`.
	Signature string

	// The user declaration, renamed in place.
	HookFuncDecl *dst.FuncDecl
	// var _preload_target_<symbol> = hooklib.New[F]("<symbol>")
	TargetVarDecl *dst.GenDecl
	// //export <symbol>
	// func <symbol>(<params>) <result> { ... }
	WrapperFuncDecl *dst.FuncDecl
}

// NewHookpoint validates the hook declaration funcDecl, renames it and
// builds the target slot and exported wrapper declarations for it.
//
// The first parameter of funcDecl binds the real function; the remaining
// parameters and the results are the C signature of the symbol:
//
//	func frobulate(real_frobulate func(C.int) C.size_t, n C.int) C.size_t
func NewHookpoint(funcDecl *dst.FuncDecl, library string) (*Hookpoint, error) {
	symbol := funcDecl.Name.Name
	binding, bindingType, params, err := splitBinding(funcDecl)
	if err != nil {
		return nil, errors.Wrapf(err, "hook `%s`", symbol)
	}
	results := funcDecl.Type.Results
	if n := countFields(results); n > 1 {
		return nil, errors.Errorf("hook `%s`: a C function returns at most one value, got %d", symbol, n)
	}
	if countFields(bindingType.Params) != countFields(params) || countFields(bindingType.Results) != countFields(results) {
		return nil, errors.Errorf("hook `%s`: binding `%s` has type `%s` which does not match the parameters and results of the hook", symbol, binding, ExprString(bindingType))
	}

	targetType := &dst.FuncType{
		Func:    true,
		Params:  typesOnly(params),
		Results: typesOnly(results),
	}

	targetVarIdent := fmt.Sprintf(configs.TargetVarIdentFormat, symbol)
	hookFuncIdent := fmt.Sprintf(configs.HookFuncIdentFormat, symbol)

	h := &Hookpoint{
		Symbol:          symbol,
		Binding:         binding,
		Library:         library,
		Signature:       ExprString(targetType),
		HookFuncDecl:    funcDecl,
		TargetVarDecl:   newTargetVarDecl(targetVarIdent, symbol, targetType, library),
		WrapperFuncDecl: newWrapperFuncDecl(symbol, hookFuncIdent, targetVarIdent, params, results),
	}
	funcDecl.Name = dst.NewIdent(hookFuncIdent)
	return h, nil
}

// splitBinding separates the binding parameter from the C parameters and
// rejects declarations that cannot be exported as a C symbol.
func splitBinding(funcDecl *dst.FuncDecl) (binding string, bindingType *dst.FuncType, params *dst.FieldList, err error) {
	switch {
	case funcDecl.Recv != nil:
		return "", nil, nil, errors.New("methods cannot be hooks")
	case funcDecl.Type.TypeParams != nil && len(funcDecl.Type.TypeParams.List) > 0:
		return "", nil, nil, errors.New("generic functions cannot be hooks")
	case funcDecl.Body == nil:
		return "", nil, nil, errors.New("missing function body")
	case HasExportDirective(funcDecl):
		return "", nil, nil, errors.New("the hook must not be exported itself: the generated wrapper is")
	}
	if funcDecl.Type.Params == nil || len(funcDecl.Type.Params.List) == 0 {
		return "", nil, nil, errors.New("missing the binding parameter")
	}
	first := funcDecl.Type.Params.List[0]
	if len(first.Names) != 1 {
		return "", nil, nil, errors.New("the binding parameter must be named and declared on its own")
	}
	bindingType, ok := first.Type.(*dst.FuncType)
	if !ok {
		return "", nil, nil, errors.Errorf("the binding parameter `%s` must be a function, got `%s`", first.Names[0].Name, ExprString(first.Type))
	}
	params = &dst.FieldList{List: funcDecl.Type.Params.List[1:]}
	for _, p := range params.List {
		if _, variadic := p.Type.(*dst.Ellipsis); variadic {
			return "", nil, nil, errors.New("variadic functions cannot be hooks")
		}
	}
	return first.Names[0].Name, bindingType, params, nil
}

// Return the target slot declaration:
//
//	var <ident> = _preload_hooklib.New[<targetType>]("<symbol>")
func newTargetVarDecl(ident, symbol string, targetType *dst.FuncType, library string) *dst.GenDecl {
	args := []dst.Expr{
		&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(symbol)},
	}
	if library != "" {
		// _preload_hooklib.WithResolver(_preload_hooklib.Library("<library>"))
		args = append(args, &dst.CallExpr{
			Fun: newHooklibSelector(configs.HooklibWithResolverFunc),
			Args: []dst.Expr{
				&dst.CallExpr{
					Fun:  newHooklibSelector(configs.HooklibLibraryFunc),
					Args: []dst.Expr{&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(library)}},
				},
			},
		})
	}
	return &dst.GenDecl{
		Tok: token.VAR,
		Specs: []dst.Spec{
			&dst.ValueSpec{
				Names: []*dst.Ident{dst.NewIdent(ident)},
				Values: []dst.Expr{
					&dst.CallExpr{
						Fun: &dst.IndexExpr{
							X:     newHooklibSelector(configs.HooklibNewFunc),
							Index: targetType,
						},
						Args: args,
					},
				},
			},
		},
		Decs: dst.GenDeclDecorations{
			NodeDecs: dst.NodeDecs{Before: dst.EmptyLine},
		},
	}
}

// Return the exported wrapper declaration:
//
//	//export <symbol>
//	func <symbol>(<params>) <results> {
//		return <hookFuncIdent>(<targetVarIdent>.Target(), <params>)
//	}
func newWrapperFuncDecl(symbol, hookFuncIdent, targetVarIdent string, params, results *dst.FieldList) *dst.FuncDecl {
	wrapperParams, callArgs := newWrapperParams(params, configs.ParamIdentPrefix)
	callArgs = append([]dst.Expr{
		&dst.CallExpr{
			Fun: &dst.SelectorExpr{
				X:   dst.NewIdent(targetVarIdent),
				Sel: dst.NewIdent(configs.HooklibTargetFunc),
			},
		},
	}, callArgs...)
	call := &dst.CallExpr{
		Fun:  dst.NewIdent(hookFuncIdent),
		Args: callArgs,
	}

	var stmt dst.Stmt = &dst.ExprStmt{X: call}
	if countFields(results) > 0 {
		stmt = &dst.ReturnStmt{Results: []dst.Expr{call}}
	}

	return &dst.FuncDecl{
		Decs: dst.FuncDeclDecorations{
			NodeDecs: dst.NodeDecs{
				Before: dst.EmptyLine,
				Start: dst.Decorations{
					configs.ExportDirective + " " + symbol,
				},
			},
		},
		Name: dst.NewIdent(symbol),
		Type: &dst.FuncType{
			Func:    true,
			Params:  wrapperParams,
			Results: typesOnly(results),
		},
		Body: &dst.BlockStmt{
			List: []dst.Stmt{stmt},
		},
	}
}

// newWrapperParams walks the hook parameters and returns the wrapper
// parameter list along with the call arguments forwarding them. Unnamed and
// `_` parameters are named after their position so they can be forwarded.
func newWrapperParams(params *dst.FieldList, ignoredParamPrefix string) (wrapperParams *dst.FieldList, callArgs []dst.Expr) {
	wrapperParams = &dst.FieldList{}
	if params == nil {
		return wrapperParams, nil
	}
	p := 0
	for _, param := range params.List {
		if len(param.Names) == 0 {
			name := newParamIdent(ignoredParamPrefix, p)
			wrapperParams.List = append(wrapperParams.List, &dst.Field{
				Names: []*dst.Ident{name},
				Type:  dst.Clone(param.Type).(dst.Expr),
			})
			callArgs = append(callArgs, dst.NewIdent(name.Name))
			p++
			continue
		}
		field := &dst.Field{Type: dst.Clone(param.Type).(dst.Expr)}
		for _, name := range param.Names {
			ident := dst.NewIdent(name.Name)
			if name.Name == "_" {
				ident = newParamIdent(ignoredParamPrefix, p)
			}
			field.Names = append(field.Names, ident)
			callArgs = append(callArgs, dst.NewIdent(ident.Name))
			p++
		}
		wrapperParams.List = append(wrapperParams.List, field)
	}
	return wrapperParams, callArgs
}

func newParamIdent(prefix string, p int) *dst.Ident {
	return dst.NewIdent(fmt.Sprintf("%s%d", prefix, p))
}

// typesOnly returns a copy of fields with one unnamed field per name.
func typesOnly(fields *dst.FieldList) *dst.FieldList {
	out := &dst.FieldList{}
	if fields == nil {
		return out
	}
	for _, f := range fields.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out.List = append(out.List, &dst.Field{Type: dst.Clone(f.Type).(dst.Expr)})
		}
	}
	return out
}

func countFields(fields *dst.FieldList) int {
	if fields == nil {
		return 0
	}
	n := 0
	for _, f := range fields.List {
		if len(f.Names) == 0 {
			n++
		} else {
			n += len(f.Names)
		}
	}
	return n
}

func newHooklibSelector(name string) *dst.SelectorExpr {
	return &dst.SelectorExpr{
		X:   dst.NewIdent(configs.HooklibImportName),
		Sel: dst.NewIdent(name),
	}
}

// AddLineDirective makes compiler positions inside decl point back to line of
// filename. The directive goes right before the declaration keyword, after
// its doc comments.
func AddLineDirective(decl dst.Decl, filename string, line int) {
	decl.Decorations().Start.Append(fmt.Sprintf("//line %s:%d", filename, line))
}

// AddHooklibImport adds the aliased hooklib import right after the last
// import declaration of file, leaving a cgo `import "C"` untouched.
func AddHooklibImport(file *dst.File) {
	decl := &dst.GenDecl{
		Tok: token.IMPORT,
		Specs: []dst.Spec{
			&dst.ImportSpec{
				Name: dst.NewIdent(configs.HooklibImportName),
				Path: &dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(configs.HooklibImportPath)},
			},
		},
		Decs: dst.GenDeclDecorations{
			NodeDecs: dst.NodeDecs{Before: dst.EmptyLine, After: dst.EmptyLine},
		},
	}
	pos := 0
	for i, d := range file.Decls {
		if gen, ok := d.(*dst.GenDecl); ok && gen.Tok == token.IMPORT {
			pos = i + 1
		}
	}
	file.Decls = append(file.Decls[:pos], append([]dst.Decl{decl}, file.Decls[pos:]...)...)
}

// HasHookDirective reports whether the declaration carries //preload:hook.
func HasHookDirective(funcDecl *dst.FuncDecl) bool {
	return hasDirective(funcDecl.Decs.Start, configs.HookDirective)
}

func HasExportDirective(funcDecl *dst.FuncDecl) bool {
	return hasDirective(funcDecl.Decs.Start, configs.ExportDirective)
}

// HasIgnoreDirective reports whether the file carries //preload:ignore before
// its package clause.
func HasIgnoreDirective(file *dst.File) bool {
	return hasDirective(file.Decs.Start, configs.IgnoreDirective) ||
		hasDirective(file.Decs.Package, configs.IgnoreDirective)
}

func hasDirective(decs dst.Decorations, directive string) bool {
	for _, d := range decs {
		d = strings.TrimSpace(d)
		if d == directive || strings.HasPrefix(d, directive+" ") {
			return true
		}
	}
	return false
}

// WriteFile prints the file node into w.
func WriteFile(file *dst.File, w io.Writer) error {
	return decorator.Fprint(w, file)
}

// ExprString renders the type expressions found in hook signatures.
func ExprString(expr dst.Expr) string {
	var b strings.Builder
	writeExpr(&b, expr)
	return b.String()
}

func writeExpr(b *strings.Builder, expr dst.Expr) {
	switch e := expr.(type) {
	case *dst.Ident:
		if e.Path != "" {
			b.WriteString(e.Path[strings.LastIndex(e.Path, "/")+1:])
			b.WriteByte('.')
		}
		b.WriteString(e.Name)
	case *dst.SelectorExpr:
		writeExpr(b, e.X)
		b.WriteByte('.')
		b.WriteString(e.Sel.Name)
	case *dst.StarExpr:
		b.WriteByte('*')
		writeExpr(b, e.X)
	case *dst.ArrayType:
		b.WriteByte('[')
		if e.Len != nil {
			writeExpr(b, e.Len)
		}
		b.WriteByte(']')
		writeExpr(b, e.Elt)
	case *dst.BasicLit:
		b.WriteString(e.Value)
	case *dst.Ellipsis:
		b.WriteString("...")
		writeExpr(b, e.Elt)
	case *dst.FuncType:
		b.WriteString("func(")
		writeFields(b, e.Params)
		b.WriteByte(')')
		if n := countFields(e.Results); n == 1 {
			b.WriteByte(' ')
			writeFields(b, e.Results)
		} else if n > 1 {
			b.WriteString(" (")
			writeFields(b, e.Results)
			b.WriteByte(')')
		}
	case *dst.InterfaceType:
		b.WriteString("interface{}")
	case *dst.MapType:
		b.WriteString("map[")
		writeExpr(b, e.Key)
		b.WriteByte(']')
		writeExpr(b, e.Value)
	default:
		fmt.Fprintf(b, "%T", expr)
	}
}

func writeFields(b *strings.Builder, fields *dst.FieldList) {
	if fields == nil {
		return
	}
	first := true
	for _, f := range fields.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			if !first {
				b.WriteString(", ")
			}
			first = false
			writeExpr(b, f.Type)
		}
	}
}
