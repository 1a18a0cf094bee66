package instrument

import (
	"github.com/ListenOcean/goPreload/configs"
	"github.com/ListenOcean/goPreload/internal/gen/ast"
	"github.com/ListenOcean/goPreload/internal/log"
	"github.com/ListenOcean/goPreload/utils"

	"github.com/dave/dst"
	"github.com/dave/dst/dstutil"
	"github.com/pkg/errors"
)

// c-shared libraries are built from the main package only.
const mainPackageName = "main"

type fileVisitor struct {
	config *configs.Config
	// Hookpoints of the file being instrumented.
	instrumented []*ast.Hookpoint
	// First error met while visiting, it stops the traversal.
	err error
}

func newFileVisitor(config *configs.Config) *fileVisitor {
	utils.NotNil(config, "config")
	return &fileVisitor{config: config}
}

// instrument rewrites the hook declarations of file and appends the target
// slots and exported wrappers to it.
func (v *fileVisitor) instrument(file *dst.File) ([]*ast.Hookpoint, error) {
	dstutil.Apply(file, v.instrumentPre, nil)
	if v.err != nil {
		return nil, v.err
	}
	if len(v.instrumented) == 0 {
		return nil, nil
	}
	if file.Name.Name != mainPackageName {
		return nil, errors.Errorf("hooks must be declared in package main, not `%s`", file.Name.Name)
	}
	v.addFileMetadata(file)
	return v.instrumented, nil
}

func (v *fileVisitor) instrumentPre(cursor *dstutil.Cursor) bool {
	if v.err != nil {
		return false
	}
	switch node := cursor.Node().(type) {
	case *dst.FuncDecl:
		v.instrumentFuncDeclPre(node)
		// No need to go deeper than function declarations
		return false
	}
	return true
}

func (v *fileVisitor) instrumentFuncDeclPre(funcDecl *dst.FuncDecl) {
	symbol := funcDecl.Name.Name
	hookConfig, configured := v.config.Hook(symbol)
	if !configured && !ast.HasHookDirective(funcDecl) {
		return
	}
	if configured && funcDecl.Recv != nil && !ast.HasHookDirective(funcDecl) {
		// a method sharing the name of a configured symbol
		return
	}
	log.Debug("Will hook.", log.String("symbol", symbol))
	hook, err := ast.NewHookpoint(funcDecl, hookConfig.Library)
	if err != nil {
		v.err = err
		return
	}
	v.instrumented = append(v.instrumented, hook)
}

func (v *fileVisitor) addFileMetadata(file *dst.File) {
	ast.AddHooklibImport(file)
	for _, h := range v.instrumented {
		file.Decls = append(file.Decls, h.TargetVarDecl, h.WrapperFuncDecl)
	}
}
