package instrument

import (
	"encoding/json"
	"fmt"
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/ListenOcean/goPreload/configs"
	"github.com/ListenOcean/goPreload/internal/gen/ast"
	"github.com/ListenOcean/goPreload/internal/log"
	"github.com/ListenOcean/goPreload/utils"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/panjf2000/ants"
	"github.com/pkg/errors"
)

// Instrumenter rewrites the hook declarations of one package directory into
// exported wrappers, target slots and renamed user hooks.
type Instrumenter struct {
	pkgDir    string
	config    *configs.Config
	fset      *token.FileSet
	buildTags []string

	mu                sync.Mutex
	parsedFiles       map[string]*dst.File
	parsedFileSources map[*dst.File]string
	// original position of every top-level declaration but imports
	declPositions     map[*dst.File]map[dst.Decl]token.Position
	instrumentedHooks map[*dst.File][]*ast.Hookpoint
}

func NewInstrumenter(pkgDir string, config *configs.Config) *Instrumenter {
	if config == nil {
		config = &configs.Config{}
	}
	return &Instrumenter{
		pkgDir:            pkgDir,
		config:            config,
		fset:              token.NewFileSet(),
		parsedFiles:       make(map[string]*dst.File),
		parsedFileSources: make(map[*dst.File]string),
		declPositions:     make(map[*dst.File]map[dst.Decl]token.Position),
	}
}

// WithBuildTags adds build tags to the constraints selecting the package
// files, as `go build -tags` does.
func (h *Instrumenter) WithBuildTags(tags ...string) *Instrumenter {
	h.buildTags = append(h.buildTags, tags...)
	return h
}

// buildContext matches files the way the go command does for the host
// platform, with cgo on since c-shared builds require it.
func (h *Instrumenter) buildContext() build.Context {
	ctx := build.Default
	ctx.CgoEnabled = true
	ctx.BuildTags = append(append([]string(nil), ctx.BuildTags...), h.buildTags...)
	return ctx
}

// AddPackage parses every non-test Go file of the package directory that
// the build constraints select.
func (h *Instrumenter) AddPackage() error {
	entries, err := os.ReadDir(h.pkgDir)
	if err != nil {
		return errors.Wrap(err, "read package directory")
	}
	ctx := h.buildContext()
	var tasks []func() error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || isFileNameIgnored(name) {
			continue
		}
		match, err := ctx.MatchFile(h.pkgDir, name)
		if err != nil {
			return errors.Wrapf(err, "match build constraints of `%s`", name)
		}
		if !match {
			log.Debug("File excluded by build constraints.", log.String("file", name))
			continue
		}
		src, err := filepath.Abs(filepath.Join(h.pkgDir, name))
		if err != nil {
			return err
		}
		tasks = append(tasks, func() error {
			return h.AddFile(src)
		})
	}
	return runTasks(tasks)
}

func isFileNameIgnored(filename string) bool {
	return filepath.Ext(filename) != ".go" || strings.HasSuffix(filename, "_test.go")
}

// AddFile parses the given Go source file `src` and adds it to the set of
// files to instrument if it is not ignored by a directive.
func (h *Instrumenter) AddFile(src string) error {
	log.Debug("Parsing file.", log.String("file", src))
	dec := decorator.NewDecorator(h.fset)
	file, err := dec.ParseFile(src, nil, parser.ParseComments)
	if err != nil {
		return errors.Wrapf(err, "parse `%s`", src)
	}
	if ast.HasIgnoreDirective(file) {
		log.Debug("File skipped due to ignore directive.", log.String("file", src))
		return nil
	}
	positions := make(map[dst.Decl]token.Position, len(file.Decls))
	for _, decl := range file.Decls {
		if gen, ok := decl.(*dst.GenDecl); ok && gen.Tok == token.IMPORT {
			continue
		}
		if node, ok := dec.Map.Ast.Nodes[decl]; ok {
			positions[decl] = h.fset.Position(node.Pos())
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parsedFiles[src] = file
	h.parsedFileSources[file] = src
	h.declPositions[file] = positions
	return nil
}

// Instrument rewrites every parsed file declaring hooks and returns the
// modified file nodes.
func (h *Instrumenter) Instrument() (instrumented []*dst.File, err error) {
	h.instrumentedHooks = make(map[*dst.File][]*ast.Hookpoint)
	if len(h.parsedFiles) == 0 {
		log.Warn("Nothing to instrument.", log.String("dir", h.pkgDir))
		return nil, nil
	}

	var tasks []func() error
	for src, file := range h.parsedFiles {
		src, file := src, file
		tasks = append(tasks, func() error {
			hooks, err := newFileVisitor(h.config).instrument(file)
			if err != nil {
				return errors.Wrapf(err, "instrument `%s`", src)
			}
			if len(hooks) == 0 {
				return nil
			}
			h.mu.Lock()
			defer h.mu.Unlock()
			// The hooklib import shifts everything below it.
			for decl, pos := range h.declPositions[file] {
				ast.AddLineDirective(decl, pos.Filename, pos.Line)
			}
			h.instrumentedHooks[file] = hooks
			return nil
		})
	}
	if err := runTasks(tasks); err != nil {
		return nil, err
	}

	if err := h.checkHookpoints(); err != nil {
		return nil, err
	}
	for file := range h.instrumentedHooks {
		instrumented = append(instrumented, file)
	}
	sort.Slice(instrumented, func(i, j int) bool {
		return h.parsedFileSources[instrumented[i]] < h.parsedFileSources[instrumented[j]]
	})
	return instrumented, nil
}

// checkHookpoints rejects symbols hooked twice and reports configured hooks
// that no declaration matched.
func (h *Instrumenter) checkHookpoints() error {
	seen := make(map[string]string)
	for file, hooks := range h.instrumentedHooks {
		for _, hook := range hooks {
			src := h.parsedFileSources[file]
			if other, exists := seen[hook.Symbol]; exists {
				return errors.Errorf("symbol `%s` is hooked twice, in `%s` and `%s`", hook.Symbol, other, src)
			}
			seen[hook.Symbol] = src
		}
	}
	for symbol := range h.config.Hooks {
		if _, ok := seen[symbol]; !ok {
			log.Warn("Configured hook not found.", log.String("symbol", symbol))
		}
	}
	log.Info("Instrumented hooks.", log.Int("count", len(seen)))
	return nil
}

// Hookpoints returns the hooks found by the last Instrument call, sorted by
// symbol name.
func (h *Instrumenter) Hookpoints() []*ast.Hookpoint {
	var hooks []*ast.Hookpoint
	for _, fileHooks := range h.instrumentedHooks {
		hooks = append(hooks, fileHooks...)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Symbol < hooks[j].Symbol
	})
	return hooks
}

// Source returns the path of the source file of a parsed file node.
func (h *Instrumenter) Source(file *dst.File) string {
	return h.parsedFileSources[file]
}

// SourceOf returns the path of the file declaring hook.
func (h *Instrumenter) SourceOf(hook *ast.Hookpoint) string {
	for file, hooks := range h.instrumentedHooks {
		for _, other := range hooks {
			if other == hook {
				return h.parsedFileSources[file]
			}
		}
	}
	return ""
}

func (h *Instrumenter) WriteInstrumentedFiles(buildDirPath string, instrumentedFiles []*dst.File) (srcdst map[string]string, err error) {
	srcdst = make(map[string]string, len(instrumentedFiles))
	for _, node := range instrumentedFiles {
		src, ok := h.parsedFileSources[node]
		utils.Assert(ok, "instrumented file was not parsed by this instrumenter")
		dest, err := filepath.Abs(filepath.Join(buildDirPath, filepath.Base(src)))
		if err != nil {
			return nil, err
		}
		if err := writeInstrumentedFile(src, dest, node); err != nil {
			return nil, err
		}
		srcdst[src] = dest
	}
	return srcdst, nil
}

func writeInstrumentedFile(src, dest string, node *dst.File) error {
	output, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "create instrumented file")
	}
	defer output.Close()
	// Map compiler positions back to the original source file.
	if _, err := fmt.Fprintf(output, "//line %s:1\n", src); err != nil {
		return err
	}
	if err := ast.WriteFile(node, output); err != nil {
		return errors.Wrapf(err, "write `%s`", dest)
	}
	log.Debug("Wrote instrumented file.", log.String("src", src), log.String("dest", dest))
	return nil
}

type overlay struct {
	Replace map[string]string
}

// WriteOverlay writes the `go build -overlay` file replacing each source
// file by its instrumented copy and returns its path.
func WriteOverlay(buildDirPath string, srcdst map[string]string) (string, error) {
	data, err := json.MarshalIndent(overlay{Replace: srcdst}, "", "\t")
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(filepath.Join(buildDirPath, configs.OverlayFileName))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write overlay")
	}
	return path, nil
}

// runTasks runs tasks on an ants pool and returns the first error.
func runTasks(tasks []func() error) error {
	if len(tasks) == 0 {
		return nil
	}
	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := task(); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		})
		if err != nil {
			wg.Done()
			errOnce.Do(func() { firstErr = errors.Wrap(err, "submit task") })
		}
	}
	wg.Wait()
	return firstErr
}
