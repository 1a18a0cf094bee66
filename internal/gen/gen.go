package gen

import (
	"os"
	"path/filepath"

	"github.com/ListenOcean/goPreload/configs"
	"github.com/ListenOcean/goPreload/internal/gen/ast"
	"github.com/ListenOcean/goPreload/internal/gen/instrument"
	"github.com/ListenOcean/goPreload/internal/log"

	"github.com/pkg/errors"
)

type Options struct {
	// Package directory declaring the hooks.
	PkgDir string
	// Directory receiving the instrumented files and the overlay. A
	// temporary directory is created when empty.
	OutDir string
	// yaml config path, $GOPRELOAD_CONFIG when empty.
	ConfigFile string
	// Extra build tags selecting the package files.
	BuildTags []string
}

type Result struct {
	OutDir     string
	Overlay    string
	HookList   string
	Hookpoints []*ast.Hookpoint
	// Original source path to instrumented copy.
	Files map[string]string
}

// Scan parses and instruments the package in memory.
func Scan(pkgDir, configFile string) (*instrument.Instrumenter, error) {
	cfg, err := configs.ReadConfig(configFile)
	if err != nil {
		return nil, err
	}
	h := instrument.NewInstrumenter(pkgDir, cfg)
	if err := h.AddPackage(); err != nil {
		return nil, err
	}
	if _, err := h.Instrument(); err != nil {
		return nil, err
	}
	return h, nil
}

// Generate instruments the package and writes the instrumented files, the
// hook list and the build overlay into the output directory.
func Generate(opts Options) (*Result, error) {
	cfg, err := configs.ReadConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	h := instrument.NewInstrumenter(opts.PkgDir, cfg).WithBuildTags(opts.BuildTags...)
	if err := h.AddPackage(); err != nil {
		return nil, err
	}
	instrumented, err := h.Instrument()
	if err != nil {
		return nil, err
	}
	if len(instrumented) == 0 {
		return nil, errors.Errorf("no hooks found in `%s`", opts.PkgDir)
	}

	outDir := opts.OutDir
	if outDir == "" {
		if outDir, err = os.MkdirTemp("", "preloadgen-"); err != nil {
			return nil, errors.Wrap(err, "create output directory")
		}
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}
	if outDir, err = filepath.Abs(outDir); err != nil {
		return nil, err
	}

	files, err := h.WriteInstrumentedFiles(outDir, instrumented)
	if err != nil {
		return nil, err
	}
	overlay, err := instrument.WriteOverlay(outDir, files)
	if err != nil {
		return nil, err
	}
	hookList, err := h.WriteHookList(outDir)
	if err != nil {
		return nil, err
	}
	log.Info("Generated wrappers.",
		log.String("pkg", opts.PkgDir),
		log.String("out", outDir),
		log.Int("hooks", len(h.Hookpoints())),
	)
	return &Result{
		OutDir:     outDir,
		Overlay:    overlay,
		HookList:   hookList,
		Hookpoints: h.Hookpoints(),
		Files:      files,
	}, nil
}
