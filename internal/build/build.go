package build

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ListenOcean/goPreload/configs"
	"github.com/ListenOcean/goPreload/internal/gen"
	"github.com/ListenOcean/goPreload/internal/log"

	"github.com/spf13/cobra"
)

var (
	WorkDir string
	GoPath  string

	output     string
	outDir     string
	configFile string
)

// BuildCmd represents the build command
var BuildCmd = &cobra.Command{
	Use:   "build [-o lib.so] <pkgdir> [-- go build flags]",
	Short: "Build a c-shared interposition library from a package declaring hooks.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  BuildEntry,
}

func init() {
	BuildCmd.Flags().StringVarP(&output, "output", "o", "", "shared object to write (default: lib<pkg>.so)")
	BuildCmd.Flags().StringVarP(&outDir, "out", "w", "", "directory for the instrumented files (default: a new temporary directory)")
	BuildCmd.Flags().StringVarP(&configFile, "config", "c", "", "hook config file (default: $GOPRELOAD_CONFIG)")
}

func BuildEntry(cmd *cobra.Command, args []string) (err error) {
	if WorkDir, err = os.Getwd(); err != nil {
		return
	}
	if GoPath = os.Getenv(configs.TagCustomGoBin); GoPath == "" {
		if GoPath, err = exec.LookPath("go"); err != nil {
			return
		}
	}

	pkgDir := args[0]
	res, err := gen.Generate(gen.Options{
		PkgDir:     pkgDir,
		OutDir:     outDir,
		ConfigFile: configFile,
		BuildTags:  buildTags(args[1:]),
	})
	if err != nil {
		log.Error("Generate Fail.", log.String("err", err.Error()))
		return err
	}

	if output == "" {
		abs, err := filepath.Abs(pkgDir)
		if err != nil {
			return err
		}
		output = "lib" + filepath.Base(abs) + ".so"
	}
	if err = ForwardBuild(res.Overlay, output, pkgDir, args[1:]); err != nil {
		log.Error("ForwardBuild Fail.", log.String("err", err.Error()))
		return
	}
	log.Info("Built interposition library.", log.String("output", output), log.Int("hooks", len(res.Hookpoints)))
	return nil
}
