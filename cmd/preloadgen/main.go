package main

import (
	"os"
	"strings"

	"github.com/ListenOcean/goPreload/configs"
	"github.com/ListenOcean/goPreload/internal/build"
	"github.com/ListenOcean/goPreload/internal/gen"
	"github.com/ListenOcean/goPreload/internal/log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "preloadgen",
	Short:             "Generate and build LD_PRELOAD interposition libraries from Go hooks.",
	Version:           configs.Version,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	rootCmd.AddCommand(gen.GenCmd)
	rootCmd.AddCommand(gen.ListCmd)
	rootCmd.AddCommand(build.BuildCmd)
}

func main() {
	log.InitLog(os.Getenv(configs.TagLogType))
	log.Debug("Program Args.", log.String("args", strings.Join(os.Args, ", ")))

	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		// keep the log file around for failed runs
		os.Exit(1)
	}
	log.Clear()
}
