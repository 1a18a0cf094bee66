package gen

import (
	"fmt"
	"path/filepath"

	"github.com/ListenOcean/goPreload/internal/log"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	genOutDir      string
	genConfigFile  string
	listConfigFile string
)

// GenCmd represents the gen command
var GenCmd = &cobra.Command{
	Use:   "gen <pkgdir>",
	Short: "Generate the interposition wrappers of a package and print the overlay path.",
	Args:  cobra.ExactArgs(1),
	RunE:  GenEntry,
}

// ListCmd represents the list command
var ListCmd = &cobra.Command{
	Use:   "list <pkgdir>",
	Short: "List the hooks declared by a package.",
	Args:  cobra.ExactArgs(1),
	RunE:  ListEntry,
}

func init() {
	GenCmd.Flags().StringVarP(&genOutDir, "out", "w", "", "directory for the instrumented files (default: a new temporary directory)")
	GenCmd.Flags().StringVarP(&genConfigFile, "config", "c", "", "hook config file (default: $GOPRELOAD_CONFIG)")
	ListCmd.Flags().StringVarP(&listConfigFile, "config", "c", "", "hook config file (default: $GOPRELOAD_CONFIG)")
}

func GenEntry(cmd *cobra.Command, args []string) error {
	res, err := Generate(Options{
		PkgDir:     args[0],
		OutDir:     genOutDir,
		ConfigFile: genConfigFile,
	})
	if err != nil {
		log.Error("Generate Fail.", log.String("err", err.Error()))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Overlay)
	return nil
}

func ListEntry(cmd *cobra.Command, args []string) error {
	h, err := Scan(args[0], listConfigFile)
	if err != nil {
		log.Error("Scan Fail.", log.String("err", err.Error()))
		return err
	}
	hooks := h.Hookpoints()
	if len(hooks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No hooks declared")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Symbol", "Binding", "Signature", "Library", "File")
	for _, hook := range hooks {
		library := hook.Library
		if library == "" {
			library = "RTLD_NEXT"
		}
		table.Append(
			hook.Symbol,
			hook.Binding,
			hook.Signature,
			library,
			filepath.Base(h.SourceOf(hook)),
		)
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal hooks: %d\n", len(hooks))
	return nil
}
