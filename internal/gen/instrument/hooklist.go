package instrument

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func getHookListFilepath(dir string) string {
	return filepath.Join(dir, "hooks.txt")
}

// WriteHookList writes one line per generated wrapper into hooks.txt of
// buildDirPath: symbol, Go signature of the real function and library.
func (h *Instrumenter) WriteHookList(buildDirPath string) (path string, err error) {
	path = getHookListFilepath(buildDirPath)
	hookList, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create hook list")
	}
	defer hookList.Close()
	for _, hook := range h.Hookpoints() {
		library := hook.Library
		if library == "" {
			library = "RTLD_NEXT"
		}
		if _, err = fmt.Fprintf(hookList, "%s\t%s\t%s\n", hook.Symbol, hook.Signature, library); err != nil {
			return "", err
		}
	}
	return path, nil
}
