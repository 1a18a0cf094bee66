package build

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ListenOcean/goPreload/internal/log"
)

func ForwardBuild(overlay, output, pkgDir string, extra []string) error {
	args := BuildArgs(overlay, output, pkgDir, extra)
	if _, _, err := ExecuteCmd(WorkDir, GoPath, args, []string{"CGO_ENABLED=1"}); err != nil {
		return err
	}
	return nil
}

// BuildArgs returns the go command arguments building pkgDir as a c-shared
// library with the instrumented files swapped in by the overlay.
func BuildArgs(overlay, output, pkgDir string, extra []string) []string {
	args := []string{"build", "-buildmode=c-shared", "-overlay=" + overlay, "-o", output}
	args = append(args, extra...)
	return append(args, packageArg(pkgDir))
}

// buildTags returns the tags of a -tags flag in go build arguments, so
// that the generator sees the same files as the compiler.
func buildTags(args []string) []string {
	var list string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		switch arg = strings.TrimLeft(arg, "-"); {
		case strings.HasPrefix(arg, "tags="):
			list = strings.TrimPrefix(arg, "tags=")
		case arg == "tags" && i+1 < len(args):
			list = args[i+1]
		}
	}
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

// packageArg turns a directory into something the go command reads as a
// directory and not as an import path.
func packageArg(dir string) string {
	if filepath.IsAbs(dir) || strings.HasPrefix(dir, ".") {
		return dir
	}
	return "." + string(filepath.Separator) + dir
}

func ExecuteCmd(workdir string, program string, args []string, env []string) (stdout, stderr []byte, err error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd := exec.Command(program, args...)
	cmd.Dir = workdir
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	log.Debug(
		"Exec Command.",
		log.String("workdir", cmd.Dir),
		log.String("program", cmd.Path),
		log.String("args", strings.Join(cmd.Args, " ")),
	)
	cmd.Env = append(os.Environ(), env...)
	err = cmd.Run()
	stdout = stdoutBuf.Bytes()
	stderr = stderrBuf.Bytes()
	if len(stdout) > 0 {
		os.Stdout.Write(stdout)
	}
	if len(stderr) > 0 {
		os.Stderr.Write(stderr)
	}
	if err != nil {
		log.Error(
			"Exec Result.",
			log.String("stdout", stdoutBuf.String()),
			log.String("stderr", stderrBuf.String()),
		)
		return
	}
	log.Debug(
		"Exec Result.",
		log.String("stdout", stdoutBuf.String()),
		log.String("stderr", stderrBuf.String()),
	)
	return
}
