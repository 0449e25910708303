package ztest

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RunShell runs script with "bash -e -o pipefail" in dir.  The directories
// in path are prepended to PATH so the script finds the executables under
// test.
func RunShell(ctx context.Context, dir, path, script string, stdin io.Reader, env []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "bash", "-e", "-o", "pipefail")
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), env...)
	if path != "" {
		var dirs []string
		for _, d := range filepath.SplitList(path) {
			if abs, err := filepath.Abs(d); err == nil {
				d = abs
			}
			dirs = append(dirs, d)
		}
		dirs = append(dirs, os.Getenv("PATH"))
		cmd.Env = append(cmd.Env, "PATH="+strings.Join(dirs, string(filepath.ListSeparator)))
	}
	if stdin != nil {
		script = "exec 0<&3\n" + script
		r, w, err := os.Pipe()
		if err != nil {
			return "", "", err
		}
		defer r.Close()
		cmd.ExtraFiles = []*os.File{r}
		go func() {
			io.Copy(w, stdin)
			w.Close()
		}()
	}
	cmd.Stdin = strings.NewReader(script)
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
