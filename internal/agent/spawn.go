package agent

import (
	"fmt"
	"os"
	"path/filepath"
)

// pythonIOEncodingVar forces UTF-8 I/O in the launched simulator tooling,
// which is a hard requirement of the downstream client regardless of the
// caller-supplied environment overlay.
const pythonIOEncodingVar = "PYTHONIOENCODING"

// openLogs creates logDir (and its parents) if non-empty, then opens
// "<jobID>.out.log" and "<jobID>.err.log" within it for UTF-8 append. If
// logDir is empty, no files are opened and both return values are zero.
// On any failure, any partially opened handle is closed before returning.
func openLogs(logDir, jobID string) (paths [2]string, stdout, stderr *os.File, err error) {
	if logDir == "" {
		return paths, nil, nil, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return paths, nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	paths[0] = filepath.Join(logDir, jobID+".out.log")
	paths[1] = filepath.Join(logDir, jobID+".err.log")

	stdout, err = os.OpenFile(paths[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return [2]string{}, nil, nil, fmt.Errorf("open stdout log: %w", err)
	}

	stderr, err = os.OpenFile(paths[1], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		stdout.Close()
		return [2]string{}, nil, nil, fmt.Errorf("open stderr log: %w", err)
	}

	return paths, stdout, stderr, nil
}

// closeOpened closes any of the passed files that are non-nil, used to
// release partially acquired log handles on a spawn failure.
func closeOpened(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}

// buildChildEnv overlays the agent's own environment with the caller's
// extra variables, then forces PYTHONIOENCODING=utf-8.
func buildChildEnv(extra map[string]string) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	for k, v := range extra {
		merged[k] = v
	}
	merged[pythonIOEncodingVar] = "utf-8"

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	return env
}
