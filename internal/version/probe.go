package version

import (
	"context"
	"os"
	"path/filepath"

	"forge/internal/logger"
	"forge/internal/runner"
)

// ProbeFlags are the argument sets tried, in order, to make a tool print its version.
var ProbeFlags = [][]string{
	{"--version"},
	{"version"},
	{"version", "--client", "--short"},
	{"version", "--client"},
	{"-v"},
	{"-V"},
}

// Probe runs executable with each of ProbeFlags, first by name through PATH and then,
// if that yields nothing, by its full path under binDir. The first successful run
// whose combined output passes the cascade decides the version.
func Probe(ctx context.Context, r runner.Runner, executable, binDir string) (string, bool) {
	if v, ok := probeWith(ctx, r, executable); ok {
		return v, true
	}

	if binDir == "" {
		return "", false
	}
	full := filepath.Join(binDir, executable)
	if _, err := os.Stat(full); err != nil {
		logger.Debug("[DEBUG] %s not found under %s\n", executable, binDir)
		return "", false
	}
	return probeWith(ctx, r, full)
}

func probeWith(ctx context.Context, r runner.Runner, program string) (string, bool) {
	for _, flags := range ProbeFlags {
		res, err := r.Run(ctx, program, flags...)
		if err != nil {
			logger.Debug("[DEBUG] probe %s: %v\n", runner.CommandLine(program, flags...), err)
			if ctx.Err() != nil {
				return "", false
			}
			continue
		}
		if !res.Success() {
			continue
		}
		if v, ok := Extract(res.Combined()); ok {
			logger.Debug("[DEBUG] probe %s -> %s\n", runner.CommandLine(program, flags...), v)
			return v, true
		}
	}
	return "", false
}
