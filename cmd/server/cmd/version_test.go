package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	defer func() {
		Version = origVersion
		GitCommit = origGitCommit
	}()

	Version = "1.0.0"
	GitCommit = "abc123"

	buf := new(bytes.Buffer)
	versionCmd.SetOut(buf)
	versionCmd.Run(versionCmd, nil)

	output := buf.String()
	for _, want := range []string{"CommunityCal Server", "1.0.0", "abc123", "Go version"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output missing %q:\n%s", want, output)
		}
	}
}
