//go:build unix

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCC handles `cc -E -P in -o out` by copying, and `cc asm -o out` by
// writing a stub executable next to a copy of the assembly.
const fakeCC = `#!/bin/sh
if [ "$1" = "-E" ]; then
	cp "$3" "$5"
	exit 0
fi
if [ -n "$FAKECC_FAIL" ]; then
	echo "$1: Assembler messages: bad" >&2
	exit 1
fi
cp "$1" "$3.asm"
printf '#!/bin/sh\nexit 2\n' > "$3"
chmod +x "$3"
`

type cli struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func setup(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	cc := filepath.Join(dir, "fakecc")
	require.NoError(t, os.WriteFile(cc, []byte(fakeCC), 0o755))

	t.Setenv("MINICC_CC", cc)
	t.Setenv("MINICC_TARGET", "linux")
	t.Setenv("MINICC_KEEP_TEMPS", "")
	t.Setenv("MINICC_DEBUG", "")
	t.Setenv("FAKECC_FAIL", "")
	return &cli{dir: dir}
}

func (c *cli) source(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(c.dir, "prog.c")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func (c *cli) run(args ...string) int {
	return run(context.Background(), args, &c.stdout, &c.stderr)
}

func (c *cli) exists(name string) bool {
	_, err := os.Stat(filepath.Join(c.dir, name))
	return !errors.Is(err, os.ErrNotExist)
}

func TestFullBuild(t *testing.T) {
	c := setup(t)
	input := c.source(t, "int main(void){return 2;}")

	require.Equal(t, 0, c.run(input), "stderr:\n%s", c.stderr.String())

	assert.True(t, c.exists("prog"))
	assert.False(t, c.exists("prog.i"))
	assert.False(t, c.exists("prog.s"))

	asmText, err := os.ReadFile(filepath.Join(c.dir, "prog.asm"))
	require.NoError(t, err)
	assert.Contains(t, string(asmText), "\tmovl\t$2, %eax\n")
}

func TestStageFlags(t *testing.T) {
	for _, flag := range []string{"--lex", "--parse", "--codegen"} {
		t.Run(flag, func(t *testing.T) {
			c := setup(t)
			input := c.source(t, "int main(void){return 2;}")

			assert.Equal(t, 0, c.run(flag, input), "stderr:\n%s", c.stderr.String())
			assert.False(t, c.exists("prog.i"))
			assert.False(t, c.exists("prog.s"))
			assert.False(t, c.exists("prog"))
		})
	}
}

func TestLexErrorExitsOne(t *testing.T) {
	c := setup(t)
	input := c.source(t, "int main(void){return @;}")

	assert.Equal(t, 1, c.run("--lex", input))
	assert.Contains(t, c.stderr.String(), "prog.c:1:23: error: unexpected character '@'")
	assert.Contains(t, c.stderr.String(), "   1 | int main(void){return @;}")
	assert.False(t, c.exists("prog.i"))
}

func TestSyntaxErrorExitsOne(t *testing.T) {
	c := setup(t)
	input := c.source(t, "int main(void){retrun 2;}")

	assert.Equal(t, 1, c.run("--parse", input))
	assert.Contains(t, c.stderr.String(), "missing 'return'")
	assert.Contains(t, c.stderr.String(), "did you mean 'return'?")
	assert.False(t, c.exists("prog.i"))
}

func TestEmitAsm(t *testing.T) {
	c := setup(t)
	input := c.source(t, "int main(void){return 5;}")

	require.Equal(t, 0, c.run("-S", input), "stderr:\n%s", c.stderr.String())
	data, err := os.ReadFile(filepath.Join(c.dir, "prog.s"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "main:\n\tmovl\t$5, %eax\n\tret\n")
	assert.False(t, c.exists("prog"))
}

func TestTargetFlagOverridesEnvironment(t *testing.T) {
	c := setup(t)
	input := c.source(t, "int main(void){return 5;}")

	require.Equal(t, 0, c.run("-S", "--target", "darwin", input), "stderr:\n%s", c.stderr.String())
	data, err := os.ReadFile(filepath.Join(c.dir, "prog.s"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".globl _main")
}

func TestAssemblerFailureExitsOne(t *testing.T) {
	c := setup(t)
	t.Setenv("FAKECC_FAIL", "1")
	input := c.source(t, "int main(void){return 2;}")

	assert.Equal(t, 1, c.run(input))
	assert.Contains(t, c.stderr.String(), "exited with status 1")
	assert.False(t, c.exists("prog.i"))
	assert.False(t, c.exists("prog"))
}

func TestDebugOutput(t *testing.T) {
	c := setup(t)
	input := c.source(t, "int main(void){return 2;}")

	require.Equal(t, 0, c.run("--parse", "--debug", input))
	out := c.stderr.String()
	assert.Contains(t, out, "minicc: preprocessing")
	assert.Contains(t, out, "lex: 11 tokens, 0 errors")
	assert.Contains(t, out, "Program\n  Function\n")
	assert.Contains(t, out, "stage parse")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(input string) []string
		wantErr string
	}{
		{"no input", func(string) []string { return nil }, "accepts 1 arg(s), received 0"},
		{"two inputs", func(in string) []string { return []string{in, in} }, "accepts 1 arg(s), received 2"},
		{"exclusive stage flags", func(in string) []string { return []string{"--lex", "--parse", in} }, "none of the others can be"},
		{"unknown target", func(in string) []string { return []string{"--target", "plan9", in} }, `unknown target "plan9"`},
		{"missing file", func(in string) []string { return []string{in + ".missing"} }, "no such file"},
		{"unknown flag", func(in string) []string { return []string{"--optimize", in} }, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setup(t)
			input := c.source(t, "int main(void){return 2;}")

			assert.Equal(t, 1, c.run(tt.args(input)...))
			assert.Contains(t, c.stderr.String(), tt.wantErr)
		})
	}
}

func TestVersion(t *testing.T) {
	c := setup(t)
	assert.Equal(t, 0, c.run("--version"))
	assert.Contains(t, c.stdout.String(), "minicc version dev")
}
