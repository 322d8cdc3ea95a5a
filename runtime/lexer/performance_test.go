package lexer

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// generateSource builds a token-dense input of roughly the given number of
// lines. It is lexically valid but not a single grammatical program.
func generateSource(lines int) string {
	patterns := []string{
		"int main(void) {",
		"    return 0;",
		"}",
		"",
		"int answer_42(void){return 42;}",
		"\tint\tvoid\treturn\t",
		"int f(void) { return 2147483647; }",
	}

	var builder strings.Builder
	for current := 0; current < lines; {
		for _, pattern := range patterns {
			if current >= lines {
				break
			}
			builder.WriteString(pattern)
			builder.WriteString("\n")
			current++
		}
	}
	return builder.String()
}

func TestLargeInputs(t *testing.T) {
	for _, lines := range []int{100, 1000, 10000} {
		t.Run(fmt.Sprintf("%d lines", lines), func(t *testing.T) {
			input := generateSource(lines)

			start := time.Now()
			tokens, errs := Lex([]byte(input))
			elapsed := time.Since(start)

			if len(errs) != 0 {
				t.Fatalf("unexpected lex errors: %v", errs)
			}
			if len(tokens) < lines {
				t.Errorf("got %d tokens for %d lines, expected at least one per line", len(tokens), lines)
			}
			if last := tokens[len(tokens)-1]; last.Type != EOF || last.Position.Line != lines+1 {
				t.Errorf("last token = %v at %s, want EOF on line %d", last.Type, last.Position, lines+1)
			}

			linesPerMs := float64(lines) / float64(elapsed.Nanoseconds()) * 1e6
			t.Logf("lexed %d lines in %v (%.0f lines/ms)", lines, elapsed, linesPerMs)
		})
	}
}

func TestPathologicalCases(t *testing.T) {
	cases := map[string]struct {
		input      string
		wantErrors int
	}{
		"long identifier":  {strings.Repeat("a", 1<<16), 0},
		"long constant":    {strings.Repeat("9", 1<<16), 0},
		"only punctuation": {strings.Repeat("(){};", 10000), 0},
		"only whitespace":  {strings.Repeat(" \t\r\n", 10000), 0},
		"only illegal":     {strings.Repeat("@", 10000), 10000},
		"illegal runes":    {strings.Repeat("λ", 1000), 1000},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			tokens, errs := Lex([]byte(tc.input))
			elapsed := time.Since(start)

			if len(errs) != tc.wantErrors {
				t.Errorf("got %d lex errors, want %d", len(errs), tc.wantErrors)
			}
			if tokens[len(tokens)-1].Type != EOF {
				t.Errorf("token stream does not end with EOF")
			}
			t.Logf("%s: %v (%d tokens)", name, elapsed, len(tokens))
		})
	}
}

func BenchmarkLexingThroughput(b *testing.B) {
	for _, size := range []int{100, 1000, 5000} {
		input := []byte(generateSource(size))

		b.Run(fmt.Sprintf("%dlines", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(input)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				tokens, _ := Lex(input)
				_ = tokens
			}

			nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
			b.ReportMetric(float64(size)/(nsPerOp/1e6), "lines/ms")
		})
	}
}

func BenchmarkTelemetryOverhead(b *testing.B) {
	input := generateSource(1000)
	modes := []struct {
		name string
		opts []LexerOpt
	}{
		{"off", nil},
		{"basic", []LexerOpt{WithTelemetryBasic()}},
		{"timing", []LexerOpt{WithTelemetryTiming()}},
		{"debug", []LexerOpt{WithDebugDetailed()}},
	}

	for _, mode := range modes {
		b.Run(mode.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				l := NewLexer(input, mode.opts...)
				_ = l.GetTokens()
			}
		})
	}
}
