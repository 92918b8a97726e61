package lang

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// BenchmarkExecute benchmarks evaluation of compiled programs.
func BenchmarkExecute(b *testing.B) {
	tests := []struct {
		name string
		expr string
	}{
		{"simple_arithmetic", "x + y * 2"},
		{"string_concatenation", `greeting + ", " + name + "!"`},
		{"builtin_function", `name.startsWith("Wo") && size(name) == 5`},
		{"collection", `{"a": [x, y], "b": x > y}["a"][1]`},
		{"mixed_numeric", "x * 3u + 1.5"},
		{"short_circuit", "false && undefined_name"},
	}

	c := NewContext()
	c.AddVariable("x", Int(10))
	c.AddVariable("y", Int(20))
	c.AddVariable("greeting", String("Hello"))
	c.AddVariable("name", String("World"))

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			p, err := Compile(tt.expr)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()

			for b.Loop() {
				if _, err := p.Execute(c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkCompile compares direct compilation with the program cache.
func BenchmarkCompile(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		terms := make([]string, n)
		for i := range terms {
			terms[i] = fmt.Sprintf("x%d * %d", i, i)
		}

		source := strings.Join(terms, " + ")

		b.Run(fmt.Sprintf("direct/terms=%d", n), func(b *testing.B) {
			for b.Loop() {
				if _, err := Compile(source); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("cached/terms=%d", n), func(b *testing.B) {
			ClearCache()
			b.Cleanup(ClearCache)

			for b.Loop() {
				if _, err := CompileCached(context.Background(), source); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
