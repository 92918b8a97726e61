// Package profile provides optional runtime profiling for the cel command.
//
// Profiling integrates [github.com/pkg/profile] and is compiled in only with
// the "pprof" build tag:
//
//	go build -tags pprof -o cel .
//
// Without the tag [Modes] is empty and [Profiler.Start] is a no-op, so the
// command carries no profiling code or overhead.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Dir: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// Profile files are written to Dir with names matching the mode (cpu.pprof,
// mem.pprof and so on) and are read with go tool pprof:
//
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
//
// When built with the tag, the package also imports [net/http/pprof], which
// registers handlers under /debug/pprof/ on the default HTTP mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
