// Command hmx-bench measures pkg/hashmap put/get/remove/sweep throughput
// in-process across a range of table sizes, using testing.Benchmark
// directly instead of shelling out to an external benchmark harness: there
// is no separate binary to black-box here, the table lives in the same
// process as the benchmark driver.
package main

import (
	"fmt"
	"os"
	"testing"

	flag "github.com/spf13/pflag"

	"github.com/openaddr/actormap/pkg/hashmap"
)

// Config holds the benchmark sweep's tunables.
type Config struct {
	Counts   []int
	RunSweep bool
	RunOptim bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hmx-bench:", err)
		os.Exit(1)
	}
}

func run() error {
	counts := flag.IntSlice("counts", []int{1_000, 10_000, 100_000, 1_000_000}, "entry counts to benchmark at")
	sweep := flag.Bool("sweep", true, "include a Sweep benchmark")
	optim := flag.Bool("optimize", true, "include a needs/finish-optimize round in the sweep benchmark")
	flag.Parse()

	cfg := Config{Counts: *counts, RunSweep: *sweep, RunOptim: *optim}
	return runBenchmarks(cfg)
}

func runBenchmarks(cfg Config) error {
	fmt.Printf("%-10s %-10s %14s %14s %14s\n", "op", "n", "ns/op", "B/op", "allocs/op")
	for _, n := range cfg.Counts {
		n := n
		reportPut(n)
		reportGet(n)
		reportRemove(n)
		if cfg.RunSweep {
			reportSweep(n, cfg.RunOptim)
		}
	}
	return nil
}

func newFilledMap(n int) *hashmap.Map[entry] {
	m := hashmap.New[entry](entryHash, entryEqual, hashmap.WithCapacity[entry](n))
	for i := 0; i < n; i++ {
		m.Put(entry{key: i, val: i})
	}
	return m
}

type entry struct{ key, val int }

func entryHash(e entry) uint64   { return uint64(e.key) }
func entryEqual(a, b entry) bool { return a.key == b.key }

func reportPut(n int) {
	res := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			m := hashmap.New[entry](entryHash, entryEqual, hashmap.WithCapacity[entry](n))
			for k := 0; k < n; k++ {
				m.Put(entry{key: k, val: k})
			}
		}
	})
	printResult("put", n, res)
}

func reportGet(n int) {
	m := newFilledMap(n)
	res := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			m.Get(entry{key: i % n})
		}
	})
	printResult("get", n, res)
}

func reportRemove(n int) {
	res := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			m := newFilledMap(n)
			b.StartTimer()
			for k := 0; k < n; k++ {
				m.Remove(entry{key: k})
			}
		}
	})
	printResult("remove", n, res)
}

func reportSweep(n int, withOptimize bool) {
	res := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			m := newFilledMap(n)
			if withOptimize {
				for k := 0; k < n; k += 3 {
					m.Remove(entry{key: k})
				}
			}
			b.StartTimer()
			m.Sweep(func(e entry) bool { return e.val%5 != 0 }, nil)
		}
	})
	printResult("sweep", n, res)
}

func printResult(op string, n int, res testing.BenchmarkResult) {
	fmt.Printf("%-10s %-10d %14d %14d %14d\n",
		op, n, res.NsPerOp(), res.AllocedBytesPerOp(), res.AllocsPerOp())
}
