// Command hmx is an interactive REPL for exercising a pkg/hashmap table:
// put/get/del/scan/sweep/optimize entries by string key, inspect size and
// compaction state, and bulk-load random or sequential keys for quick
// experimentation.
package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/openaddr/actormap/pkg/hashmap"
	"github.com/openaddr/actormap/pkg/hashmap/hashfn"
)

type kv struct {
	key string
	val string
}

func kvHash(e kv) uint64   { return hashfn.String(e.key) }
func kvEqual(a, b kv) bool { return a.key == b.key }

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hmx:", err)
		os.Exit(1)
	}
}

func run() error {
	capacity := flag.IntP("capacity", "c", 0, "pre-size the table for at least this many entries")
	flag.Parse()

	r := &REPL{m: hashmap.New[kv](kvHash, kvEqual, hashmap.WithCapacity[kv](*capacity))}
	return r.Run()
}

// REPL wraps a hashmap.Map[kv] with a liner-backed interactive shell.
type REPL struct {
	m     *hashmap.Map[kv]
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hmx_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("hmx - pkg/hashmap CLI")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("hmx> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil

		case "help", "?":
			r.printHelp()

		case "put":
			r.cmdPut(args)

		case "get":
			r.cmdGet(args)

		case "del", "delete":
			r.cmdDelete(args)

		case "scan", "ls", "list":
			r.cmdScan()

		case "len", "count":
			r.cmdLen()

		case "info":
			r.cmdInfo()

		case "sweep":
			r.cmdSweep(args)

		case "optimize":
			r.cmdOptimize()

		case "bulk":
			r.cmdBulk(args)

		case "seq":
			r.cmdSeq(args)

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"put", "get", "del", "delete", "scan", "ls", "list",
		"len", "count", "info", "sweep", "optimize",
		"bulk", "seq", "clear", "cls", "help", "exit", "quit", "q",
	}
	var out []string
	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <key> <value>       Insert or update an entry")
	fmt.Println("  get <key>               Retrieve an entry by key")
	fmt.Println("  del <key>               Delete an entry")
	fmt.Println("  scan                    List all live entries")
	fmt.Println("  len                     Count live entries")
	fmt.Println("  info                    Show table size/compaction state")
	fmt.Println("  sweep <survive%>        Run a keep/drop/optimize pass")
	fmt.Println("  optimize                Run one optimize round if one is due")
	fmt.Println("  bulk <count> [prefix]   Insert N random entries")
	fmt.Println("  seq <count> [start]     Insert N sequential entries")
	fmt.Println("  help                    Show this help")
	fmt.Println("  exit / quit / q         Exit")
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: put <key> <value>")
		return
	}
	prior, had := r.m.Put(kv{key: args[0], val: strings.Join(args[1:], " ")})
	if had {
		fmt.Printf("overwrote %q (was %q)\n", args[0], prior.val)
	} else {
		fmt.Printf("inserted %q\n", args[0])
	}
}

func (r *REPL) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <key>")
		return
	}
	e, idx, found := r.m.Get(kv{key: args[0]})
	if !found {
		fmt.Println("(not found)")
		return
	}
	fmt.Printf("%s (bucket %d)\n", e.val, idx)
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: del <key>")
		return
	}
	e, found := r.m.Remove(kv{key: args[0]})
	if !found {
		fmt.Println("(not found)")
		return
	}
	fmt.Printf("removed %q (was %q)\n", args[0], e.val)
}

func (r *REPL) cmdScan() {
	entries := r.collect()
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, e := range entries {
		fmt.Printf("%s = %s\n", e.key, e.val)
	}
	fmt.Printf("(%d entries)\n", len(entries))
}

func (r *REPL) collect() []kv {
	var out []kv
	idx := hashmap.Begin
	for {
		e, next, ok := r.m.Next(idx)
		if !ok {
			break
		}
		out = append(out, e)
		idx = next
	}
	return out
}

func (r *REPL) cmdLen() {
	fmt.Println(r.m.Size())
}

func (r *REPL) cmdInfo() {
	fmt.Printf("count=%d needs_optimize=%v\n", r.m.Size(), r.m.NeedsOptimize())
}

func (r *REPL) cmdOptimize() {
	if !r.m.NeedsOptimize() {
		fmt.Println("table does not currently need optimization")
		return
	}
	optimized := 0
	idx := hashmap.Begin
	for {
		e, next, ok := r.m.Next(idx)
		if !ok {
			break
		}
		optimized += r.m.OptimizeItem(e, next)
		idx = next
	}
	r.m.FinishOptimize(optimized)
	fmt.Printf("optimized %d entries\n", optimized)
}

func (r *REPL) cmdSweep(args []string) {
	survive := 1.0
	if len(args) == 1 {
		pct, err := strconv.ParseFloat(args[0], 64)
		if err != nil || pct < 0 || pct > 100 {
			fmt.Println("usage: sweep <survive-percent 0..100>")
			return
		}
		survive = pct / 100
	}

	rng := rand.New(rand.NewPCG(uint64(os.Getpid()), 0))
	dropped := 0
	r.m.Sweep(
		func(kv) bool { return rng.Float64() < survive },
		func(kv) { dropped++ },
	)
	fmt.Printf("swept: %d dropped, %d remain\n", dropped, r.m.Size())
}

func (r *REPL) cmdBulk(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: bulk <count> [prefix]")
		return
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 0 {
		fmt.Println("invalid count")
		return
	}
	prefix := "k"
	if len(args) >= 2 {
		prefix = args[1]
	}
	rng := rand.New(rand.NewPCG(uint64(os.Getpid()), 1))
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("%s-%d", prefix, rng.IntN(count*4+1))
		r.m.Put(kv{key: key, val: strconv.Itoa(i)})
	}
	fmt.Printf("inserted up to %d random entries (size now %d)\n", count, r.m.Size())
}

func (r *REPL) cmdSeq(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: seq <count> [start]")
		return
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 0 {
		fmt.Println("invalid count")
		return
	}
	start := 0
	if len(args) >= 2 {
		start, _ = strconv.Atoi(args[1])
	}
	for i := 0; i < count; i++ {
		key := strconv.Itoa(start + i)
		r.m.Put(kv{key: key, val: key})
	}
	fmt.Printf("inserted %d sequential entries (size now %d)\n", count, r.m.Size())
}
