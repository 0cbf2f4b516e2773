package main

// dataset_gen.go is a tiny helper utility to generate deterministic
// deduplication workloads for standalone benchmarking of dedupcache (outside
// `go test`). It emits newline-separated keys for one of the three
// deduplication families, drawn from a bounded identity pool so the output
// actually exercises dedup hits rather than being all-unique.
//
// Usage:
//
//	go run ./tools/dataset_gen -kind=node -n 1000000 -unique 50000 -dist=zipf -seed=42 -out keys.txt
//
// Flags:
//
//	-kind    family to generate for: "node", "string" or "template" (default "node")
//	-n       number of operations to generate (default 1e6)
//	-unique  size of the distinct-identity pool operations are drawn from (default 50000)
//	-dist    distribution over the identity pool: "uniform" or "zipf" (default uniform)
//	-zipfs   Zipf s parameter (>1)  (default 1.2)
//	-zipfv   Zipf v parameter (>=1) (default 1.0)
//	-seed    RNG seed (default current time)
//	-out     output file (default stdout)
//
// The program is embarrassingly simple but placed under version control so
// that any contributor can regenerate the exact dataset used in performance
// regression hunting.
//
// © 2025 dedupcache authors. MIT License.

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	var (
		kind    = flag.String("kind", "node", "family: node, string or template")
		n       = flag.Int("n", 1_000_000, "number of operations to generate")
		unique  = flag.Int("unique", 50_000, "size of the distinct-identity pool")
		dist    = flag.String("dist", "uniform", "distribution over the identity pool: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	if *unique <= 0 {
		fmt.Fprintln(os.Stderr, "unique must be > 0")
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(*seedVal))

	var pick func() uint64
	switch *dist {
	case "uniform":
		pick = func() uint64 { return uint64(rnd.Intn(*unique)) }
	case "zipf":
		if *zipfS <= 1.0 || *zipfV < 1.0 {
			fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
			os.Exit(1)
		}
		z := rand.NewZipf(rnd, *zipfS, *zipfV, uint64(*unique-1))
		pick = z.Uint64
	default:
		fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
		os.Exit(1)
	}

	var emit func(w *bufio.Writer, id uint64)
	switch *kind {
	case "node":
		emit = emitNode
	case "string":
		emit = emitString
	case "template":
		emit = emitTemplate
	default:
		fmt.Fprintln(os.Stderr, "unknown kind:", *kind)
		os.Exit(1)
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		emit(w, pick())
	}
}

// emitNode writes a 16-byte StableId, hex-encoded: the low 8 bytes carry id,
// the high 8 bytes are zero (a real writer would derive all 16 from content
// hashing; for load generation the identity pool only needs to be stable and
// collide on repeats).
func emitNode(w *bufio.Writer, id uint64) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], id)
	fmt.Fprintln(w, hex.EncodeToString(buf[:]))
}

func emitString(w *bufio.Writer, id uint64) {
	fmt.Fprintf(w, "str-%d\n", id)
}

func emitTemplate(w *bufio.Writer, id uint64) {
	fmt.Fprintf(w, "shape-%d|%d\n", id, id%8)
}
