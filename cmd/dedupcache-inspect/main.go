package main

// main.go implements the dedupcache inspector CLI: it parses command-line
// flags, fetches diagnostic data from a target process exposing dedupcache's
// debug endpoint, and prints it either as pretty text or JSON. It also
// supports periodic watch mode and pprof snapshot download.
//
// The target Go service is expected to expose:
//   - GET /debug/dedupcache/snapshot    - JSON payload with StatsView data per family.
//   - GET /debug/pprof/{heap,goroutine} - standard pprof handlers (net/http/pprof).
//
// The snapshot object is intentionally generic; we decode into map[string]any
// to avoid version skew between CLI and library.
//
// © 2025 dedupcache authors. MIT License.

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var version = "dev"

type options struct {
	target           string
	json             bool
	watch            bool
	interval         time.Duration
	heapProfile      string
	goroutineProfile string
	version          bool
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.target, "target", "http://localhost:8080", "base URL of the process exposing /debug/dedupcache/snapshot")
	flag.BoolVar(&opts.json, "json", false, "print the raw JSON snapshot instead of a formatted summary")
	flag.BoolVar(&opts.watch, "watch", false, "poll the snapshot endpoint repeatedly at -interval")
	flag.DurationVar(&opts.interval, "interval", 5*time.Second, "polling interval used with -watch")
	flag.StringVar(&opts.heapProfile, "heap-profile", "", "download a heap pprof profile to this path and exit")
	flag.StringVar(&opts.goroutineProfile, "goroutine-profile", "", "download a goroutine pprof profile to this path and exit")
	flag.BoolVar(&opts.version, "version", false, "print the CLI version and exit")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	if opts.version {
		fmt.Println(version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	insp := &inspector{opts: opts}
	if err := insp.run(ctx); err != nil {
		fatal(err)
	}
}

// inspector bundles the CLI's runtime state — just the parsed flags — behind
// the handful of steps a single invocation can take: a pprof dump, a single
// snapshot dump, or a repeating one under -watch.
type inspector struct {
	opts *options
}

func (insp *inspector) run(ctx context.Context) error {
	o := insp.opts

	// pprof dump takes precedence over watch/json.
	if o.heapProfile != "" {
		return insp.downloadProfile(ctx, "heap", o.heapProfile)
	}
	if o.goroutineProfile != "" {
		return insp.downloadProfile(ctx, "goroutine", o.goroutineProfile)
	}

	if !o.watch {
		return insp.dumpOnce(ctx)
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		if err := insp.dumpOnce(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return nil
		}
	}
}

func (insp *inspector) dumpOnce(ctx context.Context) error {
	snap, err := insp.fetchSnapshot(ctx)
	if err != nil {
		return err
	}
	if insp.opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return prettyPrint(snap)
}

func (insp *inspector) fetchSnapshot(ctx context.Context) (map[string]any, error) {
	res, err := httpGet(ctx, insp.opts.target+"/debug/dedupcache/snapshot")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func (insp *inspector) downloadProfile(ctx context.Context, name, path string) error {
	res, err := httpGet(ctx, fmt.Sprintf("%s/debug/pprof/%s", insp.opts.target, name))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		return err
	}
	fmt.Printf("%s profile saved to %s\n", name, path)
	return nil
}

// httpGet is the one place an HTTP GET against the target process is issued
// and status-checked; fetchSnapshot and downloadProfile differ only in what
// they do with a successful response body.
func httpGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status %s fetching %s", res.Status, url)
	}
	return res, nil
}

// prettyPrint assumes the snapshot nests per-family objects under "string",
// "template" and "node" keys, each carrying the snake_case fields "hits",
// "misses", "eviction_count", "total_size", "total_weight" and "hit_rate",
// plus an optional top-level "node_occupancy" string.
func prettyPrint(data map[string]any) error {
	for _, family := range []string{"string", "template", "node"} {
		fam, _ := data[family].(map[string]any)
		if fam == nil {
			continue
		}
		fmt.Printf("%s:\n", family)
		fmt.Printf("  hits:        %v\n", fam["hits"])
		fmt.Printf("  misses:      %v\n", fam["misses"])
		fmt.Printf("  evictions:   %v\n", fam["eviction_count"])
		fmt.Printf("  size:        %v\n", fam["total_size"])
		fmt.Printf("  weight:      %v\n", fam["total_weight"])
		fmt.Printf("  hit-rate:    %.4f\n", toFloat(fam["hit_rate"]))
	}
	if occ, ok := data["node_occupancy"].(string); ok && occ != "" {
		fmt.Printf("occupancy: %s\n", occ)
	}
	return nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "dedupcache-inspect:", err)
	os.Exit(1)
}
