package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type loadMode string

const (
	modeAdd   loadMode = "add"
	modeMixed loadMode = "mixed"
)

type config struct {
	addr        string
	total       int
	concurrency int
	timeout     time.Duration
	mode        loadMode
	products    []int
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type operationReport struct {
	Calls     int64          `json:"calls"`
	Failed    int64          `json:"failed"`
	ErrorRate float64        `json:"error_rate"`
	Statuses  map[int]int64  `json:"statuses"`
	LatencyMs latencySummary `json:"latency_ms"`
}

type report struct {
	StartedAt       time.Time                  `json:"started_at"`
	DurationSeconds float64                    `json:"duration_seconds"`
	Requests        int64                      `json:"requests"`
	RPS             float64                    `json:"rps"`
	Operations      map[string]operationReport `json:"operations"`
	FinalLineItems  int                        `json:"final_line_items"`
	FinalUnits      int                        `json:"final_units"`
	Notifications   int                        `json:"notifications"`
}

type collector struct {
	mu        sync.Mutex
	latencies map[string][]float64
	statuses  map[string]map[int]int64
	failed    map[string]int64
}

func newCollector() *collector {
	return &collector{
		latencies: make(map[string][]float64),
		statuses:  make(map[string]map[int]int64),
		failed:    make(map[string]int64),
	}
}

// record учитывает один вызов; status=0 означает транспортную ошибку.
func (c *collector) record(op string, latency time.Duration, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latencies[op] = append(c.latencies[op], float64(latency.Microseconds())/1000.0)
	if c.statuses[op] == nil {
		c.statuses[op] = make(map[int]int64)
	}
	c.statuses[op][status]++
	if status < 200 || status >= 300 {
		c.failed[op]++
	}
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt,
		DurationSeconds: duration.Seconds(),
		Operations:      make(map[string]operationReport, len(c.latencies)),
	}
	for op, values := range c.latencies {
		calls := int64(len(values))
		result.Requests += calls
		result.Operations[op] = operationReport{
			Calls:     calls,
			Failed:    c.failed[op],
			ErrorRate: ratio(c.failed[op], calls),
			Statuses:  c.statuses[op],
			LatencyMs: buildLatencySummary(values),
		}
	}
	if duration > 0 {
		result.RPS = float64(result.Requests) / duration.Seconds()
	}
	return result
}

func parseConfig(args []string) (config, error) {
	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := config{}
	var mode, products string
	fs.StringVar(&cfg.addr, "addr", "http://localhost:8080", "cart API base URL")
	fs.IntVar(&cfg.total, "requests", 200, "total number of cart operations")
	fs.IntVar(&cfg.concurrency, "concurrency", 16, "parallel workers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&mode, "mode", string(modeAdd), "add|mixed")
	fs.StringVar(&products, "products", "1,2,3", "comma separated product ids")
	fs.StringVar(&cfg.outputPath, "out", "", "optional JSON report path")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	switch loadMode(strings.ToLower(strings.TrimSpace(mode))) {
	case modeAdd:
		cfg.mode = modeAdd
	case modeMixed:
		cfg.mode = modeMixed
	default:
		return config{}, fmt.Errorf("unsupported mode %q (use add|mixed)", mode)
	}
	if cfg.total <= 0 {
		return config{}, errors.New("requests must be > 0")
	}
	if cfg.concurrency <= 0 {
		return config{}, errors.New("concurrency must be > 0")
	}
	for _, raw := range strings.Split(products, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid product id %q: %w", raw, err)
		}
		cfg.products = append(cfg.products, id)
	}
	if len(cfg.products) == 0 {
		return config{}, errors.New("at least one product id is required")
	}
	cfg.addr = strings.TrimRight(cfg.addr, "/")
	return cfg, nil
}

// operationFor выбирает операцию для i-го запроса.
func operationFor(mode loadMode, i int) (method, op string) {
	if mode == modeAdd {
		return http.MethodPost, "add"
	}
	switch i % 4 {
	case 0, 1:
		return http.MethodPost, "add"
	case 2:
		return http.MethodPut, "update"
	default:
		return http.MethodDelete, "remove"
	}
}

func runLoad(ctx context.Context, client *http.Client, cfg config) report {
	c := newCollector()
	startedAt := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i := 0; i < cfg.total; i++ {
		i := i
		g.Go(func() error {
			method, op := operationFor(cfg.mode, i)
			productID := cfg.products[i%len(cfg.products)]

			var body io.Reader
			if method == http.MethodPut {
				body = strings.NewReader(fmt.Sprintf(`{"amount":%d}`, 1+i%3))
			}

			start := time.Now()
			status := call(gctx, client, method, fmt.Sprintf("%s/cart/products/%d", cfg.addr, productID), body)
			c.record(op, time.Since(start), status)
			return nil
		})
	}
	_ = g.Wait()

	result := c.buildReport(startedAt, time.Since(startedAt))

	var final struct {
		LineItems int `json:"line_items"`
		Units     int `json:"units"`
	}
	if err := getJSON(ctx, client, cfg.addr+"/cart", &final); err == nil {
		result.FinalLineItems = final.LineItems
		result.FinalUnits = final.Units
	}
	var notifications []json.RawMessage
	if err := getJSON(ctx, client, cfg.addr+"/notifications", &notifications); err == nil {
		result.Notifications = len(notifications)
	}
	return result
}

func call(ctx context.Context, client *http.Client, method, url string, body io.Reader) int {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func writeJSONReport(path string, result report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printReport(w io.Writer, result report) {
	_, _ = fmt.Fprintf(w, "requests=%d duration=%.2fs rps=%.1f\n", result.Requests, result.DurationSeconds, result.RPS)

	ops := make([]string, 0, len(result.Operations))
	for op := range result.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		r := result.Operations[op]
		_, _ = fmt.Fprintf(w, "  %-7s calls=%d failed=%d p50=%.2fms p95=%.2fms p99=%.2fms\n",
			op, r.Calls, r.Failed, r.LatencyMs.P50, r.LatencyMs.P95, r.LatencyMs.P99)
	}
	_, _ = fmt.Fprintf(w, "final cart: line_items=%d units=%d notifications=%d\n",
		result.FinalLineItems, result.FinalUnits, result.Notifications)
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(2)
	}

	client := &http.Client{Timeout: cfg.timeout}
	result := runLoad(context.Background(), client, cfg)
	printReport(os.Stdout, result)

	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "write report: %v\n", err)
			os.Exit(1)
		}
	}
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
