package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/zKV/cmd/util"
	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for zKV servers",
		Long:    "Runs parallel benchmarks against a running server. All keys used by the tests start with __test and are removed afterwards.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfRate             = 0
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU issuing requests"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys (or sorted set members) to use for the tests"))
	key = "rate"
	perfTestCmd.Flags().Int(key, 0, util.WrapString("Upper bound of requests per second across all goroutines (0 = unlimited)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfRate = viper.GetInt("rate")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 {
		return fmt.Errorf("keys must be positive")
	}
	if perfNumThreads <= 0 {
		return fmt.Errorf("threads must be positive")
	}

	return nil
}

// perfTest describes one benchmark. prepare runs before the timer starts,
// op is called concurrently from all goroutines.
type perfTest struct {
	name    string
	prepare func(keys []string) error
	op      func(keys []string, i int) error
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	testing.BenchmarkResult
	Skipped bool
	Errors  int64
	P50     time.Duration
	P99     time.Duration
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for zKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	if perfRate > 0 {
		fmt.Printf("Rate: %d req/s\n", perfRate)
	}
	fmt.Println()

	fmt.Println("starting tests...")

	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	zsetKey := perfKeyPrefix + "-zset"

	setAll := func(keys []string) error {
		for _, k := range keys {
			if err := rpcClient.Set(k, "test"); err != nil {
				return err
			}
		}
		return nil
	}
	zaddAll := func(keys []string) error {
		for i, k := range keys {
			if _, err := rpcClient.ZAdd(zsetKey, float64(i), k); err != nil {
				return err
			}
		}
		return nil
	}

	tests := []perfTest{
		{
			name: "set",
			op: func(keys []string, i int) error {
				return rpcClient.Set(keys[i%len(keys)], "test")
			},
		},
		{
			name: "set-large",
			op: func(keys []string, i int) error {
				return rpcClient.Set(keys[i%len(keys)], largeValue)
			},
		},
		{
			name:    "get",
			prepare: setAll,
			op: func(keys []string, i int) error {
				_, _, err := rpcClient.Get(keys[i%len(keys)])
				return err
			},
		},
		{
			name:    "del",
			prepare: setAll,
			op: func(keys []string, i int) error {
				_, err := rpcClient.Del(keys[i%len(keys)])
				return err
			},
		},
		{
			name: "zadd",
			op: func(keys []string, i int) error {
				_, err := rpcClient.ZAdd(zsetKey, float64(i), keys[i%len(keys)])
				return err
			},
		},
		{
			name:    "zscore",
			prepare: zaddAll,
			op: func(keys []string, i int) error {
				_, _, err := rpcClient.ZScore(zsetKey, keys[i%len(keys)])
				return err
			},
		},
		{
			name:    "zquery",
			prepare: zaddAll,
			op: func(keys []string, i int) error {
				_, err := rpcClient.ZQuery(zsetKey, float64(i%len(keys)), "", 0, 10)
				return err
			},
		},
		{
			name:    "mixed",
			prepare: setAll,
			op: func(keys []string, i int) error {
				key := keys[i%len(keys)]
				var err error
				switch i % 4 {
				case 0:
					err = rpcClient.Set(key, "test")
				case 1:
					_, _, err = rpcClient.Get(key)
				case 2:
					_, err = rpcClient.Del(key)
				case 3:
					_, err = rpcClient.ZAdd(zsetKey, float64(i), key)
				}
				return err
			},
		},
	}

	results := make(map[string]perfResult, len(tests))
	for _, test := range tests {
		result := runPerfTest(test, zsetKey)
		results[test.name] = result
		printResult(test.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runPerfTest runs one benchmark with testing.Benchmark and collects
// latency percentiles and per error counts on the side
func runPerfTest(test perfTest, zsetKey string) perfResult {
	if shouldSkip(test.name) {
		return perfResult{Skipped: true}
	}

	keys := getKeys(test.name)
	timer := gometrics.NewTimer()
	defer timer.Stop()
	errorCounts := xsync.NewMapOf[string, *xsync.Counter]()

	limiter := rate.NewLimiter(rate.Inf, 0)
	if perfRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(perfRate), perfNumThreads)
	}

	if test.prepare != nil {
		if err := test.prepare(keys); err != nil {
			fmt.Printf("(%s) - error preparing keys: %v\n", test.name, err)
			return perfResult{Skipped: true}
		}
	}

	result := testing.Benchmark(func(b *testing.B) {
		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if err := limiter.Wait(context.Background()); err != nil {
					countError(errorCounts, err)
					continue
				}
				start := time.Now()
				err := test.op(keys, counter)
				timer.UpdateSince(start)
				if err != nil {
					countError(errorCounts, err)
				}
				counter++
			}
		})
	})

	// cleanup
	for _, k := range keys {
		if _, err := rpcClient.Del(k); err != nil {
			fmt.Printf("(%s) - error deleting key: %v\n", test.name, err)
		}
	}
	if _, err := rpcClient.Del(zsetKey); err != nil {
		fmt.Printf("(%s) - error deleting key: %v\n", test.name, err)
	}

	var errCount int64
	errorCounts.Range(func(msg string, c *xsync.Counter) bool {
		fmt.Printf("(%s) - %d errors: %s\n", test.name, c.Value(), msg)
		errCount += c.Value()
		return true
	})

	ps := timer.Percentiles([]float64{0.5, 0.99})
	return perfResult{
		BenchmarkResult: result,
		Errors:          errCount,
		P50:             time.Duration(ps[0]),
		P99:             time.Duration(ps[1]),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// countError groups errors by message
func countError(counts *xsync.MapOf[string, *xsync.Counter], err error) {
	c, _ := counts.LoadOrCompute(err.Error(), xsync.NewCounter)
	c.Inc()
}

// getKeys creates the test keys of one benchmark
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.Skipped || result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s\terrors=%d\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, result.P50, result.P99, result.Errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Errors", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint", "Transport",
		"Threads", "Rate", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	tests := make([]string, 0, len(results))
	for test := range results {
		tests = append(tests, test)
	}
	sort.Strings(tests)

	// Write test results
	for _, test := range tests {
		result := results[test]
		var nsPerOp float64
		var opsPerSec float64
		skipped := result.Skipped || result.NsPerOp() == 0

		if !skipped {
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			result.P50.String(),
			result.P99.String(),
			strconv.FormatInt(result.Errors, 10),
			strconv.FormatBool(skipped),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfRate),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
