package logger

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	errorsSession   int64
	errorsCollector int64
	warnsSession    int64
	warnsCollector  int64
	reconnects      int64
	retryAttempts   int64
	emptyResults    int64
	rowsFetched     int64
)

func recordWarn(component string) {
	if strings.Contains(component, "collector") {
		atomic.AddInt64(&warnsCollector, 1)
	} else {
		atomic.AddInt64(&warnsSession, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "collector") {
		atomic.AddInt64(&errorsCollector, 1)
	} else {
		atomic.AddInt64(&errorsSession, 1)
	}
}

// IncrementReconnect counts one session reconnection.
func IncrementReconnect() {
	atomic.AddInt64(&reconnects, 1)
}

// IncrementRetryAttempt counts one retried remote call.
func IncrementRetryAttempt() {
	atomic.AddInt64(&retryAttempts, 1)
}

// IncrementEmptyResult counts one remote call that came back empty after
// retries were exhausted.
func IncrementEmptyResult() {
	atomic.AddInt64(&emptyResults, 1)
}

// AddRowsFetched counts rows adapted into tables.
func AddRowsFetched(n int) {
	atomic.AddInt64(&rowsFetched, int64(n))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and session statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_session":   atomic.LoadInt64(&errorsSession),
		"errors_collector": atomic.LoadInt64(&errorsCollector),
		"warns_session":    atomic.LoadInt64(&warnsSession),
		"warns_collector":  atomic.LoadInt64(&warnsCollector),
		"reconnects":       atomic.LoadInt64(&reconnects),
		"retry_attempts":   atomic.LoadInt64(&retryAttempts),
		"empty_results":    atomic.LoadInt64(&emptyResults),
		"rows_fetched":     atomic.LoadInt64(&rowsFetched),
		"goroutines":       runtime.NumGoroutine(),
		"cpu_percent":      cpuPct,
		"memory_mb":        int64(memStats.Used) / 1024 / 1024,
		"disk_mb":          int64(diskStats.Used) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsSession"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_session"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsCollector"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_collector"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Reconnects"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["reconnects"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RetryAttempts"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["retry_attempts"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("EmptyResults"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["empty_results"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RowsFetched"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["rows_fetched"].(int64)))},
	)

	publishMetrics(ctx, data)
}
