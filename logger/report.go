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
	errorsDispatch int64
	errorsIngest   int64
	errorsPoll     int64
	warnsDispatch  int64
	warnsIngest    int64
	warnsPoll      int64
	dispatches     int64
	ingests        int64
	pollsServed    int64
	pollMisses     int64
)

func recordWarn(component string) {
	switch {
	case strings.Contains(component, "dispatch"):
		atomic.AddInt64(&warnsDispatch, 1)
	case strings.Contains(component, "ingest"):
		atomic.AddInt64(&warnsIngest, 1)
	case strings.Contains(component, "poll"):
		atomic.AddInt64(&warnsPoll, 1)
	}
}

func recordError(component string) {
	switch {
	case strings.Contains(component, "dispatch"):
		atomic.AddInt64(&errorsDispatch, 1)
	case strings.Contains(component, "ingest"):
		atomic.AddInt64(&errorsIngest, 1)
	case strings.Contains(component, "poll"):
		atomic.AddInt64(&errorsPoll, 1)
	}
}

// IncrementDispatch counts one forwarded initiating action.
func IncrementDispatch() {
	atomic.AddInt64(&dispatches, 1)
}

// IncrementIngest counts one persisted callback record.
func IncrementIngest() {
	atomic.AddInt64(&ingests, 1)
}

// IncrementPollServed counts one poll answered with a payload.
func IncrementPollServed() {
	atomic.AddInt64(&pollsServed, 1)
}

// IncrementPollMiss counts one poll that found no record yet.
func IncrementPollMiss() {
	atomic.AddInt64(&pollMisses, 1)
}

// StartReport begins periodic logging of system and relay statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
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

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_dispatch": atomic.LoadInt64(&errorsDispatch),
		"errors_ingest":   atomic.LoadInt64(&errorsIngest),
		"errors_poll":     atomic.LoadInt64(&errorsPoll),
		"warns_dispatch":  atomic.LoadInt64(&warnsDispatch),
		"warns_ingest":    atomic.LoadInt64(&warnsIngest),
		"warns_poll":      atomic.LoadInt64(&warnsPoll),
		"dispatches":      atomic.LoadInt64(&dispatches),
		"ingests":         atomic.LoadInt64(&ingests),
		"polls_served":    atomic.LoadInt64(&pollsServed),
		"poll_misses":     atomic.LoadInt64(&pollMisses),
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"disk_mb":         int64(diskStats.Used) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("Relay-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("Relay-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("Relay-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("Relay-Dispatches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&dispatches)))},
		{MetricName: aws.String("Relay-Ingests"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&ingests)))},
		{MetricName: aws.String("Relay-PollsServed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&pollsServed)))},
		{MetricName: aws.String("Relay-PollMisses"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&pollMisses)))},
		{MetricName: aws.String("Relay-ErrorsDispatch"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsDispatch)))},
		{MetricName: aws.String("Relay-ErrorsIngest"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsIngest)))},
		{MetricName: aws.String("Relay-ErrorsPoll"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsPoll)))},
	}

	publishMetrics(ctx, data)
}
