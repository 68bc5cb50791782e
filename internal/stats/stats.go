// Package stats aggregates per-operation latency the way the reference
// harness does: github.com/grd/stat computes mean and standard
// deviation over a slice of samples satisfying its Data interface.
package stats

import (
	"time"

	"github.com/grd/stat"
)

// DurationSlice adapts a []time.Duration to grd/stat's Data interface
// (Get(i) float64, Len() int), measuring every sample in nanoseconds.
type DurationSlice []time.Duration

func (d DurationSlice) Get(i int) float64 { return float64(d[i]) }
func (d DurationSlice) Len() int          { return len(d) }

// Summary is the mean and standard deviation of a batch of latency
// samples, in seconds.
type Summary struct {
	MeanSeconds   float64
	StdDevSeconds float64
	Samples       int
}

const nanoToSeconds = 1e-9

// Summarize computes the mean and standard deviation of durations,
// mirroring the reference harness's reporting of
// "mean(latency) = ..., sd(latency) = ...".
func Summarize(durations []time.Duration) Summary {
	if len(durations) == 0 {
		return Summary{}
	}

	data := DurationSlice(durations)
	mean := stat.Mean(data)
	sd := stat.SdMean(data, mean)

	return Summary{
		MeanSeconds:   mean * nanoToSeconds,
		StdDevSeconds: sd * nanoToSeconds,
		Samples:       len(durations),
	}
}

// Throughput reports operations per second given a total duration over
// which n operations ran.
func Throughput(n int, total time.Duration) float64 {
	seconds := total.Seconds()
	if seconds == 0 {
		return 0
	}
	return float64(n) / seconds
}
