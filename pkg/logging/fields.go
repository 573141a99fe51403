package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Domain field constructors

// Worker tags a line with the worker id that produced it.
func Worker(id int) Field {
	return Field{Key: "worker", Value: id}
}

// Phase tags a line with the driver phase (load, execute, cleanup, ...).
func Phase(name string) Field {
	return Field{Key: "phase", Value: name}
}

// Library tags a line with the system under test.
func Library(name string) Field {
	return Field{Key: "library", Value: name}
}

// Ops records an operation count.
func Ops(n uint64) Field {
	return Field{Key: "ops", Value: n}
}

// Throughput records an operations-per-second rate.
func Throughput(opsPerSec float64) Field {
	return Field{Key: "ops_per_sec", Value: opsPerSec}
}
