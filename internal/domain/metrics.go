package domain

import (
	"strings"
	"time"
)

// Namespace scopes a group of Resque queues and counters inside the store.
type Namespace string

// WildcardGlyph marks a namespace pattern that must be expanded against the store.
const WildcardGlyph = "*"

// IsPattern reports whether ns has to be expanded before use.
func (ns Namespace) IsPattern() bool {
	return strings.Contains(string(ns), WildcardGlyph)
}

func (ns Namespace) String() string { return string(ns) }

// Unit is the measurement unit attached to a data point.
type Unit string

const (
	// UnitCount is the only unit queue statistics are reported in.
	UnitCount Unit = "Count"
)

// Dimension is one name/value pair qualifying a data point.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

const (
	// DimensionNamespace carries the store namespace of a point.
	DimensionNamespace = "namespace"
	// DimensionQueue carries the queue name of per-queue points.
	DimensionQueue = "queue"
)

// DataPoint describes a single sample published to the monitoring backend.
type DataPoint struct {
	MetricName string      `json:"metric_name"`
	Dimensions []Dimension `json:"dimensions"`
	Timestamp  time.Time   `json:"timestamp"`
	Value      float64     `json:"value"`
	Unit       Unit        `json:"unit"`
}

// Batch is a bounded run of data points sent in one backend write.
type Batch []DataPoint
