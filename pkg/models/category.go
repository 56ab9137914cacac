package models

import "strings"

// Coarse metric categories derived from metric names. Rules and
// suggested-action catalogs key off these.
const (
	CategoryCompute = "compute"
	CategoryMemory  = "memory"
	CategoryStorage = "storage"
	CategoryNetwork = "network"
	CategoryErrors  = "errors"
	CategoryGeneral = "general"
)

// CategoryOfMetric derives a coarse category from a metric name.
func CategoryOfMetric(name string) string {
	switch {
	case hasAnyPrefix(name, "cpu", "load", "process"):
		return CategoryCompute
	case hasAnyPrefix(name, "mem", "heap", "swap"):
		return CategoryMemory
	case hasAnyPrefix(name, "disk", "fs", "storage", "inode"):
		return CategoryStorage
	case hasAnyPrefix(name, "net", "http", "request", "grpc", "conn"):
		return CategoryNetwork
	case hasAnyPrefix(name, "err", "fail", "drop"):
		return CategoryErrors
	default:
		return CategoryGeneral
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
