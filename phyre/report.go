package phyre

import (
	"fmt"
	"sort"
	"strings"
)

// Report counts decoded and skipped items and collects non fatal problems.
// It is produced for every decode, successful or not.
type Report struct {
	Decoded  map[string]int
	Skipped  map[string]int
	Warnings []error
}

func NewReport() *Report {
	return &Report{
		Decoded: make(map[string]int),
		Skipped: make(map[string]int),
	}
}

func (r *Report) Warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

func (r *Report) AddDecoded(what string, n int) {
	r.Decoded[what] += n
}

func (r *Report) AddSkipped(what string, n int) {
	r.Skipped[what] += n
}

func (r *Report) Merge(o *Report) {
	if o == nil {
		return
	}
	for k, v := range o.Decoded {
		r.Decoded[k] += v
	}
	for k, v := range o.Skipped {
		r.Skipped[k] += v
	}
	r.Warnings = append(r.Warnings, o.Warnings...)
}

func (r *Report) Clean() bool {
	return len(r.Warnings) == 0 && len(r.Skipped) == 0
}

func formatCounts(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "decoded: %s\n", formatCounts(r.Decoded))
	fmt.Fprintf(&sb, "skipped: %s\n", formatCounts(r.Skipped))
	fmt.Fprintf(&sb, "warnings: %d\n", len(r.Warnings))
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "  - %v\n", w)
	}
	return sb.String()
}
