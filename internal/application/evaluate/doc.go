// Package evaluate runs one evaluation: it fixes the target port, fans the
// probes out concurrently, collects their outcomes through a single inbox and
// applies the decision policy to the finished report.
package evaluate
