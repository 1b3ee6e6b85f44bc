// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package placement

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "bundleplacer"

// Collector is a prometheus.Collector reporting the state of an Engine.
type Collector struct {
	engine *Engine

	charmsDesc      *prometheus.Desc
	unplacedDesc    *prometheus.Desc
	assignmentsDesc *prometheus.Desc
	machinesDesc    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector for the engine.
func NewCollector(engine *Engine) *Collector {
	return &Collector{
		engine: engine,
		charmsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "placement", "charms"),
			"Number of charms in each placement state.",
			[]string{"state"},
			nil,
		),
		unplacedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "placement", "unplaced_charms"),
			"Number of required charms neither assigned to a machine nor deployed.",
			nil,
			nil,
		),
		assignmentsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "placement", "assignments"),
			"Number of assignments to real machines by assignment type.",
			[]string{"type"},
			nil,
		),
		machinesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "placement", "machines"),
			"Number of machines in the current inventory snapshot.",
			[]string{"status"},
			nil,
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.charmsDesc
	ch <- c.unplacedDesc
	ch <- c.assignmentsDesc
	ch <- c.machinesDesc
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()
	for state, count := range stats.CharmsByState {
		ch <- prometheus.MustNewConstMetric(c.charmsDesc, prometheus.GaugeValue, float64(count), string(state))
	}
	ch <- prometheus.MustNewConstMetric(c.unplacedDesc, prometheus.GaugeValue, float64(stats.Unplaced))
	for t, count := range stats.AssignmentsByType {
		ch <- prometheus.MustNewConstMetric(c.assignmentsDesc, prometheus.GaugeValue, float64(count), t.String())
	}
	ch <- prometheus.MustNewConstMetric(c.machinesDesc, prometheus.GaugeValue, float64(stats.ReadyMachines), "ready")
	ch <- prometheus.MustNewConstMetric(c.machinesDesc, prometheus.GaugeValue, float64(stats.Machines-stats.ReadyMachines), "other")
}
