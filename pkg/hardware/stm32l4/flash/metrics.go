// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	opsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stm32l4",
		Subsystem: "flash",
		Name:      "operations_total",
		Help:      "Flash controller operations attempted",
	}, []string{"op"})
	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stm32l4",
		Subsystem: "flash",
		Name:      "errors_total",
		Help:      "Flash controller operations that failed, by error",
	}, []string{"op", "error"})
	pollIterations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stm32l4",
		Subsystem: "flash",
		Name:      "poll_iterations",
		Help:      "Status register reads until the controller went idle",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(opsTotal)
	prometheus.MustRegister(errorsTotal)
	prometheus.MustRegister(pollIterations)
}

func observe(op string, err error) error {
	opsTotal.WithLabelValues(op).Inc()
	if err != nil {
		errorsTotal.WithLabelValues(op, errorKind(err)).Inc()
	}
	return err
}
