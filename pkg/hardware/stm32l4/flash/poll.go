// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

import (
	"time"
)

// waitIdle spins on FLASH_SR until BSY clears. It does not sleep or yield:
// while the controller is busy, instruction fetches from flash stall anyway.
func (f *Flash) waitIdle(op string) error {
	var deadline time.Time
	if f.poll.Timeout > 0 {
		deadline = f.clk.Now().Add(f.poll.Timeout)
	}
	n := 1
	for ; ; n++ {
		if !f.ReadStatus().Busy() {
			pollIterations.WithLabelValues(op).Observe(float64(n))
			return nil
		}
		if f.poll.MaxIterations > 0 && n >= f.poll.MaxIterations {
			break
		}
		if f.poll.Timeout > 0 && !f.clk.Now().Before(deadline) {
			break
		}
	}
	log.Warnf("Flash %s still busy after %d status reads", op, n)
	return ErrTimeout
}
