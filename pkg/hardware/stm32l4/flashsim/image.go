// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flashsim

import (
	"fmt"

	"github.com/spf13/afero"
)

// Load replaces the flash array with the contents of path.
func (c *Controller) Load(fs afero.Fs, path string) error {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if len(b) != len(c.mem) {
		return fmt.Errorf("flash image %q is %d bytes, expected %d", path, len(b), len(c.mem))
	}
	copy(c.mem, b)
	return nil
}

// Save writes the flash array to path.
func (c *Controller) Save(fs afero.Fs, path string) error {
	return afero.WriteFile(fs, path, c.mem, 0644)
}
