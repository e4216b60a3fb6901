// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flash

// Unlocked is proof that the controller is unlocked, and the only way to
// program or erase. It forwards the read side of the Flash, but not Lock,
// Unlock or Free.
type Unlocked struct {
	f      *Flash
	relock bool
	closed bool
}

// UnlockGuard unlocks the controller if needed. Close on the returned guard
// locks it again, unless it was already unlocked when the guard was taken.
// Only one guard should be held at a time.
func (f *Flash) UnlockGuard() (*Unlocked, error) {
	locked := f.IsLocked()
	if locked {
		f.Unlock()
		if f.IsLocked() {
			return nil, observe("unlock", &OpError{Op: "unlock", Page: -1, Err: ErrUnlockFailed})
		}
	}
	observe("unlock", nil)
	log.Debugf("Flash unlock guard taken (relock: %v)", locked)
	return &Unlocked{f: f, relock: locked}, nil
}

// Close restores the lock state seen by UnlockGuard. Calling it again does
// nothing.
func (u *Unlocked) Close() {
	if u.closed {
		return
	}
	u.closed = true
	if u.relock {
		u.f.Lock()
	}
	log.Debugf("Flash unlock guard released (relocked: %v)", u.relock)
}

// WithUnlocked runs fn with the controller unlocked and restores the lock
// state however fn returns, including by panic.
func (f *Flash) WithUnlocked(fn func(*Unlocked) error) error {
	u, err := f.UnlockGuard()
	if err != nil {
		return err
	}
	defer u.Close()
	return fn(u)
}

func (u *Unlocked) active(op string) {
	if u.closed {
		log.Panicf("flash: %s through a closed unlock guard", op)
	}
}

func (u *Unlocked) Read(a uintptr, buf []byte)            { u.f.Read(a, buf) }
func (u *Unlocked) ReadNative(a uintptr) [NativeUnit]byte { return u.f.ReadNative(a) }
func (u *Unlocked) ReadStatus() Status                    { return u.f.ReadStatus() }
func (u *Unlocked) Status() error                         { return u.f.Status() }
func (u *Unlocked) IsLocked() bool                        { return u.f.IsLocked() }
func (u *Unlocked) PageAddress(page int) uintptr          { return u.f.PageAddress(page) }
func (u *Unlocked) PageOf(a uintptr) int                  { return u.f.PageOf(a) }
func (u *Unlocked) Size() int                             { return u.f.Size() }
