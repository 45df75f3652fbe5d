package vkframe

import (
	"github.com/pkg/errors"
)

// Lifetime owns a set of device objects and releases them together. Release
// first waits for the device to go idle and only then destroys, newest
// first, so nothing is destroyed while the GPU may still use it.
type Lifetime struct {
	idle     func() error
	release  []func()
	released bool
}

// NewLifetime creates a lifetime whose release waits on idle
func NewLifetime(idle func() error) *Lifetime {
	return &Lifetime{idle: idle}
}

// Own registers d for destruction
func (l *Lifetime) Own(d IDestructable) {
	l.OwnFunc(d.Destroy)
}

// OwnFunc registers fn to run on release
func (l *Lifetime) OwnFunc(fn func()) {
	l.release = append(l.release, fn)
}

// Len is the number of registered objects not yet released
func (l *Lifetime) Len() int {
	return len(l.release)
}

// Release waits for the device to go idle and destroys every owned object in
// reverse order of registration. If the wait fails nothing is destroyed.
// Releasing twice is a no-op.
func (l *Lifetime) Release() error {
	if l.released {
		return nil
	}
	if l.idle != nil {
		err := l.idle()
		if err != nil {
			return errors.Wrap(err, "wait for device idle before release")
		}
	}
	for i := len(l.release) - 1; i >= 0; i-- {
		l.release[i]()
	}
	l.release = nil
	l.released = true
	return nil
}
