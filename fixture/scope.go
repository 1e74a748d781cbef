// Package fixture tracks resources created during a check so they can be
// removed on every exit path.
package fixture

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ReleaseFunc removes one resource
type ReleaseFunc func(ctx context.Context) error

type entry struct {
	key     string
	release ReleaseFunc
}

// Scope releases its resources in reverse acquisition order when closed
type Scope struct {
	mu      sync.Mutex
	name    string
	entries []entry
	log     logrus.FieldLogger
}

// NewScope creates an empty scope
func NewScope(name string, logger logrus.FieldLogger) *Scope {
	return &Scope{name: name, log: logger.WithField("scope", name)}
}

// Acquire registers a resource under key
func (s *Scope) Acquire(key string, release ReleaseFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{key: key, release: release})
}

// Forget drops a resource that was already removed by the caller
func (s *Scope) Forget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].key == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of resources still held
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases every remaining resource, newest first. All releases are
// attempted; failures are logged and returned together.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()

	var result *multierror.Error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.release(ctx); err != nil {
			s.log.WithError(err).WithField("resource", e.key).Warn("cleanup failed")
			result = multierror.Append(result, errors.Wrapf(err, "release %s", e.key))
			continue
		}
		s.log.WithField("resource", e.key).Debug("released")
	}
	return result.ErrorOrNil()
}
