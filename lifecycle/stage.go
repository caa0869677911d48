/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package lifecycle gives every cmd/* binary the same shape: start
// dependencies with bounded retry, run workers, wait for a signal, drain,
// stop in reverse order. This is the one pattern every service in
// original_source's main.py repeats by hand; here it's factored once.
package lifecycle

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/utils"
)

const (
	// DefaultRetryAttempts/Interval bound every "start this dependency"
	// call: bus producer/consumer connect, store reachability probe, etc.
	DefaultRetryAttempts = 10
	DefaultRetryInterval = 5 * time.Second

	// DefaultDrainTimeout bounds how long Drain waits for in-flight work
	// once a termination signal has been observed.
	DefaultDrainTimeout = 30 * time.Second
)

// Closer is anything a Stage must shut down on exit, in the reverse of
// the order it was added — sockets, bus clients, store clients.
type Closer interface {
	Close() error
}

// Stage orchestrates one binary's startup/shutdown lifecycle.
type Stage struct {
	Name string
	Log  *log.Logger

	mtx     sync.Mutex
	closers []Closer
	wg      sync.WaitGroup
}

// New builds a Stage. lg is logged against for every lifecycle event.
func New(name string, lg *log.Logger) *Stage {
	return &Stage{Name: name, Log: lg}
}

// Retry calls fn up to attempts times, sleeping interval between failures.
// It is how every Stage brings up a bus producer, consumer, or store probe:
// infra that may not be up yet when the process starts.
func Retry(attempts int, interval time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("exhausted %d attempts: %w", attempts, err)
}

// StartDep runs Retry with the Stage's default budget, logging each
// failed attempt and the final outcome.
func (s *Stage) StartDep(depName string, fn func() error) error {
	attempt := 0
	err := Retry(DefaultRetryAttempts, DefaultRetryInterval, func() error {
		attempt++
		e := fn()
		if e != nil {
			s.Log.Warn("dependency start attempt failed",
				log.KV("dependency", depName), log.KV("attempt", attempt), log.KVErr(e))
		}
		return e
	})
	if err != nil {
		s.Log.Error("dependency exhausted retry budget", log.KV("dependency", depName), log.KVErr(err))
		return err
	}
	s.Log.Info("dependency started", log.KV("dependency", depName))
	return nil
}

// AddCloser registers a resource to be closed, in reverse registration
// order, when the Stage stops.
func (s *Stage) AddCloser(c Closer) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.closers = append(s.closers, c)
}

// Go runs fn in a tracked goroutine; Drain waits for all of them.
func (s *Stage) Go(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// WaitForQuit blocks until an OS termination signal arrives.
func (s *Stage) WaitForQuit() os.Signal {
	return utils.WaitForQuit()
}

// Drain waits up to timeout for every Go-tracked worker to finish.
func (s *Stage) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.Log.Info("drain complete")
	case <-time.After(timeout):
		s.Log.Warn("drain window exceeded, forcing close", log.KV("timeout", timeout.String()))
	}
}

// Stop closes every registered Closer in reverse order, collecting but
// not stopping on individual errors.
func (s *Stage) Stop() {
	s.mtx.Lock()
	closers := make([]Closer, len(s.closers))
	copy(closers, s.closers)
	s.mtx.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			s.Log.Warn("error closing resource during stop", log.KVErr(err))
		}
	}
}

// Fatal logs a fatal condition and exits non-zero. Used only for the
// error-handling taxonomy's "Fatal" class: metrics server can't start,
// bus can't start after the retry budget.
func Fatal(lg *log.Logger, stage string, err error) {
	lg.Critical("fatal error, exiting", log.KV("stage", stage), log.KVErr(err))
	os.Exit(1)
}
