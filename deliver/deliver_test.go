/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package deliver

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

func TestColorForKnownAndDefault(t *testing.T) {
	assert.Equal(t, "#ff0000", colorFor(record.AlertCritical))
	assert.Equal(t, "#ff6600", colorFor(record.AlertHigh))
	assert.Equal(t, "#ffcc00", colorFor(record.AlertMedium))
	assert.Equal(t, "#00cc00", colorFor(record.AlertLow))
	assert.Equal(t, defaultSeverityColor, colorFor(record.AlertSeverity("bogus")))
}

func TestTruncateAt200Chars(t *testing.T) {
	msg := strings.Repeat("a", 250)
	assert.Len(t, truncate(msg, 200), 200)

	short := "short message"
	assert.Equal(t, short, truncate(short, 200))
}

type fakeSink struct {
	name   string
	result bool
	calls  int
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Send(ctx context.Context, alert record.AlertEvent) bool {
	f.calls++
	return f.result
}

func TestOneFailingSinkDoesNotAffectSiblings(t *testing.T) {
	good := &fakeSink{name: "good", result: true}
	bad := &fakeSink{name: "bad", result: false}

	mgr := NewManager(ManagerConfig{
		Sinks:       []Sink{good, bad},
		Producer:    &fakePublisher{},
		AlertsTopic: "alerts",
		Metrics:     metrics.New(),
		Log:         log.NewDiscard(),
	})
	mgr.Dispatch(context.Background(), record.AlertEvent{})
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, 1, bad.calls)
}

// fakeDedup is an in-memory stand-in for dedup.Cache: the first SeenBefore
// call for a key returns false, every call after returns true — same
// contract as a real TTL cache within its window.
type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: make(map[string]bool)} }

func (f *fakeDedup) SeenBefore(ctx context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return true
	}
	f.seen[key] = true
	return false
}

// fakePublisher is an in-memory stand-in for bus.Producer, recording every
// published payload instead of talking to Kafka.
type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestManagerDispatchSuppressesDuplicateAlert(t *testing.T) {
	sink := &fakeSink{name: "good", result: true}
	pub := &fakePublisher{}
	mgr := NewManager(ManagerConfig{
		Sinks:       []Sink{sink},
		Dedup:       newFakeDedup(),
		Producer:    pub,
		AlertsTopic: "alerts",
		Metrics:     metrics.New(),
		Log:         log.NewDiscard(),
	})

	alert := record.AlertEvent{
		RuleName: "critical_severity",
		Severity: record.AlertCritical,
		LogData:  record.EnrichedRecord{Fingerprint: "abc123"},
	}

	mgr.Dispatch(context.Background(), alert)
	mgr.Dispatch(context.Background(), alert)

	assert.Equal(t, 1, sink.calls, "a duplicate (rule_name, fingerprint) alert must not reach any sink")
	assert.Len(t, pub.payloads, 1, "a duplicate alert must not publish to the alerts bus either")
}

func TestManagerDispatchDeliversDistinctAlertsIndependently(t *testing.T) {
	sink := &fakeSink{name: "good", result: true}
	pub := &fakePublisher{}
	mgr := NewManager(ManagerConfig{
		Sinks:       []Sink{sink},
		Dedup:       newFakeDedup(),
		Producer:    pub,
		AlertsTopic: "alerts",
		Metrics:     metrics.New(),
		Log:         log.NewDiscard(),
	})

	first := record.AlertEvent{RuleName: "critical_severity", LogData: record.EnrichedRecord{Fingerprint: "abc123"}}
	second := record.AlertEvent{RuleName: "critical_severity", LogData: record.EnrichedRecord{Fingerprint: "def456"}}

	mgr.Dispatch(context.Background(), first)
	mgr.Dispatch(context.Background(), second)

	assert.Equal(t, 2, sink.calls, "two alerts with distinct fingerprints are not duplicates of each other")
	assert.Len(t, pub.payloads, 2)
}
