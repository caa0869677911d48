/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package ingest

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

func TestSanitizeUTF8ReplacesInvalidBytes(t *testing.T) {
	s := sanitizeUTF8([]byte{'a', 0xff, 'b'})
	assert.Contains(t, s, "a")
	assert.Contains(t, s, "b")
	assert.NotEqual(t, "a\xffb", s)
}

func TestUDPHappyPath(t *testing.T) {
	out := make(chan record.RawRecord, 4)
	l := New(Config{}, out, metrics.New(), log.NewDiscard())

	l.publish("<134>Jan 15 10:30:00 web sshd[42]: Accepted password for root", "127.0.0.1", record.ProtoUDP)

	select {
	case rec := <-out:
		assert.Equal(t, record.ProtoUDP, rec.Protocol)
		assert.Equal(t, "web", rec.Hostname)
		require.NotNil(t, rec.AppName)
		assert.Equal(t, "sshd", *rec.AppName)
		require.NotNil(t, rec.ProcID)
		assert.Equal(t, "42", *rec.ProcID)
		assert.Equal(t, "local0", rec.FacilityNm)
		assert.Equal(t, "informational", rec.SeverityNm)
	case <-time.After(time.Second):
		t.Fatal("expected a record on the output channel")
	}
}

func TestMalformedInputProducesFallbackRecord(t *testing.T) {
	out := make(chan record.RawRecord, 4)
	l := New(Config{}, out, metrics.New(), log.NewDiscard())
	l.publish("not a syslog message", "10.0.0.1", record.ProtoUDP)

	rec := <-out
	assert.Equal(t, record.Unknown, rec.Format)
	assert.Equal(t, 13, rec.Priority)
	assert.Equal(t, "not a syslog message", rec.Message)
}

func TestFullOutputQueueDropsWithoutBlocking(t *testing.T) {
	out := make(chan record.RawRecord) // unbuffered: always full for a non-blocking send
	l := New(Config{}, out, metrics.New(), log.NewDiscard())

	done := make(chan struct{})
	go func() {
		l.publish("<13>hello", "10.0.0.1", record.ProtoUDP)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full output queue")
	}
}

func TestStreamFramingSplitsOnNewlineAndBuffersIncomplete(t *testing.T) {
	out := make(chan record.RawRecord, 4)
	l := New(Config{}, out, metrics.New(), log.NewDiscard())

	server, client := net.Pipe()
	defer client.Close()

	go l.streamConnHandler(server, record.ProtoTCP)

	go func() {
		client.Write([]byte("<13>A\n<13>B\n<13>incomplete"))
		client.Close()
	}()

	// "<13>A" matches neither grammar, so each frame arrives as a
	// fallback record whose message is the whole frame.
	first := <-out
	assert.Equal(t, "<13>A", first.Message)
	second := <-out
	assert.Equal(t, "<13>B", second.Message)

	select {
	case rec := <-out:
		t.Fatalf("incomplete trailing frame must not be emitted on close: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}
}
