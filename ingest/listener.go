/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package ingest runs the three wire listeners (UDP, TCP, TLS) that
// accept syslog traffic, parse it, and hand parsed RawRecords off to a
// buffered output queue without ever blocking on downstream publish.
package ingest

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/syslog"
)

// maxFrameSize bounds a stream connection's between-newline buffer. The
// original TCP path reads up to max_message_size per socket read but
// never caps the buffer between newlines; this hard cap is the
// clarification spec'd on top of that (see DESIGN.md).
const maxFrameSize = 64 * 1024

// Config configures the three listeners. A blank Bind address disables
// that listener (useful for tests that only want one).
type Config struct {
	UDPBind        string
	TCPBind        string
	TLSBind        string
	TLSCertPath    string
	TLSKeyPath     string
	TLSEnabled     bool
	MaxMessageSize int
}

// Listeners owns the three listener sockets and the connection tracking
// needed to close them all on Stop.
type Listeners struct {
	cfg     Config
	out     chan<- record.RawRecord
	metrics *metrics.Registry
	log     *log.Logger

	mtx     sync.Mutex
	sockets []ioCloser
	conns   map[string]net.Conn
	wg      sync.WaitGroup
}

type ioCloser interface{ Close() error }

// New builds a Listeners bound to out, the non-blocking handoff queue
// every parsed record is pushed onto.
func New(cfg Config, out chan<- record.RawRecord, m *metrics.Registry, lg *log.Logger) *Listeners {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 8192
	}
	return &Listeners{cfg: cfg, out: out, metrics: m, log: lg, conns: make(map[string]net.Conn)}
}

// addConn registers an open connection under a fresh UUID so log lines
// for a given connection's lifetime can be correlated by that id.
func (l *Listeners) addConn(c net.Conn) string {
	id := uuid.NewString()
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.conns[id] = c
	return id
}

func (l *Listeners) delConn(id string) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	delete(l.conns, id)
}

func (l *Listeners) addSocket(c ioCloser) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.sockets = append(l.sockets, c)
}

// publish parses raw and pushes the RawRecord onto the output queue
// without blocking; a full queue drops the record and counts it, rather
// than stalling the listener goroutine.
func (l *Listeners) publish(raw string, sourceIP string, proto record.Protocol) {
	pf := syslog.Parse(raw)
	rec := record.RawRecord{
		SourceIP:     sourceIP,
		Protocol:     proto,
		ReceivedAt:   record.Now(),
		Raw:          raw,
		ParsedFields: pf,
	}
	l.metrics.MessageSizeBytes.Observe(float64(len(raw)))
	select {
	case l.out <- rec:
		l.metrics.MessagesReceivedTotal.WithLabelValues(string(proto), "ok").Inc()
	default:
		l.metrics.MessagesReceivedTotal.WithLabelValues(string(proto), "dropped").Inc()
		l.log.Warn("output queue full, dropping record", log.KV("protocol", proto))
	}
}

// Close shuts down every open listener socket and connection, then waits
// for their goroutines to exit. Once Close returns, nothing in this
// Listeners will send on the output channel again, so it is safe for the
// caller to close that channel immediately afterward.
func (l *Listeners) Close() error {
	l.mtx.Lock()
	for _, c := range l.conns {
		c.Close()
	}
	for _, s := range l.sockets {
		s.Close()
	}
	l.mtx.Unlock()
	l.wg.Wait()
	return nil
}

// StartUDP binds the datagram listener; each datagram is one message.
func (l *Listeners) StartUDP() error {
	if l.cfg.UDPBind == "" {
		return nil
	}
	addr, err := net.ResolveUDPAddr("udp", l.cfg.UDPBind)
	if err != nil {
		return fmt.Errorf("ingest: resolving udp bind %s: %w", l.cfg.UDPBind, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("ingest: listening udp on %s: %w", l.cfg.UDPBind, err)
	}
	l.addSocket(conn)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		buf := make([]byte, l.cfg.MaxMessageSize)
		for {
			n, raddr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return // socket closed
			}
			if n >= l.cfg.MaxMessageSize {
				// datagram filled (or would overflow) the configured cap;
				// ReadFromUDP silently truncates UDP reads, so treat this
				// as a dropped, oversized message rather than publish a
				// truncated one.
				l.metrics.MessagesReceivedTotal.WithLabelValues(string(record.ProtoUDP), "dropped").Inc()
				l.log.Warn("dropping oversized udp datagram", log.KV("max_message_size", l.cfg.MaxMessageSize))
				continue
			}
			msg := decodeUTF8(buf[:n])
			if msg == "" {
				continue
			}
			srcIP := ""
			if raddr != nil {
				srcIP = raddr.IP.String()
			}
			l.publish(msg, srcIP, record.ProtoUDP)
		}
	}()
	return nil
}

// StartTCP binds the cleartext stream listener.
func (l *Listeners) StartTCP() error {
	if l.cfg.TCPBind == "" {
		return nil
	}
	ln, err := net.Listen("tcp", l.cfg.TCPBind)
	if err != nil {
		return fmt.Errorf("ingest: listening tcp on %s: %w", l.cfg.TCPBind, err)
	}
	l.addSocket(ln)
	l.wg.Add(1)
	go l.acceptLoop(ln, record.ProtoTCP)
	return nil
}

// StartTLS binds the TLS stream listener. A cert/key load failure is
// non-fatal to the service: it disables only this listener and logs a
// warning, per the config error-handling policy.
func (l *Listeners) StartTLS() error {
	if l.cfg.TLSBind == "" || !l.cfg.TLSEnabled {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(l.cfg.TLSCertPath, l.cfg.TLSKeyPath)
	if err != nil {
		l.log.Warn("TLS listener disabled: failed to load certificate", log.KVErr(err))
		return nil
	}
	tcfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}
	ln, err := tls.Listen("tcp", l.cfg.TLSBind, tcfg)
	if err != nil {
		return fmt.Errorf("ingest: listening tls on %s: %w", l.cfg.TLSBind, err)
	}
	l.addSocket(ln)
	l.wg.Add(1)
	go l.acceptLoop(ln, record.ProtoTLS)
	return nil
}

func (l *Listeners) acceptLoop(ln net.Listener, proto record.Protocol) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return // listener closed
		}
		id := l.addConn(conn)
		l.metrics.ActiveConnections.WithLabelValues(string(proto)).Inc()
		l.wg.Add(1)
		go func() {
			defer func() {
				conn.Close()
				l.delConn(id)
				l.metrics.ActiveConnections.WithLabelValues(string(proto)).Dec()
				l.wg.Done()
			}()
			l.streamConnHandler(conn, proto)
		}()
	}
}

func decodeUTF8(b []byte) string {
	return sanitizeUTF8(b)
}
