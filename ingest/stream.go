/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package ingest

import (
	"bufio"
	"bytes"
	"net"
	"strings"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// newlineFrameSplit is a bufio.SplitFunc that frames on '\n' but refuses
// to buffer more than maxFrameSize bytes between newlines, returning an
// error that tells the Scanner (and therefore the caller) to stop rather
// than growing the buffer unbounded for a connection that never sends one.
func newlineFrameSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	// Connection closed (or closing) with an unterminated frame still
	// buffered: flush without emitting it, per the framing contract.
	if atEOF {
		return 0, nil, nil
	}
	if len(data) >= maxFrameSize {
		return 0, nil, errFrameTooLarge
	}
	return 0, nil, nil
}

var errFrameTooLarge = frameTooLargeError{}

type frameTooLargeError struct{}

func (frameTooLargeError) Error() string { return "ingest: frame exceeded per-connection hard cap" }

// streamConnHandler reads newline-delimited frames off conn until it
// closes or a frame exceeds the hard cap, in which case the connection
// is closed early (the cap violation, not a clean EOF). Connection close
// never emits a trailing partial frame.
func (l *Listeners) streamConnHandler(conn net.Conn, proto record.Protocol) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxFrameSize+1)
	scanner.Split(newlineFrameSplit)

	srcIP := ""
	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		srcIP = tcpAddr.IP.String()
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\t ")
		if line == "" {
			continue
		}
		l.publish(sanitizeUTF8([]byte(line)), srcIP, proto)
	}
	if err := scanner.Err(); err != nil {
		l.log.Warn("stream connection closed with error", log.KV("protocol", proto), log.KVErr(err))
	}
}
