/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package deliver fans out AlertEvents to notification sinks in parallel,
// deduplicating first and publishing to the alerts bus regardless of
// per-sink outcome.
package deliver

import (
	"context"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// Sink is one notification channel. Name identifies it in metrics.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert record.AlertEvent) bool
}

// severityColor is the fixed color map every chat-style sink uses.
var severityColor = map[record.AlertSeverity]string{
	record.AlertCritical: "#ff0000",
	record.AlertHigh:     "#ff6600",
	record.AlertMedium:   "#ffcc00",
	record.AlertLow:      "#00cc00",
}

const defaultSeverityColor = "#cccccc"

func colorFor(sev record.AlertSeverity) string {
	if c, ok := severityColor[sev]; ok {
		return c
	}
	return defaultSeverityColor
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
