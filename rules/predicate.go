/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package rules models alert rules as data: a small operator set builds
// record.Predicate closures instead of each rule being a one-off compiled
// function. This keeps the default library (and any rule added later)
// expressible as a serializable operator tree rather than Go source.
package rules

import (
	"strings"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// SeverityLTE fires when the record's severity is at most n.
func SeverityLTE(n int) record.Predicate {
	return func(e *record.EnrichedRecord) bool { return e.Severity <= n }
}

// TagContains fires when tag is among the record's tags.
func TagContains(tag string) record.Predicate {
	return func(e *record.EnrichedRecord) bool {
		for _, t := range e.Tags {
			if t == tag {
				return true
			}
		}
		return false
	}
}

// MessageContainsAny fires when the lower-cased message contains any of
// the given (already lower-case) substrings.
func MessageContainsAny(substrs ...string) record.Predicate {
	return func(e *record.EnrichedRecord) bool {
		lower := strings.ToLower(e.Message)
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

// ThreatKeywordContains fires when keyword is among the record's
// threat_keywords.
func ThreatKeywordContains(keyword string) record.Predicate {
	return func(e *record.EnrichedRecord) bool {
		for _, k := range e.ThreatKeywords {
			if k == keyword {
				return true
			}
		}
		return false
	}
}

// HasThreatIndicators fires when the record carries any threat indicator.
func HasThreatIndicators() record.Predicate {
	return func(e *record.EnrichedRecord) bool { return e.HasThreatIndicators }
}

// HostnamePresent fires when the record's hostname is non-empty.
func HostnamePresent() record.Predicate {
	return func(e *record.EnrichedRecord) bool { return e.Hostname != "" }
}

// SeverityNameEquals fires when severity_name matches name exactly.
func SeverityNameEquals(name string) record.Predicate {
	return func(e *record.EnrichedRecord) bool { return e.SeverityNm == name }
}

// ThreatScoreGTE fires when threat_score is at least n.
func ThreatScoreGTE(n int) record.Predicate {
	return func(e *record.EnrichedRecord) bool { return e.ThreatScore >= n }
}

// Or is satisfied when any of preds is.
func Or(preds ...record.Predicate) record.Predicate {
	return func(e *record.EnrichedRecord) bool {
		for _, p := range preds {
			if p(e) {
				return true
			}
		}
		return false
	}
}

// And is satisfied when every one of preds is.
func And(preds ...record.Predicate) record.Predicate {
	return func(e *record.EnrichedRecord) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}
