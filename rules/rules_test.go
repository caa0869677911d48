/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

func firedNames(events []record.AlertEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.RuleName)
	}
	return names
}

func TestSQLInjectionScenarioFiresExactlyTwoRules(t *testing.T) {
	engine := NewEngine(log.NewDiscard(), DefaultLibrary())

	rec := &record.EnrichedRecord{
		RawRecord: record.RawRecord{
			ParsedFields: record.ParsedFields{
				Hostname: "h",
				Message:  "SQL injection attempt: union select *",
				Severity: 6,
			},
		},
		HasThreatIndicators: true,
		ThreatKeywords:      []string{"injection"},
		Tags:                []string{record.TagSecurity},
	}

	events := engine.Evaluate(rec)
	names := firedNames(events)
	assert.Len(t, names, 2)
	assert.Contains(t, names, "sql_injection")
	assert.Contains(t, names, "security_event")
	assert.NotContains(t, names, "malware_detected")
	assert.NotContains(t, names, "critical_severity")
}

func TestUDPHappyPathDoesNotFireAuthFailure(t *testing.T) {
	engine := NewEngine(log.NewDiscard(), DefaultLibrary())
	rec := &record.EnrichedRecord{
		RawRecord: record.RawRecord{
			ParsedFields: record.ParsedFields{
				Hostname: "web",
				Message:  "Accepted password for root",
				Severity: 6,
			},
		},
		Tags:                []string{record.TagAuthentication},
		HasThreatIndicators: false,
	}
	events := engine.Evaluate(rec)
	assert.Empty(t, firedNames(events), "Accepted (not failed/denied) must not trigger auth_failure")
}

func TestDisabledRuleNeverFires(t *testing.T) {
	engine := NewEngine(log.NewDiscard(), DefaultLibrary())
	engine.Disable("critical_severity")

	rec := &record.EnrichedRecord{RawRecord: record.RawRecord{ParsedFields: record.ParsedFields{Severity: 0}}}
	events := engine.Evaluate(rec)
	assert.NotContains(t, firedNames(events), "critical_severity")
}

func TestPanickingPredicateDoesNotAbortEvaluation(t *testing.T) {
	engine := NewEngine(log.NewDiscard(), nil)
	engine.Add(record.AlertRule{
		Name:     "panics",
		Severity: record.AlertLow,
		Predicate: func(*record.EnrichedRecord) bool {
			panic("boom")
		},
		Enabled: true,
	})
	engine.Add(record.AlertRule{
		Name:      "always_fires",
		Severity:  record.AlertLow,
		Predicate: func(*record.EnrichedRecord) bool { return true },
		Enabled:   true,
	})

	rec := &record.EnrichedRecord{}
	events := engine.Evaluate(rec)
	require.Len(t, events, 1)
	assert.Equal(t, "always_fires", events[0].RuleName)
}

func TestConcurrentEvaluateAndMutate(t *testing.T) {
	engine := NewEngine(log.NewDiscard(), DefaultLibrary())
	rec := &record.EnrichedRecord{RawRecord: record.RawRecord{ParsedFields: record.ParsedFields{Severity: 5}}}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			engine.Disable("critical_severity")
			engine.Enable("critical_severity")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		engine.Evaluate(rec)
	}
	<-done
}
