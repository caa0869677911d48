/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package store

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

func TestIndexNameDaily(t *testing.T) {
	c := New(Config{IndexPrefix: "cybersentinel-logs", Rotation: RotationDaily}, log.NewDiscard())
	assert.Equal(t, "cybersentinel-logs-2025.03.01", c.IndexName("2025.03.01"))
}

func TestIndexNameMonthly(t *testing.T) {
	c := New(Config{IndexPrefix: "cybersentinel-logs", Rotation: RotationMonthly}, log.NewDiscard())
	assert.Equal(t, "cybersentinel-logs-2025.03", c.IndexName("2025.03.01"))
}

func TestIndexRolloverCreatesOneIndexPerDate(t *testing.T) {
	created := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created[r.URL.Path]++
			w.WriteHeader(http.StatusOK)
		case http.MethodPost:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"errors":false,"items":[{"index":{"status":201}}]}`))
		}
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, IndexPrefix: "cybersentinel-logs", Rotation: RotationDaily}, log.NewDiscard())

	doc := record.EnrichedRecord{}
	_, err := c.IndexBatch("2025.03.01", []record.EnrichedRecord{doc})
	require.NoError(t, err)
	_, err = c.IndexBatch("2025.03.02", []record.EnrichedRecord{doc})
	require.NoError(t, err)
	_, err = c.IndexBatch("2025.03.01", []record.EnrichedRecord{doc})
	require.NoError(t, err)

	assert.Len(t, created, 2)
	assert.Equal(t, 1, created["/cybersentinel-logs-2025.03.01"])
	assert.Equal(t, 1, created["/cybersentinel-logs-2025.03.02"])
}

func TestIndexBatchPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodPost:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"errors":true,"items":[{"index":{"status":201}},{"index":{"status":400}}]}`))
		}
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, IndexPrefix: "p", Rotation: RotationDaily}, log.NewDiscard())
	result, err := c.IndexBatch("2025.03.01", []record.EnrichedRecord{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 1, result.Failed)
}
