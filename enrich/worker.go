/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package enrich

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/bus"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/store"
)

// Pool enriches the batches bus.Consumer hands it. The consumer itself
// assembles each batch (500 docs or 30s, whichever first — see
// bus.Consumer's batchSize/batchTimeout), so HandleBatch's buffer
// spans one real batch, not one Kafka message; it flushes every
// index-date bucket in that batch to the store, then forwards the
// enriched docs one-by-one to the processed-logs topic.
type Pool struct {
	enricher *Enricher
	store    *store.Client
	producer *bus.Producer
	topic    string
	metrics  *metrics.Registry
	log      *log.Logger

	bulkSize    int
	bulkTimeout time.Duration
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	Store          *store.Client
	Producer       *bus.Producer
	ProcessedTopic string
	Metrics        *metrics.Registry
	Log            *log.Logger
	BulkSize       int
	BulkTimeout    time.Duration
}

// NewPool builds a Pool. HandleBatch is safe to call concurrently from
// multiple bus.Consumer.Run goroutines: each call builds its own worker,
// so there is no buffer shared across calls to synchronize.
func NewPool(cfg PoolConfig) (*Pool, error) {
	e, err := New()
	if err != nil {
		return nil, err
	}
	bulkSize := cfg.BulkSize
	if bulkSize <= 0 {
		bulkSize = 500
	}
	bulkTimeout := cfg.BulkTimeout
	if bulkTimeout <= 0 {
		bulkTimeout = 30 * time.Second
	}
	return &Pool{
		enricher:    e,
		store:       cfg.Store,
		producer:    cfg.Producer,
		topic:       cfg.ProcessedTopic,
		metrics:     cfg.Metrics,
		log:         cfg.Log,
		bulkSize:    bulkSize,
		bulkTimeout: bulkTimeout,
	}, nil
}

// worker owns one flush buffer, scoped to a single HandleBatch call —
// each call already carries one consumer-assembled batch, so there is
// no need to share a buffer across calls or goroutines.
type worker struct {
	pool *Pool

	pending map[string][]record.EnrichedRecord // indexDate -> batch
}

// HandleBatch is a bus.Handler: it enriches each raw message, buffers it
// by index date, and flushes whichever buffers are due.
func (p *Pool) HandleBatch(ctx context.Context, messages [][]byte) error {
	w := &worker{pool: p, pending: make(map[string][]record.EnrichedRecord)}
	for _, m := range messages {
		w.handleOne(m)
	}
	w.flushAll()
	return nil
}

func (w *worker) handleOne(payload []byte) {
	var raw record.RawRecord
	if err := json.Unmarshal(payload, &raw); err != nil {
		w.pool.metrics.MessagesProcessedTotal.WithLabelValues("error").Inc()
		w.pool.log.Warn("dropping unparsable raw record", log.KVErr(err))
		return
	}

	start := time.Now()
	enriched := w.pool.enricher.Enrich(raw)
	w.pool.metrics.EnrichmentDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())
	w.pool.metrics.MessagesProcessedTotal.WithLabelValues("ok").Inc()

	w.pending[enriched.IndexDate] = append(w.pending[enriched.IndexDate], enriched)
	if len(w.pending[enriched.IndexDate]) >= w.pool.bulkSize {
		w.flush(enriched.IndexDate)
	}
}

func (w *worker) flushAll() {
	for indexDate := range w.pending {
		w.flush(indexDate)
	}
}

func (w *worker) flush(indexDate string) {
	docs := w.pending[indexDate]
	if len(docs) == 0 {
		return
	}
	delete(w.pending, indexDate)

	w.pool.metrics.BatchSize.Observe(float64(len(docs)))
	result, err := w.pool.store.IndexBatch(indexDate, docs)
	if err != nil {
		w.pool.log.Error("bulk index failed", log.KV("index_date", indexDate), log.KVErr(err))
	}
	w.pool.metrics.MessagesIndexedTotal.WithLabelValues("ok").Add(float64(result.Indexed))
	w.pool.metrics.MessagesIndexedTotal.WithLabelValues("error").Add(float64(result.Failed))

	for _, doc := range docs {
		b, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		if err := w.pool.producer.Publish(w.pool.topic, b); err != nil {
			w.pool.log.Warn("publishing enriched record to processed-logs failed", log.KVErr(err))
		}
	}
}
