/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command processor runs the enrich stage: consumes raw-logs, derives
// threat metadata, bulk-indexes into the store, and forwards enriched
// records onto processed-logs.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/bus"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/config"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/enrich"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/lifecycle"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/store"
)

var confLoc = flag.String("config-file", "", "path to the shared CyberSentinel config file")

func main() {
	flag.Parse()

	lg := log.New(os.Stderr, "processor")
	cfg, err := config.Load(*confLoc)
	if err != nil {
		lg.Fatal("loading configuration failed", log.KVErr(err))
	}
	lg.SetLevel(log.ParseLevel(cfg.Global.LogLevel))

	stage := lifecycle.New("processor", lg)
	reg := metrics.New()
	go serveMetrics(cfg.Global.MetricsBind, reg, lg)

	storeClient := store.New(store.Config{
		URL:         cfg.Store.URL,
		Username:    cfg.Store.Username,
		Password:    cfg.Store.Password,
		IndexPrefix: cfg.Store.IndexPrefix,
		Rotation:    store.Rotation(cfg.Store.Rotation),
		BulkSize:    cfg.Store.BulkSize,
		BulkTimeout: time.Duration(cfg.Store.BulkTimeoutSeconds) * time.Second,
		MaxRetries:  cfg.Store.MaxRetries,
	}, lg)

	var producer *bus.Producer
	if err := stage.StartDep("bus-producer", func() error {
		p, e := bus.NewProducer(bus.ProducerConfig{Brokers: cfg.Bus.Brokers}, lg)
		if e != nil {
			return e
		}
		producer = p
		return nil
	}); err != nil {
		lifecycle.Fatal(lg, "processor", err)
	}
	stage.AddCloser(producer)

	consumerGroup := cfg.Bus.ConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "log-processor-group"
	}

	var consumer *bus.Consumer
	if err := stage.StartDep("bus-consumer", func() error {
		c, e := bus.NewConsumer(bus.ConsumerConfig{
			Brokers:       cfg.Bus.Brokers,
			Topic:         cfg.Bus.TopicRaw,
			ConsumerGroup: consumerGroup,
			InitialOffset: bus.OffsetEarliest, // never lose data across restarts
			BatchSize:     cfg.Store.BulkSize,
			BatchTimeout:  time.Duration(cfg.Store.BulkTimeoutSeconds) * time.Second,
		}, reg, lg)
		if e != nil {
			return e
		}
		consumer = c
		return nil
	}); err != nil {
		lifecycle.Fatal(lg, "processor", err)
	}
	stage.AddCloser(consumer)

	pool, err := enrich.NewPool(enrich.PoolConfig{
		Store:          storeClient,
		Producer:       producer,
		ProcessedTopic: cfg.Bus.TopicProcessed,
		Metrics:        reg,
		Log:            lg,
		BulkSize:       cfg.Store.BulkSize,
		BulkTimeout:    time.Duration(cfg.Store.BulkTimeoutSeconds) * time.Second,
	})
	if err != nil {
		lifecycle.Fatal(lg, "processor", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < cfg.Workers.Count; i++ {
		stage.Go(func() {
			if err := consumer.Run(ctx, pool.HandleBatch); err != nil {
				lg.Error("consumer loop exited with error", log.KVErr(err))
			}
		})
	}

	lg.Info("processor started")
	stage.WaitForQuit()
	lg.Info("shutdown signal received, draining")
	cancel()
	stage.Drain(lifecycle.DefaultDrainTimeout)
	stage.Stop()
}

func serveMetrics(bind string, reg *metrics.Registry, lg *log.Logger) {
	if bind == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	if err := http.ListenAndServe(bind, mux); err != nil {
		lifecycle.Fatal(lg, "processor", err)
	}
}
