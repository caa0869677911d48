/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command alerting runs the evaluate+deliver stage: consumes
// processed-logs, matches the rule library, dedupes, and fans matched
// alerts out to every configured sink.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/bus"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/config"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/dedup"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/deliver"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/lifecycle"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/rules"
)

var confLoc = flag.String("config-file", "", "path to the shared CyberSentinel config file")

func main() {
	flag.Parse()

	lg := log.New(os.Stderr, "alerting")
	cfg, err := config.Load(*confLoc)
	if err != nil {
		lg.Fatal("loading configuration failed", log.KVErr(err))
	}
	lg.SetLevel(log.ParseLevel(cfg.Global.LogLevel))

	stage := lifecycle.New("alerting", lg)
	reg := metrics.New()
	go serveMetrics(cfg.Global.MetricsBind, reg, lg)

	dedupCache := dedup.New(dedup.Config{
		Addr:     cfg.Dedup.RedisAddr,
		Password: cfg.Dedup.RedisPassword,
		DB:       cfg.Dedup.RedisDB,
		TTL:      time.Duration(cfg.Dedup.TTLSeconds) * time.Second,
	}, lg)
	stage.AddCloser(dedupCache)
	// A down dedup cache must never block alerting; connectivity is
	// probed but its failure here is logged, not fatal.
	if err := dedupCache.Ping(context.Background()); err != nil {
		lg.Warn("dedup cache unreachable at startup, alerts will fail open", log.KVErr(err))
	}

	var producer *bus.Producer
	if err := stage.StartDep("bus-producer", func() error {
		p, e := bus.NewProducer(bus.ProducerConfig{Brokers: cfg.Bus.Brokers}, lg)
		if e != nil {
			return e
		}
		producer = p
		return nil
	}); err != nil {
		lifecycle.Fatal(lg, "alerting", err)
	}
	stage.AddCloser(producer)

	consumerGroup := cfg.Bus.ConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "alerting-group"
	}

	var consumer *bus.Consumer
	if err := stage.StartDep("bus-consumer", func() error {
		c, e := bus.NewConsumer(bus.ConsumerConfig{
			Brokers:       cfg.Bus.Brokers,
			Topic:         cfg.Bus.TopicProcessed,
			ConsumerGroup: consumerGroup,
			InitialOffset: bus.OffsetLatest, // intentionally skip backlog on restart
		}, reg, lg)
		if e != nil {
			return e
		}
		consumer = c
		return nil
	}); err != nil {
		lifecycle.Fatal(lg, "alerting", err)
	}
	stage.AddCloser(consumer)

	engine := rules.NewEngine(lg, rules.DefaultLibrary())

	var sinks []deliver.Sink
	if cfg.Delivery.SMTPHost != "" {
		sinks = append(sinks, deliver.NewEmailSink(deliver.EmailConfig{
			Host: cfg.Delivery.SMTPHost, Port: cfg.Delivery.SMTPPort,
			Username: cfg.Delivery.SMTPUser, Password: cfg.Delivery.SMTPPassword,
			From: cfg.Delivery.SMTPFrom, To: cfg.Delivery.SMTPTo,
		}, lg))
	}
	if cfg.Delivery.WebhookURL != "" {
		sinks = append(sinks, deliver.NewWebhookSink(cfg.Delivery.WebhookURL, lg))
	}

	manager := deliver.NewManager(deliver.ManagerConfig{
		Sinks:       sinks,
		Dedup:       dedupCache,
		Producer:    producer,
		AlertsTopic: cfg.Bus.TopicAlerts,
		Metrics:     reg,
		Log:         lg,
	})

	ctx, cancel := context.WithCancel(context.Background())
	handle := func(hctx context.Context, messages [][]byte) error {
		for _, m := range messages {
			var rec record.EnrichedRecord
			if err := json.Unmarshal(m, &rec); err != nil {
				lg.Warn("dropping unparsable enriched record", log.KVErr(err))
				continue
			}
			reg.LogsEvaluatedTotal.Inc()
			for _, alert := range engine.Evaluate(&rec) {
				manager.Dispatch(hctx, alert)
			}
		}
		return nil
	}

	for i := 0; i < cfg.Workers.Count; i++ {
		stage.Go(func() {
			if err := consumer.Run(ctx, handle); err != nil {
				lg.Error("consumer loop exited with error", log.KVErr(err))
			}
		})
	}

	lg.Info("alerting started")
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
		lifecycle.Fatal(lg, "alerting", err)
	}
}
