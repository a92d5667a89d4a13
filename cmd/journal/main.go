// Command journal consumes ride lifecycle events from Kafka and archives
// them to Postgres. It runs beside the API server; the API never blocks on
// it, so losing the archiver only loses history, not trips.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/brianmcglynncode/FlyCabs/internal/archive"
	"github.com/brianmcglynncode/FlyCabs/internal/models"
)

var (
	eventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_events_consumed_total",
		Help: "Total ride events consumed",
	})
	eventsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_events_invalid_total",
		Help: "Total invalid events received",
	})
	archiveWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_archive_writes_total",
		Help: "Total successful archive writes",
	})
	archiveErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_archive_errors_total",
		Help: "Total archive write errors",
	})
)

func init() {
	prometheus.MustRegister(eventsConsumed, eventsInvalid, archiveWrites, archiveErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{}
	if brokersEnv != "" {
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	} else {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "ride-events"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "flycabs-journal"
	}

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		log.Fatal("PG_DSN is required")
	}
	store, err := archive.Open(dsn)
	if err != nil {
		log.Fatalf("archive open failed: %v", err)
	}
	defer store.Close()

	if strings.EqualFold(os.Getenv("MIGRATE"), "true") {
		b, err := os.ReadFile(filepath.Join("migrations", "001_create_ride_events.sql"))
		if err != nil {
			log.Fatalf("migration read failed: %v", err)
		}
		if err := store.Migrate(string(b)); err != nil {
			log.Fatalf("migration exec failed: %v", err)
		}
		log.Printf("migration applied: 001_create_ride_events.sql")
	}

	// metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() { _ = r.Close() }()

	log.Printf("journal listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down journal")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		eventsConsumed.Inc()

		var ev models.RideEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.RequestID == "" {
			eventsInvalid.Inc()
			log.Printf("invalid event: %v", err)
			continue
		}

		if err := saveWithRetry(ctx, store, ev, 3, 200*time.Millisecond); err != nil {
			archiveErrors.Inc()
			log.Printf("archive write failed for request=%s: %v", ev.RequestID, err)
			continue
		}
		archiveWrites.Inc()
	}
}

// EventSink is the subset of archive operations we need, small enough to
// fake in tests.
type EventSink interface {
	SaveEvent(ev models.RideEvent) error
}

// saveWithRetry writes one event with retry and exponential backoff.
func saveWithRetry(ctx context.Context, sink EventSink, ev models.RideEvent, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = sink.SaveEvent(ev); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
