// ledcoord coordinates networked LEDs over MQTT.
//
// It keeps the desired state of every LED and every LED group in a
// key-value store (Redis or SQLite), publishes commands to devices, records
// the state they report back and serves the HTTP API and WebSocket relay.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	_ "github.com/nerrad567/gray-logic-leds/migrations"

	"github.com/nerrad567/gray-logic-leds/internal/api"
	"github.com/nerrad567/gray-logic-leds/internal/device"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/redis"
	"github.com/nerrad567/gray-logic-leds/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled. Deferred
// closes run in reverse order of construction.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting LED coordinator",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	kv, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing store")
		if closeErr := kv.close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// #nosec G115 -- qos is validated to 0..2
	controller := device.NewController(kv.store, mqttClient, byte(cfg.MQTT.QoS))
	controller.SetLogger(log.With("component", "device"))

	hub := api.NewHub(cfg.WebSocket, log)
	controller.SetNotifier(hub)

	checks := map[string]api.HealthChecker{
		"store": kv.store,
		"mqtt":  mqttClient,
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		controller.SetMetrics(influxClient)
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	if err := subscribeReports(mqttClient, controller, byte(cfg.MQTT.QoS)); err != nil { // #nosec G115 -- validated
		return err
	}
	defer unsubscribeReports(mqttClient, log)
	checks["mqtt_reports"] = reportSubscriptions{sub: mqttClient}
	log.Info("subscribed to device reports", "subscriptions", mqttClient.SubscriptionCount())

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Controller: controller,
		Hub:        hub,
		Checks:     checks,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	log.Info("LED coordinator stopped")
	return nil
}

// getConfigPath returns LEDCOORD_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("LEDCOORD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// subscriber is the part of *mqtt.Client that carries device reports.
type subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	HasSubscription(topic string) bool
	SubscriptionCount() int
}

// reportTopics are the inbound topics routed to the controller.
func reportTopics() []string {
	topics := mqtt.Topics{}
	return []string{topics.AllStateReports(), topics.DeviceAnnounce()}
}

// subscribeReports routes state reports and announcements to the
// controller. A failure releases the topics already subscribed.
func subscribeReports(sub subscriber, controller *device.Controller, qos byte) error {
	var done []string
	for _, topic := range reportTopics() {
		if err := sub.Subscribe(topic, qos, controller.HandleMessage); err != nil {
			for _, t := range done {
				_ = sub.Unsubscribe(t) //nolint:errcheck // already failing
			}
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		done = append(done, topic)
	}
	return nil
}

// unsubscribeReports stops report delivery ahead of the MQTT disconnect so
// no report is handled while the store is closing.
func unsubscribeReports(sub subscriber, log *logging.Logger) {
	for _, topic := range reportTopics() {
		if err := sub.Unsubscribe(topic); err != nil {
			log.Warn("error unsubscribing", "topic", topic, "error", err)
		}
	}
}

// reportSubscriptions fails its health check when a report topic is no
// longer tracked by the MQTT client.
type reportSubscriptions struct {
	sub subscriber
}

func (r reportSubscriptions) HealthCheck(context.Context) error {
	for _, topic := range reportTopics() {
		if !r.sub.HasSubscription(topic) {
			return fmt.Errorf("not subscribed to %s", topic)
		}
	}
	return nil
}

// healthCheck probes every component in name order and returns the first
// failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := checks[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// healthStore is a Store that can report its own health.
type healthStore interface {
	store.Store
	HealthCheck(ctx context.Context) error
}

// openedStore is the configured backend plus the function releasing it.
type openedStore struct {
	store healthStore
	close func() error
}

// openStore connects the backend named by cfg.Store.Backend.
func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (openedStore, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return openedStore{}, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return openedStore{}, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("sqlite store ready", "path", db.Path())
		return openedStore{store: store.NewSQLiteStore(db.DB), close: db.Close}, nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return openedStore{}, fmt.Errorf("connecting to redis: %w", err)
		}
		log.Info("redis store ready", "mode", cfg.Redis.Mode, "addrs", cfg.Redis.Addrs)
		return openedStore{store: store.NewRedisStore(client), close: client.Close}, nil

	default:
		return openedStore{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
