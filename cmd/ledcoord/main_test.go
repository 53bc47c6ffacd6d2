package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-leds/internal/api"
	"github.com/nerrad567/gray-logic-leds/internal/device"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-leds/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("LEDCOORD_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() error = %v, want config load failure", err)
	}
}

func TestRun_UnopenableDatabase(t *testing.T) {
	// A regular file where the database directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("LEDCOORD_CONFIG", writeConfig(t, `
store:
  backend: sqlite
database:
  path: "`+filepath.Join(blocker, "leds.db")+`"
logging:
  level: error
  format: text
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "opening database") {
		t.Fatalf("run() error = %v, want database open failure", err)
	}
}

func TestRun_UnreachableRedis(t *testing.T) {
	t.Setenv("LEDCOORD_CONFIG", writeConfig(t, `
store:
  backend: redis
redis:
  addrs: ["127.0.0.1:1"]
  dial_timeout: 1
logging:
  level: error
  format: text
`))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "connecting to redis") {
		t.Fatalf("run() error = %v, want redis failure", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("LEDCOORD_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("LEDCOORD_CONFIG", "/custom/path/config.yaml")
	if got := getConfigPath(); got != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store:    config.StoreConfig{Backend: config.BackendSQLite},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "leds.db"), BusyTimeout: 5},
	}

	kv, err := openStore(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer kv.close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := kv.store.Set(ctx, "device:1", []byte(`{"state":"on"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.store.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "etcd"}}
	if _, err := openStore(context.Background(), cfg, logging.Discard()); err == nil {
		t.Error("openStore() expected error for unknown backend")
	}
}

type recordingSubscriber struct {
	topics []string
	failOn string
}

func (s *recordingSubscriber) Subscribe(topic string, _ byte, _ mqtt.MessageHandler) error {
	if topic == s.failOn {
		return errors.New("not connected")
	}
	s.topics = append(s.topics, topic)
	return nil
}

func (s *recordingSubscriber) Unsubscribe(topic string) error {
	for i, t := range s.topics {
		if t == topic {
			s.topics = append(s.topics[:i], s.topics[i+1:]...)
			return nil
		}
	}
	return errors.New("not subscribed")
}

func (s *recordingSubscriber) HasSubscription(topic string) bool {
	for _, t := range s.topics {
		if t == topic {
			return true
		}
	}
	return false
}

func (s *recordingSubscriber) SubscriptionCount() int { return len(s.topics) }

type nopPublisher struct{}

func (nopPublisher) Publish(string, []byte, byte, bool) error { return nil }

func TestSubscribeReports(t *testing.T) {
	ctrl := device.NewController(store.Store(nil), nopPublisher{}, 1)

	sub := &recordingSubscriber{}
	if err := subscribeReports(sub, ctrl, 1); err != nil {
		t.Fatalf("subscribeReports() error = %v", err)
	}
	if len(sub.topics) != 2 || sub.topics[0] != "leds/+/state" || sub.topics[1] != "leds/manage/add" {
		t.Errorf("topics = %v", sub.topics)
	}
	if err := (reportSubscriptions{sub: sub}).HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after subscribe error = %v", err)
	}

	unsubscribeReports(sub, logging.Discard())
	if sub.SubscriptionCount() != 0 {
		t.Errorf("topics after unsubscribe = %v", sub.topics)
	}
	if err := (reportSubscriptions{sub: sub}).HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() after unsubscribe expected error")
	}

	failing := &recordingSubscriber{failOn: "leds/manage/add"}
	if err := subscribeReports(failing, ctrl, 1); err == nil {
		t.Error("subscribeReports() expected error")
	}
	if failing.SubscriptionCount() != 0 {
		t.Errorf("topics left after failed subscribe = %v", failing.topics)
	}
}

type stubChecker struct{ err error }

func (c stubChecker) HealthCheck(context.Context) error { return c.err }

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()

	if err := healthCheck(ctx, map[string]api.HealthChecker{"store": stubChecker{}}); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}

	err := healthCheck(ctx, map[string]api.HealthChecker{
		"mqtt":  stubChecker{err: errors.New("down")},
		"store": stubChecker{err: errors.New("gone")},
	})
	if err == nil || !strings.HasPrefix(err.Error(), "mqtt:") {
		t.Errorf("healthCheck() error = %v, want mqtt failure first", err)
	}
}
