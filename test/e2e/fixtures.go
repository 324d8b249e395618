package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/orlangure/gnomock"
	kafkapreset "github.com/orlangure/gnomock/preset/kafka"
	mongopreset "github.com/orlangure/gnomock/preset/mongo"
	"github.com/zdunecki/graphfleet/pkg/pubsub"
	"github.com/zdunecki/graphfleet/pkg/store"
	storeopt "github.com/zdunecki/graphfleet/pkg/store/options"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	envE2E = "GRAPHFLEET_E2E"
	dbName = "graphfleet_test"
)

type ETCDPreset struct {
	Version string `json:"version"`
}

func (p *ETCDPreset) Image() string {
	return fmt.Sprintf("docker.io/bitnami/etcd:%s", p.Version)
}

func (p *ETCDPreset) Ports() gnomock.NamedPorts {
	return gnomock.DefaultTCP(2379)
}

func (p *ETCDPreset) Options() []gnomock.Option {
	p.setDefaults()

	return []gnomock.Option{
		gnomock.WithEnv("ALLOW_NONE_AUTHENTICATION=yes"),
	}
}

func (p *ETCDPreset) setDefaults() {
	if p.Version == "" {
		p.Version = "3"
	}
}

func NewETCDPreset() gnomock.Preset {
	return &ETCDPreset{}
}

func skipUnlessE2E(t *testing.T) {
	t.Helper()

	if os.Getenv(envE2E) == "" {
		t.Skipf("%s is not set, skipping container tests", envE2E)
	}
}

func start(t *testing.T, preset gnomock.Preset) *gnomock.Container {
	t.Helper()

	c, err := gnomock.Start(preset)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		gnomock.Stop(c)
	})

	return c
}

func mongoClientOptions(t *testing.T) *options.ClientOptions {
	c := start(t, mongopreset.Preset())
	return options.Client().ApplyURI(fmt.Sprintf("mongodb://%s", c.DefaultAddress()))
}

func etcdConfig(t *testing.T) clientv3.Config {
	c := start(t, NewETCDPreset())

	return clientv3.Config{
		Endpoints:   []string{c.DefaultAddress()},
		DialTimeout: time.Second * 15,
	}
}

func kafkaBroker(t *testing.T) string {
	c := start(t, kafkapreset.Preset(kafkapreset.WithTopics(pubsub.DefaultTopic)))
	return c.Address("broker")
}

func storage(t *testing.T, opts ...*storeopt.RepositoryOption) store.Storage {
	t.Helper()

	s, err := storeopt.WithStorage(opts...)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		s.Close(context.Background())
	})

	return s
}
