package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zdunecki/graphfleet/pkg/cluster"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/pubsub"
	"github.com/zdunecki/graphfleet/pkg/scale"
	"github.com/zdunecki/graphfleet/pkg/store/mgostore"
	"github.com/zdunecki/graphfleet/pkg/store/sqlitestore"
	"github.com/zdunecki/graphfleet/pkg/util"
)

const (
	EnvPrefix = "GRAPHFLEET"
	FileName  = "graphfleet"

	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
	StoreDriverETCD   = "etcd"
	StoreDriverMemory = "memory"

	PubSubDriverNone  = "none"
	PubSubDriverNATS  = "nats"
	PubSubDriverKafka = "kafka"

	DefaultAPIAddr = ":7790"
)

type Fleet struct {
	// MaxWorkerCount is kept raw, the controller parses it and falls back on garbage.
	MaxWorkerCount   string
	MasterAddress    string
	InitialWorkers   int
	InstancePort     int
	InstanceDataPort int
	Parallelism      int
}

type Probe struct {
	Backoff time.Duration
	Timeout time.Duration
}

type K8s struct {
	Namespace    string
	Kubeconfig   string
	Image        string
	VolumeSize   string
	HostPathRoot string
}

type Store struct {
	Driver        string
	SQLitePath    string
	MongoURI      string
	MongoDB       string
	ETCDEndpoints []string
	ETCDPrefix    string
}

type PubSub struct {
	Driver string
	URL    string
	Topic  string
}

type Scale struct {
	IdleTTL    time.Duration
	Interval   time.Duration
	MinWorkers int
}

type API struct {
	Addr string
}

type Config struct {
	Fleet  Fleet
	Probe  Probe
	K8s    K8s
	Store  Store
	PubSub PubSub
	Scale  Scale
	API    API
}

// New returns a viper instance with defaults, env binding and config search paths set.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/graphfleet")

	SetDefaults(v)

	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("fleet.max_worker_count", "4")
	v.SetDefault("fleet.master_address", "")
	v.SetDefault("fleet.initial_workers", 0)
	v.SetDefault("fleet.instance_port", cluster.DefaultInstancePort)
	v.SetDefault("fleet.instance_data_port", cluster.DefaultInstanceDataPort)
	v.SetDefault("fleet.parallelism", 0)

	v.SetDefault("probe.backoff", probe.DefaultBackoff)
	v.SetDefault("probe.timeout", probe.DefaultTimeout)

	v.SetDefault("k8s.namespace", cluster.DefaultNamespace)
	v.SetDefault("k8s.kubeconfig", "")
	v.SetDefault("k8s.image", cluster.DefaultImage)
	v.SetDefault("k8s.volume_size", cluster.DefaultVolumeSize)
	v.SetDefault("k8s.host_path_root", cluster.DefaultHostPathRoot)

	v.SetDefault("store.driver", StoreDriverSQLite)
	v.SetDefault("store.sqlite.path", sqlitestore.DefaultPath)
	v.SetDefault("store.mongo.uri", mgostore.DefaultMongoAddr)
	v.SetDefault("store.mongo.db", mgostore.DefaultDatabaseName)
	v.SetDefault("store.etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("store.etcd.prefix", "graphfleet/")

	v.SetDefault("pubsub.driver", PubSubDriverNone)
	v.SetDefault("pubsub.url", "")
	v.SetDefault("pubsub.topic", pubsub.DefaultTopic)

	v.SetDefault("scale.idle_ttl", time.Duration(0))
	v.SetDefault("scale.interval", scale.DefaultInterval)
	v.SetDefault("scale.min_workers", 0)

	v.SetDefault("api.addr", DefaultAPIAddr)
}

// Load reads the config file when there is one. A missing file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		Fleet: Fleet{
			MaxWorkerCount:   v.GetString("fleet.max_worker_count"),
			MasterAddress:    v.GetString("fleet.master_address"),
			InitialWorkers:   v.GetInt("fleet.initial_workers"),
			InstancePort:     v.GetInt("fleet.instance_port"),
			InstanceDataPort: v.GetInt("fleet.instance_data_port"),
			Parallelism:      v.GetInt("fleet.parallelism"),
		},
		Probe: Probe{
			Backoff: v.GetDuration("probe.backoff"),
			Timeout: v.GetDuration("probe.timeout"),
		},
		K8s: K8s{
			Namespace:    v.GetString("k8s.namespace"),
			Kubeconfig:   v.GetString("k8s.kubeconfig"),
			Image:        v.GetString("k8s.image"),
			VolumeSize:   v.GetString("k8s.volume_size"),
			HostPathRoot: v.GetString("k8s.host_path_root"),
		},
		Store: Store{
			Driver:        v.GetString("store.driver"),
			SQLitePath:    v.GetString("store.sqlite.path"),
			MongoURI:      v.GetString("store.mongo.uri"),
			MongoDB:       v.GetString("store.mongo.db"),
			ETCDEndpoints: v.GetStringSlice("store.etcd.endpoints"),
			ETCDPrefix:    v.GetString("store.etcd.prefix"),
		},
		PubSub: PubSub{
			Driver: v.GetString("pubsub.driver"),
			URL:    v.GetString("pubsub.url"),
			Topic:  v.GetString("pubsub.topic"),
		},
		Scale: Scale{
			IdleTTL:    v.GetDuration("scale.idle_ttl"),
			Interval:   v.GetDuration("scale.interval"),
			MinWorkers: v.GetInt("scale.min_workers"),
		},
		API: API{
			Addr: v.GetString("api.addr"),
		},
	}

	if cfg.Fleet.MasterAddress == "" {
		ip, err := util.ResolveHostIP()
		if err != nil {
			return nil, err
		}
		cfg.Fleet.MasterAddress = ip
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverSQLite, StoreDriverMongo, StoreDriverETCD, StoreDriverMemory:
	default:
		return &InvalidValueError{Key: "store.driver", Value: c.Store.Driver}
	}

	switch c.PubSub.Driver {
	case PubSubDriverNone, PubSubDriverNATS, PubSubDriverKafka, "":
	default:
		return &InvalidValueError{Key: "pubsub.driver", Value: c.PubSub.Driver}
	}

	if c.Fleet.InitialWorkers < 0 {
		return &InvalidValueError{Key: "fleet.initial_workers", Value: c.Fleet.InitialWorkers}
	}

	return nil
}

func (c *Config) Cluster() *cluster.Config {
	return &cluster.Config{
		Namespace:        c.K8s.Namespace,
		Image:            c.K8s.Image,
		InstancePort:     c.Fleet.InstancePort,
		InstanceDataPort: c.Fleet.InstanceDataPort,
		VolumeSize:       c.K8s.VolumeSize,
		HostPathRoot:     c.K8s.HostPathRoot,
	}
}
