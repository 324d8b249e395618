package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/zdunecki/graphfleet/api"
	v1 "github.com/zdunecki/graphfleet/api/v1"
	"github.com/zdunecki/graphfleet/pkg/cluster"
	"github.com/zdunecki/graphfleet/pkg/config"
	"github.com/zdunecki/graphfleet/pkg/controller"
	"github.com/zdunecki/graphfleet/pkg/metrics"
	"github.com/zdunecki/graphfleet/pkg/probe"
	"github.com/zdunecki/graphfleet/pkg/pubsub"
	"github.com/zdunecki/graphfleet/pkg/scale"
	"github.com/zdunecki/graphfleet/pkg/store"
	"github.com/zdunecki/graphfleet/pkg/store/options"
	clientv3 "go.etcd.io/etcd/client/v3"
	mgooptions "go.mongodb.org/mongo-driver/mongo/options"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const etcdDialTimeout = time.Second * 15

func serve(ctx context.Context, cfg *config.Config) error {
	clientset, err := newClientset(cfg.K8s.Kubeconfig)
	if err != nil {
		return err
	}

	k8s, err := cluster.NewK8sCluster(clientset, cfg.Cluster())
	if err != nil {
		return err
	}

	storage, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer storage.Close(context.Background())

	publisher, closePubSub, err := openPublisher(cfg.PubSub)
	if err != nil {
		return err
	}
	defer closePubSub()

	m := metrics.New()

	opts := []controller.Option{
		controller.WithCluster(k8s),
		controller.WithStorage(storage),
		controller.WithProbe(probe.New(
			probe.WithBackoff(cfg.Probe.Backoff),
			probe.WithTimeout(cfg.Probe.Timeout),
		)),
		controller.WithMaxWorkerCount(cfg.Fleet.MaxWorkerCount),
		controller.WithInstancePorts(cfg.Fleet.InstancePort, cfg.Fleet.InstanceDataPort),
		controller.WithParallelism(cfg.Fleet.Parallelism),
		controller.WithMetrics(m),
	}
	if publisher != nil {
		opts = append(opts, controller.WithPublisher(publisher))
	}

	c, err := controller.Instance(ctx, cfg.Fleet.MasterAddress, cfg.Fleet.InitialWorkers, opts...)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := m.Register(reg, c); err != nil {
		return err
	}

	// use tracking is always served, idle removal only runs with a ttl
	s := scale.New(c,
		scale.WithIdleTTL(cfg.Scale.IdleTTL),
		scale.WithInterval(cfg.Scale.Interval),
		scale.WithMinWorkers(cfg.Scale.MinWorkers),
	)
	if cfg.Scale.IdleTTL > 0 {
		go func() {
			if err := s.Run(ctx); err != nil {
				log.Error(err)
			}
		}()
		defer s.Stop()
	}

	apiV1, err := v1.New(v1.WithController(c), v1.WithScaler(s), v1.WithGatherer(reg))
	if err != nil {
		return err
	}

	a := api.New(chi.NewRouter())
	if err := apiV1.Register(a); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: a.Handler(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening on: ", cfg.API.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func newClientset(kubeconfig string) (kubernetes.Interface, error) {
	var (
		restConfig *rest.Config
		err        error
	)

	if kubeconfig == "" {
		restConfig, err = rest.InClusterConfig()
	} else {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, err
	}

	return kubernetes.NewForConfig(restConfig)
}

func openStore(cfg config.Store) (store.Storage, error) {
	var opt *options.RepositoryOption

	switch cfg.Driver {
	case config.StoreDriverMongo:
		opt = options.Client().WithMongoDB(cfg.MongoDB, mgooptions.Client().ApplyURI(cfg.MongoURI))
	case config.StoreDriverETCD:
		opt = options.Client().WithETCD(clientv3.Config{
			Endpoints:   cfg.ETCDEndpoints,
			DialTimeout: etcdDialTimeout,
		}, cfg.ETCDPrefix)
	case config.StoreDriverMemory:
		opt = options.Client().WithCache()
	default:
		opt = options.Client().WithSQLite(cfg.SQLitePath)
	}

	return options.WithStorage(opt)
}

// openPublisher returns a nil publisher when events are disabled.
func openPublisher(cfg config.PubSub) (pubsub.Publisher, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.PubSubDriverNATS:
		url := cfg.URL
		closeServer := noop

		if url == "" {
			s, err := pubsub.NewNATSServer("127.0.0.1", -1)
			if err != nil {
				return nil, noop, err
			}
			url = s.ClientURL()
			closeServer = s.Shutdown
		}

		ps, err := pubsub.NewNATS(url)
		if err != nil {
			closeServer()
			return nil, noop, err
		}

		return pubsub.NewEventPublisher(ps, cfg.Topic), func() {
			ps.Close()
			closeServer()
		}, nil
	case config.PubSubDriverKafka:
		ps, err := pubsub.NewKafka(cfg.URL)
		if err != nil {
			return nil, noop, err
		}

		return pubsub.NewEventPublisher(ps, cfg.Topic), func() {
			ps.Close()
		}, nil
	}

	return nil, noop, nil
}
