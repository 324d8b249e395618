package cluster

const (
	DefaultNamespace        = "default"
	DefaultImage            = "jasminegraph/worker:latest"
	DefaultInstancePort     = 7780
	DefaultInstanceDataPort = 7781
	DefaultVolumeSize       = "1Gi"
	DefaultHostPathRoot     = "/var/tmp/graphfleet"
	DefaultStorageClass     = "manual"
	DefaultDataMountPath    = "/var/tmp/jasminegraph"
)

type Config struct {
	Namespace        string
	Image            string
	InstancePort     int
	InstanceDataPort int
	VolumeSize       string
	HostPathRoot     string
}

func DefaultConfig() *Config {
	return &Config{
		Namespace:        DefaultNamespace,
		Image:            DefaultImage,
		InstancePort:     DefaultInstancePort,
		InstanceDataPort: DefaultInstanceDataPort,
		VolumeSize:       DefaultVolumeSize,
		HostPathRoot:     DefaultHostPathRoot,
	}
}

func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}

	cfg := *c
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.Image == "" {
		cfg.Image = def.Image
	}
	if cfg.InstancePort == 0 {
		cfg.InstancePort = def.InstancePort
	}
	if cfg.InstanceDataPort == 0 {
		cfg.InstanceDataPort = def.InstanceDataPort
	}
	if cfg.VolumeSize == "" {
		cfg.VolumeSize = def.VolumeSize
	}
	if cfg.HostPathRoot == "" {
		cfg.HostPathRoot = def.HostPathRoot
	}

	return &cfg
}
