package settings

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TIMEDQUEUE_QUEUE_CAPACITY.
const EnvPrefix = "TIMEDQUEUE"

// Default returns the configuration the drivers run with when no file is given.
func Default() Config {
	return Config{
		Queue: Queue{Capacity: 128},
		Logger: Logger{
			LogLevel:   "info",
			MaxBackups: 3,
			MaxAge:     28,
			MaxSize:    100,
		},
		Load: LoadTest{
			Mode:             "timed",
			Producers:        1,
			Consumers:        1,
			ItemsPerProducer: 1_000_000,
			InsertTimeout:    time.Millisecond,
			RemoveTimeout:    time.Millisecond,
			ReportInterval:   time.Second,
		},
		Latency: Latency{
			Capacity: 1,
			Passes:   1_000_000,
		},
		Monitor: Monitor{
			Mode: "release",
			Host: "127.0.0.1",
		},
	}
}

// Load reads the configuration from path (if not empty) and the environment,
// on top of Default, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("queue.capacity", d.Queue.Capacity)

	v.SetDefault("logger.log_level", d.Logger.LogLevel)
	v.SetDefault("logger.file_log_name", d.Logger.FileLogName)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.compress", d.Logger.Compress)

	v.SetDefault("load.mode", d.Load.Mode)
	v.SetDefault("load.producers", d.Load.Producers)
	v.SetDefault("load.consumers", d.Load.Consumers)
	v.SetDefault("load.items_per_producer", d.Load.ItemsPerProducer)
	v.SetDefault("load.insert_timeout", d.Load.InsertTimeout)
	v.SetDefault("load.remove_timeout", d.Load.RemoveTimeout)
	v.SetDefault("load.report_interval", d.Load.ReportInterval)

	v.SetDefault("latency.capacity", d.Latency.Capacity)
	v.SetDefault("latency.passes", d.Latency.Passes)

	v.SetDefault("monitor.mode", d.Monitor.Mode)
	v.SetDefault("monitor.host", d.Monitor.Host)
	v.SetDefault("monitor.port", d.Monitor.Port)
}
