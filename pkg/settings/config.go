package settings

import "time"

type Config struct {
	Queue   Queue    `mapstructure:"queue"`
	Logger  Logger   `mapstructure:"logger"`
	Load    LoadTest `mapstructure:"load"`
	Latency Latency  `mapstructure:"latency"`
	Monitor Monitor  `mapstructure:"monitor"`
}

// Queue is the configuration for the shared queue used by the drivers
type Queue struct {
	Capacity int `mapstructure:"capacity" validate:"gt=0"`
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	FileLogName string `mapstructure:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge      int    `mapstructure:"max_age" validate:"gte=0"`  // Days
	MaxSize     int    `mapstructure:"max_size" validate:"gte=0"` // Megabytes
	Compress    bool   `mapstructure:"compress"`
}

// LoadTest is the configuration for the producer/consumer load test
type LoadTest struct {
	Mode             string        `mapstructure:"mode" validate:"oneof=blocking timed"`
	Producers        int           `mapstructure:"producers" validate:"gt=0"`
	Consumers        int           `mapstructure:"consumers" validate:"gt=0"`
	ItemsPerProducer int           `mapstructure:"items_per_producer" validate:"gt=0"`
	InsertTimeout    time.Duration `mapstructure:"insert_timeout" validate:"gte=0"`
	RemoveTimeout    time.Duration `mapstructure:"remove_timeout" validate:"gte=0"`
	ReportInterval   time.Duration `mapstructure:"report_interval" validate:"gte=0"`
}

// Latency is the configuration for the latency measurement
type Latency struct {
	Capacity int `mapstructure:"capacity" validate:"gt=0"`
	Passes   int `mapstructure:"passes" validate:"gt=0"`
}

// Monitor is the configuration for the HTTP stats server.
// A zero Port disables it.
type Monitor struct {
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}
