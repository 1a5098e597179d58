package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Postgres  DBConfig
	Redis     RedisConfig
	S3        S3Config
	Storage   StorageConfig
	Resumable ResumableConfig
	Upload    UploadConfig
	Worker    WorkerConfig
	ASR       ASRConfig
	Logger    Logger
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
	SSLMode  string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
}

type S3Config struct {
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	RawBucket   string
	FinalBucket string
}

// StorageConfig points at the local directory backing filesystem-resident
// storage keys. Keys that do not resolve under Dir are S3-resident.
type StorageConfig struct {
	Dir string
}

// ResumableConfig locates the data directory of the external resumable
// upload server. Assembled files live at <DataDir>/<externalID> with a
// <externalID>.info metadata sidecar.
type ResumableConfig struct {
	DataDir string
}

type UploadConfig struct {
	DefaultPartSize int64
	MinPartSize     int64
}

type WorkerConfig struct {
	PollInterval   time.Duration
	TranscodeLoops int
	ASRLoops       int
	ExportLoops    int
	MaxCPUUsage    float64
}

type ASRConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
