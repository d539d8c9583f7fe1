package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkade-os/checkpointd/internal/core/application"
	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/arkade-os/checkpointd/internal/core/ports"
	"github.com/arkade-os/checkpointd/internal/infrastructure/db"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const ConfigFileName = "checkpointd.yaml"

var (
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
		"inmemory": {},
	}
	supportedNetworks = supportedType{
		domain.NetworkMainnet.String():   {},
		domain.NetworkTestnet.String():   {},
		domain.NetworkStagenet.String():  {},
		domain.NetworkFakechain.String(): {},
	}
)

type Config struct {
	Datadir  string
	LogLevel int
	Network  string

	DbType       string
	DbDir        string
	DbUrl        string
	DbAutoCreate bool
	ReadOnly     bool

	FinalityDepth        int
	CheckpointInterval   uint64
	PersistentInterval   uint64
	RetentionWindow      uint64
	MinCullHeight        uint64
	CheckpointingVersion uint8

	OtelCollectorEndpoint string
	OtelPushInterval      int64

	network domain.Network
	repo    ports.RepoManager
	manager *application.CheckpointManager
}

func (c *Config) String() string {
	clone := *c
	if clone.DbUrl != "" {
		clone.DbUrl = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir          = appDataDir("checkpointd")
	defaultLogLevel         = 4
	defaultNetwork          = domain.NetworkMainnet.String()
	defaultDbType           = "badger"
	defaultOtelPushInterval = 10 // seconds
)

// env returns a list of strings prefixed with `CHECKPOINTD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("CHECKPOINTD_%s", value)
	}

	return envs
}

const (
	DatadirFlagName               = "datadir"
	LogLevelFlagName              = "log-level"
	NetworkFlagName               = "network"
	DbTypeFlagName                = "db-type"
	DbUrlFlagName                 = "pg-db-url"
	DbAutoCreateFlagName          = "pg-db-autocreate"
	ReadOnlyFlagName              = "read-only"
	FinalityDepthFlagName         = "finality-depth"
	CheckpointIntervalFlagName    = "checkpoint-interval"
	PersistentIntervalFlagName    = "persistent-interval"
	RetentionWindowFlagName       = "retention-window"
	MinCullHeightFlagName         = "min-cull-height"
	CheckpointingVersionFlagName  = "checkpointing-version"
	OtelCollectorEndpointFlagName = "otel-collector-endpoint"
	OtelPushIntervalFlagName      = "otel-push-interval"
)

// Flags returns a new set of flags for every app, urfave/cli stores parsed
// values in the flags themselves.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Usage: "Directory to store data",
			Name:  DatadirFlagName, EnvVars: env("DATADIR"),
			Value: defaultDatadir,
		},
		&cli.IntFlag{
			Usage: "Logging level (0-6, where 6 is trace)",
			Name:  LogLevelFlagName, EnvVars: env("LOG_LEVEL"),
			Value: defaultLogLevel,
		},
		&cli.StringFlag{
			Usage: "Network (mainnet, testnet, stagenet, fakechain)",
			Name:  NetworkFlagName, EnvVars: env("NETWORK"),
			Value: defaultNetwork,
		},
		&cli.StringFlag{
			Usage: "Database type (badger, sqlite, postgres, inmemory)",
			Name:  DbTypeFlagName, EnvVars: env("DB_TYPE"),
			Value: defaultDbType,
		},
		&cli.StringFlag{
			Usage: "Postgres connection url if CHECKPOINTD_DB_TYPE is set to postgres",
			Name:  DbUrlFlagName, EnvVars: env("PG_DB_URL"),
		},
		&cli.BoolFlag{
			Usage: "Create the postgres database if it doesn't exist",
			Name:  DbAutoCreateFlagName, EnvVars: env("PG_DB_AUTOCREATE"),
		},
		&cli.BoolFlag{
			Usage: "Open the checkpoint store in read-only mode",
			Name:  ReadOnlyFlagName, EnvVars: env("READ_ONLY"),
		},
		&cli.IntFlag{
			Usage: "Number of service node checkpoints required to make the oldest one immutable",
			Name:  FinalityDepthFlagName, EnvVars: env("FINALITY_DEPTH"),
			Value: domain.DefaultServiceNodeFinalityDepth,
		},
		&cli.Uint64Flag{
			Usage: "Number of blocks between service node checkpoints",
			Name:  CheckpointIntervalFlagName, EnvVars: env("CHECKPOINT_INTERVAL"),
			Value: application.DefaultCheckpointInterval,
		},
		&cli.Uint64Flag{
			Usage: "Checkpoints at multiples of this height are never culled, " +
				"must be a multiple of the checkpoint interval",
			Name: PersistentIntervalFlagName, EnvVars: env("PERSISTENT_INTERVAL"),
			Value: application.DefaultPersistentInterval,
		},
		&cli.Uint64Flag{
			Usage: "Number of blocks below the immutable checkpoint whose checkpoints are culled " +
				"on block added, defaults to the persistent interval",
			Name: RetentionWindowFlagName, EnvVars: env("RETENTION_WINDOW"),
		},
		&cli.Uint64Flag{
			Usage: "Lowest block height that triggers culling, defaults to the persistent interval",
			Name:  MinCullHeightFlagName, EnvVars: env("MIN_CULL_HEIGHT"),
		},
		&cli.UintFlag{
			Usage: "First block major version with checkpointing enabled",
			Name:  CheckpointingVersionFlagName, EnvVars: env("CHECKPOINTING_VERSION"),
			Value: application.DefaultCheckpointingVersion,
		},
		&cli.StringFlag{
			Usage: "OpenTelemetry collector endpoint, metrics are disabled if empty",
			Name:  OtelCollectorEndpointFlagName, EnvVars: env("OTEL_COLLECTOR_ENDPOINT"),
		},
		&cli.Int64Flag{
			Usage: "OpenTelemetry metrics push interval in seconds",
			Name:  OtelPushIntervalFlagName, EnvVars: env("OTEL_PUSH_INTERVAL"),
			Value: int64(defaultOtelPushInterval),
		},
	}
}

// LoadConfig builds the config out of flags, env vars and the optional
// checkpointd.yaml file in the datadir, in this order of precedence.
func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	datadir := c.String(DatadirFlagName)
	v, err := loadConfigFile(datadir)
	if err != nil {
		return nil, err
	}
	values := flagValues{c, v}

	dbType := values.str(DbTypeFlagName)
	var dbUrl string
	if dbType == "postgres" {
		dbUrl = values.str(DbUrlFlagName)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	version := values.uint(CheckpointingVersionFlagName)
	if version > 255 {
		return nil, fmt.Errorf("checkpointing version must be lower than 256")
	}

	persistentInterval := values.uint64(PersistentIntervalFlagName)
	retentionWindow := values.uint64(RetentionWindowFlagName)
	if retentionWindow == 0 {
		retentionWindow = persistentInterval
	}
	minCullHeight := values.uint64(MinCullHeightFlagName)
	if minCullHeight == 0 {
		minCullHeight = persistentInterval
	}

	return &Config{
		Datadir:               datadir,
		LogLevel:              values.integer(LogLevelFlagName),
		Network:               values.str(NetworkFlagName),
		DbType:                dbType,
		DbDir:                 filepath.Join(datadir, "db"),
		DbUrl:                 dbUrl,
		DbAutoCreate:          values.boolean(DbAutoCreateFlagName),
		ReadOnly:              values.boolean(ReadOnlyFlagName),
		FinalityDepth:         values.integer(FinalityDepthFlagName),
		CheckpointInterval:    values.uint64(CheckpointIntervalFlagName),
		PersistentInterval:    persistentInterval,
		RetentionWindow:       retentionWindow,
		MinCullHeight:         minCullHeight,
		CheckpointingVersion:  uint8(version),
		OtelCollectorEndpoint: values.str(OtelCollectorEndpointFlagName),
		OtelPushInterval:      values.int64(OtelPushIntervalFlagName),
	}, nil
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedNetworks.supports(c.Network) {
		return fmt.Errorf(
			"network not supported, please select one of: %s", supportedNetworks,
		)
	}
	if c.LogLevel < 0 || c.LogLevel > int(log.TraceLevel) {
		return fmt.Errorf("log level must be between 0 and %d", log.TraceLevel)
	}
	if c.FinalityDepth < 1 {
		return fmt.Errorf("finality depth must be greater than 0")
	}
	if c.OtelPushInterval <= 0 {
		return fmt.Errorf("otel push interval must be greater than 0")
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}

	network, err := domain.ParseNetwork(c.Network)
	if err != nil {
		return err
	}
	c.network = network

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.checkpointManager(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Params() application.Params {
	return application.Params{
		CheckpointInterval:   c.CheckpointInterval,
		PersistentInterval:   c.PersistentInterval,
		RetentionWindow:      c.RetentionWindow,
		MinCullHeight:        c.MinCullHeight,
		CheckpointingVersion: c.CheckpointingVersion,
	}
}

func (c *Config) NetworkType() domain.Network {
	return c.network
}

func (c *Config) RepoManager() ports.RepoManager {
	return c.repo
}

func (c *Config) CheckpointManager() *application.CheckpointManager {
	return c.manager
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	logger := log.New()
	logger.SetLevel(log.Level(c.LogLevel))

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		if err := makeDirectoryIfNotExists(c.DbDir); err != nil {
			return fmt.Errorf("failed to create db dir: %s", err)
		}
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, c.DbAutoCreate}
	case "inmemory":
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
		Options: domain.RepoOptions{
			ReadOnly: c.ReadOnly,
			Finality: domain.FinalityRule{ServiceNodeDepth: c.FinalityDepth},
		},
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) checkpointManager() error {
	manager, err := application.NewCheckpointManager(c.Params())
	if err != nil {
		return err
	}
	c.manager = manager
	return nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(DatadirFlagName)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

// appDataDir returns the default datadir of the given app in the user home.
func appDataDir(appName string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "." + appName
	}
	return filepath.Join(homeDir, "."+appName)
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

// loadConfigFile returns nil if there's no config file in the datadir.
func loadConfigFile(datadir string) (*viper.Viper, error) {
	path := filepath.Join(datadir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %s", path, err)
	}
	log.Debugf("loaded config file %s", path)
	return v, nil
}

// flagValues gives precedence to flags and env vars over the config file.
type flagValues struct {
	c *cli.Context
	v *viper.Viper
}

func (f flagValues) fromFile(name string) bool {
	return f.v != nil && !f.c.IsSet(name) && f.v.IsSet(name)
}

func (f flagValues) str(name string) string {
	if f.fromFile(name) {
		return f.v.GetString(name)
	}
	return f.c.String(name)
}

func (f flagValues) boolean(name string) bool {
	if f.fromFile(name) {
		return f.v.GetBool(name)
	}
	return f.c.Bool(name)
}

func (f flagValues) integer(name string) int {
	if f.fromFile(name) {
		return f.v.GetInt(name)
	}
	return f.c.Int(name)
}

func (f flagValues) int64(name string) int64 {
	if f.fromFile(name) {
		return f.v.GetInt64(name)
	}
	return f.c.Int64(name)
}

func (f flagValues) uint(name string) uint {
	if f.fromFile(name) {
		return f.v.GetUint(name)
	}
	return f.c.Uint(name)
}

func (f flagValues) uint64(name string) uint64 {
	if f.fromFile(name) {
		return f.v.GetUint64(name)
	}
	return f.c.Uint64(name)
}
