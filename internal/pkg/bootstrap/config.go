package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构，对应 configs/config.yaml。
type Config struct {
	App         AppConfig         `yaml:"app"`
	Infra       InfraConfig       `yaml:"infra"`
	Progression ProgressionConfig `yaml:"progression"`
	Gateway     GatewayConfig     `yaml:"gateway"`
}

type AppConfig struct {
	Env          string       `yaml:"env"`
	LogLevel     string       `yaml:"logLevel"`
	FeatureFlags FeatureFlags `yaml:"featureFlags"`
}

// FeatureFlags 是可以通过 Nacos 热更新的开关。
type FeatureFlags struct {
	EnableFlashSale        bool `yaml:"enableFlashSale"`
	EnableVoucherRules     bool `yaml:"enableVoucherRules"`
	EnableProgressionPush  bool `yaml:"enableProgressionPush"`
	EnableDistributedLocks bool `yaml:"enableDistributedLocks"`
}

type InfraConfig struct {
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

type KafkaTopics struct {
	CommerceEvents    string `yaml:"commerceEvents"`
	ProgressionEvents string `yaml:"progressionEvents"`
}

type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type ZookeeperConfig struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
}

type NacosConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addrs     string `yaml:"addrs"`
	Namespace string `yaml:"namespace"`
	Group     string `yaml:"group"`
	DataID    string `yaml:"dataId"`
}

// GatewayConfig 描述边缘网关的上游服务，Nacos 不可用时使用这里的静态地址。
type GatewayConfig struct {
	Upstreams map[string]string `yaml:"upstreams"`
}

// ProgressionConfig 是等级/签到规则表的原始配置，
// 由 progression/infrastructure 转换为领域层的 Rules 并做校验。
type ProgressionConfig struct {
	BaseRates     map[string]float64  `yaml:"baseRates"`
	DecayFactor   float64             `yaml:"decayFactor"`
	DailyLadder   []RewardConfig      `yaml:"dailyLadder"`
	RewardPolicy  RewardPolicyConfig  `yaml:"rewardPolicy"`
	LevelSystems  map[string][]string `yaml:"levelSystems"`
	LevelsPerTier int                 `yaml:"levelsPerTier"`
}

type RewardConfig struct {
	Amount int64  `yaml:"amount"`
	Type   string `yaml:"type"`
}

type RewardPolicyConfig struct {
	CoinRewardsGrantExp    bool `yaml:"coinRewardsGrantExp"`
	NonCoinRewardsGrantExp bool `yaml:"nonCoinRewardsGrantExp"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回当前生效的配置快照，未初始化时返回默认配置。
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

// SetCurrentConfig 替换当前配置，Nacos 监听回调和测试都会用到。
func SetCurrentConfig(cfg *Config) {
	currentConfig.Store(cfg)
}

// DefaultConfig 返回本地开发用的默认配置。
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			LogLevel: "info",
			FeatureFlags: FeatureFlags{
				EnableFlashSale:       true,
				EnableVoucherRules:    true,
				EnableProgressionPush: true,
			},
		},
		Infra: InfraConfig{
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topics: KafkaTopics{
					CommerceEvents:    "commerce-events",
					ProgressionEvents: "progression-events",
				},
			},
			Redis: RedisConfig{Addrs: []string{"localhost:6379"}},
			MySQL: MySQLConfig{
				DSN:             "root:root@tcp(localhost:3306)/inkverse?charset=utf8mb4&parseTime=True&loc=Local",
				MaxOpenConns:    20,
				MaxIdleConns:    10,
				ConnMaxLifetime: time.Hour,
			},
			Zookeeper: ZookeeperConfig{SessionTimeout: 5 * time.Second},
			Nacos:     NacosConfig{Addrs: "localhost:8848", Group: "DEFAULT_GROUP", DataID: "inkverse.yaml"},
		},
		Gateway: GatewayConfig{
			Upstreams: map[string]string{
				"commerce-service":    "http://localhost:8081",
				"progression-service": "http://localhost:8082",
			},
		},
	}
}

// ParseConfig 在默认配置之上解析 YAML 内容。
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile 读取配置文件，文件不存在时使用默认配置。
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return ParseConfig(data)
}

// applyEnvOverrides 允许用环境变量覆盖部署相关的配置项。
func applyEnvOverrides(cfg *Config) {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.MySQL.DSN = getEnv("MYSQL_DSN", cfg.Infra.MySQL.DSN)
	cfg.Infra.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Infra.Redis.Password)
	cfg.Infra.Nacos.Addrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.Addrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("REDIS_ADDRS"); ok && v != "" {
		cfg.Infra.Redis.Addrs = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("ZOOKEEPER_SERVERS"); ok && v != "" {
		cfg.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("NACOS_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Infra.Nacos.Enabled = b
		}
	}
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
