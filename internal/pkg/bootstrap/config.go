// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合了网关启动所需的全部配置。
// 所有组件都通过构造函数接收自己关心的那部分配置，
// 不存在包级别的可变全局配置。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstreams UpstreamsConfig `yaml:"upstreams"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Nacos     NacosConfig     `yaml:"nacos"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// UpstreamsConfig 保存各个下游服务的静态地址。
// 配置了 Nacos 时这些地址只作为服务发现失败后的兜底。
type UpstreamsConfig struct {
	Products  string        `yaml:"products"`
	Inventory string        `yaml:"inventory"`
	Orders    string        `yaml:"orders"`
	Users     string        `yaml:"users"`
	Timeout   time.Duration `yaml:"timeout"`
	// 订单创建链路慢，单独给更长的超时
	OrderTimeout time.Duration `yaml:"order_timeout"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// KafkaConfig 为空 Brokers 时表示不发布事件。
type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

// RedisConfig 为空 Addr 时表示不启用库存读缓存。
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ZookeeperConfig 为空 Servers 时退化为进程内按商品加锁。
type ZookeeperConfig struct {
	Servers string `yaml:"servers"`
}

// MySQLConfig 为空 DSN 时不记录 Saga 流水。
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

type RateLimitConfig struct {
	RequestLimit int           `yaml:"request_limit"`
	Window       time.Duration `yaml:"window"`
}

// Default 返回与本地开发环境匹配的默认配置。
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, LogLevel: "info"},
		Upstreams: UpstreamsConfig{
			Products:     "http://localhost:8001",
			Inventory:    "http://localhost:8000",
			Orders:       "http://localhost:4000",
			Users:        "http://localhost:5000",
			Timeout:      30 * time.Second,
			OrderTimeout: 60 * time.Second,
		},
		Jaeger:    JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		Kafka:     KafkaConfig{Topic: "stock-events"},
		Redis:     RedisConfig{CacheTTL: 30 * time.Second},
		Nacos:     NacosConfig{Group: "DEFAULT_GROUP"},
		RateLimit: RateLimitConfig{RequestLimit: 60, Window: time.Minute},
	}
}

// Load 先读取 yaml 文件（可以不存在），再用环境变量覆盖。
// 环境变量的优先级最高，方便容器化部署时逐项覆盖。
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Upstreams.Timeout <= 0 {
		cfg.Upstreams.Timeout = 30 * time.Second
	}
	if cfg.Upstreams.OrderTimeout <= 0 {
		cfg.Upstreams.OrderTimeout = 60 * time.Second
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setEnv(&cfg.Server.LogLevel, "LOG_LEVEL")
	setEnv(&cfg.Upstreams.Products, "PRODUCT_SERVICE_URL")
	setEnv(&cfg.Upstreams.Inventory, "INVENTORY_SERVICE_URL")
	setEnv(&cfg.Upstreams.Orders, "ORDER_SERVICE_URL")
	setEnv(&cfg.Upstreams.Users, "USER_SERVICE_URL")
	setEnv(&cfg.Jaeger.Endpoint, "JAEGER_ENDPOINT")
	setEnv(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setEnv(&cfg.Kafka.Topic, "KAFKA_STOCK_TOPIC")
	setEnv(&cfg.Redis.Addr, "REDIS_ADDR")
	setEnv(&cfg.Zookeeper.Servers, "ZK_SERVERS")
	setEnv(&cfg.MySQL.DSN, "MYSQL_DSN")
	setEnv(&cfg.Nacos.ServerAddrs, "NACOS_SERVER_ADDRS")
	setEnv(&cfg.Nacos.Namespace, "NACOS_NAMESPACE")
	setEnv(&cfg.Nacos.Group, "NACOS_GROUP")
}

func setEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
