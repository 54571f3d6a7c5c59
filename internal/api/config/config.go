package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("AGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return err
	}

	Cfg = cfg
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 只含默认值的配置，测试与工具使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := unmarshal(v)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_root", "./uploads")
	v.SetDefault("storage.max_content_file_size", 5<<20)
	v.SetDefault("storage.max_comment_file_size", 2<<20)

	v.SetDefault("llm.text_model", "gpt-3.5-turbo")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.concurrency", 5)

	v.SetDefault("ai.delivery", "field")
	v.SetDefault("ai.generate_on_create", false)
	v.SetDefault("ai.generate_on_read", false)
	v.SetDefault("ai.system_username", "ai-assistant")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.lock_seconds", 60)
	v.SetDefault("ai.workers", 4)
	v.SetDefault("ai.queue_size", 256)
	v.SetDefault("ai.dispatcher", "pool")

	v.SetDefault("kafka_augment.topic", "agora-ai-augment")
	v.SetDefault("kafka_augment.group_id", "agora-ai-augment-group")

	v.SetDefault("cron.orphan_sweep_spec", "0 30 3 * * *")
	v.SetDefault("cron.orphan_grace_hours", 24)

	v.SetDefault("logstash.index", "logstash-agora")

	v.SetDefault("jwt.issuer", "Agora")
	v.SetDefault("observability.metrics_path", "/metrics")
}

func (c *Config) validate() error {
	switch c.AI.Delivery {
	case "field", "comment":
	default:
		return fmt.Errorf("invalid ai.delivery %q", c.AI.Delivery)
	}
	switch c.AI.Dispatcher {
	case "pool", "kafka":
	default:
		return fmt.Errorf("invalid ai.dispatcher %q", c.AI.Dispatcher)
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return fmt.Errorf("invalid storage.driver %q", c.Storage.Driver)
	}
	if c.AI.Workers <= 0 || c.AI.QueueSize <= 0 {
		return errors.New("ai.workers and ai.queue_size must be positive")
	}
	if c.AI.TimeoutSeconds <= 0 || c.AI.LockSeconds <= 0 {
		return errors.New("ai.timeout_seconds and ai.lock_seconds must be positive")
	}
	// 锁在生成结束前过期会导致重复生成
	if c.AI.LockSeconds <= c.AI.TimeoutSeconds {
		return fmt.Errorf("ai.lock_seconds (%d) must be greater than ai.timeout_seconds (%d)",
			c.AI.LockSeconds, c.AI.TimeoutSeconds)
	}
	return nil
}
