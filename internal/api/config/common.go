package config

// Config 配置主体
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	DB            DBConfig            `mapstructure:"database"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Storage       StorageConfig       `mapstructure:"storage"`
	LLM           LLMConfig           `mapstructure:"llm"`
	AI            AIConfig            `mapstructure:"ai"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	KafkaAugment  KafkaAugmentTopic   `mapstructure:"kafka_augment"`
	Cron          CronConfig          `mapstructure:"cron"`
	Logstash      LogstashConfig      `mapstructure:"logstash"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

// MongoConfig 文档库配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
}

// StorageConfig 附件存储配置
type StorageConfig struct {
	Driver             string `mapstructure:"driver"` // local | minio
	LocalRoot          string `mapstructure:"local_root"`
	MaxContentFileSize int64  `mapstructure:"max_content_file_size"`
	MaxCommentFileSize int64  `mapstructure:"max_comment_file_size"`
}

type LLMConfig struct {
	URL            string  `mapstructure:"url"`
	TextModel      string  `mapstructure:"text_model"`
	ApiKey         string  `mapstructure:"api_key"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Concurrency    int64   `mapstructure:"concurrency"`
	BasePromptPath string  `mapstructure:"base_prompt_path"`
}

// AIConfig AI 自动回答配置
type AIConfig struct {
	Delivery         string `mapstructure:"delivery"` // field | comment
	GenerateOnCreate bool   `mapstructure:"generate_on_create"`
	GenerateOnRead   bool   `mapstructure:"generate_on_read"`
	SystemAccountID  uint64 `mapstructure:"system_account_id"`
	SystemUsername   string `mapstructure:"system_username"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	LockSeconds      int    `mapstructure:"lock_seconds"`
	Workers          int    `mapstructure:"workers"`
	QueueSize        int    `mapstructure:"queue_size"`
	Dispatcher       string `mapstructure:"dispatcher"` // pool | kafka
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaAugmentTopic struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// CronConfig 定时任务配置
type CronConfig struct {
	OrphanSweepSpec  string `mapstructure:"orphan_sweep_spec"`
	OrphanGraceHours int    `mapstructure:"orphan_grace_hours"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type ObservabilityConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
}
