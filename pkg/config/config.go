package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Chain  ChainConfig  `mapstructure:"chain"`
	Signer SignerConfig `mapstructure:"signer"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// ChainConfig selects the network and the deployed contract set. The saga
// itself never branches on the network name; it only uses the addresses.
type ChainConfig struct {
	Network         string `mapstructure:"network"` // "base" or "base-sepolia"
	RpcUrl          string `mapstructure:"rpc_url"`
	ChainID         int64  `mapstructure:"chain_id"`
	USDCAddress     string `mapstructure:"usdc_address"`
	FactoryAddress  string `mapstructure:"factory_address"`
	TreasuryAddress string `mapstructure:"treasury_address"`
	ConfirmTimeout  int    `mapstructure:"confirm_timeout_seconds"`
	RoyaltyBps      int64  `mapstructure:"royalty_bps"`
}

type SignerConfig struct {
	Mnemonic     string `mapstructure:"mnemonic"`
	KeystorePath string `mapstructure:"keystore_path"` // encrypted mnemonic file, preferred over plain mnemonic
	Password     string `mapstructure:"password"`      // usually injected via env SIGNER_PASSWORD
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "gallery_user")
	viper.SetDefault("db.password", "gallery_password")
	viper.SetDefault("db.name", "gallery_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})

	viper.SetDefault("chain.network", "base-sepolia")
	viper.SetDefault("chain.chain_id", 84532)
	viper.SetDefault("chain.confirm_timeout_seconds", 90)
	viper.SetDefault("chain.royalty_bps", 250)

	viper.SetDefault("signer.keystore_path", "signer.json")
}
