// Package conf 盘后处理服务配置。
package conf

import (
	"time"

	"github.com/wyfcoding/pkg/config"
)

// Config 在基础设施配置之上叠加盘后处理业务段。
type Config struct {
	config.Config `mapstructure:",squash"`

	PostTrade PostTradeConfig `mapstructure:"posttrade" toml:"posttrade"`
}

// PostTradeConfig 盘后处理业务参数
type PostTradeConfig struct {
	// ExecutionFeed 入站成交回报消费参数
	ExecutionFeed config.KafkaConfig `mapstructure:"execution_feed" toml:"execution_feed"`
	// TradeEvents 业务事件流参数（生产与回环消费共用 broker 配置）
	TradeEvents config.KafkaConfig `mapstructure:"trade_events" toml:"trade_events"`

	// Gateway 结算网关外呼参数
	Gateway GatewayConfig `mapstructure:"gateway" toml:"gateway"`

	// SettlementCycleDays 结算周期（T+n 营业日）
	SettlementCycleDays int `mapstructure:"settlement_cycle_days" toml:"settlement_cycle_days"`
	// QtyScale 分配数量精度（小数位数）
	QtyScale int32 `mapstructure:"qty_scale" toml:"qty_scale"`
	// DedupeHorizon 入站去重窗口
	DedupeHorizon time.Duration `mapstructure:"dedupe_horizon" toml:"dedupe_horizon"`
	// RuleTimeout 单条规则墙钟上限
	RuleTimeout time.Duration `mapstructure:"rule_timeout" toml:"rule_timeout"`
	// ConsumerWorkers 每个消费组的并发 worker 数
	ConsumerWorkers int `mapstructure:"consumer_workers" toml:"consumer_workers"`
	// OutboxBatchSize 出箱单轮扫描批量
	OutboxBatchSize int `mapstructure:"outbox_batch_size" toml:"outbox_batch_size"`
	// OutboxInterval 出箱扫描间隔
	OutboxInterval time.Duration `mapstructure:"outbox_interval" toml:"outbox_interval"`
	// CurrencyScales 币种金额精度覆盖，缺省见领域默认表
	CurrencyScales map[string]int32 `mapstructure:"currency_scales" toml:"currency_scales"`
}

// GatewayConfig 结算网关客户端参数
type GatewayConfig struct {
	BaseURL        string        `mapstructure:"base_url"        toml:"base_url"        validate:"required"`
	Timeout        time.Duration `mapstructure:"timeout"         toml:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"     toml:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" toml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"     toml:"max_backoff"`
}
