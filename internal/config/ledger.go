package config

import (
	"time"

	"github.com/spf13/viper"
)

type LedgerConfig struct {
	MaxRetryAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RankingCacheTTL   time.Duration
	DefaultRankLimit  int
	MaxRankLimit      int
	MaxManualDelta    int64
	HistoryLimit      int
	EventQueue        string
}

func LoadLedgerConfig() *LedgerConfig {
	viper.SetDefault("ledger.max_retry_attempts", 4)
	viper.SetDefault("ledger.retry_initial_delay", 10*time.Millisecond)
	viper.SetDefault("ledger.retry_max_delay", 200*time.Millisecond)
	viper.SetDefault("ledger.ranking_cache_ttl", 30*time.Second)
	viper.SetDefault("ledger.default_rank_limit", 10)
	viper.SetDefault("ledger.max_rank_limit", 100)
	viper.SetDefault("ledger.max_manual_delta", 1000)
	viper.SetDefault("ledger.history_limit", 500)
	viper.SetDefault("ledger.event_queue", "ledger_events")

	return &LedgerConfig{
		MaxRetryAttempts:  viper.GetInt("ledger.max_retry_attempts"),
		RetryInitialDelay: viper.GetDuration("ledger.retry_initial_delay"),
		RetryMaxDelay:     viper.GetDuration("ledger.retry_max_delay"),
		RankingCacheTTL:   viper.GetDuration("ledger.ranking_cache_ttl"),
		DefaultRankLimit:  viper.GetInt("ledger.default_rank_limit"),
		MaxRankLimit:      viper.GetInt("ledger.max_rank_limit"),
		MaxManualDelta:    viper.GetInt64("ledger.max_manual_delta"),
		HistoryLimit:      viper.GetInt("ledger.history_limit"),
		EventQueue:        viper.GetString("ledger.event_queue"),
	}
}

// BindEnv maps the LEDGER_* environment variables onto the ledger.* keys.
func BindEnv() {
	viper.BindEnv("ledger.max_retry_attempts", "LEDGER_MAX_RETRY_ATTEMPTS")
	viper.BindEnv("ledger.retry_initial_delay", "LEDGER_RETRY_INITIAL_DELAY")
	viper.BindEnv("ledger.retry_max_delay", "LEDGER_RETRY_MAX_DELAY")
	viper.BindEnv("ledger.ranking_cache_ttl", "LEDGER_RANKING_CACHE_TTL")
	viper.BindEnv("ledger.default_rank_limit", "LEDGER_DEFAULT_RANK_LIMIT")
	viper.BindEnv("ledger.max_rank_limit", "LEDGER_MAX_RANK_LIMIT")
	viper.BindEnv("ledger.max_manual_delta", "LEDGER_MAX_MANUAL_DELTA")
	viper.BindEnv("ledger.history_limit", "LEDGER_HISTORY_LIMIT")
	viper.BindEnv("ledger.event_queue", "LEDGER_EVENT_QUEUE")
}
