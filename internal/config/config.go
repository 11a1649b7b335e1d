package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	Game   GameConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	game, err := loadGameConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Store: store, Game: game}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// StoreConfig 描述等级/经验值的持久化后端。
type StoreConfig struct {
	Driver         string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreSQLite))
	switch driver {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q: want memory, sqlite or redis", driver)
	}

	redisDB, err := parseOptionalIntEnv("REDIS_DB")
	if err != nil {
		return StoreConfig{}, err
	}
	db := 0
	if redisDB != nil {
		db = *redisDB
	}

	return StoreConfig{
		Driver:         driver,
		SQLitePath:     getEnvOrDefault("SQLITE_PATH", "./data/prepzone.db"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:        db,
		RedisKeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", "prepzone:"),
	}, nil
}

// MaxTimerSeconds bounds a configurable per-question timer.
const MaxTimerSeconds = 300

// GameConfig 描述训练会话的默认参数。
type GameConfig struct {
	DefaultLanguage string
	// TimerSeconds is nil for untimed sessions.
	TimerSeconds *int
	EndGameDelay time.Duration
	FetchTimeout time.Duration
	TickInterval time.Duration
	LocalesDir   string
}

func loadGameConfig() (GameConfig, error) {
	timer, err := parseTimerEnv("GAME_TIMER_SECONDS", 15)
	if err != nil {
		return GameConfig{}, err
	}

	endDelay, err := parseDurationEnv("GAME_END_DELAY", 2*time.Second)
	if err != nil {
		return GameConfig{}, err
	}

	fetchTimeout, err := parseDurationEnv("GAME_FETCH_TIMEOUT", 60*time.Second)
	if err != nil {
		return GameConfig{}, err
	}

	tick, err := parseDurationEnv("GAME_TICK_INTERVAL", time.Second)
	if err != nil {
		return GameConfig{}, err
	}
	if tick <= 0 {
		return GameConfig{}, fmt.Errorf("invalid GAME_TICK_INTERVAL value %q: must be positive", tick)
	}

	return GameConfig{
		DefaultLanguage: strings.TrimSpace(os.Getenv("GAME_DEFAULT_LANGUAGE")),
		TimerSeconds:    timer,
		EndGameDelay:    endDelay,
		FetchTimeout:    fetchTimeout,
		TickInterval:    tick,
		LocalesDir:      strings.TrimSpace(os.Getenv("I18N_DIR")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

// parseTimerEnv 解析计时器秒数，"0"/"off"/"none" 表示不计时。
func parseTimerEnv(key string, defaultValue int) (*int, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		val := defaultValue
		return &val, nil
	case "0", "off", "none":
		return nil, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 || val > MaxTimerSeconds {
		return nil, fmt.Errorf("invalid %s value %q: must be between 0 and %d", key, raw, MaxTimerSeconds)
	}
	return &val, nil
}
