package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"sanctionguard-api"`
	Port                          int      `env:"PORT" env-default:"3001"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (primary record store)
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"sanctionguard"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Search index (bleve)
	SearchIndexPath     string `env:"SEARCH_INDEX_PATH" env-default:"data/sanctions.bleve"`
	SearchMaxCandidates int    `env:"SEARCH_MAX_CANDIDATES" env-default:"100"`
	SearchFuzziness     int    `env:"SEARCH_FUZZINESS" env-default:"2"`
	IndexBatchSize      int    `env:"INDEX_BATCH_SIZE" env-default:"100"`

	// Redis (search-status cache)
	RedisEnabled   bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisAddress   string        `env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB        int           `env:"REDIS_DB" env-default:"0"`
	StatusCacheTTL time.Duration `env:"STATUS_CACHE_TTL" env-default:"30s"`

	// Remote consolidated feed
	FeedURL          string        `env:"FEED_URL" env-default:"https://scsanctions.un.org/resources/xml/en/consolidated.xml"`
	FeedTimeout      time.Duration `env:"FEED_TIMEOUT" env-default:"60s"`
	FeedSyncInterval time.Duration `env:"FEED_SYNC_INTERVAL" env-default:"1h"`
	FeedSyncEnabled  bool          `env:"FEED_SYNC_ENABLED" env-default:"true"`
	FeedSourceLabel  string        `env:"FEED_SOURCE_LABEL" env-default:"un_consolidated"`

	// Uploads
	UploadMaxFileBytes int64 `env:"UPLOAD_MAX_FILE_BYTES" env-default:"10485760"` // 10MB
	UploadMaxFiles     int   `env:"UPLOAD_MAX_FILES" env-default:"5"`

	// Kafka producer (ingestion lifecycle events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"screening-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" env-default:"localhost:4317"`
	TracingProtocol string `env:"TRACING_PROTOCOL" env-default:"grpc"`
}
