package medtracker

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type ServiceConfig struct {
	InventoryTable    string `env:"TABLE_NAME,required"`
	AuditTable        string `env:"AUDIT_TABLE_NAME"`
	LowStockThreshold int    `env:"LOW_INVENTORY_THRESHOLD,default=15"`
	SNSTopicARN       string `env:"SNS_TOPIC_ARN"`
	WebhookURL        string `env:"NOTIFY_WEBHOOK_URL"`
	RunLogBucket      string `env:"RUN_LOG_S3_BUCKET"`
	RunLogPrefix      string `env:"RUN_LOG_S3_PREFIX,default=runs/"`
}

type LocalConfig struct {
	ArtifactsInventoryPath string `env:"ARTIFACTS_INVENTORY_PATH,default=artifacts/inventory.json"`
	LowStockThreshold      int    `env:"LOW_INVENTORY_THRESHOLD,default=15"`
}
