package main

type Settings struct {
	Port              int    `env:"PORT,default=8000"`
	JWTSecret         string `env:"JWT_SECRET,required=true"`
	TokenTTLMinutes   int    `env:"TOKEN_TTL_MINUTES,default=480"`
	DBPath            string `env:"DB_PATH,default=archive.db"`
	BasePath          string `env:"BASE_PATH,default=/api/v1"`
	LogEncoding       string `env:"LOG_ENCODING,default=console"`
	DispatchQueueSize int    `env:"DISPATCH_QUEUE_SIZE,default=256"`
	RetentionDays     int    `env:"NOTIFICATION_RETENTION_DAYS,default=30"`
}
