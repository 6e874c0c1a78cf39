package failure

// -- Startup Failures --
var (
	EnvironmentLocalFileError = &Failure{
		Code:    0x0001,
		Message: "no .env file found, using system environment variables",
	}
	ConfigurationError = &Failure{
		Code:    0x0002,
		Message: "invalid service configuration",
	}
	DatabaseInitializationError = &Failure{
		Code:    0x0003,
		Message: "database failed to init",
	}
	DatabaseMigrationError = &Failure{
		Code:    0x0004,
		Message: "database failed to run migrations",
	}
	RedisClientError = &Failure{
		Code:    0x0005,
		Message: "failed to connect to redis, user cache disabled",
	}
	KafkaTopicMissingError = &Failure{
		Code:    0x0006,
		Message: "kafka topic for registration events does not exist",
	}
	TracingSetupError = &Failure{
		Code:    0x0007,
		Message: "failed to set up tracing exporter",
	}
	FailedToStartServerError = &Failure{
		Code:    0x0008,
		Message: "server failed to start",
	}
	ForcedShutdownServerError = &Failure{
		Code:    0x0009,
		Message: "server forced to shutdown",
	}
)
