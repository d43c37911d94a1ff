package config

type AmqpConfig struct {
	// Url is optional; verdict events are not published when empty
	Url      string
	Exchange string
}

func NewAmqpConfig() *AmqpConfig {
	return &AmqpConfig{
		Url:      getEnv("AMQP_URL", ""),
		Exchange: getEnv("VERDICT_EXCHANGE", "submission.verdicts"),
	}
}
