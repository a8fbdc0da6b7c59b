package exitcode

const (
	Success        = 0
	UsageError     = 1
	ConfigError    = 2
	DiscoveryError = 3
	SinkError      = 4
	ExtractError   = 5
	PartialFailure = 6
)
