package notifications

// Config controls the transport surface of the notifications module.
type Config struct {
	// RequireAuth rejects unauthenticated stream connections. When false,
	// an anonymous connection joins a room named after a fresh connection
	// id, so it receives nothing until something is addressed to that id.
	RequireAuth bool `env:"FANOUT_REQUIRE_AUTH" envDefault:"true"`

	// HeartbeatInterval is how often the stream endpoint emits an SSE
	// comment to keep intermediaries from timing the connection out.
	HeartbeatIntervalSec int `env:"STREAM_HEARTBEAT_SEC" envDefault:"25"`
}
