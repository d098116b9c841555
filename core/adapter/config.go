package adapter

import "strings"

// DefaultPrefix is the path prefix of the integration-event HTTP endpoints.
const DefaultPrefix = "/integration-event/http"

// Config describes this application's identity and where it receives deliveries.
type Config struct {
	// AppName is the subscriber name used when a binding does not declare one.
	AppName string `env:"APP_NAME" envDefault:"eventhttp"`
	// BaseURL is the externally reachable address of this application.
	BaseURL string `env:"EVENTHTTP_BASE_URL" envDefault:"http://localhost:8080"`
	// ConsumePath is appended to BaseURL to form the callback URL.
	ConsumePath string `env:"EVENTHTTP_CONSUME_PATH" envDefault:"/integration-event/http/consume"`
}

// CallbackURL returns the address producers deliver events to.
func (c Config) CallbackURL() string {
	base := strings.TrimRight(c.BaseURL, "/")
	path := c.ConsumePath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
