package backend

// Configuration for the weftlined server.
//
// to get `BackendConfig` instance, use `TrySeal(BackendConfigMarshall)` .
type BackendConfig struct {
	port     int32
	database string
	events   *EventsConfig
}

func (c *BackendConfig) Port() int32 {
	return c.port
}

// Connection string for database.
func (c *BackendConfig) Database() string {
	return c.database
}

// Event publication config. nil when no downstream is configured.
func (c *BackendConfig) Events() *EventsConfig {
	return c.events
}

type EventsConfig struct {
	nats     *NatsConfig
	webhooks []string
}

func (e *EventsConfig) Nats() *NatsConfig {
	return e.nats
}

// URLs receiving a POST per stage event.
func (e *EventsConfig) Webhooks() []string {
	return e.webhooks
}

type NatsConfig struct {
	url           string
	subjectPrefix string
}

func (n *NatsConfig) Url() string {
	return n.url
}

// Subject prefix for published events. default = "weftline.production"
func (n *NatsConfig) SubjectPrefix() string {
	return n.subjectPrefix
}
