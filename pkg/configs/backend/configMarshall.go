package backend

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/backend.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type BackendConfigMarshall struct {
	Port     int32                 `yaml:"port"`
	Database string                `yaml:"database"`
	Events   *EventsConfigMarshall `yaml:"events,omitempty"`
}

var _ Marshalled[*BackendConfig] = &BackendConfigMarshall{}

func (b *BackendConfigMarshall) trySeal(path string) *BackendConfig {
	var events *EventsConfig
	if b.Events != nil {
		events = b.Events.trySeal(path + ".events")
	}
	return &BackendConfig{
		port:     required(b.Port, path+".port"),
		database: required(b.Database, path+".database"),
		events:   events,
	}
}

type EventsConfigMarshall struct {
	Nats     *NatsConfigMarshall `yaml:"nats,omitempty"`
	Webhooks []string            `yaml:"webhooks,omitempty"`
}

func (e *EventsConfigMarshall) trySeal(path string) *EventsConfig {
	var nats *NatsConfig
	if e.Nats != nil {
		nats = e.Nats.trySeal(path + ".nats")
	}
	return &EventsConfig{
		nats:     nats,
		webhooks: e.Webhooks,
	}
}

type NatsConfigMarshall struct {
	Url           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix,omitempty"`
}

func (n *NatsConfigMarshall) trySeal(path string) *NatsConfig {
	prefix := n.SubjectPrefix
	if prefix == "" {
		prefix = "weftline.production"
	}
	return &NatsConfig{
		url:           required(n.Url, path+".url"),
		subjectPrefix: prefix,
	}
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
