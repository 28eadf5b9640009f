package broker

// MessageTopicModel is the read projection of a message topic. Cursor values
// never leave the engine; only subscriber names are exposed.
type MessageTopicModel struct {
	Name       string   `json:"name"`
	Index      int64    `json:"index"`
	Subscriber []string `json:"subscriber"`
}

// TaskTopicModel is the read projection of a task topic.
type TaskTopicModel struct {
	Name       string   `json:"name"`
	Subscriber []string `json:"subscriber"`
}
