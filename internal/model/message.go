package model

import "encoding/json"

// Push channel message types
const (
	MessageSystemStats      = "system_stats"
	MessageContainerUpdates = "container_updates"
)

// Message is one frame of the push channel
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Envelope is the receiving side of a Message, with Data left undecoded
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SystemStatsMessage wraps stats as a system_stats frame
func SystemStatsMessage(stats SystemStats) Message {
	return Message{Type: MessageSystemStats, Data: stats}
}

// ContainerUpdatesMessage wraps a batch as a container_updates frame
func ContainerUpdatesMessage(updates []ContainerUpdate) Message {
	if updates == nil {
		updates = []ContainerUpdate{}
	}
	return Message{Type: MessageContainerUpdates, Data: updates}
}
