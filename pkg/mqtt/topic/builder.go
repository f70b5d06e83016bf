package topic

import (
	"fmt"
	"strings"
)

// Topic segments published by celdash. Subscribers depend on these values.
const (
	// SuffixSummary carries one fetch summary per successful apply.
	// Structure: {root}/summary/{database}
	SuffixSummary = "summary"

	// SuffixStatus carries the publisher's online/offline will message.
	// Structure: {root}/status/{clientID}
	SuffixStatus = "status"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "fleet/cel/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimSuffix(root, "/")}
}

// Summary returns the topic carrying fetch summaries for a fleet database.
func (b *TopicBuilder) Summary(database string) string {
	return b.build(SuffixSummary, database)
}

// Status returns the topic for a publisher's liveness message.
func (b *TopicBuilder) Status(clientID string) string {
	return b.build(SuffixStatus, clientID)
}

// build joins {root}/{suffix}/{identifier}. Levels are sanitized so an
// identifier can never inject extra topic levels or wildcards.
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, sanitize(id))
}

func sanitize(level string) string {
	r := strings.NewReplacer("/", "_", Wildcard, "_", MultiWildcard, "_")
	if level = r.Replace(level); level == "" {
		return "_"
	}
	return level
}
