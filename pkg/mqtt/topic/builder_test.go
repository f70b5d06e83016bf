package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicBuilder(t *testing.T) {
	b := NewTopicBuilder("fleet/cel/v1/")

	assert.Equal(t, "fleet/cel/v1/summary/acme", b.Summary("acme"))
	assert.Equal(t, "fleet/cel/v1/status/celdash-1", b.Status("celdash-1"))
}

func TestTopicBuilder_SanitizesLevels(t *testing.T) {
	b := NewTopicBuilder("root")

	assert.Equal(t, "root/summary/a_b", b.Summary("a/b"))
	assert.Equal(t, "root/summary/__", b.Summary("+#"))
	assert.Equal(t, "root/summary/_", b.Summary(""))
}
