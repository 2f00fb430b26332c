package testutil

import (
	"time"

	"github.com/convosuite/mcpcore/core"
)

// MessageBuilder constructs messages with metadata for tests.
type MessageBuilder struct {
	msg core.Message
}

// NewMessageBuilder creates a builder for a message with the given role and
// content.
func NewMessageBuilder(role core.Role, content string) *MessageBuilder {
	return &MessageBuilder{msg: core.NewMessage(role, content)}
}

// At sets the message timestamp (chainable).
func (b *MessageBuilder) At(ts time.Time) *MessageBuilder {
	b.msg.Timestamp = ts
	return b
}

// Intent sets the metadata intent (chainable).
func (b *MessageBuilder) Intent(intent string) *MessageBuilder {
	b.ensureMetadata()
	b.msg.Metadata.Intent = intent
	return b
}

// Confidence sets the metadata confidence (chainable).
func (b *MessageBuilder) Confidence(c float64) *MessageBuilder {
	b.ensureMetadata()
	b.msg.Metadata.Confidence = c
	return b
}

// Entity appends a metadata entity (chainable).
func (b *MessageBuilder) Entity(typ core.EntityType, value string) *MessageBuilder {
	b.ensureMetadata()
	b.msg.Metadata.Entities = append(b.msg.Metadata.Entities, core.Entity{Type: typ, Value: value})
	return b
}

func (b *MessageBuilder) ensureMetadata() {
	if b.msg.Metadata == nil {
		b.msg.Metadata = &core.MessageMetadata{}
	}
}

// Build returns the accumulated message.
func (b *MessageBuilder) Build() core.Message {
	return b.msg
}
