// Package llm defines the chat data model shared by the conversational
// pipeline: roles, messages, tool calls and the running ChatContext that a
// session accumulates between turns.
package llm

import (
	"strings"
	"time"
)

// ChatRole classifies who authored a message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatContent is one part of a multi-part message body. A message carries
// either a plain string or an ordered list of parts, some of which may be
// non-text (images).
type ChatContent interface {
	isChatContent()
}

// TextContent is a text-bearing message part.
type TextContent struct {
	Text string
}

func (TextContent) isChatContent() {}

// ImageContent references an image by URL or data URL. Image parts are
// opaque to text-only consumers such as turn detection.
type ImageContent struct {
	// Image is a URL or data URL for the frame.
	Image string
	// InferenceDetail is the LLM vision detail hint: "auto", "high" or "low".
	InferenceDetail string
}

func (ImageContent) isChatContent() {}

// ChatItem is a single entry in a ChatContext: a message, a function call,
// or a function call output.
type ChatItem interface {
	isChatItem()
}

// ChatMessage is a single conversational message.
//
// Content holds plain-text messages. Parts, when non-nil, takes precedence
// and holds an ordered list of content parts instead.
type ChatMessage struct {
	Role        ChatRole
	Content     string
	Parts       []ChatContent
	CreatedAt   time.Time
	Interrupted bool
}

func (*ChatMessage) isChatItem() {}

// Text flattens the message body to plain text. Plain-string messages are
// returned verbatim; multi-part messages concatenate text-bearing parts with
// single-space separators, ignoring non-text parts.
func (m *ChatMessage) Text() string {
	if m.Parts == nil {
		return m.Content
	}
	texts := make([]string, 0, len(m.Parts))
	for _, part := range m.Parts {
		if tc, ok := part.(TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, " ")
}

// FunctionCall records a tool invocation requested by the model.
type FunctionCall struct {
	Name      string
	Arguments string // JSON-encoded
	CallID    string
}

func (*FunctionCall) isChatItem() {}

// FunctionCallOutput records the result of a tool invocation.
type FunctionCallOutput struct {
	Name    string
	CallID  string
	Output  string
	IsError bool
}

func (*FunctionCallOutput) isChatItem() {}

// ChatContext is the ordered conversation history owned by the session.
// Items are kept in insertion (chronological) order. Consumers such as the
// turn detector read the context but never mutate it.
type ChatContext struct {
	items []ChatItem
}

// NewChatContext creates a context pre-populated with items.
func NewChatContext(items ...ChatItem) *ChatContext {
	return &ChatContext{items: items}
}

// EmptyChatContext creates a context with no items.
func EmptyChatContext() *ChatContext {
	return &ChatContext{}
}

// Items returns the chronological item list. Callers must not modify the
// returned slice.
func (c *ChatContext) Items() []ChatItem {
	return c.items
}

// AddMessage appends a plain-text message and returns it.
func (c *ChatContext) AddMessage(role ChatRole, content string) *ChatMessage {
	msg := &ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	c.items = append(c.items, msg)
	return msg
}

// AddMessageParts appends a multi-part message and returns it.
func (c *ChatContext) AddMessageParts(role ChatRole, parts ...ChatContent) *ChatMessage {
	msg := &ChatMessage{
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
	c.items = append(c.items, msg)
	return msg
}

// AddFunctionCall appends a function call item.
func (c *ChatContext) AddFunctionCall(name, arguments, callID string) *FunctionCall {
	call := &FunctionCall{Name: name, Arguments: arguments, CallID: callID}
	c.items = append(c.items, call)
	return call
}

// AddFunctionOutput appends a function call output item.
func (c *ChatContext) AddFunctionOutput(name, callID, output string, isError bool) *FunctionCallOutput {
	out := &FunctionCallOutput{Name: name, CallID: callID, Output: output, IsError: isError}
	c.items = append(c.items, out)
	return out
}

// Copy returns a shallow copy whose item list can grow independently.
func (c *ChatContext) Copy() *ChatContext {
	items := make([]ChatItem, len(c.items))
	copy(items, c.items)
	return &ChatContext{items: items}
}
