package turn

import (
	"strings"

	"github.com/videosdk-community/agents-go/pkg/ai/llm"
)

// lastUserText reduces the chat context to the text the classifier scores:
// the most recent user-role message, whitespace-trimmed. End-of-turn is
// local to the current utterance, so assistant and system messages, tool
// calls and every earlier user turn are ignored. Multi-part message bodies
// keep only their text parts, joined with single spaces. Returns "" when the
// context holds no user message.
func lastUserText(chatCtx *llm.ChatContext) string {
	if chatCtx == nil {
		return ""
	}

	var last *llm.ChatMessage
	for _, item := range chatCtx.Items() {
		if msg, ok := item.(*llm.ChatMessage); ok && msg.Role == llm.RoleUser {
			last = msg
		}
	}
	if last == nil {
		return ""
	}
	return strings.TrimSpace(last.Text())
}
