package advice

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single message in the transcript. Turns are never modified after they are appended.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Default user-facing strings.
const (
	DefaultGreeting        = "欢迎来到 L'Amour 精品店。我是您的私人康养导购助理。今天有什么我可以帮您的吗？"
	DefaultNoAdviceMessage = "很抱歉，我目前无法提供建议。还有什么我可以帮您的吗？"
	DefaultFallbackMessage = "连接出现了一点小问题。请随意浏览我们的精心策划的系列。"
)

// BuildRequest converts a transcript into a provider request.
//
// The first turn is skipped when it was spoken by the assistant: that is the seeded greeting,
// which only exists on the client. Every other turn keeps its position. Grounding becomes the
// system instruction and is never sent as a turn.
func BuildRequest(transcript []Turn, grounding string, generation GenerationConfig) Request {
	messages := make([]Message, 0, len(transcript))
	for i, turn := range transcript {
		if i == 0 && turn.Speaker == SpeakerAssistant {
			continue
		}
		role := RoleModel
		if turn.Speaker == SpeakerUser {
			role = RoleUser
		}
		messages = append(messages, Message{Role: role, Text: turn.Text})
	}

	return Request{
		SystemInstruction: grounding,
		Messages:          messages,
		Generation:        generation,
	}
}
