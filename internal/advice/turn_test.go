package advice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildRequest(t *testing.T) {
	gen := DefaultGenerationConfig()

	tests := []struct {
		name       string
		transcript []Turn
		want       []Message
	}{
		{
			name: "greeting excluded",
			transcript: []Turn{
				{Speaker: SpeakerAssistant, Text: DefaultGreeting},
				{Speaker: SpeakerUser, Text: "我想找礼物"},
			},
			want: []Message{{Role: RoleUser, Text: "我想找礼物"}},
		},
		{
			name: "assistant turns map to model in order",
			transcript: []Turn{
				{Speaker: SpeakerAssistant, Text: DefaultGreeting},
				{Speaker: SpeakerUser, Text: "a"},
				{Speaker: SpeakerAssistant, Text: "b"},
				{Speaker: SpeakerUser, Text: "c"},
			},
			want: []Message{
				{Role: RoleUser, Text: "a"},
				{Role: RoleModel, Text: "b"},
				{Role: RoleUser, Text: "c"},
			},
		},
		{
			name: "leading user turn kept",
			transcript: []Turn{
				{Speaker: SpeakerUser, Text: "a"},
			},
			want: []Message{{Role: RoleUser, Text: "a"}},
		},
		{
			name:       "empty transcript",
			transcript: nil,
			want:       []Message{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRequest(tt.transcript, "catalog text", gen)

			want := Request{
				SystemInstruction: "catalog text",
				Messages:          tt.want,
				Generation:        gen,
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("BuildRequest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
