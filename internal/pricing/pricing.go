// Package pricing holds the per-action credit costs. The table is built
// once from config and passed to the orchestrators explicitly.
package pricing

// Table maps billable actions to their credit cost.
type Table struct {
	ChatMessage      int64
	Image            int64
	VoiceRecognition int64
	VoiceSynthesis   int64
}

// VoiceRoundTrip is the composite cost of a full voice interaction:
// recognition, one chat completion and synthesis of the reply.
func (t Table) VoiceRoundTrip() int64 {
	return t.VoiceRecognition + t.ChatMessage + t.VoiceSynthesis
}
