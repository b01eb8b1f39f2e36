package domain

import "time"

// Danmaku display defaults used when a stored message carries no metadata.
const (
	DefaultDanmakuColor = "16777215"
	DefaultDanmakuType  = "0"
)

// Message is a single chat or danmaku entry. Messages are immutable once
// stored; there is no update or delete path anywhere in the system.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	IsAdmin   bool      `json:"isAdmin"`
	Time      *string   `json:"time"`
	Color     *string   `json:"color"`
	Type      *string   `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Seq is the insertion sequence assigned by the repository. It breaks
	// ties between messages that share a timestamp so pagination stays
	// stable.
	Seq uint64 `json:"seq"`
}

// IsDanmaku reports whether the message carries overlay timing metadata.
// Chat messages always store Time=nil.
func (m *Message) IsDanmaku() bool {
	return m.Time != nil
}

// DanmakuEntry is the reshaped form served to the overlay renderer.
type DanmakuEntry struct {
	Text  string `json:"text"`
	Color string `json:"color"`
	Type  string `json:"type"`
	Time  string `json:"time"`
}

// ToDanmaku reshapes a stored message for the overlay, filling display
// defaults for absent metadata. Callers must check IsDanmaku first.
func (m *Message) ToDanmaku() DanmakuEntry {
	entry := DanmakuEntry{
		Text:  m.Content,
		Color: DefaultDanmakuColor,
		Type:  DefaultDanmakuType,
	}
	if m.Time != nil {
		entry.Time = *m.Time
	}
	if m.Color != nil && *m.Color != "" {
		entry.Color = *m.Color
	}
	if m.Type != nil && *m.Type != "" {
		entry.Type = *m.Type
	}
	return entry
}
