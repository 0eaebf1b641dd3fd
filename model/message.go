package model

// Chat identifies where a reply goes: the chat and the message being answered.
type Chat struct {
	ID               int64
	ReplyToMessageID int
}

// Message is an inbound chat event, independent of the transport it arrived on.
type Message struct {
	ChatID    int64
	MessageID int
	UserName  string
	Text      string
	// Command is the bot command without the leading slash, empty for plain text.
	Command     string
	Args        []string
	ReplyToText string
}

func (m Message) IsCommand() bool {
	return m.Command != ""
}

// ReplyChat threads replies to the inbound message.
func (m Message) ReplyChat() Chat {
	return Chat{ID: m.ChatID, ReplyToMessageID: m.MessageID}
}
