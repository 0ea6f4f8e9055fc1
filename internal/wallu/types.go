package wallu

// Addon identifies this integration to the Wallu API.
type Addon struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Channel is the conversation the message was posted in.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is the author of the message.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	IsStaffMember bool   `json:"is_staff_member"`
}

// Message is the relayed message. ID has the form "<chatID>-<messageID>".
type Message struct {
	ID             string `json:"id"`
	IsBotMentioned bool   `json:"is_bot_mentioned"`
	Content        string `json:"content"`
}

// Configuration controls how the reply is rendered.
type Configuration struct {
	EmojiType      string `json:"emoji_type"`
	IncludeSources bool   `json:"include_sources"`
}

// OnMessageRequest is the body of POST /on-message. Addon and Configuration
// are filled by the client from its config when left empty.
type OnMessageRequest struct {
	Addon         Addon         `json:"addon"`
	Channel       Channel       `json:"channel"`
	User          User          `json:"user"`
	Message       Message       `json:"message"`
	Configuration Configuration `json:"configuration"`
}

// Reply is the text the bot should post back.
type Reply struct {
	Message string `json:"message"`
}

// OnMessageResponse is the body returned by POST /on-message. Response is nil
// when Wallu decided not to answer.
type OnMessageResponse struct {
	Response *Reply `json:"response,omitempty"`
}

// Text returns the reply text, or "" when there is nothing to send.
func (r *OnMessageResponse) Text() string {
	if r == nil || r.Response == nil {
		return ""
	}
	return r.Response.Message
}
