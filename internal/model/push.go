package model

// Default sound sent with every push.
const PushSoundDefault = "default"

// PushData is the invisible payload the app uses to open the right chat.
type PushData struct {
	ChatID    string `json:"chat_id"`
	UserID    string `json:"user_id"`
	FriendID  string `json:"friend_id"`
	UserName  string `json:"user_name"`
	IsGroup   bool   `json:"is_group"`
	AvatarURL string `json:"avatar_url"`
}

// PushMessage is the JSON body posted to the push gateway.
type PushMessage struct {
	To    string   `json:"to"`
	Sound string   `json:"sound"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Data  PushData `json:"data"`
}

// MediaType is the kind of attachment a media marker denotes.
type MediaType string

const (
	MediaNone  MediaType = ""
	MediaImage MediaType = "Image"
	MediaVideo MediaType = "Video"
)

// Classification is how a message body should be presented in a notification.
type Classification struct {
	DisplayBody string
	IsMediaOnly bool
	MediaType   MediaType
}

// DispatchRequest enumerates every input of a single-token dispatch.
// UserID and ChatID are required for the audit row; the rest may be empty.
type DispatchRequest struct {
	Token     string
	Content   string
	Sender    string // Used as title and user_name
	UserID    string
	ChatID    string
	FriendID  string
	IsGroup   bool
	GroupName string
	AvatarURL string
}

// DispatchResult reports what one dispatch actually did.
type DispatchResult struct {
	Token    string
	Body     string
	Sent     bool
	Recorded bool
	Failures []*Failure
}

// RecipientContext selects whose tokens a message fans out to.
type RecipientContext struct {
	ChatID   string
	SenderID string
	FriendID string // Direct chats only
	IsGroup  bool
}

// OutgoingMessage is a chat message that should notify the other participants.
type OutgoingMessage struct {
	Content   string `json:"content"`
	ChatID    string `json:"chat_id"`
	FriendID  string `json:"friend_id"`
	IsGroup   bool   `json:"is_group"`
	GroupName string `json:"group_name"`
	Sender    Sender `json:"sender"`
}

// FanoutResult aggregates the dispatches of one outgoing message.
type FanoutResult struct {
	Title      string           `json:"title"`
	Recipients int              `json:"recipients"`
	Sent       int              `json:"sent"`
	Recorded   int              `json:"recorded"`
	Failures   []string         `json:"failures,omitempty"`
	Results    []DispatchResult `json:"-"`
}

// NotifyRequest is the request body for POST /chats/{chatID}/notify.
type NotifyRequest struct {
	Content   string `json:"content"`
	FriendID  string `json:"friend_id"`
	IsGroup   bool   `json:"is_group"`
	GroupName string `json:"group_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Async     bool   `json:"async"`
}
