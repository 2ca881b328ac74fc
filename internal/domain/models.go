package domain

import "time"

// StreamType identifies the third-party provider a stream is hosted on
type StreamType string

const (
	StreamTypeYouTube  StreamType = "youtube"
	StreamTypeFacebook StreamType = "facebook"
	StreamTypeCastr    StreamType = "castr"
	StreamTypeVimeo    StreamType = "vimeo"
	StreamTypeTwitch   StreamType = "twitch"
	StreamTypeOther    StreamType = "other"
)

// StreamTypeStyle is the fixed display treatment for a provider
type StreamTypeStyle struct {
	Label string
	Icon  string
	Color string
}

var streamTypeStyles = map[StreamType]StreamTypeStyle{
	StreamTypeYouTube:  {Label: "YouTube", Icon: "▶", Color: "red"},
	StreamTypeFacebook: {Label: "Facebook", Icon: "f", Color: "blue"},
	StreamTypeCastr:    {Label: "Castr", Icon: "◉", Color: "green"},
	StreamTypeVimeo:    {Label: "Vimeo", Icon: "▸", Color: "teal"},
	StreamTypeTwitch:   {Label: "Twitch", Icon: "◆", Color: "purple"},
}

// Style returns the display treatment for the provider. Unknown providers
// get a generic treatment rather than an error.
func (t StreamType) Style() StreamTypeStyle {
	if s, ok := streamTypeStyles[t]; ok {
		return s
	}
	return StreamTypeStyle{Label: "Stream", Icon: "●", Color: "white"}
}

// Stream represents a configured live-video source exposed to viewers.
// Streams are created and edited by administrators; the viewer only reads
// them. Reactions and LikeCount are owned by the backend and never mutated
// locally.
type Stream struct {
	ID            string
	Title         string
	Description   string
	Type          StreamType
	StreamURL     string // canonical source URL entered by an admin
	EmbedURL      string // optional, precomputed by the backend
	IsLive        bool
	IsActive      bool
	Reactions     ReactionCounts
	LikeCount     int
	Tags          []string
	ScheduledDate *time.Time
}

// MessageKind discriminates the three independent message threads a stream
// carries. The kinds never intermix in a single rendered list.
type MessageKind string

const (
	KindComment MessageKind = "comment"
	KindChat    MessageKind = "chat"
	KindPrayer  MessageKind = "prayer"
)

// MessageKinds lists the thread kinds in display-tab order
var MessageKinds = []MessageKind{KindComment, KindChat, KindPrayer}

// Valid reports whether k is one of the three known thread kinds
func (k MessageKind) Valid() bool {
	switch k {
	case KindComment, KindChat, KindPrayer:
		return true
	}
	return false
}

// Message is a single entry in one of a stream's three threads.
// Every message belongs to exactly one stream and exactly one kind.
type Message struct {
	ID          string
	StreamID    string
	AuthorName  string
	AuthorEmail string
	Body        string
	CreatedAt   time.Time
	Reactions   ReactionCounts
	Kind        MessageKind
}

// IdentityKind is the variant of a viewer's self-asserted identity
type IdentityKind string

const (
	// IdentityAnonymous means no identity has been established yet; posting
	// and reacting are rejected locally until one is.
	IdentityAnonymous IdentityKind = "anonymous"
	// IdentityGuest is a name/email pair entered without registration
	IdentityGuest IdentityKind = "guest"
	// IdentityMember is a registered account holding a backend token
	IdentityMember IdentityKind = "member"
)

// Identity is the viewer's identity for the lifetime of a local profile.
// It is established once (member registration or guest entry) and persists
// with no expiry; there is no sign-out transition in the viewer flow.
type Identity struct {
	ProfileID string // local id, assigned when the identity is first stored
	Kind      IdentityKind
	Name      string
	Email     string
	Phone     string
	Location  string
	Token     string // backend bearer token, members only
	CreatedAt time.Time
}

// Anonymous returns the zero identity used before any choice has been made
func Anonymous() Identity {
	return Identity{Kind: IdentityAnonymous}
}

// CanPost reports whether this identity may author messages and reactions.
// Both a name and an email are required, for guests and members alike.
func (i Identity) CanPost() bool {
	return (i.Kind == IdentityGuest || i.Kind == IdentityMember) && i.Name != "" && i.Email != ""
}

// RegistrationForm carries the fields of the member registration flow
type RegistrationForm struct {
	Name     string
	Email    string
	Phone    string
	Location string
	Password string
}
