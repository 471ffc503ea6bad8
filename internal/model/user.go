package model

// User is the author of an issue or comment. It is never exposed as a
// resource of its own; it is embedded as "author".
type User struct {
	ID        string `json:"id" validate:"required"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	WebURL    string `json:"web_url"`
}
