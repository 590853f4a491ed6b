package types

// Identity is a messaging-platform user resolved from an email address.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}
