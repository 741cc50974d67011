package domain

// TrustList is the persisted allow-list of moderation-exempt identities.
// It is stored as a single JSON document and rewritten whole on mutation.
type TrustList struct {
	Users     []int64  `json:"users"`
	Chats     []int64  `json:"chats"`
	Usernames []string `json:"usernames"` // stored with the @ prefix
}

// HasUser reports whether the user id is trusted.
func (t *TrustList) HasUser(id int64) bool {
	for _, u := range t.Users {
		if u == id {
			return true
		}
	}
	return false
}

// HasChat reports whether the sender-chat id is trusted.
func (t *TrustList) HasChat(id int64) bool {
	for _, c := range t.Chats {
		if c == id {
			return true
		}
	}
	return false
}

// HasUsername reports whether the @-prefixed username is trusted.
func (t *TrustList) HasUsername(name string) bool {
	for _, u := range t.Usernames {
		if u == name {
			return true
		}
	}
	return false
}

// AddUser appends a user id if not already present. Returns true when the
// list changed.
func (t *TrustList) AddUser(id int64) bool {
	if t.HasUser(id) {
		return false
	}
	t.Users = append(t.Users, id)
	return true
}
