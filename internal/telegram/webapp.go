// Package telegram is the bridge to the chat-platform webview hosting the Mini App
package telegram

import (
	"encoding/json" // User payload
	"fmt"           // Error wrapping
	"net/url"       // initData query string
	"strconv"       // auth_date
	"strings"       // Name handling
	"time"          // Auth date
)

// ReferralShare is the percentage of referred deposits paid to the referrer
const ReferralShare = 25.0

// User is the identity the webview exposes
type User struct {
	ID        int64  `json:"id"` // Platform user id
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"` // Without the @
	PhotoURL  string `json:"photo_url,omitempty"`
}

// InitData is the launch payload passed to the Mini App
type InitData struct {
	QueryID  string    // Inline query session
	User     *User     // nil outside a chat
	AuthDate time.Time // When the payload was signed
	Hash     string    // Signature, not verified
}

// ParseInitData decodes the raw initData query string. An empty string means
// the app runs as a plain web page and yields a nil result without error.
// The signature is not verified
func ParseInitData(raw string) (*InitData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse init data: %w", err)
	}
	data := &InitData{
		QueryID: values.Get("query_id"),
		Hash:    values.Get("hash"),
	}
	if ts := values.Get("auth_date"); ts != "" {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse auth_date: %w", err)
		}
		data.AuthDate = time.Unix(sec, 0).UTC()
	}
	if u := values.Get("user"); u != "" {
		var user User
		if err := json.Unmarshal([]byte(u), &user); err != nil {
			return nil, fmt.Errorf("parse user: %w", err)
		}
		data.User = &user
	}
	return data, nil
}

// DisplayName joins first and last name, falling back to the username
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("User %d", u.ID)
}

// Initials returns up to two letters used when there is no avatar
func (u User) Initials() string {
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(b.String())
}

// ReferralLink builds the invite link for userID through bot
func ReferralLink(bot string, userID int64) string {
	return fmt.Sprintf("https://t.me/%s/play?start=ref_%d", strings.TrimPrefix(bot, "@"), userID)
}
