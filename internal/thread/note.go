// Package thread holds the notes of one scope, with one level of replies, and applies
// edits and deletions optimistically.
package thread

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrNestedReply  = errors.New("replies cannot be replied to")
	ErrInvalidDraft = errors.New("invalid note")
)

// GlobalScope is the scope key of the feed that is not tied to a movie.
const GlobalScope = ""

const avatarURLFormat = "https://api.dicebear.com/7.x/initials/svg?seed=%s&backgroundColor=9370DB"

// Note is a review or a reply to one.
type Note struct {
	ID             int64     `json:"id" yaml:"id"`
	AuthorID       int64     `json:"author_id" yaml:"author_id"`
	AuthorUsername string    `json:"author_username" yaml:"author"`
	AuthorAvatar   string    `json:"author_avatar,omitempty" yaml:"-"`
	Title          string    `json:"title" yaml:"title,omitempty"`
	Content        string    `json:"content" yaml:"content"`
	ParentID       *int64    `json:"parent" yaml:"parent,omitempty"`
	ScopeKey       string    `json:"movie_imdb_id,omitempty" yaml:"scope,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
	Edited         bool      `json:"edited" yaml:"edited"`
	ReplyCount     int       `json:"reply_count" yaml:"reply_count"`
	Replies        []Note    `json:"replies" yaml:"replies,omitempty"`

	// RepliesShown is view state kept on the client only.
	RepliesShown bool `json:"-" yaml:"-"`
}

// IsReply reports whether the note answers another note.
func (n Note) IsReply() bool {
	return n.ParentID != nil
}

// Avatar returns the author's avatar, or a generated initials avatar when there is none.
func (n Note) Avatar() string {
	if n.AuthorAvatar != "" {
		return n.AuthorAvatar
	}
	return fmt.Sprintf(avatarURLFormat, url.QueryEscape(n.AuthorUsername))
}

// TimeAgo formats the age of the note relative to now.
func (n Note) TimeAgo(now time.Time) string {
	age := now.Sub(n.CreatedAt)
	days := int64(age / (24 * time.Hour))
	seconds := int64((age % (24 * time.Hour)).Seconds())

	switch {
	case days > 365:
		return fmt.Sprintf("%dy ago", days/365)
	case days > 30:
		return fmt.Sprintf("%dmo ago", days/30)
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case seconds > 3600:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds > 60:
		return fmt.Sprintf("%dm ago", seconds/60)
	default:
		return "just now"
	}
}

func (n Note) clone() Note {
	if n.Replies != nil {
		n.Replies = append([]Note(nil), n.Replies...)
	}
	return n
}

// NewNote is the payload of a remote create.
type NewNote struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ParentID *int64 `json:"parent,omitempty"`
	ScopeKey string `json:"movie_imdb_id,omitempty"`
}
