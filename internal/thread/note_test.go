package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNote_TimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{name: "seconds", age: 30 * time.Second, want: "just now"},
		{name: "exactly a minute", age: time.Minute, want: "just now"},
		{name: "minutes", age: 5*time.Minute + 10*time.Second, want: "5m ago"},
		{name: "hours", age: 3*time.Hour + 5*time.Minute, want: "3h ago"},
		{name: "days", age: 2*24*time.Hour + time.Hour, want: "2d ago"},
		{name: "thirty days", age: 30 * 24 * time.Hour, want: "30d ago"},
		{name: "months", age: 65 * 24 * time.Hour, want: "2mo ago"},
		{name: "years", age: 800 * 24 * time.Hour, want: "2y ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := Note{CreatedAt: now.Add(-tt.age)}
			assert.Equal(t, tt.want, note.TimeAgo(now))
		})
	}
}

func TestNote_Avatar(t *testing.T) {
	tests := []struct {
		name string
		note Note
		want string
	}{
		{
			name: "remote avatar",
			note: Note{AuthorUsername: "neo", AuthorAvatar: "https://example.com/neo.png"},
			want: "https://example.com/neo.png",
		},
		{
			name: "initials fallback",
			note: Note{AuthorUsername: "trinity"},
			want: "https://api.dicebear.com/7.x/initials/svg?seed=trinity&backgroundColor=9370DB",
		},
		{
			name: "username is escaped",
			note: Note{AuthorUsername: "agent smith"},
			want: "https://api.dicebear.com/7.x/initials/svg?seed=agent+smith&backgroundColor=9370DB",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.note.Avatar())
		})
	}
}

func TestNote_Clone(t *testing.T) {
	parent := Note{ID: 1, Replies: []Note{{ID: 2, Content: "first"}}}
	clone := parent.clone()
	clone.Replies[0].Content = "changed"

	assert.Equal(t, "first", parent.Replies[0].Content)
}
