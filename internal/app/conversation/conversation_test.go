package conversation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "", want: KindText},
		{in: "text", want: KindText},
		{in: "image", want: KindImage},
		{in: "file", want: KindFile},
		{in: "video", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPair(t *testing.T) {
	ab, err := Pair("b", "a")
	require.NoError(t, err)
	ba, err := Pair("a", "b")
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Equal(t, [2]string{"a", "b"}, ab)

	_, err = Pair("a", "a")
	assert.ErrorIs(t, err, ErrSameParticipant)

	_, err = Pair("", "a")
	assert.Error(t, err)
}

func TestConversation_Other(t *testing.T) {
	c := Conversation{Participants: [2]string{"a", "b"}}

	other, ok := c.Other("a")
	assert.True(t, ok)
	assert.Equal(t, "b", other)

	other, ok = c.Other("b")
	assert.True(t, ok)
	assert.Equal(t, "a", other)

	_, ok = c.Other("z")
	assert.False(t, ok)
}

func TestConversation_DeriveSummary(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Conversation{CreatedAt: created}

	body, at := c.DeriveSummary()
	assert.Empty(t, body)
	assert.Equal(t, created, at)

	c.Messages = []Message{
		{Body: "one", Timestamp: created.Add(time.Minute)},
		{Body: "two", Timestamp: created.Add(2 * time.Minute)},
	}
	body, at = c.DeriveSummary()
	assert.Equal(t, "two", body)
	assert.Equal(t, created.Add(2*time.Minute), at)
}

func TestWindow(t *testing.T) {
	msgs := make([]Message, 7)
	for i := range msgs {
		msgs[i] = Message{Body: fmt.Sprintf("m%d", i+1)}
	}

	bodies := func(p Page) []string {
		out := make([]string, 0, len(p.Messages))
		for _, m := range p.Messages {
			out = append(out, m.Body)
		}
		return out
	}

	tests := []struct {
		name      string
		page      int
		limit     int
		want      []string
		wantPages int
	}{
		{name: "newest page", page: 1, limit: 3, want: []string{"m5", "m6", "m7"}, wantPages: 3},
		{name: "middle page", page: 2, limit: 3, want: []string{"m2", "m3", "m4"}, wantPages: 3},
		{name: "partial oldest page", page: 3, limit: 3, want: []string{"m1"}, wantPages: 3},
		{name: "past the end", page: 4, limit: 3, want: []string{}, wantPages: 3},
		{name: "everything", page: 1, limit: 50, want: []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}, wantPages: 1},
		{name: "page below one is clamped", page: 0, limit: 7, want: []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}, wantPages: 1},
		{name: "huge page and limit", page: 1 << 32, limit: 1 << 32, want: []string{}, wantPages: 1},
		{name: "max limit", page: 1, limit: math.MaxInt, want: []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}, wantPages: 1},
		{name: "max page", page: math.MaxInt, limit: 2, want: []string{}, wantPages: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Window(msgs, tt.page, tt.limit)
			assert.Equal(t, tt.want, bodies(p))
			assert.Equal(t, 7, p.TotalMessages)
			assert.Equal(t, tt.wantPages, p.TotalPages)
		})
	}

	empty := Window(nil, 1, 50)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Messages)
}
