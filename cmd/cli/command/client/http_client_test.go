package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_SendsIdentityHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/v1/chat/jobs/4/room", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9, "job_id": 4, "is_read_only": false})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, Identity{ActorType: "crew", CrewID: 1002})
	room, err := c.GetRoom(context.Background(), 4)
	require.NoError(t, err)
	assert.EqualValues(t, 9, room.ID)

	assert.Equal(t, "crew", got.Get("X-Actor-Type"))
	assert.Equal(t, "1002", got.Get("X-Crew-Id"))
	assert.Empty(t, got.Get("X-Owner-User-Id"))
	assert.Empty(t, got.Get("Authorization"))
}

func TestHTTPClient_TokenWinsOverHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, Identity{ActorType: "crew", CrewID: 1, Token: "abc"})
	require.NoError(t, c.MarkRead(context.Background(), 3, 12))

	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Empty(t, got.Get("X-Actor-Type"))
}

func TestHTTPClient_ListMessagesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "15", r.URL.Query().Get("cursor"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"messages":[{"id":12,"sender_type":"crew","content":"Hello"}],"next_cursor":"12","has_more":true}`))
	}))
	defer srv.Close()

	page, err := NewHTTPClient(srv.URL, Identity{}).ListMessages(context.Background(), 3, "15", 1)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "12", *page.NextCursor)
}

func TestHTTPClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusLocked)
		_, _ = w.Write([]byte(`{"error":"chat room is read-only"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, Identity{ActorType: "task_owner", OwnerID: 1}).SendMessage(context.Background(), 3, "hi")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusLocked))
	assert.False(t, IsStatus(err, http.StatusForbidden))
	assert.Contains(t, err.Error(), "read-only")
}
