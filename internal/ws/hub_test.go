package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesRoom(t *testing.T) {
	hub := NewHub(nil)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.join("sess-1", &client{conn: conn})
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// Esperar a que el server registre al cliente en el room.
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("sess-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.RoomSize("sess-1"))

	hub.Publish("sess-1", "transcription:completed", map[string]any{"transcription_id": "tr-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "transcription:completed", msg.Type)
	assert.Equal(t, "tr-1", msg.Data["transcription_id"])
}

func TestHubPublishToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub(nil)
	// No debe entrar en pánico ni bloquear.
	hub.Publish("nadie", "summary:completed", nil)
	assert.Equal(t, 0, hub.RoomSize("nadie"))
}

func TestHubLeaveCleansRoom(t *testing.T) {
	hub := NewHub(nil)
	c := &client{}
	hub.join("sess-2", c)
	assert.Equal(t, 1, hub.RoomSize("sess-2"))

	hub.leave("sess-2", c)
	assert.Equal(t, 0, hub.RoomSize("sess-2"))
}
