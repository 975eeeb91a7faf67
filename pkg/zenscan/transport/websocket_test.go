package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/zenscan/pkg/zenscan/message"
)

// echoServer answers every envelope with a Publish on the same topic and
// transaction id.
func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			env, err := message.ParseEnvelope(data)
			if err != nil {
				return
			}
			env.Action = message.ActionPublish
			env.Data = nil
			out, _ := env.Marshal()
			if err := ws.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
}

func TestWebsocketSession(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx := context.Background()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := DialWebsocket(ctx, url, DefaultWebsocketOptions())
	require.NoError(t, err)

	s := NewSession(conn, quietOptions())
	env, err := s.Converter().UpdateScanRequest(sampleDescriptor(t))
	require.NoError(t, err)

	_, err = Call(ctx, s, env, func(raw []byte) (struct{}, error) {
		return struct{}{}, message.ParseUpdateScanResponse(raw)
	})
	assert.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestDialWebsocketFailure(t *testing.T) {
	_, err := DialWebsocket(context.Background(), "ws://127.0.0.1:1/nothing", DefaultWebsocketOptions())
	assert.Error(t, err)
}

func TestNATSSubjects(t *testing.T) {
	o := DefaultNATSOptions()
	o.Prefix = "zenith.scans"
	assert.Equal(t, "zenith.scans.requests", o.RequestSubject())
	assert.Equal(t, "zenith.scans.envelopes", o.EnvelopeSubject())
}
