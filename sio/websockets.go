/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"encoding/json"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Comcast/sweep/crew"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSockets serves sessions over WebSockets.  Each connection gets
// its own session, which is closed when the connection ends.  Every
// text frame is host source.  Every reply is a JSON Reply.
type WebSockets struct {
	// Addr is where Run listens.
	Addr string

	Crew   *crew.Crew
	Logger *zap.Logger

	upgrader websocket.Upgrader

	// conns tracks live connections so Run can close them.
	conns sync.Map
}

// NewWebSockets makes a service for the crew.
func NewWebSockets(addr string, c *crew.Crew, logger *zap.Logger) *WebSockets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSockets{
		Addr:   addr,
		Crew:   c,
		Logger: logger,
	}
}

// Handler serves the API at /ws/api and a small test page at /ws/ui.
func (s *WebSockets) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/api", func(w http.ResponseWriter, r *http.Request) {
		s.serve(ctx, w, r)
	})
	mux.HandleFunc("/ws/ui", func(w http.ResponseWriter, r *http.Request) {
		if err := uiTemplate.Execute(w, r.Host); err != nil {
			s.Logger.Warn("ui", zap.Error(err))
		}
	})
	return mux
}

func (s *WebSockets) serve(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("upgrade error", zap.Error(err))
		return
	}
	defer c.Close()

	sess, err := s.Crew.Open(ctx)
	if err != nil {
		s.Logger.Error("session", zap.Error(err))
		reply, _ := json.Marshal(&Reply{Error: err.Error()})
		c.WriteMessage(websocket.TextMessage, reply)
		return
	}
	defer s.Crew.Close(sess.Id)

	s.conns.Store(sess.Id, c)
	defer s.conns.Delete(sess.Id)

	logger := s.Logger.With(zap.String("session", sess.Id), zap.String("remote", r.RemoteAddr))
	logger.Info("connected")

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read error", zap.Error(err))
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		reply := NewReply(sess.Eval(ctx, string(message)))
		js, err := json.Marshal(reply)
		if err != nil {
			logger.Error("marshal", zap.Error(err))
			continue
		}
		if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
			logger.Warn("write error", zap.Error(err))
			break
		}
	}
	logger.Info("disconnected")
}

// Run listens on s.Addr until ctx is done.
func (s *WebSockets) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *WebSockets) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
		// Hijacked connections aren't closed by Shutdown.
		s.conns.Range(func(k, v interface{}) bool {
			v.(*websocket.Conn).Close()
			return true
		})
	}()

	s.Logger.Info("websockets listening", zap.String("addr", l.Addr().String()))
	if err := srv.Serve(l); err != http.ErrServerClosed {
		return err
	}
	return nil
}

var uiTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<script>
window.addEventListener("load", function(evt) {

    var output = document.getElementById("output");
    var input = document.getElementById("input");
    var ws;

    var print = function(message) {
        var d = document.createElement("div");
        d.textContent = message;
        output.insertBefore(d, output.firstChild);
    };

    document.getElementById("open").onclick = function(evt) {
        if (ws) {
            return false;
        }
        ws = new WebSocket("ws://{{.}}/ws/api");
        ws.onopen = function(evt) {
            print("OPEN");
        }
        ws.onclose = function(evt) {
            print("CLOSE");
            ws = null;
        }
        ws.onmessage = function(evt) {
            print("RESPONSE: " + evt.data);
        }
        ws.onerror = function(evt) {
            print("ERROR: " + evt.data);
        }
        return false;
    };

    document.getElementById("send").onclick = function(evt) {
        if (!ws) {
            return false;
        }
        print("SEND: " + input.value);
        ws.send(input.value);
        return false;
    };

    document.getElementById("close").onclick = function(evt) {
        if (!ws) {
            return false;
        }
        ws.close();
        return false;
    };

});
</script>
<style>
body { margin: 2em }
</style>
</head>
<body>
<form>
<button id="open">Open connection</button>
<button id="close">Close connection</button>
<br><input id="input" size="100" type="text" value='(sweep-initialized-p)'>
<br><button id="send">Send</button>
<hr>
<div id="output"></div>
</body>
</html>
`))
