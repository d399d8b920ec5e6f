package assistant

import (
	"context"
	"log/slog"
	"time"

	ws "github.com/gorilla/websocket"
)

// The push channel carries exactly one recognized event.
const (
	clapEvent   = "clap_detected"
	clapMessage = "👏 Clap command detected! Playing Sao Paulo..."

	pushRedial = 5 * time.Second
)

// RunPushListener keeps a long-lived connection to the backend's push
// channel and appends the canned clap message when the event arrives.
// It must tolerate the channel never connecting: dial failures are
// logged and retried, nothing else degrades.
func (a *Assistant) RunPushListener(ctx context.Context, url string) {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			slog.Debug("push channel unavailable", "url", url, "err", err)
		} else {
			slog.Info("push channel connected", "url", url)
			a.readPush(conn)
			conn.Close()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pushRedial):
		}
	}
}

func (a *Assistant) readPush(conn *ws.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if wsIsClosed(err) {
				slog.Warn("push channel closed", "err", err)
			} else {
				slog.Error("push channel read failed", "err", err)
			}
			return
		}

		// Only the clap event is recognized; everything else on the
		// channel is ignored.
		if string(msg) != clapEvent {
			continue
		}

		slog.Info("clap event received")
		a.appendAssistant(clapMessage)
		if a.cfg.Sound != nil && a.cfg.Settings.Current().SoundEffects {
			if err := a.cfg.Sound.Play(); err != nil {
				slog.Error("notification sound failed", "err", err)
			}
		}
	}
}

func wsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
