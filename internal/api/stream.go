package api

import (
	"investbot/internal/ledger" // Wallet ledger
	"investbot/internal/money"  // Display currency
	"investbot/internal/rates"  // Exchange rate
	"net/http"                  // Origin check
	"time"                      // Deadlines

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/gorilla/websocket" // WebSocket upgrade
	"github.com/sirupsen/logrus"   // Logging library
)

const (
	writeWait  = 10 * time.Second // Deadline for one frame
	pongWait   = 60 * time.Second // Idle limit before the peer is dropped
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // The webview origin differs per platform client
	},
}

// StreamHandler upgrades to a WebSocket and pushes the wallet after every change.
// Updates a slow client cannot keep up with are dropped; the next one supersedes them
func StreamHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur := money.ParseCurrency(c.Query("currency")) // Display currency
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("WebSocket upgrade failed")
			return // Upgrade already replied
		}
		defer func() { _ = conn.Close() }()

		updates := make(chan ledger.Snapshot, 8) // Buffered, never blocks the ledger
		cancel := l.Subscribe(func(s ledger.Snapshot) {
			select {
			case updates <- s:
			default:
			}
		})
		defer cancel()

		// Reader loop: detects close and keeps the read deadline alive
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(s ledger.Snapshot) error {
			view := newWalletView(l, s.Wallet, cur, rp.Current())
			view.Transactions = s.Transactions
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteJSON(view)
		}
		// Initial state
		if err := send(l.Snapshot(c.Request.Context())); err != nil {
			return
		}

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case s := <-updates:
				if err := send(s); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}
