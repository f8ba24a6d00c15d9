package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuallego/backend/internal/auth"
	"github.com/virtuallego/backend/internal/lego"
	"github.com/virtuallego/backend/internal/table"
)

// Inbound message data
type SteerData struct {
	Delta float64 `json:"delta"`
}

type NudgeData struct {
	Direction string `json:"direction"`
}

type DragData struct {
	DX float64 `json:"dx"`
}

// HandleWebSocket upgrades GET /table/:token/ws?pt=<player token>.
func HandleWebSocket(h *Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableToken := c.Param("token")
		playerToken := c.Query("pt")
		if tableToken == "" || playerToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and pt required"})
			return
		}

		claims, err := auth.ParseToken(jwtSecret, playerToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid player token"})
			return
		}
		if claims.TableToken != tableToken {
			c.JSON(http.StatusForbidden, gin.H{"error": "player token not valid for this table"})
			return
		}
		if _, err := h.manager.GetTableByToken(tableToken); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warnw("upgrade failed", "error", err)
			return
		}

		client := &Client{
			hub:        h,
			conn:       conn,
			playerID:   claims.PlayerID,
			tableToken: tableToken,
			role:       claims.Role,
			send:       make(chan []byte, sendBuffer),
			ready:      make(chan struct{}),
		}

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}
		select {
		case <-client.ready:
		case <-h.done:
			conn.Close()
			return
		}
		// a slow rehydrate only holds up this connection
		h.sendState(client)

		go client.writePump()
		go client.readPump()
	}
}

// handleMessage processes one inbound message.
func (c *Client) handleMessage(msg WSMessage) {
	m := c.hub.manager

	if msg.Type == "get_state" {
		c.hub.sendState(c)
		return
	}
	if c.role != auth.RolePlayer {
		c.sendError("Spectators cannot control the table")
		return
	}

	var err error
	switch msg.Type {
	case "launch":
		err = m.Launch(c.tableToken)

	case "steer":
		var data SteerData
		if jerr := json.Unmarshal(msg.Data, &data); jerr != nil {
			c.sendError("Invalid steer data")
			return
		}
		_, err = m.Steer(c.tableToken, data.Delta)

	case "nudge":
		var data NudgeData
		if jerr := json.Unmarshal(msg.Data, &data); jerr != nil {
			c.sendError("Invalid nudge data")
			return
		}
		_, err = m.Nudge(c.tableToken, data.Direction)

	case "drag":
		var data DragData
		if jerr := json.Unmarshal(msg.Data, &data); jerr != nil {
			c.sendError("Invalid drag data")
			return
		}
		_, err = m.Drag(c.tableToken, data.DX)

	default:
		c.sendError("Unknown message type")
		return
	}

	if err != nil {
		c.sendError(inputError(err))
	}
}

func inputError(err error) string {
	switch {
	case errors.Is(err, lego.ErrRoundActive):
		return "Round already in progress"
	case errors.Is(err, table.ErrTableNotFound), errors.Is(err, table.ErrTableClosed):
		return "Table is closed"
	case errors.Is(err, table.ErrBadDirection):
		return "Direction must be left or right"
	}
	return "Could not apply input"
}
