package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"emittr/fourinarow/internal/analytics"
	"emittr/fourinarow/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsClient presents one game over a websocket: the coordinator's Play loop
// runs against it while readPump feeds columns in. At most one column is
// held for the next turn; anything beyond that is refused.
type wsClient struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	moves chan int
	turns int
}

type wsMessage struct {
	Type   string `json:"type"`
	Column int    `json:"column"`
}

func (s *Server) handleWS(c *gin.Context) {
	opt, ok := firstMoverOption(c.Query("first"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first must be human or engine"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{
		id:    uuid.NewString(),
		conn:  conn,
		send:  make(chan []byte, 64),
		done:  make(chan struct{}),
		moves: make(chan int, 1),
	}

	opts := append([]game.CoordinatorOption{game.WithCoordinatorLogger(s.log)}, s.coordinatorOptions()...)
	if opt != nil {
		opts = append(opts, opt)
	}
	coord, err := game.NewCoordinator(s.settings, opts...)
	if err != nil {
		s.log.Error().Err(err).Msg("start websocket game")
		_ = conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	go client.writePump()
	go client.readPump(cancel)
	go s.playWS(ctx, cancel, client, coord)
}

func (s *Server) playWS(ctx context.Context, cancel context.CancelFunc, client *wsClient, coord *game.Coordinator) {
	defer cancel()
	defer close(client.done)

	started := time.Now()
	client.sendJSON(map[string]any{"type": "init", "gameId": client.id, "rows": s.settings.Rules.Rows, "columns": s.settings.Rules.Columns})
	result, err := coord.Play(ctx, client)
	if err != nil {
		s.log.Info().Err(err).Str("game", client.id).Msg("websocket game ended early")
		return
	}
	s.analytics.Publish(context.Background(), client.id, analytics.EventGameFinished, map[string]any{
		"gameId":   client.id,
		"result":   result.String(),
		"moves":    len(coord.Moves()),
		"duration": time.Since(started).Seconds(),
	})
}

func (c *wsClient) RenderBoard(g *game.Grid) {
	payload := map[string]any{
		"type":         "state",
		"board":        g.Rows(),
		"legalColumns": g.LegalColumns(),
		"result":       g.Result().String(),
	}
	if w := g.Result().Winner(); w != game.Empty {
		payload["winningCells"], _ = g.WinningRun(w)
	}
	c.sendJSON(payload)
}

func (c *wsClient) RequestHumanMove(ctx context.Context) (int, error) {
	c.turns++
	c.sendJSON(map[string]any{"type": "your_turn", "turn": c.turns})
	select {
	case <-ctx.Done():
		return game.NoColumn, ctx.Err()
	case col := <-c.moves:
		return col, nil
	}
}

func (c *wsClient) AnnounceResult(r game.Result) {
	c.sendJSON(map[string]any{"type": "result", "result": r.String()})
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			for {
				select {
				case msg := <-c.send:
					if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

// readPump cancels the game when the socket goes away.
func (c *wsClient) readPump(cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "move" {
			continue
		}
		select {
		case c.moves <- msg.Column:
		default:
			c.sendJSON(map[string]any{"type": "error", "message": game.ErrNotYourTurn.Error()})
		}
	}
}

func (c *wsClient) sendJSON(v any) {
	data, _ := json.Marshal(v)
	select {
	case c.send <- data:
	default:
	}
}
