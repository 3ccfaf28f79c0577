package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/lobby-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login; empty connects as a guest")
	game := flag.String("game", "", "game room to join; empty joins the global room")
	text := flag.String("text", "hello from smoke test", "chat text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := target.Query()
	if *token != "" {
		q.Set("token", *token)
	}
	if *game != "" {
		q.Set("game", *game)
	}
	target.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	dest := proto.Destination{Kind: proto.DestinationGlobal}
	if *game != "" {
		dest = proto.Destination{Kind: proto.DestinationGame, ID: *game}
	}
	data, err := json.Marshal(proto.ChatData{Destination: dest, Text: *text})
	if err != nil {
		return fmt.Errorf("marshal chat: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeChat, Data: data}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		p, err := proto.Decode(raw)
		if err != nil {
			fmt.Printf("undecodable frame: %s\n", raw)
			continue
		}

		switch v := p.(type) {
		case proto.UserStatus:
			fmt.Printf("user_status: %s %s\n", v.Username, v.Status)
		case proto.GameActionNotification:
			fmt.Printf("game_action_notification: %d games\n", len(v.Games))
		case proto.ChallengeList:
			fmt.Printf("challenges: %d\n", len(v.Challenges))
		case proto.Error:
			return fmt.Errorf("server error %s: %s", v.Code, v.Msg)
		case proto.Chat:
			fmt.Printf("chat from %s: %s\n", v.Username, v.Text)
			if v.Text == *text {
				fmt.Println("smoke test succeeded")
				return nil
			}
		}
	}
}
