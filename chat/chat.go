// Package chat keeps a conversation transcript and replays it on every turn.
//
// A [Session] is created empty or seeded with prior turns. Each
// [Session.SendMessage] sends the whole transcript plus the new user message
// through a [Generator], and records the user and model turns only when the
// call succeeds:
//
//	session, err := c.StartChat(chat.WithMaxTurns(20))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reply, err := session.SendMessage(ctx, "Hi, I'm planning a trip to Rome.")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(reply.Text())
//
// The [github.com/spetersoncode/gemlink/client.Client] type implements
// Generator.
package chat

import (
	"context"

	"github.com/spetersoncode/gemlink"
)

// Generator performs one multi-turn generation.
type Generator interface {
	GenerateTurns(ctx context.Context, history []gemlink.HistoryEntry, prompt string, opts ...gemlink.Option) (*gemlink.Response, error)
}

// Reply is the model's answer to one message.
type Reply struct {
	Response *gemlink.Response
}

// Text returns the reply text.
func (r *Reply) Text() string {
	if r == nil {
		return ""
	}
	return r.Response.Text()
}
