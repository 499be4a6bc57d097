// Command graphlapse-watch subscribes to a server's frame feed over the
// nanomsg pub socket and prints a summary line per frame. Useful for
// checking what a running server is broadcasting without a rendering
// client.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/sub"
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/graphlapse/graphlapse/pkg/stream"
)

func main() {
	addr := flag.String("connect", "tcp://127.0.0.1:9091", "Publisher address")
	session := flag.String("session", "", "Session to watch (empty watches all)")
	flag.Parse()

	sock, err := sub.NewSocket()
	if err != nil {
		log.Fatalf("sub socket: %v", err)
	}
	defer sock.Close()

	if err := sock.SetOption(mangos.OptionSubscribe, []byte(*session)); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	if err := sock.Dial(*addr); err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}

	fmt.Printf("👀 Watching %s", *addr)
	if *session != "" {
		fmt.Printf(" (session %s)", *session)
	}
	fmt.Println()

	for {
		msg, err := sock.Recv()
		if err != nil {
			log.Fatalf("recv: %v", err)
		}
		event, err := stream.DecodeFrameMessage(msg)
		if err != nil {
			log.Printf("bad frame message: %v", err)
			continue
		}

		if event.Output == nil {
			log.Printf("frame message for %s carried no layout", event.SessionID)
			continue
		}

		meta := event.Output.Metadata
		fmt.Printf("[%s] session=%s frame=%d nodes=%d components=%d communities=%d\n",
			time.Now().Format("15:04:05"), event.SessionID, event.Frame,
			meta.NodeCount, meta.Components, meta.Communities)
	}
}
