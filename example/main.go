package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pollenize/floradex"
	"github.com/pollenize/floradex/page"
)

func main() {
	// start mock dashboard (see mock_server.go)
	go StartMockDashboard(":9999")
	time.Sleep(100 * time.Millisecond)

	doc, err := page.New("Floradex Demo")
	if err != nil {
		slog.Error("failed to create page", "error", err)
		os.Exit(1)
	}

	// script-tag attributes apply to every widget unless a mount overrides them
	doc.SetScriptAttributes(floradex.Attributes{"theme": "dark"})

	doc.AddMount("airfield", floradex.Attributes{"project": "bodmin-airfield", "postcode": "PL30", "distance": "5"})
	doc.AddMount("", floradex.Attributes{"project": "cornish-essential-oils", "theme": "light"})
	doc.AddMount("", floradex.Attributes{"project": "tamar-valley-centre"})
	doc.AddMount("", floradex.Attributes{"project": "not-a-project"})
	doc.MarkReady()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	reg, err := floradex.New(doc,
		floradex.WithLogger(logger),
		floradex.WithBaseURL("http://localhost:9999/"),
		floradex.WithDefaults(floradex.WithLoadingTimeout(5*time.Second)),
		floradex.WithEventHandler(func(ev floradex.Event) {
			if ev.Type == floradex.EventError {
				logger.Warn("widget error", "instance_id", ev.InstanceID, "reason", ev.Reason)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create registry", "error", err)
		os.Exit(1)
	}

	host, err := floradex.NewHost(reg, floradex.WithPage(doc), floradex.WithPort(8080))
	if err != nil {
		slog.Error("failed to create host", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Floradex Demo                                       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Widgets:                                            ║")
	fmt.Println("  ║   • bodmin-airfield (loads)                           ║")
	fmt.Println("  ║   • cornish-essential-oils (fails, retry twice)       ║")
	fmt.Println("  ║   • tamar-valley-centre (times out after 5s)          ║")
	fmt.Println("  ║   • not-a-project (unknown project)                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := host.Start(ctx); err != nil {
		slog.Error("floradex error", "error", err)
		os.Exit(1)
	}
}
