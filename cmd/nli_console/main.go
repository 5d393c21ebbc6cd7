package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"uml-nli-be/internal/config"
	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/internal/repository/memory"
	"uml-nli-be/pkg/dispatch"
	"uml-nli-be/pkg/navigation"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/store"

	"github.com/fatih/color"
)

const sessionID = "console"

// Drives a dispatcher against a running NLI server from the terminal. Lines
// are submitted as queries; lines starting with ':' are console commands.
func main() {
	cfg := config.Load()
	serverURL := flag.String("server", cfg.Nli.ServerURL, "NLI server base URL")
	verbose := flag.Bool("v", false, "log state transitions")
	flag.Parse()

	log := logger.NewNopLogger()
	if *verbose {
		log = logger.NewZapLogger("logs/nli_console.log", false)
	}

	sessions := memory.NewSessionRepository(24 * time.Hour)
	sessions.LoadOrCreate(sessionID)
	emitter := operation.NewChannelEmitter(64)

	d := dispatch.New(
		nli.NewClient(*serverURL, cfg.Nli.RequestTimeout),
		sessions,
		memory.NewQueryHistoryRepository(24*time.Hour),
		navigation.NewHistory(),
		emitter,
		dispatch.Config{PingTimeout: cfg.Nli.PingTimeout, RefreshDelay: cfg.Nli.RefreshDelay},
		log.StdLogger("dispatch"),
	)
	defer d.Close()

	go printMessages(emitter.C())

	color.Cyan("NLI console, server %s", *serverURL)
	color.Cyan("Commands: :focus <id> [kind]  :snapshot <uml.json> [unotation.json]  :history [pattern]  :resubmit <id>  :nav  :record  :quit")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ":") {
			if quit := runCommand(ctx, d, scanner, line); quit {
				return
			}
			continue
		}

		out, err := d.Submit(ctx, sessionID, line)
		printOutcome(out, err)
	}
}

func runCommand(ctx context.Context, d *dispatch.Dispatcher, scanner *bufio.Scanner, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true

	case ":focus":
		if len(fields) < 2 {
			if err := d.ObserveFocus(sessionID, nil); err != nil {
				color.Red("focus: %v", err)
				return false
			}
			color.Yellow("focus cleared")
			return false
		}
		focus := &store.FocusState{ElementID: fields[1]}
		if len(fields) > 2 {
			focus.ElementKind = fields[2]
		}
		if err := d.ObserveFocus(sessionID, focus); err != nil {
			color.Red("focus: %v", err)
			return false
		}
		color.Yellow("focus: %s %s", focus.ElementID, focus.ElementKind)

	case ":snapshot":
		if len(fields) < 2 {
			color.Red("usage: :snapshot <uml.json> [unotation.json]")
			return false
		}
		snap, err := loadSnapshot(fields[1:])
		if err != nil {
			color.Red("snapshot: %v", err)
			return false
		}
		stored, err := d.ObserveSnapshot(sessionID, snap)
		if err != nil {
			color.Red("snapshot: %v", err)
			return false
		}
		color.Yellow("snapshot revision %d", stored.Revision)

	case ":history":
		entries, err := d.History(ctx, sessionID, strings.Join(fields[1:], " "))
		if err != nil {
			color.Red("history: %v", err)
			return false
		}
		for _, e := range entries {
			fmt.Printf("  %s  %s  %s\n", e.Timestamp.Format("15:04:05"), e.ID, e.Text)
		}

	case ":resubmit":
		if len(fields) < 2 {
			color.Red("usage: :resubmit <id>")
			return false
		}
		out, err := d.Resubmit(ctx, sessionID, fields[1])
		printOutcome(out, err)

	case ":nav":
		steps, err := d.Navigation(sessionID)
		if err != nil {
			color.Red("nav: %v", err)
			return false
		}
		for i, s := range steps {
			from := "-"
			if s.From != nil {
				from = s.From.ID
			}
			fmt.Printf("  %d. %s -> %s\n", i+1, from, s.To.ID)
		}

	case ":record":
		id, err := d.StartRecording(ctx, sessionID)
		if err != nil {
			color.Red("record: %v", err)
			return false
		}
		color.Yellow("recording %s, type the transcript:", id)
		fmt.Print("~ ")
		if scanner.Scan() {
			out, err := d.SubmitTranscript(ctx, sessionID, id, scanner.Text())
			printOutcome(out, err)
		}

	default:
		color.Red("unknown command %s", fields[0])
	}
	return false
}

func loadSnapshot(paths []string) (store.ModelSnapshot, error) {
	var snap store.ModelSnapshot
	uml, err := os.ReadFile(paths[0])
	if err != nil {
		return snap, err
	}
	if !json.Valid(uml) {
		return snap, fmt.Errorf("%s is not JSON", paths[0])
	}
	snap.UML = uml
	if len(paths) > 1 {
		notation, err := os.ReadFile(paths[1])
		if err != nil {
			return snap, err
		}
		snap.Unotation = notation
	}
	return snap, nil
}

func printOutcome(out *dispatch.Outcome, err error) {
	if out != nil {
		fmt.Printf("  intent=%s states=%v\n", out.Intent, out.States)
	}
	if err != nil {
		color.Red("  %s: %v", dispatch.KindOf(err), err)
	}
}

func printMessages(ch <-chan operation.Envelope) {
	for env := range ch {
		action, err := operation.EncodeAction(env.Message)
		if err != nil {
			color.Red("  <- %s (unencodable: %v)", env.Message.Kind(), err)
			continue
		}
		switch env.Message.(type) {
		case operation.Operation:
			color.Green("  <- %s", action)
		case operation.NliError:
			color.Red("  <- %s", action)
		default:
			color.HiBlack("  <- %s", action)
		}
	}
}
