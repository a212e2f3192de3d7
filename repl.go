package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wricardo/halfway/lobby/service"
	"github.com/wricardo/halfway/lobby/session"
	"github.com/wricardo/halfway/logging"
)

const replHelp = `Commands:
  point <lat> <lon>    set your point
  say <text>           send a chat message
  speak <n>            synthesize chat line n to an audio file
  panel chat|details   show or hide a panel
  state                print the lobby as JSON
  show                 redraw the lobby
  quit                 leave the lobby and exit
`

// repl drives a joined lobby from line-oriented input
type repl struct {
	svc        service.LobbyService
	out        io.Writer
	ttsTimeout time.Duration
}

// run reads commands until quit, EOF, ctx cancellation or the session ending.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return r.leave()
		case <-r.svc.Done():
			fmt.Fprintln(r.out, "Disconnected from the lobby.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return r.leave()
			}
			quit, err := r.exec(ctx, line)
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
			if quit {
				return r.leave()
			}
		}
	}
}

// exec runs one command line and reports whether the loop should stop.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "point", "p":
		if len(args) != 2 {
			return false, errors.New("usage: point <lat> <lon>")
		}
		p, err := parsePoint(args[0], args[1])
		if err != nil {
			return false, err
		}
		return false, r.svc.AddPoint(ctx, p)

	case "say", "s":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		err := r.svc.SendChat(ctx, text)
		if errors.Is(err, session.ErrEmptyMessage) {
			return false, nil
		}
		return false, err

	case "speak":
		if len(args) != 1 {
			return false, errors.New("usage: speak <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid line number %q", args[0])
		}
		speakCtx := ctx
		if r.ttsTimeout > 0 {
			var cancel context.CancelFunc
			speakCtx, cancel = context.WithTimeout(ctx, r.ttsTimeout)
			defer cancel()
		}
		path, err := r.svc.Speak(speakCtx, n)
		if errors.Is(err, service.ErrNoSuchLine) || errors.Is(err, service.ErrNotJoined) {
			return false, err
		}
		if err != nil {
			// request failures are logged by the service
			return false, nil
		}
		fmt.Fprintf(r.out, "saved %s\n", path)
		return false, nil

	case "panel":
		if len(args) != 1 {
			return false, errors.New("usage: panel chat|details")
		}
		panels, err := r.svc.TogglePanel(args[0])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "chat %s, details %s\n", shown(panels.Chat), shown(panels.Details))
		return false, nil

	case "state":
		state, err := r.svc.Snapshot()
		if err != nil {
			return false, err
		}
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, string(data))
		return false, nil

	case "show":
		return false, r.svc.Render(r.out)

	case "help", "?":
		fmt.Fprint(r.out, replHelp)
		return false, nil

	case "quit", "exit", "q":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q, try help", fields[0])
	}
}

func (r *repl) leave() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.svc.Leave(ctx)
	if errors.Is(err, service.ErrNotJoined) {
		return nil
	}
	if err != nil {
		logging.Warn().Err(err).Msg("leave failed")
	}
	return nil
}

func shown(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}
