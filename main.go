// Command halfway is a terminal client for "meet halfway" lobbies.
//
// Participants join a shared lobby and drop points; the lobby server
// computes the geometric and reachable midpoints and broadcasts them with
// chat and nearby places.
//
// Commands:
//  1. "create" – create a lobby and print its code
//  2. "join" – join a lobby and drive it interactively
//  3. "midpoint" – compute a midpoint locally, no server needed
//  4. "mcp" – serve the lobby tools over MCP stdio
//  5. "version" – print version information
//
// Configuration comes from halfway.yaml, HALFWAY_* environment variables
// and an optional .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/halfway/api"
	"github.com/wricardo/halfway/lobby/config"
	"github.com/wricardo/halfway/lobby/geo"
	"github.com/wricardo/halfway/lobby/identity"
	"github.com/wricardo/halfway/lobby/service"
	"github.com/wricardo/halfway/lobby/store"
	"github.com/wricardo/halfway/logging"
	"github.com/wricardo/halfway/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "halfway"
)

type cfgKey struct{}

// main loads .env, builds the command tree and runs it.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Msg("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		logging.Fatal().Err(err).Msg("halfway failed")
	}
}

// newApp builds the CLI reading interactive input from in and writing to out.
func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "meet halfway with the people in your lobby",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (default halfway.yaml)",
				Sources: cli.EnvVars(config.ConfigPathEnvVar),
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "lobby server base URL, overrides server.url",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "disable colored output",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a new lobby and print its code",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runCreate(ctx, cmd, out)
				},
			},
			{
				Name:      "join",
				Usage:     "join a lobby and drive it interactively",
				ArgsUsage: "<code>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runJoin(ctx, cmd, in, out)
				},
			},
			{
				Name:            "midpoint",
				Usage:           "compute the meeting point of two or more coordinates",
				ArgsUsage:       "<lat1> <lon1> <lat2> <lon2> [<lat> <lon>...]",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runMidpoint(cmd.Args().Slice(), out)
				},
			},
			{
				Name:      "mcp",
				Usage:     "serve lobby tools over MCP stdio",
				ArgsUsage: "[code]",
				Action:    runMCP,
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(out, "%s v%s\n", AppName, Version)
					return err
				},
			},
		},
	}
}

// loadConfig reads the configuration and initializes logging before any command runs.
func loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if url := cmd.String("server"); url != "" {
		cfg.Server.URL = url
	}
	if cmd.Bool("debug") {
		cfg.Logging.Level = "debug"
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Debug().Str("server", cfg.Server.URL).Str("store", cfg.Session.Store).Msg("configuration loaded")

	return context.WithValue(ctx, cfgKey{}, cfg), nil
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(cfgKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func newAPIClient(cfg *config.Config) (*api.Client, error) {
	return api.NewClient(cfg.Server.URL, api.WithTimeout(cfg.Server.Timeout))
}

// newLobbyService wires the store, identity and API client into a LobbyService.
// The returned store must be closed by the caller.
func newLobbyService(cfg *config.Config, out io.Writer, plain bool) (service.LobbyService, store.Store, error) {
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.Session.Store, cfg.Session.Dir, cfg.Session.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	provider := identity.NewTokenProvider()
	if cfg.Auth.IDToken != "" {
		if _, err := provider.SignIn(cfg.Auth.IDToken); err != nil {
			logging.Warn().Err(err).Msg("ignoring id token, continuing as guest")
		}
	}

	if sid, err := store.SessionID(st); err == nil {
		logging.Debug().Str("session_id", sid).Msg("client session")
	}

	svc, err := service.New(service.Options{
		API:               client,
		Store:             st,
		Identity:          identity.NewResolver(provider, st),
		WSPath:            cfg.WebSocketPath(),
		AnimationDuration: cfg.Animation.Duration,
		Animate:           cfg.Animation.Enabled,
		AudioDir:          cfg.TTS.OutputDir,
		PointRate:         cfg.Points.Rate,
		PointBurst:        cfg.Points.Burst,
		Out:               out,
		Plain:             plain,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return svc, st, nil
}

func runCreate(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	client, err := newAPIClient(configFrom(ctx))
	if err != nil {
		return err
	}
	code, err := client.CreateLobby(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, code)
	return err
}

func runJoin(ctx context.Context, cmd *cli.Command, in io.Reader, out io.Writer) error {
	code := cmd.Args().First()
	if service.NormalizeCode(code) == "" {
		return service.ErrEmptyLobbyCode
	}

	cfg := configFrom(ctx)
	svc, st, err := newLobbyService(cfg, out, cmd.Bool("plain"))
	if err != nil {
		return err
	}
	defer st.Close()

	info, err := svc.Join(ctx, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Joined %s as %s. Type \"help\" for commands.\n", info.Code, info.ChatName)

	r := &repl{svc: svc, out: out, ttsTimeout: cfg.TTS.Timeout}
	return r.run(ctx, in)
}

func runMidpoint(args []string, out io.Writer) error {
	points, err := parseCoordinates(args)
	if err != nil {
		return err
	}

	mid, err := geo.MeetingPoint(points)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "midpoint %s\n", mid)
	for i, p := range points {
		fmt.Fprintf(out, "  %d. %s  %.1f km\n", i+1, p, geo.HaversineKm(p, mid))
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol, so the terminal view stays off
	svc, st, err := newLobbyService(configFrom(ctx), nil, true)
	if err != nil {
		return err
	}
	defer st.Close()

	if code := cmd.Args().First(); code != "" {
		if _, err := svc.Join(ctx, code); err != nil {
			return err
		}
	}
	return mcp.NewServer(svc).ServeStdio()
}

// parseCoordinates reads lat/lon pairs from positional arguments.
func parseCoordinates(args []string) ([]geo.Point, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return nil, errors.New("expected pairs of <lat> <lon>, at least two points")
	}

	points := make([]geo.Point, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		p, err := parsePoint(args[i], args[i+1])
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func parsePoint(latArg, lonArg string) (geo.Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latArg), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q", latArg)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonArg), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q", lonArg)
	}
	p := geo.Point{Lat: lat, Lon: lon}
	return p, p.Validate()
}
