// Package main is the entrypoint for the playfab CLI and relay (binary name "playfab").
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/morezero/playfab-sdk/internal/config"
	"github.com/morezero/playfab-sdk/internal/server"
	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/commsutil"
	"github.com/morezero/playfab-sdk/pkg/db"
	"github.com/morezero/playfab-sdk/pkg/events"
	"github.com/morezero/playfab-sdk/pkg/playfab"
	"github.com/morezero/playfab-sdk/pkg/transport"
)

const usage = `Usage: playfab [command]
       playfab serve                        Start the relay (NATS, HTTP health, error journal).
       playfab call <endpoint> [json]       Call an endpoint over HTTPS and print the outcome.
       playfab relay-call <endpoint> [json] Call an endpoint through a running relay over NATS.
       playfab endpoints [api]              List the endpoint descriptor table.
       playfab migrate up                   Run error journal migrations.
       playfab migrate status               Show migration status.
       playfab ensure-db [name]             Create database if missing (default name: playfab_test). Uses DATABASE_URL host/user.
       playfab clear                        Truncate the error journal; schema is preserved.

Commands:
  serve           (default) Start the relay.
  call            Endpoint is "Admin/GetTitleData" or "/Admin/GetTitleData". The body defaults to {}.
  relay-call      Same as call, sent to RELAY_SUBJECT on COMMS_URL.
  endpoints       Print path, credential header and API of every endpoint.
  migrate up      Run database migrations only.
  migrate status  Show current migration status.
  ensure-db       Create database (e.g. playfab_test) on same host as DATABASE_URL.
  clear           Truncate journal data; schema preserved.

Environment (defaults in parentheses):
  PLAYFAB_TITLE_ID, PLAYFAB_DEVELOPER_SECRET_KEY, PLAYFAB_VERTICAL, PLAYFAB_BASE_URL,
  PLAYFAB_REQUEST_TIMEOUT (30s), PLAYFAB_CATALOG_FILE (embedded catalog)
  PLAYFAB_ENTITY_TOKEN, PLAYFAB_SESSION_TICKET, PLAYFAB_TELEMETRY_KEY
  COMMS_URL (nats://127.0.0.1:4222), SERVICE_NAME (playfab-relay)
  RELAY_SUBJECT (playfab.relay.v1), ERROR_EVENT_SUBJECT (playfab.errors), RELAY_MAX_IN_FLIGHT (64)
  DATABASE_URL, RUN_MIGRATIONS (false), MIGRATION_PATH (embedded migrations)
  HTTP_PORT (8080), HEALTH_CHECK_TIMEOUT (5s), LOG_LEVEL (info)
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "call", "relay-call":
		if len(args) < 2 {
			log.Fatalf("playfab %s: require endpoint name", cmd)
		}
		body := ""
		if len(args) > 2 {
			body = args[2]
		}
		ok, err := runCall(args[1], body, cmd == "relay-call")
		if err != nil {
			log.Fatalf("playfab %s: %v", cmd, err)
		}
		if !ok {
			os.Exit(2)
		}
		return
	case "endpoints":
		api := ""
		if len(args) > 1 {
			api = args[1]
		}
		if err := runEndpoints(os.Stdout, api); err != nil {
			log.Fatalf("playfab endpoints: %v", err)
		}
		return
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("playfab migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("playfab migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("playfab migrate status: %v", err)
			}
		default:
			log.Fatalf("playfab migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("playfab clear: %v", err)
		}
		return
	case "ensure-db":
		dbName := "playfab_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("playfab ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("playfab: %v", err)
	}
}

// callOutput is what "call" prints.
type callOutput struct {
	Endpoint string             `json:"endpoint"`
	OK       bool               `json:"ok"`
	Kind     string             `json:"kind"`
	Data     json.RawMessage    `json:"data,omitempty"`
	Error    *playfab.ErrorInfo `json:"error,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// dispatchRaw sends body to ep and converts the outcome for printing.
func dispatchRaw(ctx context.Context, d *playfab.Dispatcher, ep playfab.Endpoint[playfab.Raw], body string) callOutput {
	req := playfab.Request[struct{}]{}
	if body != "" {
		req.Payload = json.RawMessage(body)
	}
	out := playfab.Dispatch(ctx, d, ep, req)
	res := callOutput{Endpoint: ep.Path, OK: out.OK(), Kind: out.Kind().String()}
	if data, ok := out.Result(); ok {
		res.Data = data
		return res
	}
	res.Message = out.Err().Error()
	if apiErr, ok := out.APIError(); ok {
		info := apiErr.ErrorInfo
		res.Error = &info
	}
	return res
}

func runCall(name, body string, viaRelay bool) (bool, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return false, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if body != "" && !json.Valid([]byte(body)) {
		return false, fmt.Errorf("request body is not valid JSON")
	}

	rc, err := loadCatalog(cfg)
	if err != nil {
		return false, err
	}
	ep, err := catalog.EndpointFor[playfab.Raw](rc, name)
	if err != nil {
		return false, err
	}

	params := playfab.DispatcherParams{Settings: cfg.Settings(), AuthContext: cfg.AuthContext()}
	var publisher events.EventPublisher = events.NewCallbackPublisher(func(_ context.Context, e *events.APIErrorEvent) error {
		slog.Warn(fmt.Sprintf("cmd/playfab:main - %s failed: %s %s", e.Path, e.ErrorName, e.ErrorMessage))
		return nil
	})

	if viaRelay {
		nc, err := commsutil.Connect(cfg.COMMSURL, "playfab-cli")
		if err != nil {
			return false, fmt.Errorf("connect NATS: %w", err)
		}
		defer nc.Close()
		params.Transport, err = transport.NewCommsTransport(transport.CommsTransportParams{
			Conn:    nc,
			Subject: cfg.RelaySubjectOrDefault(),
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return false, err
		}
		publisher = events.NewMultiPublisher(publisher, events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalErrorSubject: cfg.ErrorEventSubject}))
	} else {
		if err := cfg.ValidateForCall(); err != nil {
			return false, err
		}
		params.Transport, err = transport.NewHTTPTransport(transport.HTTPTransportParams{
			Settings: cfg.Settings(),
			Timeout:  cfg.RequestTimeout,
		})
		if err != nil {
			return false, err
		}
	}
	observer := events.NewObserver(publisher, "playfab-cli")
	params.Observer = observer

	d, err := playfab.NewDispatcher(params)
	if err != nil {
		return false, err
	}
	out := dispatchRaw(context.Background(), d, ep, body)
	observer.Wait()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return false, err
	}
	return out.OK, nil
}

func loadCatalog(cfg *config.Config) (*catalog.ResolvedCatalog, error) {
	cat, err := catalog.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog.Resolve(cat)
}

func runEndpoints(w io.Writer, api string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	rc, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	return writeEndpoints(w, rc, api)
}

func writeEndpoints(w io.Writer, rc *catalog.ResolvedCatalog, api string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PATH\tCREDENTIAL\tAPI\n")
	n := 0
	for _, d := range rc.List() {
		if api != "" && d.API != api {
			continue
		}
		header := d.Auth.HeaderName()
		if header == "" {
			header = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Path, header, d.API)
		n++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d endpoints (%s@%s)\n", n, rc.Name(), rc.Version())
	return err
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	state, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	if err != nil {
		return err
	}
	fmt.Println(state)
	return nil
}

func runClear() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearJournal(ctx, pool); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	if _, err := db.EnsureDatabase(context.Background(), cfg.DatabaseURL, dbName); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}
