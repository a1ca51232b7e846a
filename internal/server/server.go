// Package server orchestrates the relay service: NATS client, upstream HTTP transport,
// optional error journal, and the HTTP health/catalog endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/playfab-sdk/internal/config"
	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/commsutil"
	"github.com/morezero/playfab-sdk/pkg/db"
	"github.com/morezero/playfab-sdk/pkg/events"
	"github.com/morezero/playfab-sdk/pkg/playfab"
	"github.com/morezero/playfab-sdk/pkg/relay"
	"github.com/morezero/playfab-sdk/pkg/transport"
)

const logPrefix = "server:server"

// journalReader is the part of *db.Repository the HTTP handlers use.
type journalReader interface {
	Ping(ctx context.Context) error
	ListAPIErrors(ctx context.Context, filter db.APIErrorFilter) ([]db.APIErrorRecord, error)
	CountAPIErrors(ctx context.Context, filter db.APIErrorFilter) (int, error)
}

// Server is the relay orchestrator.
type Server struct {
	cfg        *config.Config
	catalog    *catalog.ResolvedCatalog
	relay      *relay.Relay
	journal    journalReader // nil when DATABASE_URL is unset
	commsUp    func() bool
	httpServer *http.Server
	inFlight   sync.WaitGroup
}

// Run starts the relay, blocks until a shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Starting playfab relay %s", logPrefix, playfab.SDKHeaderValue()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Load the descriptor table
	cat, err := catalog.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load catalog: %w", logPrefix, err)
	}
	resolved, err := catalog.Resolve(cat)
	if err != nil {
		return fmt.Errorf("%s - invalid catalog: %w", logPrefix, err)
	}
	if err := resolved.CheckCompatible(playfab.SDKVersion); err != nil {
		return fmt.Errorf("%s - %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Catalog %s@%s with %d endpoints", logPrefix, resolved.Name(), resolved.Version(), resolved.Len()))

	// Step 2: Upstream transport
	upstream, err := transport.NewHTTPTransport(transport.HTTPTransportParams{
		Settings: cfg.Settings(),
		Timeout:  cfg.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("%s - failed to create upstream transport: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Upstream: %s", logPrefix, upstream.BaseURL()))

	// Step 3: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}

	// Step 4: Optional error journal
	var pool *pgxpool.Pool
	publishers := []events.EventPublisher{
		events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalErrorSubject: cfg.ErrorEventSubject}),
	}
	s := &Server{cfg: cfg, catalog: resolved, commsUp: nc.IsConnected}
	if cfg.DatabaseURL != "" {
		pool, err = openJournal(ctx, cfg)
		if err != nil {
			nc.Close()
			return err
		}
		repo := db.NewRepository(pool)
		s.journal = repo
		publishers = append(publishers, events.NewJournalPublisher(repo))
	}

	// Step 5: Relay
	observer := events.NewObserver(events.NewMultiPublisher(publishers...), cfg.COMMSName)
	s.relay, err = relay.NewRelay(relay.RelayParams{
		Catalog:  resolved,
		Upstream: upstream,
		Observer: observer,
	})
	if err != nil {
		closeAll(nc, pool)
		return fmt.Errorf("%s - %w", logPrefix, err)
	}

	// Step 6: Subscribe. A queue group lets several relays share the load.
	relaySubject := cfg.RelaySubjectOrDefault()
	sub, err := nc.QueueSubscribe(relaySubject, cfg.COMMSName, s.handleRelayMsg(ctx))
	if err != nil {
		closeAll(nc, pool)
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, relaySubject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, relaySubject))

	// Step 7: Start HTTP health server
	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Relay is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown: stop taking requests, then let forwarded calls answer.
	sub.Unsubscribe()
	s.inFlight.Wait()
	observer.Wait()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HealthCheckTimeout)
	defer shutdownCancel()
	s.httpServer.Shutdown(shutdownCtx)
	nc.Drain()
	if pool != nil {
		pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func openJournal(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	if !cfg.RunMigrations {
		return pool, nil
	}
	migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
	}
	return pool, nil
}

func closeAll(nc *comms.Conn, pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
	nc.Close()
}

// handleRelayMsg returns the relay subscription handler. Each message is forwarded
// on its own goroutine; at most RELAY_MAX_IN_FLIGHT run at once, and the handler
// blocks when all slots are taken.
func (s *Server) handleRelayMsg(ctx context.Context) comms.MsgHandler {
	limit := s.cfg.RelayMaxInFlight
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	return func(msg *comms.Msg) {
		sem <- struct{}{}
		s.inFlight.Add(1)
		go func() {
			defer func() {
				<-sem
				s.inFlight.Done()
			}()
			s.forward(ctx, msg)
		}()
	}
}

// forward decodes a relay request, forwards it, and responds.
func (s *Server) forward(ctx context.Context, msg *comms.Msg) {
	req, err := commsutil.DecodeAs[relay.RelayRequest](msg.Data)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
		respond(msg, &relay.RelayResponse{
			Ok: false,
			Error: &relay.ErrorDetail{
				Code:    relay.CodeInvalidRequest,
				Message: "Failed to decode request",
			},
		})
		return
	}

	// Per-request context with timeout; a shorter client timeout wins.
	timeout := s.cfg.RequestTimeout
	if req.TimeoutMs > 0 && time.Duration(req.TimeoutMs)*time.Millisecond < timeout {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	respond(msg, s.relay.Handle(reqCtx, &req))
}

func respond(msg *comms.Msg, resp *relay.RelayResponse) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		// The upstream body was not valid JSON.
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		data, _ = commsutil.EncodePayload(&relay.RelayResponse{
			ID: resp.ID,
			Ok: false,
			Error: &relay.ErrorDetail{
				Code:    relay.CodeInternalError,
				Message: "upstream returned a body that is not JSON",
			},
		})
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
	}
}
