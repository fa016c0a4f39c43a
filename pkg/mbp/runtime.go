// Package mbp wires the value-log pipeline and the test engine into one
// embeddable runtime: broker transport → receiver → observers (engine,
// journal) on the ingest side, and the orchestration engine with its
// repositories and deployment client on the control side.
package mbp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marvin21/MBP/internal/adapters/deployment"
	"github.com/marvin21/MBP/internal/adapters/journal"
	"github.com/marvin21/MBP/internal/adapters/mqtt"
	"github.com/marvin21/MBP/internal/adapters/observability"
	"github.com/marvin21/MBP/internal/adapters/opcua"
	"github.com/marvin21/MBP/internal/adapters/postgres"
	"github.com/marvin21/MBP/internal/adapters/queue"
	"github.com/marvin21/MBP/internal/app/config"
	"github.com/marvin21/MBP/internal/correlator"
	"github.com/marvin21/MBP/internal/engine"
	"github.com/marvin21/MBP/internal/ports"
	"github.com/marvin21/MBP/internal/receiver"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

// Repositories bundles the persistence ports so embedders can swap the
// storage backend in one option.
type Repositories struct {
	Tests     ports.TestDetailsRepository
	Actuators ports.ActuatorRepository
	Rules     ports.RuleRepository
	Triggers  ports.RuleTriggerRepository
	Traces    ports.TraceRepository
}

type runtimeOverrides struct {
	transport     ports.Transport
	deployment    ports.DeploymentClient
	rules         ports.RuleClient
	observability ports.Observability
	journal       ports.Journal
	repositories  *Repositories
	source        ports.Source
	queue         ports.MessageQueue
}

// WithTransport injects a custom transport (a different broker client, a
// replaying test transport, etc.).
func WithTransport(t ports.Transport) RuntimeOption {
	return func(o *runtimeOverrides) { o.transport = t }
}

// WithDeployment injects a custom deployment client.
func WithDeployment(d ports.DeploymentClient) RuntimeOption {
	return func(o *runtimeOverrides) { o.deployment = d }
}

// WithRuleClient injects a custom rule engine client.
func WithRuleClient(r ports.RuleClient) RuntimeOption {
	return func(o *runtimeOverrides) { o.rules = r }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.observability = obs }
}

// WithJournal lets callers bring their own journal or reuse an instance.
func WithJournal(j ports.Journal) RuntimeOption {
	return func(o *runtimeOverrides) { o.journal = j }
}

// WithRepositories swaps the persistence layer.
func WithRepositories(r Repositories) RuntimeOption {
	return func(o *runtimeOverrides) { o.repositories = &r }
}

// WithSource adds or replaces the secondary ingest source.
func WithSource(s ports.Source) RuntimeOption {
	return func(o *runtimeOverrides) { o.source = s }
}

// WithMessageQueue injects a custom inbound queue implementation.
func WithMessageQueue(q ports.MessageQueue) RuntimeOption {
	return func(o *runtimeOverrides) { o.queue = q }
}

// Runtime owns the assembled pipeline and engine plus their lifecycles.
type Runtime struct {
	cfg *config.Config
	obs ports.Observability

	receiver  *receiver.Receiver
	engine    *engine.Engine
	transport ports.Transport
	source    ports.Source
	journal   ports.Journal

	db          *sql.DB
	closers     []io.Closer
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
}

// NewRuntime bootstraps the default adapters (Paho transport over a bounded
// queue, file journal, Postgres repositories, REST deployment client,
// Prometheus observability). RuntimeOption values override any dependency.
func NewRuntime(cfg *config.Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(nil)
	}

	r := &Runtime{cfg: cfg, obs: obs}

	jrnl := overrides.journal
	if jrnl == nil {
		fj, err := journal.NewFileJournal(cfg.Journal.Dir)
		if err != nil {
			return nil, err
		}
		jrnl = fj
		r.closers = append(r.closers, fj)
	}
	r.journal = jrnl

	repos := overrides.repositories
	if repos == nil {
		db, err := sql.Open("postgres", cfg.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		r.db = db
		repos = &Repositories{
			Tests:     postgres.NewTestDetailsRepo(db),
			Actuators: postgres.NewActuatorRepo(db),
			Rules:     postgres.NewRuleRepo(db),
			Triggers:  postgres.NewRuleTriggerRepo(db),
			Traces:    postgres.NewTraceRepo(db),
		}
	}

	deployClient := overrides.deployment
	ruleClient := overrides.rules
	if deployClient == nil || ruleClient == nil {
		client, err := deployment.NewClient(cfg.Deployment.BaseURL, cfg.Deployment.Timeout)
		if err != nil {
			return nil, err
		}
		if deployClient == nil {
			deployClient = client
		}
		if ruleClient == nil {
			ruleClient = client
		}
	}

	transport := overrides.transport
	if transport == nil {
		cfg.MQTT.ApplyDefaults()
		q := overrides.queue
		if q == nil {
			q = queue.NewInbound(cfg.MQTT.QueueCapacity)
		}
		client, err := mqtt.NewClient(cfg.MQTT, q, obs)
		if err != nil {
			return nil, err
		}
		transport = client
	}
	r.transport = transport

	source := overrides.source
	if source == nil && cfg.OPCUA != nil {
		s, err := opcua.NewSource(*cfg.OPCUA)
		if err != nil {
			return nil, err
		}
		source = s
	}
	r.source = source

	policy, err := cfg.NoisePolicy()
	if err != nil {
		return nil, err
	}

	r.receiver = receiver.NewReceiver(policy, obs)
	r.engine = engine.New(
		repos.Tests, repos.Actuators, deployClient, ruleClient,
		correlator.New(repos.Triggers, repos.Rules, repos.Traces),
		jrnl, obs,
		engine.Config{PollInterval: cfg.Engine.PollInterval, MaxWait: cfg.Engine.MaxWait},
	)

	if err := r.receiver.RegisterObserver(r.engine); err != nil {
		return nil, err
	}
	if err := r.receiver.RegisterObserver(journal.NewObserver(jrnl, obs)); err != nil {
		return nil, err
	}

	return r, nil
}

// Engine exposes the orchestration engine for starting and recording test
// runs.
func (r *Runtime) Engine() *engine.Engine { return r.engine }

// Receiver exposes the pipeline so embedders can register extra observers.
func (r *Runtime) Receiver() *receiver.Receiver { return r.receiver }

// Start connects the transport and the optional secondary source, and
// launches the observability stack. It returns immediately; call Run to block
// on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	r.surveyJournal()

	if err := r.transport.Start(r.receiver); err != nil {
		return err
	}
	if r.source != nil {
		if err := r.source.Start(r.receiver.Dispatch); err != nil {
			stopErr := r.transport.Stop()
			return errors.Join(err, stopErr)
		}
	}

	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled,
// then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the source, transport, metrics server, journal, and DB
// connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if r.source != nil {
		if err := r.source.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.transport != nil {
		if err := r.transport.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// surveyJournal reports uncommitted entries left by an interrupted run. The
// journal is evidence, not a redelivery queue: entries are surfaced for audit
// rather than re-dispatched to observers.
func (r *Runtime) surveyJournal() {
	if r.journal == nil {
		return
	}
	stats := r.journal.Stats()
	if stats.LatestAppended >= stats.OldestUncommitted {
		r.obs.LogInfo("journal_uncommitted_entries",
			ports.Field{Key: "from_id", Value: stats.OldestUncommitted},
			ports.Field{Key: "latest_id", Value: stats.LatestAppended})
	}
	r.obs.SetGauge("mbp_journal_size_bytes", float64(stats.SizeBytes))
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordResourceGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if r.journal != nil {
				r.obs.SetGauge("mbp_journal_size_bytes", float64(r.journal.Stats().SizeBytes))
			}
		}
	}
}
