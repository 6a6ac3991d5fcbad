package cli

import (
	"context"
	"time"

	"github.com/turtacn/patentsview-graph/internal/application/loader"
	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/database/redis"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// acquireRunLock takes the run lock of desc's database when a lock store is
// configured. The returned release is always non-nil.
func acquireRunLock(ctx context.Context, cfg config.LockConfig, desc config.ConnectionDescriptor, owner string, log logging.Logger) (func(), error) {
	noop := func() {}
	if !cfg.Enabled() {
		return noop, nil
	}
	client, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		return noop, err
	}
	lock := redis.NewRunLock(client, redis.TargetKey(desc.URI, desc.Database), owner, cfg.TTL, cfg.Wait, log)
	if err := lock.Acquire(ctx); err != nil {
		_ = client.Close()
		return noop, err
	}
	return func() {
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(rctx); err != nil {
			log.Warn("Failed to release run lock", logging.String("lock", lock.Key()), logging.Err(err))
		}
		_ = client.Close()
	}, nil
}

type tableEvent struct {
	Table         string           `json:"table"`
	Status        string           `json:"status"`
	RowsRead      int64            `json:"rows_read"`
	Skipped       map[string]int64 `json:"skipped,omitempty"`
	PropertiesSet int64            `json:"properties_set,omitempty"`
}

type countEvent struct {
	Requested int64 `json:"requested"`
	Created   int64 `json:"created"`
}

// runCompleted is the payload of the load.completed event.
type runCompleted struct {
	RunID            string                `json:"run_id"`
	Target           string                `json:"target"`
	Source           string                `json:"source"`
	State            string                `json:"state"`
	Succeeded        bool                  `json:"succeeded"`
	ErrorCode        string                `json:"error_code,omitempty"`
	ElapsedMs        int64                 `json:"elapsed_ms"`
	ConstraintsAdded int                   `json:"constraints_added"`
	Tables           []tableEvent          `json:"tables"`
	Nodes            map[string]countEvent `json:"nodes"`
	Edges            map[string]countEvent `json:"edges"`
}

func newRunCompleted(s *loader.Summary, target, source string, runErr error) runCompleted {
	ev := runCompleted{
		RunID:            string(s.RunID),
		Target:           target,
		Source:           source,
		State:            string(s.State),
		Succeeded:        runErr == nil,
		ElapsedMs:        s.Elapsed.Milliseconds(),
		ConstraintsAdded: s.ConstraintsAdded,
		Nodes:            make(map[string]countEvent, len(s.Nodes)),
		Edges:            make(map[string]countEvent, len(s.Edges)),
	}
	if runErr != nil {
		ev.ErrorCode = pkgerrors.GetCode(runErr).String()
	}
	for _, t := range s.Tables {
		te := tableEvent{Table: string(t.Table), Status: string(t.Status), RowsRead: t.RowsRead, PropertiesSet: t.PropertiesSet}
		for k, n := range t.Skipped {
			if n == 0 {
				continue
			}
			if te.Skipped == nil {
				te.Skipped = make(map[string]int64)
			}
			te.Skipped[string(k)] = n
		}
		ev.Tables = append(ev.Tables, te)
	}
	for l, c := range s.Nodes {
		ev.Nodes[string(l)] = countEvent{Requested: c.Requested, Created: c.Created}
	}
	for r, c := range s.Edges {
		ev.Edges[string(r)] = countEvent{Requested: c.Requested, Created: c.Created}
	}
	return ev
}

// eventPublisher is satisfied by *kafka.Producer.
type eventPublisher interface {
	Publish(ctx context.Context, msg *kafka.Message) error
	Close() error
}

var newEventPublisher = func(cfg config.EventsConfig, log logging.Logger) (eventPublisher, error) {
	return kafka.NewProducer(cfg, log)
}

// publishRunEvent sends the load.completed event. Failures are logged and
// never change the outcome of the run.
func publishRunEvent(cfg config.EventsConfig, s *loader.Summary, desc config.ConnectionDescriptor, source string, runErr error, log logging.Logger) {
	if !cfg.Enabled() || s == nil {
		return
	}
	eventID, err := sendRunEvent(cfg, newRunCompleted(s, desc.URI+"/"+desc.Database, source, runErr),
		redis.TargetKey(desc.URI, desc.Database), log)
	if err != nil {
		log.Warn("Failed to publish run event", logging.String("topic", cfg.Topic), logging.Err(err))
		return
	}
	log.Info("Run event published", logging.String("topic", cfg.Topic), logging.String("event_id", eventID))
}

func sendRunEvent(cfg config.EventsConfig, payload runCompleted, key string, log logging.Logger) (string, error) {
	env, err := kafka.NewEventEnvelope(kafka.EventTypeLoadCompleted, kafka.EventSource, payload)
	if err != nil {
		return "", err
	}
	msg, err := env.ToMessage(cfg.Topic, key)
	if err != nil {
		return "", err
	}
	pub, err := newEventPublisher(cfg, log)
	if err != nil {
		return "", err
	}
	defer func() { _ = pub.Close() }()

	// The run context may already be cancelled; the event still goes out.
	if err := pub.Publish(context.Background(), msg); err != nil {
		return "", err
	}
	return env.EventID, nil
}

//Personal.AI order the ending
