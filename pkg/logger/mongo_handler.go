package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 1024
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is the shape written to MongoDB.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// MongoHandler is an slog.Handler that batches records into a MongoDB
// collection from a background goroutine. Enqueueing never blocks: when the
// buffer is full the record is dropped.
type MongoHandler struct {
	min    slog.Level
	col    *mongo.Collection
	client *mongo.Client
	queue  chan LogDocument
	done   chan struct{}
	attrs  []slog.Attr
	group  string
}

// NewMongoHandler connects to uri and stores records at or above min in
// db.collection. The caller must eventually call Close.
func NewMongoHandler(uri, db, collection string, min slog.Level) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(4))
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection(collection)

	// Records expire after 30 days.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "time", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600),
	})

	h := &MongoHandler{
		min:    min,
		col:    col,
		client: client,
		queue:  make(chan LogDocument, mongoQueueSize),
		done:   make(chan struct{}),
	}

	go h.drainLoop()
	return h, nil
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.min }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	add := func(a slog.Attr) {
		if a.Key == "request_id" {
			doc.RequestID = a.Value.String()
			return
		}
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		doc.Attrs[key] = a.Value.Resolve().Any()
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})

	select {
	case h.queue <- doc:
	default:
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}

func (h *MongoHandler) drainLoop() {
	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = h.col.InsertMany(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-h.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-h.done:
			for len(h.queue) > 0 {
				batch = append(batch, <-h.queue)
			}
			flush()
			return
		}
	}
}

// Close flushes pending records and disconnects. Safe to call twice.
func (h *MongoHandler) Close() {
	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.client.Disconnect(ctx)
}

// MultiHandler fans each record out to several handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}
