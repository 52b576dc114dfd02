// Package ingest drives normalized match documents into the store.
//
// Each document gets its own store handle and a single transaction. A
// document that fails is rolled back and counted; the rest of the batch
// carries on.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cricketstats/internal/cricsheet"
	"cricketstats/internal/datasource/file"
	"cricketstats/internal/metrics"
	"cricketstats/internal/storage/sqlite"
)

// DeliveryPolicy controls whether deliveries are written when the match row
// was not inserted by the same call.
type DeliveryPolicy string

const (
	// DeliveriesAlways appends deliveries on every ingestion, so re-ingesting
	// a document duplicates its delivery rows.
	DeliveriesAlways DeliveryPolicy = "always"
	// DeliveriesNewMatchOnly writes deliveries only alongside a newly
	// inserted match row.
	DeliveriesNewMatchOnly DeliveryPolicy = "new_match_only"
)

// ParseDeliveryPolicy maps a config value to a DeliveryPolicy. Empty means
// DeliveriesAlways.
func ParseDeliveryPolicy(s string) (DeliveryPolicy, error) {
	switch DeliveryPolicy(s) {
	case "", DeliveriesAlways:
		return DeliveriesAlways, nil
	case DeliveriesNewMatchOnly:
		return DeliveriesNewMatchOnly, nil
	default:
		return "", errors.Errorf("ingest: unknown delivery policy %q", s)
	}
}

// MatchOutcome is what happened to a document's match row.
type MatchOutcome int

const (
	MatchInserted MatchOutcome = iota
	MatchSkipped               // identifier already present
	MatchFailed                // insert hit a constraint violation
)

func (o MatchOutcome) String() string {
	switch o {
	case MatchInserted:
		return "inserted"
	case MatchSkipped:
		return "skipped"
	case MatchFailed:
		return "failed"
	default:
		return fmt.Sprintf("MatchOutcome(%d)", int(o))
	}
}

// DocumentResult describes one committed document.
type DocumentResult struct {
	Path               string
	MatchID            string
	Fingerprint        uint64
	Match              MatchOutcome
	PlayersInserted    int64
	DeliveriesInserted int64
}

// Summary aggregates one IngestAll run.
type Summary struct {
	RunID              string
	Dir                string
	Documents          int
	Failed             int
	MatchesInserted    int
	MatchesSkipped     int
	MatchesFailed      int
	PlayersInserted    int64
	DeliveriesInserted int64
	Duration           time.Duration
}

func (s *Summary) add(r DocumentResult) {
	switch r.Match {
	case MatchInserted:
		s.MatchesInserted++
	case MatchSkipped:
		s.MatchesSkipped++
	case MatchFailed:
		s.MatchesFailed++
	}
	s.PlayersInserted += r.PlayersInserted
	s.DeliveriesInserted += r.DeliveriesInserted
}

// Opener acquires a store handle and its release function.
type Opener func(ctx context.Context) (*sqlite.Repository, func(), error)

// RepositoryOpener returns an Opener over sqlite.NewRepository.
func RepositoryOpener(cfg sqlite.Config) Opener {
	return func(ctx context.Context) (*sqlite.Repository, func(), error) {
		return sqlite.NewRepository(ctx, cfg)
	}
}

// Coordinator ingests documents one at a time.
type Coordinator struct {
	open     Opener
	logger   *zap.Logger
	policy   DeliveryPolicy
	job      string
	newRunID func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDeliveryPolicy sets the delivery policy. The default is DeliveriesAlways.
func WithDeliveryPolicy(p DeliveryPolicy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithJob sets the job label used for metrics.
func WithJob(job string) Option {
	return func(c *Coordinator) { c.job = job }
}

// New returns a Coordinator that acquires store handles through open.
func New(open Opener, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		open:     open,
		logger:   logger,
		policy:   DeliveriesAlways,
		job:      "cricketstats",
		newRunID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IngestDocument normalizes doc and writes its match, players, and
// deliveries in one transaction. A duplicate match is skipped and a
// constraint violation on the match insert is logged; neither is an error,
// and players and deliveries are still written. Any other failure rolls the
// document back and is returned.
func (c *Coordinator) IngestDocument(ctx context.Context, doc cricsheet.Document) (DocumentResult, error) {
	return c.ingestDocument(ctx, doc, c.logger)
}

func (c *Coordinator) ingestDocument(ctx context.Context, doc cricsheet.Document, logger *zap.Logger) (DocumentResult, error) {
	res := DocumentResult{Path: doc.Path, Fingerprint: doc.Fingerprint}

	start := time.Now()
	nm, err := cricsheet.Normalize(doc)
	metrics.RecordStep(c.job, "normalize", err, time.Since(start))
	if err != nil {
		return res, errors.Wrapf(err, "ingest: normalize %s", doc.Path)
	}
	res.MatchID = nm.Match.ID

	log := logger.With(
		zap.String("match_id", nm.Match.ID),
		zap.String("path", doc.Path),
		zap.String("fingerprint", fmt.Sprintf("%016x", doc.Fingerprint)),
	)

	start = time.Now()
	stored, err := c.store(ctx, nm, log)
	metrics.RecordStep(c.job, "store", err, time.Since(start))
	if err != nil {
		return res, err
	}
	stored.Path, stored.MatchID, stored.Fingerprint = res.Path, res.MatchID, res.Fingerprint

	switch stored.Match {
	case MatchInserted:
		metrics.RecordRow(c.job, "matches_inserted", 1)
	case MatchSkipped:
		metrics.RecordRow(c.job, "matches_skipped", 1)
	case MatchFailed:
		metrics.RecordRow(c.job, "matches_failed", 1)
	}
	metrics.RecordRow(c.job, "players_inserted", stored.PlayersInserted)
	metrics.RecordRow(c.job, "deliveries_inserted", stored.DeliveriesInserted)

	log.Debug("document ingested",
		zap.Stringer("match", stored.Match),
		zap.Int64("players_inserted", stored.PlayersInserted),
		zap.Int64("deliveries_inserted", stored.DeliveriesInserted),
	)
	return stored, nil
}

func (c *Coordinator) store(ctx context.Context, nm cricsheet.NormalizedMatch, log *zap.Logger) (DocumentResult, error) {
	repo, closeFn, err := c.open(ctx)
	if err != nil {
		return DocumentResult{}, errors.Wrap(err, "ingest: open store")
	}
	defer closeFn()

	var out DocumentResult
	err = repo.WithTx(ctx, func(tx *sqlite.Tx) error {
		out = DocumentResult{}

		exists, err := tx.MatchExists(ctx, nm.Match.ID)
		if err != nil {
			return errors.Wrap(err, "ingest: check match")
		}
		switch {
		case exists:
			log.Info("match already exists, skipping")
			out.Match = MatchSkipped
		default:
			if err := tx.InsertMatch(ctx, nm.Match); err != nil {
				if !sqlite.IsConstraintViolation(err) {
					return errors.Wrap(err, "ingest: insert match")
				}
				log.Warn("match insert rejected", zap.Error(err))
				out.Match = MatchFailed
			} else {
				out.Match = MatchInserted
			}
		}

		n, err := tx.InsertPlayers(ctx, nm.Players)
		if err != nil {
			return errors.Wrap(err, "ingest: insert players")
		}
		out.PlayersInserted = n

		if c.policy == DeliveriesNewMatchOnly && out.Match != MatchInserted {
			log.Debug("deliveries skipped by policy", zap.String("policy", string(c.policy)))
			return nil
		}
		n, err = tx.InsertDeliveries(ctx, nm.Deliveries)
		if err != nil {
			return errors.Wrap(err, "ingest: insert deliveries")
		}
		out.DeliveriesInserted = n
		return nil
	})
	if err != nil {
		return DocumentResult{}, err
	}
	return out, nil
}

// IngestAll ingests every document in the most recently modified
// subdirectory of baseDir. Per-document failures are logged and counted in
// Summary.Failed. It returns file.ErrNoBatch (wrapped) when there is no
// batch, and ctx.Err() if canceled between documents.
func (c *Coordinator) IngestAll(ctx context.Context, baseDir string) (Summary, error) {
	started := time.Now()
	sum := Summary{RunID: c.newRunID()}
	log := c.logger.With(zap.String("run_id", sum.RunID))

	dir, err := file.LatestDir(baseDir)
	if err != nil {
		return sum, errors.Wrap(err, "ingest: locate batch")
	}
	sum.Dir = dir

	paths, err := file.ListDocuments(dir)
	if err != nil {
		return sum, errors.Wrap(err, "ingest: list documents")
	}
	log.Info("ingesting batch", zap.String("dir", dir), zap.Int("documents", len(paths)))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(started)
			return sum, err
		}
		sum.Documents++

		raw, err := file.ReadAll(ctx, file.NewLocal(path))
		if err == nil {
			_, err = c.ingestOne(ctx, cricsheet.NewDocument(path, raw), log, &sum)
		}
		if err != nil {
			sum.Failed++
			metrics.RecordDocument(c.job, "failed")
			log.Error("document failed",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordDocument(c.job, "ingested")
	}

	sum.Duration = time.Since(started)
	log.Info("batch complete",
		zap.Int("documents", sum.Documents),
		zap.Int("failed", sum.Failed),
		zap.Int("matches_inserted", sum.MatchesInserted),
		zap.Int("matches_skipped", sum.MatchesSkipped),
		zap.Int("matches_failed", sum.MatchesFailed),
		zap.Int64("players_inserted", sum.PlayersInserted),
		zap.Int64("deliveries_inserted", sum.DeliveriesInserted),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

func (c *Coordinator) ingestOne(ctx context.Context, doc cricsheet.Document, log *zap.Logger, sum *Summary) (DocumentResult, error) {
	res, err := c.ingestDocument(ctx, doc, log)
	if err != nil {
		return res, err
	}
	sum.add(res)
	return res, nil
}
