package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoutbase/internal/config"
	"github.com/smallbiznis/scoutbase/internal/fingerprint"
	"github.com/smallbiznis/scoutbase/internal/generation"
	ledgerdomain "github.com/smallbiznis/scoutbase/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/scoutbase/internal/observability/metrics"
	reportdomain "github.com/smallbiznis/scoutbase/internal/report/domain"
	scoutdomain "github.com/smallbiznis/scoutbase/internal/scout/domain"
	similaritydomain "github.com/smallbiznis/scoutbase/internal/similarity/domain"
	usagecostdomain "github.com/smallbiznis/scoutbase/internal/usagecost/domain"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Matching   *config.MatchingConfigHolder
	Ledger     ledgerdomain.Service
	Reports    reportdomain.Service
	Similarity similaritydomain.Service
	UsageCost  usagecostdomain.Service
	Generator  generation.Generator
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	matching   *config.MatchingConfigHolder
	ledger     ledgerdomain.Service
	reports    reportdomain.Service
	similarity similaritydomain.Service
	usageCost  usagecostdomain.Service
	generator  generation.Generator
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) scoutdomain.Service {
	return &Service{
		log:        p.Log.Named("scout.service"),
		matching:   p.Matching,
		ledger:     p.Ledger,
		reports:    p.Reports,
		similarity: p.Similarity,
		usageCost:  p.UsageCost,
		generator:  p.Generator,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) RequestReport(ctx context.Context, req scoutdomain.Request) (*scoutdomain.Response, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, scoutdomain.ErrInvalidUser
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, scoutdomain.ErrInvalidSubject
	}

	if req.AcceptSuggestionOf != "" {
		return s.AcceptSuggestion(ctx, userID, subject, req.AcceptSuggestionOf)
	}

	if err := s.ledger.EnsureWelcomeGrant(ctx, userID); err != nil {
		return nil, err
	}

	cfg := s.matching.Get()

	// a learned alias substitutes the canonical name before any lookup
	if canonical, ok, err := s.similarity.ResolveAlias(ctx, subject); err != nil {
		return nil, err
	} else if ok {
		s.log.Debug("alias resolved",
			zap.String("queried", subject), zap.String("canonical", canonical))
		subject = canonical
	}

	fp := fingerprint.Normalize(subject, req.Team, req.League)

	if !req.Refresh {
		rep, err := s.reports.Get(ctx, userID, fp)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			s.obsMetrics.RecordCacheHit("exact")
			s.obsMetrics.RecordScoutRequest("cached")
			return s.respondCached(ctx, userID, rep, cfg)
		}

		resp, done, err := s.fuzzyLookup(ctx, userID, subject, cfg)
		if err != nil {
			return nil, err
		}
		if done {
			return resp, nil
		}
	}

	return s.chargeAndGenerate(ctx, userID, subject, req, fp, cfg)
}

// fuzzyLookup checks the user's own library for near matches. A score of
// 100 resolves as a free cache hit and learns an alias; a score in the
// suggestion band returns a pending suggestion with no billing.
func (s *Service) fuzzyLookup(ctx context.Context, userID, subject string, cfg config.MatchingConfig) (*scoutdomain.Response, bool, error) {
	matches, err := s.similarity.Nearest(ctx, userID, subject, cfg.TopK)
	if err != nil {
		return nil, false, err
	}
	if len(matches) == 0 {
		return nil, false, nil
	}

	best := matches[0]
	switch {
	case best.Score == 100:
		rep, err := s.reports.GetByID(ctx, userID, best.ReportID)
		if err != nil {
			return nil, false, err
		}
		if rep == nil {
			return nil, false, nil
		}
		if err := s.similarity.RecordAlias(ctx, subject, rep.SubjectName); err != nil {
			s.log.Warn("alias learn failed", zap.Error(err))
		}
		s.obsMetrics.RecordCacheHit("fuzzy_exact")
		s.obsMetrics.RecordScoutRequest("cached")
		resp, err := s.respondCached(ctx, userID, rep, cfg)
		return resp, err == nil, err

	case best.Score >= cfg.SuggestThreshold:
		balance, err := s.ledger.Balance(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		s.obsMetrics.RecordScoutRequest("suggested")
		return &scoutdomain.Response{
			CreditsRemaining: balance,
			Suggestion: &scoutdomain.Suggestion{
				ReportID:      best.ReportID,
				CandidateName: best.CandidateName,
				Score:         best.Score,
			},
		}, true, nil
	}

	return nil, false, nil
}

// chargeAndGenerate runs the paid path: balance precondition, external
// generation, then debit and store. Generation failure leaves no charge
// and no stored report.
func (s *Service) chargeAndGenerate(ctx context.Context, userID, subject string, req scoutdomain.Request, fp string, cfg config.MatchingConfig) (*scoutdomain.Response, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < cfg.ReportCost {
		s.obsMetrics.RecordCreditsDeclined()
		s.obsMetrics.RecordScoutRequest("declined")
		return nil, &ledgerdomain.InsufficientBalanceError{Required: cfg.ReportCost, Available: balance}
	}

	// Charges for the same logical request share an idempotency key:
	// the requesting user, the fingerprint hash, and the revision the
	// write will produce. Concurrent first-timers collide on revision 0
	// and pay once; an explicit refresh advances the revision and pays
	// again. The user component keeps two users asking for the same
	// subject from ever sharing a ledger row.
	nextRevision := 0
	existing, err := s.reports.Get(ctx, userID, fp)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		nextRevision = existing.Revision + 1
	}
	sourceID := userID + ":" + fingerprint.Hash(fp) + ":" + strconv.Itoa(nextRevision)

	started := time.Now()
	result, err := s.generator.Generate(ctx, generation.Request{
		Subject: subject,
		Team:    req.Team,
		League:  req.League,
	})
	if err != nil {
		s.obsMetrics.RecordGeneration("failure", time.Since(started))
		s.obsMetrics.RecordScoutRequest("failed")
		return nil, &scoutdomain.GenerationError{Err: err}
	}
	s.obsMetrics.RecordGeneration("success", time.Since(started))

	debit, err := s.ledger.Debit(ctx, userID, cfg.ReportCost, "scout_report", ledgerdomain.SourceTypeScoutRequest, sourceID)
	if err != nil {
		return nil, err
	}
	if debit.Duplicate {
		s.log.Info("charge already recorded for this request",
			zap.String("user_id", userID), zap.String("source_id", sourceID))
	}

	rep, err := s.reports.Put(ctx, reportdomain.PutRequest{
		UserID:      userID,
		Fingerprint: fp,
		SubjectName: fingerprint.DisplaySubject(subject),
		Team:        req.Team,
		League:      req.League,
		QueryFields: map[string]any{"subject": subject, "team": req.Team, "league": req.League},
		Content:     result.Content,
		Payload:     map[string]any{"model": result.Model},
		Cached:      false,
	})
	if err != nil {
		// The user was already debited; hand the credits back. The refund
		// key derives from the charge key so a retried failure refunds at
		// most once.
		if _, refundErr := s.ledger.Credit(ctx, userID, cfg.ReportCost, "scout_report_refund", ledgerdomain.SourceTypeRefund, sourceID+":refund"); refundErr != nil {
			s.log.Error("refund after failed report store failed",
				zap.String("user_id", userID), zap.String("source_id", sourceID), zap.Error(refundErr))
		}
		return nil, err
	}

	if err := s.usageCost.Record(ctx, &usagecostdomain.GenerationCost{
		UserID:        userID,
		ReportID:      rep.ID,
		Model:         result.Model,
		InputTokens:   result.InputTokens,
		OutputTokens:  result.OutputTokens,
		EstimatedCost: generation.EstimateCost(result.Model, result.InputTokens, result.OutputTokens),
	}); err != nil {
		s.log.Warn("cost tracking write failed", zap.Error(err))
	}
	if err := s.similarity.IndexSubject(ctx, rep.SubjectName); err != nil {
		s.log.Warn("subject indexing failed", zap.Error(err))
	}

	s.obsMetrics.RecordScoutRequest("generated")
	return &scoutdomain.Response{
		Report:           rep,
		Cached:           false,
		CreditsRemaining: debit.Balance,
	}, nil
}

func (s *Service) AcceptSuggestion(ctx context.Context, userID, queried, canonical string) (*scoutdomain.Response, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, scoutdomain.ErrInvalidUser
	}
	queried = strings.TrimSpace(queried)
	canonical = strings.TrimSpace(canonical)
	if queried == "" || canonical == "" {
		return nil, scoutdomain.ErrInvalidSubject
	}

	cfg := s.matching.Get()

	// the canonical name must resolve to a report in the user's own library
	matches, err := s.similarity.Nearest(ctx, userID, canonical, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 || matches[0].Score != 100 {
		return nil, scoutdomain.ErrNoSuchReport
	}
	rep, err := s.reports.GetByID(ctx, userID, matches[0].ReportID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, scoutdomain.ErrNoSuchReport
	}

	// confirming a match is a paid retrieval; re-accepting the same
	// suggestion reuses the ledger idempotency key and pays nothing
	sourceID := "accept_suggestion_" + rep.ID.String()
	debit, err := s.ledger.Debit(ctx, userID, cfg.SuggestionCost, "accept_suggestion", ledgerdomain.SourceTypeScoutRequest, sourceID)
	if err != nil {
		return nil, err
	}

	if err := s.similarity.RecordAlias(ctx, queried, rep.SubjectName); err != nil {
		s.log.Warn("alias learn failed", zap.Error(err))
	}

	s.obsMetrics.RecordCacheHit("suggestion_accept")
	s.obsMetrics.RecordScoutRequest("cached")
	return &scoutdomain.Response{
		Report:           rep,
		Cached:           true,
		Stale:            rep.IsStale(cfg.StaleAfter, time.Now().UTC()),
		CreditsRemaining: debit.Balance,
	}, nil
}

func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, scoutdomain.ErrInvalidUser
	}
	if err := s.ledger.EnsureWelcomeGrant(ctx, userID); err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, userID)
}

func (s *Service) ListReports(ctx context.Context, userID, search string, page pagination.Pagination) ([]reportdomain.ListItem, int64, error) {
	return s.reports.List(ctx, userID, reportdomain.ListFilter{Search: search}, page)
}

func (s *Service) GetReport(ctx context.Context, userID string, id snowflake.ID) (*reportdomain.Report, error) {
	return s.reports.GetByID(ctx, userID, id)
}

func (s *Service) respondCached(ctx context.Context, userID string, rep *reportdomain.Report, cfg config.MatchingConfig) (*scoutdomain.Response, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &scoutdomain.Response{
		Report:           rep,
		Cached:           true,
		Stale:            rep.IsStale(cfg.StaleAfter, time.Now().UTC()),
		CreditsRemaining: balance,
	}, nil
}
