package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoutbase/internal/config"
	ledgerdomain "github.com/smallbiznis/scoutbase/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/scoutbase/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errDuplicateEntry aborts a debit transaction when the idempotency key is
// already claimed, rolling the conditional balance update back.
var errDuplicateEntry = errors.New("duplicate ledger entry")

type Params struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       ledgerdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       ledgerdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) ledgerdomain.Service {
	return &Service{
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Credit(ctx context.Context, userID string, amount int64, reason string, sourceType ledgerdomain.LedgerSourceType, sourceID string) (ledgerdomain.RecordResult, error) {
	if err := validate(userID, amount, sourceType, sourceID); err != nil {
		return ledgerdomain.RecordResult{}, err
	}

	entry := s.newEntry(userID, amount, reason, sourceType, sourceID)
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.EnsureBalanceRow(ctx, tx, userID); err != nil {
			return err
		}
		ok, err := s.repo.InsertEntry(ctx, tx, &entry)
		if err != nil {
			return err
		}
		if !ok {
			// Prior success claimed the idempotency key; nothing to apply.
			return nil
		}
		inserted = true
		return s.repo.AdjustBalance(ctx, tx, userID, amount)
	})
	if err != nil {
		return ledgerdomain.RecordResult{}, err
	}

	return s.resolveResult(ctx, entry, inserted, sourceType, sourceID)
}

func (s *Service) Debit(ctx context.Context, userID string, amount int64, reason string, sourceType ledgerdomain.LedgerSourceType, sourceID string) (ledgerdomain.RecordResult, error) {
	if err := validate(userID, amount, sourceType, sourceID); err != nil {
		return ledgerdomain.RecordResult{}, err
	}

	entry := s.newEntry(userID, -amount, reason, sourceType, sourceID)
	var short *ledgerdomain.InsufficientBalanceError
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.EnsureBalanceRow(ctx, tx, userID); err != nil {
			return err
		}
		covered, err := s.repo.DebitBalanceIfCovered(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		if !covered {
			available, err := s.repo.GetBalance(ctx, tx, userID)
			if err != nil {
				return err
			}
			short = &ledgerdomain.InsufficientBalanceError{Required: amount, Available: available}
			return short
		}
		ok, err := s.repo.InsertEntry(ctx, tx, &entry)
		if err != nil {
			return err
		}
		if !ok {
			// Retry of an already-applied charge: roll the debit back and
			// surface the prior entry instead.
			return errDuplicateEntry
		}
		return nil
	})
	switch {
	case err == nil:
		return s.resolveResult(ctx, entry, true, sourceType, sourceID)
	case errors.Is(err, errDuplicateEntry):
		return s.resolveResult(ctx, entry, false, sourceType, sourceID)
	case short != nil && errors.Is(err, short):
		return ledgerdomain.RecordResult{}, short
	default:
		return ledgerdomain.RecordResult{}, err
	}
}

func (s *Service) Grant(ctx context.Context, userID string, amount int64, reason string) (ledgerdomain.RecordResult, error) {
	if err := validate(userID, amount, "", ""); err != nil {
		return ledgerdomain.RecordResult{}, err
	}

	entry := s.newEntry(userID, amount, reason, "", "")
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.EnsureBalanceRow(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := s.repo.InsertEntry(ctx, tx, &entry); err != nil {
			return err
		}
		return s.repo.AdjustBalance(ctx, tx, userID, amount)
	})
	if err != nil {
		return ledgerdomain.RecordResult{}, err
	}

	return s.resolveResult(ctx, entry, true, "", "")
}

func (s *Service) EnsureWelcomeGrant(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ledgerdomain.ErrInvalidUser
	}
	if s.cfg.WelcomeCredits <= 0 {
		return nil
	}
	_, err := s.Credit(ctx, userID, s.cfg.WelcomeCredits, "welcome_bonus",
		ledgerdomain.SourceTypeOnboarding, fmt.Sprintf("welcome_bonus_%s", userID))
	return err
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ledgerdomain.ErrInvalidUser
	}
	return s.repo.GetBalance(ctx, s.db, userID)
}

func (s *Service) newEntry(userID string, delta int64, reason string, sourceType ledgerdomain.LedgerSourceType, sourceID string) ledgerdomain.LedgerEntry {
	return ledgerdomain.LedgerEntry{
		ID:         s.genID.Generate(),
		UserID:     userID,
		Delta:      delta,
		Reason:     strings.TrimSpace(reason),
		SourceType: string(sourceType),
		SourceID:   sourceID,
		CreatedAt:  time.Now().UTC(),
	}
}

// resolveResult reads the post-commit balance and, for a lost idempotency
// race, the entry that originally claimed the key.
func (s *Service) resolveResult(ctx context.Context, entry ledgerdomain.LedgerEntry, inserted bool, sourceType ledgerdomain.LedgerSourceType, sourceID string) (ledgerdomain.RecordResult, error) {
	balance, err := s.repo.GetBalance(ctx, s.db, entry.UserID)
	if err != nil {
		return ledgerdomain.RecordResult{}, err
	}

	if inserted {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordLedgerEntry(string(sourceType), entry.Reason)
		}
		return ledgerdomain.RecordResult{Entry: entry, Balance: balance}, nil
	}

	prior, err := s.repo.FindBySource(ctx, s.db, sourceType, sourceID)
	if err != nil {
		return ledgerdomain.RecordResult{}, err
	}
	if prior == nil {
		// The conflicting writer has not committed yet; report the retry as
		// a duplicate with the entry we attempted.
		s.log.Warn("idempotent ledger retry raced an uncommitted writer",
			zap.String("source_type", string(sourceType)),
			zap.String("source_id", sourceID),
		)
		return ledgerdomain.RecordResult{Entry: entry, Balance: balance, Duplicate: true}, nil
	}
	return ledgerdomain.RecordResult{Entry: *prior, Balance: balance, Duplicate: true}, nil
}

func validate(userID string, amount int64, sourceType ledgerdomain.LedgerSourceType, sourceID string) error {
	if strings.TrimSpace(userID) == "" {
		return ledgerdomain.ErrInvalidUser
	}
	if amount <= 0 {
		return ledgerdomain.ErrInvalidAmount
	}
	if (sourceType == "") != (sourceID == "") {
		return ledgerdomain.ErrInvalidSourcePair
	}
	return nil
}
