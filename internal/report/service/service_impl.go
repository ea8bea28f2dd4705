package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	reportdomain "github.com/smallbiznis/scoutbase/internal/report/domain"
	pkgdb "github.com/smallbiznis/scoutbase/pkg/db"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  reportdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  reportdomain.Repository
}

func New(p Params) reportdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("report.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, userID, fp string) (*reportdomain.Report, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, reportdomain.ErrInvalidUser
	}
	if fp == "" {
		return nil, reportdomain.ErrInvalidFingerprint
	}
	return s.repo.FindByFingerprint(ctx, s.db, userID, fp)
}

func (s *Service) GetByID(ctx context.Context, userID string, id snowflake.ID) (*reportdomain.Report, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, reportdomain.ErrInvalidUser
	}
	report, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, reportdomain.ErrNotFound
	}
	return report, nil
}

// Put inserts or updates the user's report for the fingerprint. A duplicate-
// key violation on insert means another writer created the row concurrently;
// the call converts to an in-place update instead of failing.
func (s *Service) Put(ctx context.Context, req reportdomain.PutRequest) (*reportdomain.Report, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, reportdomain.ErrInvalidUser
	}
	if req.Fingerprint == "" {
		return nil, reportdomain.ErrInvalidFingerprint
	}

	now := time.Now().UTC()
	report := &reportdomain.Report{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		SubjectName: strings.TrimSpace(req.SubjectName),
		Team:        strings.TrimSpace(req.Team),
		League:      strings.TrimSpace(req.League),
		QueryFields: toJSONMap(req.QueryFields),
		Content:     req.Content,
		Payload:     toJSONMap(req.Payload),
		Cached:      req.Cached,
		Fingerprint: req.Fingerprint,
		Revision:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.repo.FindByFingerprint(ctx, s.db, req.UserID, req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.repo.UpdateByFingerprint(ctx, s.db, report)
	}

	if err := s.repo.Insert(ctx, s.db, report); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// Lost the first-writer race; the row exists now.
			s.log.Info("report insert raced a concurrent writer, converting to update",
				zap.String("user_id", req.UserID),
			)
			return s.repo.UpdateByFingerprint(ctx, s.db, report)
		}
		return nil, err
	}
	return report, nil
}

func (s *Service) MarkStale(ctx context.Context, userID string, id snowflake.ID) error {
	if strings.TrimSpace(userID) == "" {
		return reportdomain.ErrInvalidUser
	}
	affected, err := s.repo.SetStale(ctx, s.db, userID, id, true)
	if err != nil {
		return err
	}
	if affected == 0 {
		return reportdomain.ErrNotFound
	}
	return nil
}

func (s *Service) SweepStale(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.SetStaleBefore(ctx, s.db, cutoff, limit)
}

func (s *Service) List(ctx context.Context, userID string, filter reportdomain.ListFilter, page pagination.Pagination) ([]reportdomain.ListItem, int64, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, 0, reportdomain.ErrInvalidUser
	}

	page = page.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.repo.List(ctx, s.db, userID, filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, s.db, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func toJSONMap(in map[string]any) datatypes.JSONMap {
	if in == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(in)
}
