package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	usagecostdomain "github.com/smallbiznis/scoutbase/internal/usagecost/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  usagecostdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  usagecostdomain.Repository
}

func New(p Params) usagecostdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("usagecost.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, cost *usagecostdomain.GenerationCost) error {
	if cost == nil || strings.TrimSpace(cost.UserID) == "" {
		return nil
	}
	if cost.ID == 0 {
		cost.ID = s.genID.Generate()
	}
	return s.repo.Insert(ctx, s.db, cost)
}

func (s *Service) Summarize(ctx context.Context, userID string) (*usagecostdomain.Summary, error) {
	return s.repo.SummarizeByUser(ctx, s.db, userID)
}
