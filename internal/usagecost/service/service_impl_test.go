package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	usagecostdomain "github.com/smallbiznis/scoutbase/internal/usagecost/domain"
	"github.com/smallbiznis/scoutbase/internal/usagecost/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) usagecostdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&usagecostdomain.GenerationCost{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestRecordThenSummarize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, &usagecostdomain.GenerationCost{
		UserID:        "user-1",
		ReportID:      snowflake.ID(10),
		Model:         "gpt-5-mini",
		InputTokens:   120,
		OutputTokens:  800,
		EstimatedCost: 0.0017,
	}))
	require.NoError(t, svc.Record(ctx, &usagecostdomain.GenerationCost{
		UserID:        "user-1",
		ReportID:      snowflake.ID(11),
		Model:         "gpt-5-mini",
		InputTokens:   80,
		OutputTokens:  600,
		EstimatedCost: 0.0013,
	}))
	require.NoError(t, svc.Record(ctx, &usagecostdomain.GenerationCost{
		UserID:        "user-2",
		ReportID:      snowflake.ID(12),
		Model:         "gpt-5-mini",
		InputTokens:   50,
		OutputTokens:  300,
		EstimatedCost: 0.0007,
	}))

	summary, err := svc.Summarize(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Generations)
	assert.EqualValues(t, 200, summary.InputTokens)
	assert.EqualValues(t, 1400, summary.OutputTokens)
	assert.InDelta(t, 0.003, summary.TotalCost, 1e-9)
}

func TestRecordIgnoresEmptyUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, nil))
	require.NoError(t, svc.Record(ctx, &usagecostdomain.GenerationCost{UserID: "  "}))

	summary, err := svc.Summarize(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, summary.Generations)
}
