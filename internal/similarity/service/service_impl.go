package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/smallbiznis/scoutbase/internal/embedding"
	"github.com/smallbiznis/scoutbase/internal/fingerprint"
	obsmetrics "github.com/smallbiznis/scoutbase/internal/observability/metrics"
	similaritydomain "github.com/smallbiznis/scoutbase/internal/similarity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxScan caps how many of the user's reports one lookup compares against.
const maxScan = 200

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       similaritydomain.Repository
	Embedder   embedding.Embedder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       similaritydomain.Repository
	embedder   embedding.Embedder
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) similaritydomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("similarity.service"),
		repo:       p.Repo,
		embedder:   p.Embedder,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Nearest(ctx context.Context, userID, subjectName string, topK int) ([]similaritydomain.Match, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, similaritydomain.ErrInvalidUser
	}
	queryNorm := fingerprint.NormalizeName(subjectName)
	if queryNorm == "" {
		return nil, similaritydomain.ErrInvalidName
	}
	if topK <= 0 {
		topK = 5
	}

	candidates, err := s.repo.ListCandidates(ctx, s.db, userID, maxScan)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var queryVec []float32
	matches := make([]similaritydomain.Match, 0, len(candidates))
	for _, cand := range candidates {
		candNorm := fingerprint.NormalizeName(cand.SubjectName)
		if candNorm == "" {
			continue
		}
		if candNorm == queryNorm {
			matches = append(matches, similaritydomain.Match{
				ReportID:      cand.ReportID,
				CandidateName: cand.SubjectName,
				Score:         100,
			})
			continue
		}

		if queryVec == nil {
			queryVec, err = s.vectorFor(ctx, similaritydomain.KindQuery, queryNorm)
			if err != nil {
				return nil, err
			}
		}
		candVec, err := s.vectorFor(ctx, similaritydomain.KindSubject, candNorm)
		if err != nil {
			return nil, err
		}

		score := scaleScore(embedding.Cosine(queryVec, candVec))
		if score <= 0 {
			continue
		}
		matches = append(matches, similaritydomain.Match{
			ReportID:      cand.ReportID,
			CandidateName: cand.SubjectName,
			Score:         score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Service) IndexSubject(ctx context.Context, subjectName string) error {
	norm := fingerprint.NormalizeName(subjectName)
	if norm == "" {
		return similaritydomain.ErrInvalidName
	}
	_, err := s.vectorFor(ctx, similaritydomain.KindSubject, norm)
	return err
}

func (s *Service) RecordAlias(ctx context.Context, queried, canonical string) error {
	queriedNorm := fingerprint.NormalizeName(queried)
	if queriedNorm == "" || strings.TrimSpace(canonical) == "" {
		return similaritydomain.ErrInvalidName
	}
	// learning that a name is its own alias adds nothing
	if queriedNorm == fingerprint.NormalizeName(canonical) {
		return nil
	}
	return s.repo.UpsertAlias(ctx, s.db, &similaritydomain.Alias{
		QueriedNorm:   queriedNorm,
		CanonicalName: canonical,
	})
}

func (s *Service) ResolveAlias(ctx context.Context, queried string) (string, bool, error) {
	queriedNorm := fingerprint.NormalizeName(queried)
	if queriedNorm == "" {
		return "", false, similaritydomain.ErrInvalidName
	}
	alias, err := s.repo.FindAlias(ctx, s.db, queriedNorm)
	if err != nil {
		return "", false, err
	}
	if alias == nil {
		return "", false, nil
	}
	return alias.CanonicalName, true, nil
}

// vectorFor returns the vector for a normalized text, reading the hash
// cache first and embedding + storing on miss.
func (s *Service) vectorFor(ctx context.Context, kind, norm string) ([]float32, error) {
	key := embedding.HashText(norm)

	rec, err := s.repo.FindEmbedding(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		vec, err := rec.VectorSlice()
		if err == nil {
			s.obsMetrics.RecordEmbeddingCall("cache")
			return vec, nil
		}
		s.log.Warn("stored embedding undecodable, re-embedding",
			zap.String("key", key), zap.Error(err))
	}

	vec, err := s.embedder.Embed(ctx, norm)
	if err != nil {
		return nil, err
	}
	s.obsMetrics.RecordEmbeddingCall("api")

	rec = &similaritydomain.EmbeddingRecord{Key: key, Kind: kind, Text: norm}
	if err := rec.SetVector(vec); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertEmbedding(ctx, s.db, rec); err != nil {
		// cache write failure must not fail the lookup
		s.log.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
	return vec, nil
}

// scaleScore maps cosine similarity onto [0,99]. 100 is reserved for
// identical normalized names, which never reach this path.
func scaleScore(sim float64) int {
	if sim <= 0 {
		return 0
	}
	score := int(math.Round(sim * 100))
	if score > 99 {
		score = 99
	}
	return score
}
