package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
)

const trendAnalysisCollection = "trend_analysis"

// TrendRepository reads the trend_analysis collection of the ranking data project.
type TrendRepository struct {
	trends *pfirestore.Collection[map[string]any]
}

var _ repositories.TrendRepository = (*TrendRepository)(nil)

// NewTrendRepository binds to the provider of the project holding trend analysis.
func NewTrendRepository(provider *pfirestore.Provider) (*TrendRepository, error) {
	if provider == nil {
		return nil, errors.New("trend repository requires firestore provider")
	}
	return &TrendRepository{
		trends: pfirestore.NewCollection[map[string]any](provider, trendAnalysisCollection, func(snap *firestore.DocumentSnapshot) (map[string]any, error) {
			return snap.Data(), nil
		}),
	}, nil
}

// Latest returns the most recently updated document of the given type.
func (r *TrendRepository) Latest(ctx context.Context, trendType domain.TrendType) (domain.TrendReport, error) {
	docs, err := r.trends.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("type", "==", trendType.DocumentType()).
			OrderBy("updatedAt", firestore.Desc).
			Limit(1)
	})
	if err != nil {
		return domain.TrendReport{}, err
	}
	if len(docs) == 0 {
		return domain.TrendReport{}, pfirestore.WrapError(trendAnalysisCollection+".latest",
			status.Error(codes.NotFound, fmt.Sprintf("no %s document", trendType.DocumentType())))
	}

	doc := docs[0]
	data, _ := doc.Data["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return domain.TrendReport{
		ID:        doc.ID,
		Type:      trendType,
		Data:      data,
		UpdatedAt: trendTimestamp(doc.Data["updatedAt"], doc.UpdateTime),
	}, nil
}

// updatedAt is written by the ranking job either as a timestamp or an RFC 3339 string.
func trendTimestamp(raw any, fallback time.Time) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return parsed.UTC()
		}
	}
	return fallback.UTC()
}
