package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// MeetingPointService covers meeting-point occurrences, series, the PDF
// export and the conductor statistics.
type MeetingPointService interface {
	List(ctx context.Context, month string) ([]MeetingPoint, error)
	Get(ctx context.Context, id uuid.UUID) (*MeetingPoint, error)
	Create(ctx context.Context, data MeetingPointCreate) (*MeetingPoint, error)
	CreateSeries(ctx context.Context, data MeetingPointSeriesCreate) ([]MeetingPoint, error)
	Update(ctx context.Context, id uuid.UUID, data MeetingPointUpdate) (*MeetingPoint, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteSeries(ctx context.Context, seriesID uuid.UUID) (int, error)
	ExportPDF(ctx context.Context, month string) (io.ReadCloser, error)
	ConductorStats(ctx context.Context, year int) ([]ConductorStats, error)
	MonthlyStats(ctx context.Context, year int) ([]MonthlyStats, error)
}

type meetingPointService struct {
	t *transport
}

func (s *meetingPointService) List(ctx context.Context, month string) ([]MeetingPoint, error) {
	q := url.Values{"month": {month}}
	var items []MeetingPoint
	if err := s.t.do(ctx, http.MethodGet, "/meeting-points", q, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *meetingPointService) Get(ctx context.Context, id uuid.UUID) (*MeetingPoint, error) {
	var mp MeetingPoint
	if err := s.t.do(ctx, http.MethodGet, "/meeting-points/"+id.String(), nil, nil, &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

func (s *meetingPointService) Create(ctx context.Context, data MeetingPointCreate) (*MeetingPoint, error) {
	var mp MeetingPoint
	if err := s.t.do(ctx, http.MethodPost, "/meeting-points", nil, data, &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

func (s *meetingPointService) CreateSeries(ctx context.Context, data MeetingPointSeriesCreate) ([]MeetingPoint, error) {
	var items []MeetingPoint
	if err := s.t.do(ctx, http.MethodPost, "/meeting-points/series", nil, data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *meetingPointService) Update(ctx context.Context, id uuid.UUID, data MeetingPointUpdate) (*MeetingPoint, error) {
	var mp MeetingPoint
	if err := s.t.do(ctx, http.MethodPut, "/meeting-points/"+id.String(), nil, data, &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

func (s *meetingPointService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.t.do(ctx, http.MethodDelete, "/meeting-points/"+id.String(), nil, nil, nil)
}

func (s *meetingPointService) DeleteSeries(ctx context.Context, seriesID uuid.UUID) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := s.t.do(ctx, http.MethodDelete, "/meeting-points/series/"+seriesID.String(), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (s *meetingPointService) ExportPDF(ctx context.Context, month string) (io.ReadCloser, error) {
	q := url.Values{"month": {month}}
	return s.t.stream(ctx, "/meeting-points/export", q)
}

func (s *meetingPointService) ConductorStats(ctx context.Context, year int) ([]ConductorStats, error) {
	q := url.Values{"year": {strconv.Itoa(year)}}
	var stats []ConductorStats
	if err := s.t.do(ctx, http.MethodGet, "/meeting-points/stats", q, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *meetingPointService) MonthlyStats(ctx context.Context, year int) ([]MonthlyStats, error) {
	q := url.Values{"year": {strconv.Itoa(year)}}
	var stats []MonthlyStats
	if err := s.t.do(ctx, http.MethodGet, "/meeting-points/stats/monthly", q, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
