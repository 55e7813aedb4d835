package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obs-timetable-api/internal/models"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

const (
	allocationPath      = "/api/v1/timetables"
	defaultBuildTime    = 1800
	defaultProposalRank = 1
	maxErrorBodyBytes   = 2048
)

// AllocationClientConfig points the client at the scheduling backend.
type AllocationClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AllocationClient asks the external scheduling backend to assign start
// times to an assembled timetable. Each call is one request with no retry.
type AllocationClient struct {
	baseURL string
	client  *http.Client
	metrics *MetricsService
	logger  *zap.Logger
}

type allocationRequest struct {
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Proposals []allocationProposal `json:"proposals"`
}

type allocationProposal struct {
	ID                 int64    `json:"id"`
	OwnerEmail         string   `json:"owner_email"`
	BuildTime          int      `json:"build_time"`
	PreferedDatesStart []string `json:"prefered_dates_start"`
	PreferedDatesEnd   []string `json:"prefered_dates_end"`
	AvoidDatesStart    []string `json:"avoid_dates_start"`
	AvoidDatesEnd      []string `json:"avoid_dates_end"`
	NightObs           bool     `json:"night_obs"`
	AvoidSunriseSunset bool     `json:"avoid_sunrise_sunset"`
	MinimumAntennas    int      `json:"minimum_antennas"`
	LSTStartTime       string   `json:"lst_start_time"`
	LSTStartEndTime    string   `json:"lst_start_end_time"`
	SimulatedDuration  int64    `json:"simulated_duration"`
	Score              float64  `json:"score"`
}

type allocationResponse struct {
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Schedules []allocationSchedule `json:"schedules"`
}

type allocationSchedule struct {
	Proposal struct {
		ID int64 `json:"id"`
	} `json:"proposal"`
	StartDatetime string `json:"start_datetime"`
}

// NewAllocationClient constructs the backend client.
func NewAllocationClient(cfg AllocationClientConfig, metrics *MetricsService, logger *zap.Logger) *AllocationClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &AllocationClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// Allocate sends the timetable's proposals to the backend and returns a
// copy with ScheduledStart filled in for every proposal the backend
// scheduled. Proposals left out of the response stay unscheduled.
func (c *AllocationClient) Allocate(ctx context.Context, timetable models.Timetable) (models.Timetable, error) {
	start := time.Now()
	schedules, err := c.post(ctx, timetable)
	c.metrics.ObserveAllocation(err == nil, time.Since(start))
	if err != nil {
		c.logger.Warn("allocation backend call failed",
			zap.String("start_date", timetable.StartDate.Format(models.DateLayout)),
			zap.Int("proposals", len(timetable.Proposals)),
			zap.Error(err),
		)
		return models.Timetable{}, appErrors.Unavailable(err, "allocation backend unavailable")
	}

	starts := make(map[int64]time.Time, len(schedules))
	for _, sched := range schedules {
		ts, err := planner.ParseTimestamp(sched.StartDatetime)
		if err != nil || ts == nil {
			return models.Timetable{}, appErrors.Unavailable(
				fmt.Errorf("proposal %d: invalid start_datetime %q", sched.Proposal.ID, sched.StartDatetime),
				"allocation backend returned an invalid schedule")
		}
		starts[sched.Proposal.ID] = *ts
	}

	out := timetable
	out.Proposals = make([]models.Proposal, len(timetable.Proposals))
	for i, p := range timetable.Proposals {
		p.ScheduledStart = nil
		if ts, ok := starts[p.ID]; ok {
			ts := ts
			p.ScheduledStart = &ts
		}
		out.Proposals[i] = p
	}
	c.logger.Debug("allocation completed",
		zap.Int("proposals", len(out.Proposals)),
		zap.Int("scheduled", out.ScheduledCount()),
	)
	return out, nil
}

func (c *AllocationClient) post(ctx context.Context, timetable models.Timetable) ([]allocationSchedule, error) {
	body, err := json.Marshal(newAllocationRequest(timetable))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+allocationPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("backend responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded allocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded.Schedules, nil
}

func newAllocationRequest(timetable models.Timetable) allocationRequest {
	proposals := make([]allocationProposal, len(timetable.Proposals))
	for i, p := range timetable.Proposals {
		proposals[i] = allocationProposal{
			ID:                 p.ID,
			OwnerEmail:         p.OwnerEmail,
			BuildTime:          defaultBuildTime,
			PreferedDatesStart: []string{},
			PreferedDatesEnd:   []string{},
			AvoidDatesStart:    []string{},
			AvoidDatesEnd:      []string{},
			NightObs:           p.NightObs,
			AvoidSunriseSunset: p.AvoidSunriseSunset,
			MinimumAntennas:    p.MinimumAntennas,
			LSTStartTime:       p.LSTStart,
			LSTStartEndTime:    p.LSTStartEnd,
			SimulatedDuration:  int64(p.Duration / time.Second),
			Score:              defaultProposalRank,
		}
	}
	return allocationRequest{
		StartDate: timetable.StartDate.Format(models.DateLayout),
		EndDate:   timetable.EndDate.Format(models.DateLayout),
		Proposals: proposals,
	}
}
