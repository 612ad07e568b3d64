package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/lookthrough/internal/domain/models"
	"github.com/guttosm/lookthrough/internal/exposure"
)

func portfolio() []models.Holding {
	return []models.Holding{
		{Ticker: "spy", AllocationPercent: 40, HoldingType: models.HoldingTypeETF},
		{Ticker: "NEWCO", AllocationPercent: 10, HoldingType: models.HoldingTypeStock},
		{Ticker: "AAPL", AllocationPercent: 20, HoldingType: models.HoldingTypeStock},
		{Ticker: "QQQ", AllocationPercent: 10, HoldingType: models.HoldingTypeETF},
		{Ticker: "UNKNOWNETF", AllocationPercent: 5, HoldingType: models.HoldingTypeETF},
		{Ticker: "XOM", AllocationPercent: 5, HoldingType: models.HoldingTypeStock, Sector: str("Energy")},
		{Ticker: "ZERO", AllocationPercent: 0, HoldingType: models.HoldingTypeETF},
	}
}

func liveClient() *fakeClient {
	fc := newFakeClient()
	fc.summaries["SPY"] = fundSummary("SPY", map[string]float64{"technology": 0.6, "energy": 0.2})
	fc.summaries["NEWCO"] = summaryWith("NEWCO", map[string]string{"assetProfile": `{"sector":"Financial Services"}`})
	return fc
}

func TestExposureService_ComputeFromReference(t *testing.T) {
	fc := liveClient()
	svc := NewExposureService(exposure.DefaultReference(), fc, nil, ExposureConfig{})

	r, err := svc.Compute(context.Background(), portfolio(), false)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if r.Exposure["Technology"] != 37.4 || r.Exposure[models.SectorOther] != 15 {
		t.Fatalf("unexpected exposure %v", r.Exposure)
	}
	if r.TotalAllocation != 90 {
		t.Fatalf("total=%v", r.TotalAllocation)
	}
	want := map[string]string{
		"SPY": models.SourceReference, "NEWCO": models.SourceMissing, "AAPL": models.SourceReference,
		"QQQ": models.SourceReference, "UNKNOWNETF": models.SourceMissing, "XOM": models.SourceDeclared,
	}
	for k, v := range want {
		if r.Sources[k] != v {
			t.Fatalf("source[%s]=%q want %q (all=%v)", k, r.Sources[k], v, r.Sources)
		}
	}
	if _, listed := r.Sources["ZERO"]; listed {
		t.Fatalf("zero allocation must not be reported")
	}
	if len(fc.calls) != 0 {
		t.Fatalf("reference mode must not call upstream: %v", fc.calls)
	}
	if !strings.Contains(r.Summary, "| SPY | etf | 40.00% |") {
		t.Fatalf("summary:\n%s", r.Summary)
	}
}

func TestExposureService_ComputeLive(t *testing.T) {
	fc := liveClient()
	svc := NewExposureService(exposure.DefaultReference(), fc, nil, ExposureConfig{Parallel: 2, CacheTTL: time.Hour})

	r, err := svc.Compute(context.Background(), portfolio(), true)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	checks := map[string]float64{
		"Technology":             55,
		"Energy":                 15.1,
		"Financials":             10,
		models.SectorOther:       5,
		"Communication Services": 1.6,
	}
	for sector, v := range checks {
		if r.Exposure[sector] != v {
			t.Fatalf("%s=%v want %v (all=%v)", sector, r.Exposure[sector], v, r.Exposure)
		}
	}
	if r.Sources["SPY"] != models.SourceLive || r.Sources["NEWCO"] != models.SourceLive || r.Sources["QQQ"] != models.SourceReference {
		t.Fatalf("unexpected sources %v", r.Sources)
	}
	if fc.callCount("summary:AAPL") != 0 || fc.callCount("summary:XOM") != 0 || fc.callCount("summary:ZERO") != 0 {
		t.Fatalf("known stocks and zero allocations must not be fetched: %v", fc.calls)
	}

	if _, err := svc.Compute(context.Background(), portfolio(), true); err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if fc.callCount("summary:SPY") != 1 || fc.callCount("summary:NEWCO") != 1 {
		t.Fatalf("live lookups should be cached: %v", fc.calls)
	}
}

func TestExposureService_LiveWithoutClientUsesReference(t *testing.T) {
	svc := NewExposureService(nil, nil, nil, ExposureConfig{})
	r, err := svc.Compute(context.Background(), portfolio(), true)
	if err != nil || r.Sources["SPY"] != models.SourceReference {
		t.Fatalf("unexpected report %+v err=%v", r, err)
	}
}

func TestExposureService_ComputeValidation(t *testing.T) {
	svc := NewExposureService(nil, nil, nil, ExposureConfig{})
	cases := []struct {
		name     string
		holdings []models.Holding
	}{
		{"blank ticker", []models.Holding{{Ticker: " ", AllocationPercent: 1, HoldingType: models.HoldingTypeStock}}},
		{"unknown type", []models.Holding{{Ticker: "A", AllocationPercent: 1, HoldingType: "bond"}}},
		{"nan allocation", []models.Holding{{Ticker: "A", AllocationPercent: math.NaN(), HoldingType: models.HoldingTypeStock}}},
		{"infinite allocation", []models.Holding{{Ticker: "SPY", AllocationPercent: math.Inf(1), HoldingType: models.HoldingTypeETF}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Compute(context.Background(), tc.holdings, false); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}

	r, err := svc.Compute(context.Background(), nil, false)
	if err != nil || len(r.Exposure) != 0 || r.TotalAllocation != 0 {
		t.Fatalf("empty portfolio: %+v err=%v", r, err)
	}
}

func TestExposureService_ForUser(t *testing.T) {
	ref := exposure.DefaultReference()
	cases := []struct {
		name    string
		repo    *stubRepo
		noRepo  bool
		user    string
		wantErr error
	}{
		{name: "success", repo: &stubRepo{holdings: []models.Holding{{Ticker: "AAPL", AllocationPercent: 10, HoldingType: models.HoldingTypeStock}}}, user: "u1"},
		{name: "no holdings", repo: &stubRepo{}, user: "u1", wantErr: ErrNotFound},
		{name: "repo error", repo: &stubRepo{err: errors.New("boom")}, user: "u1", wantErr: errors.New("boom")},
		{name: "blank user", repo: &stubRepo{}, user: " ", wantErr: ErrInvalidInput},
		{name: "no repository", noRepo: true, user: "u1", wantErr: ErrNoRepository},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var svc ExposureService
			if tc.noRepo {
				svc = NewExposureService(ref, nil, nil, ExposureConfig{})
			} else {
				svc = NewExposureService(ref, nil, tc.repo, ExposureConfig{})
			}
			r, err := svc.ForUser(context.Background(), tc.user, false)
			if tc.wantErr != nil {
				if err == nil || (!errors.Is(err, tc.wantErr) && !strings.Contains(err.Error(), tc.wantErr.Error())) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || r.Exposure["Technology"] != 10 {
				t.Fatalf("unexpected report %+v err=%v", r, err)
			}
		})
	}
}

func TestExposureService_ForUserNonFiniteRow(t *testing.T) {
	repo := &stubRepo{holdings: []models.Holding{
		{Ticker: "AAPL", AllocationPercent: 10, HoldingType: models.HoldingTypeStock},
		{Ticker: "BAD", AllocationPercent: math.NaN(), HoldingType: models.HoldingTypeStock},
	}}
	svc := NewExposureService(nil, nil, repo, ExposureConfig{})
	if _, err := svc.ForUser(context.Background(), "u1", false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestExposureService_ForUserByType(t *testing.T) {
	repo := &stubRepo{holdings: []models.Holding{
		{Ticker: "AAPL", AllocationPercent: 20, HoldingType: models.HoldingTypeStock},
		{Ticker: "SPY", AllocationPercent: 30, HoldingType: models.HoldingTypeETF},
	}}
	svc := NewExposureService(exposure.DefaultReference(), nil, repo, ExposureConfig{})

	r, err := svc.ForUser(context.Background(), "u1", false, models.HoldingTypeETF)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(repo.types) != 1 || repo.types[0] != models.HoldingTypeETF {
		t.Fatalf("types not forwarded: %v", repo.types)
	}
	if r.TotalAllocation != 30 || r.Exposure["Technology"] != 9.3 || r.Sources["AAPL"] != "" {
		t.Fatalf("unexpected report %+v", r)
	}

	if _, err := svc.ForUser(context.Background(), "u1", false, "bond"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput for unknown type, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("repository queried for an invalid type: %v", repo.users)
	}
}
