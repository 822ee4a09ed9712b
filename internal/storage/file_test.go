package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/models"
)

// --- Test helpers ---

// newTestFileStore creates a FileStore in a temp directory keeping the given versions.
func newTestFileStore(t *testing.T, versions int) *FileStore {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(common.NewSilentLogger(), &common.PortfolioConfig{
		Path:     filepath.Join(dir, "data", "portfolio.json"),
		Versions: versions,
	})
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return fs
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleHoldings() []models.Holding {
	return []models.Holding{
		{
			ID:               "a",
			AssetClass:       models.AssetClassEquity,
			Identifier:       "INFY.NSE",
			Mode:             models.ModeLumpSum,
			AmountInvested:   15000,
			AcquisitionDate:  date(2023, 1, 2),
			AcquisitionPrice: 1500.25,
		},
		{
			ID:              "b",
			AssetClass:      models.AssetClassFund,
			Identifier:      "Axis Bluechip Fund - Direct Plan - Growth",
			Mode:            models.ModeSystematicPlan,
			AmountInvested:  1000,
			AcquisitionDate: date(2024, 1, 31),
			Transactions: []models.Transaction{
				{Date: date(2024, 1, 31), Amount: 1000, Units: 20.1234},
				{Date: date(2024, 2, 29), Amount: 1000, Units: 19.8765},
			},
		},
	}
}

// --- Tests ---

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	fs := newTestFileStore(t, 0)

	holdings, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(holdings) != 0 {
		t.Errorf("expected empty portfolio, got %d holdings", len(holdings))
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs := newTestFileStore(t, 0)
	ctx := context.Background()
	want := sampleHoldings()

	if err := fs.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d holdings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Identifier != want[i].Identifier || got[i].Mode != want[i].Mode {
			t.Errorf("holding %d: got %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].AcquisitionDate.Equal(want[i].AcquisitionDate) {
			t.Errorf("holding %d: acquisition date %v, want %v", i, got[i].AcquisitionDate, want[i].AcquisitionDate)
		}
		if got[i].AcquisitionPrice != want[i].AcquisitionPrice {
			t.Errorf("holding %d: price %v, want %v", i, got[i].AcquisitionPrice, want[i].AcquisitionPrice)
		}
		if len(got[i].Transactions) != len(want[i].Transactions) {
			t.Fatalf("holding %d: %d transactions, want %d", i, len(got[i].Transactions), len(want[i].Transactions))
		}
		for j := range want[i].Transactions {
			g, w := got[i].Transactions[j], want[i].Transactions[j]
			if !g.Date.Equal(w.Date) || g.Amount != w.Amount || g.Units != w.Units {
				t.Errorf("holding %d tx %d: got %+v, want %+v", i, j, got[i].Transactions[j], want[i].Transactions[j])
			}
		}
	}
}

func TestFileStore_WritesISODatesAndFactsOnly(t *testing.T) {
	fs := newTestFileStore(t, 0)
	if err := fs.Save(context.Background(), sampleHoldings()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(fs.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	content := string(data)
	for _, want := range []string{`"acquisition_date": "2023-01-02"`, `"date": "2024-02-29"`, `"investment_mode": "systematic_plan"`} {
		if !strings.Contains(content, want) {
			t.Errorf("file missing %s", want)
		}
	}
	for _, derived := range []string{"current_value", "gain_loss", "xirr", "cagr"} {
		if strings.Contains(content, derived) {
			t.Errorf("file should not persist derived field %s", derived)
		}
	}
}

func TestFileStore_CorruptFileIsError(t *testing.T) {
	fs := newTestFileStore(t, 0)
	if err := os.WriteFile(fs.Path(), []byte(`[{"id": "a",`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := fs.Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestFileStore_InvalidDateIsError(t *testing.T) {
	fs := newTestFileStore(t, 0)
	body := `[{"id":"a","asset_class":"fund","identifier":"x","investment_mode":"lump_sum","amount_invested":1,"acquisition_date":"02/01/2023"}]`
	if err := os.WriteFile(fs.Path(), []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := fs.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "acquisition_date") {
		t.Fatalf("expected acquisition_date error, got %v", err)
	}
}

func TestFileStore_VersionRotation(t *testing.T) {
	fs := newTestFileStore(t, 2)
	ctx := context.Background()
	holdings := sampleHoldings()

	for i := 1; i <= 4; i++ {
		if err := fs.Save(ctx, holdings[:i%2+1]); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	for _, suffix := range []string{".v1", ".v2"} {
		if _, err := os.Stat(fs.Path() + suffix); err != nil {
			t.Errorf("expected version file %s: %v", suffix, err)
		}
	}
	if _, err := os.Stat(fs.Path() + ".v3"); !os.IsNotExist(err) {
		t.Errorf("expected no .v3 file, got err=%v", err)
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	fs := newTestFileStore(t, 0)
	if err := fs.Save(context.Background(), sampleHoldings()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(fs.Path()))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	fs := newTestFileStore(t, 1)
	ctx := context.Background()
	holdings := sampleHoldings()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fs.Save(ctx, holdings); err != nil {
				t.Errorf("Save failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d holdings, want 2", len(got))
	}
}
