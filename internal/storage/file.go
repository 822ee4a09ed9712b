// Package storage persists the portfolio as a flat JSON file.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobmcallan/fintrack/internal/common"
	"github.com/bobmcallan/fintrack/internal/interfaces"
	"github.com/bobmcallan/fintrack/internal/models"
)

// FileStore keeps the portfolio as a JSON array of holding facts. Writes are
// atomic and rotate up to versions previous copies (.v1 newest).
type FileStore struct {
	path     string
	versions int
	logger   *common.Logger

	mu sync.Mutex
}

// NewFileStore creates a FileStore and ensures the parent directory exists.
func NewFileStore(logger *common.Logger, config *common.PortfolioConfig) (*FileStore, error) {
	versions := config.Versions
	if versions < 0 {
		versions = 0
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	logger.Debug().Str("path", config.Path).Int("versions", versions).Msg("FileStore opened")
	return &FileStore{
		path:     config.Path,
		versions: versions,
		logger:   logger,
	}, nil
}

// Path returns the portfolio file location
func (fs *FileStore) Path() string {
	return fs.path
}

// holdingRecord is the on-disk shape of a holding. Dates are YYYY-MM-DD.
type holdingRecord struct {
	ID               string                `json:"id"`
	AssetClass       models.AssetClass     `json:"asset_class"`
	Identifier       string                `json:"identifier"`
	Mode             models.InvestmentMode `json:"investment_mode"`
	AmountInvested   float64               `json:"amount_invested"`
	AcquisitionDate  string                `json:"acquisition_date"`
	UnitsOwned       float64               `json:"units_owned,omitempty"`
	AcquisitionPrice float64               `json:"acquisition_price,omitempty"`
	Transactions     []transactionRecord   `json:"transactions,omitempty"`
}

type transactionRecord struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Units  float64 `json:"units"`
}

func toRecord(h models.Holding) holdingRecord {
	r := holdingRecord{
		ID:               h.ID,
		AssetClass:       h.AssetClass,
		Identifier:       h.Identifier,
		Mode:             h.Mode,
		AmountInvested:   h.AmountInvested,
		AcquisitionDate:  h.AcquisitionDate.Format(models.DateLayout),
		UnitsOwned:       h.UnitsOwned,
		AcquisitionPrice: h.AcquisitionPrice,
	}
	for _, tx := range h.Transactions {
		r.Transactions = append(r.Transactions, transactionRecord{
			Date:   tx.Date.Format(models.DateLayout),
			Amount: tx.Amount,
			Units:  tx.Units,
		})
	}
	return r
}

func fromRecord(r holdingRecord) (models.Holding, error) {
	acquired, err := time.Parse(models.DateLayout, r.AcquisitionDate)
	if err != nil {
		return models.Holding{}, fmt.Errorf("holding %s: invalid acquisition_date %q", r.ID, r.AcquisitionDate)
	}
	h := models.Holding{
		ID:               r.ID,
		AssetClass:       r.AssetClass,
		Identifier:       r.Identifier,
		Mode:             r.Mode,
		AmountInvested:   r.AmountInvested,
		AcquisitionDate:  acquired,
		UnitsOwned:       r.UnitsOwned,
		AcquisitionPrice: r.AcquisitionPrice,
	}
	for i, tx := range r.Transactions {
		d, err := time.Parse(models.DateLayout, tx.Date)
		if err != nil {
			return models.Holding{}, fmt.Errorf("holding %s: transaction %d: invalid date %q", r.ID, i+1, tx.Date)
		}
		h.Transactions = append(h.Transactions, models.Transaction{Date: d, Amount: tx.Amount, Units: tx.Units})
	}
	return h, nil
}

// Load reads the portfolio. A missing or empty file is an empty portfolio;
// an unparseable file is an error.
func (fs *FileStore) Load(ctx context.Context) ([]models.Holding, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Holding{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}
	if len(data) == 0 {
		return []models.Holding{}, nil
	}

	var records []holdingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
	}

	holdings := make([]models.Holding, 0, len(records))
	for _, r := range records {
		h, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// Save replaces the portfolio file.
func (fs *FileStore) Save(ctx context.Context, holdings []models.Holding) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	records := make([]holdingRecord, 0, len(holdings))
	for _, h := range holdings {
		records = append(records, toRecord(h))
	}

	if err := fs.writeJSON(records); err != nil {
		return err
	}
	fs.logger.Debug().Str("path", fs.path).Int("holdings", len(holdings)).Msg("Portfolio saved")
	return nil
}

// writeJSON marshals data to indented JSON and writes it atomically,
// rotating previous versions first.
func (fs *FileStore) writeJSON(data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	if fs.versions > 0 {
		fs.rotateVersions()
	}

	// Atomic write: temp file in the same directory, then rename
	tmpFile, err := os.CreateTemp(filepath.Dir(fs.path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// rotateVersions shifts existing versions up and moves current to v1.
// v{N} -> deleted, v{N-1} -> v{N}, ..., v1 -> v2, current -> v1
func (fs *FileStore) rotateVersions() {
	os.Remove(fmt.Sprintf("%s.v%d", fs.path, fs.versions))

	for i := fs.versions; i > 1; i-- {
		src := fmt.Sprintf("%s.v%d", fs.path, i-1)
		dst := fmt.Sprintf("%s.v%d", fs.path, i)
		os.Rename(src, dst) // may not exist yet
	}

	if _, err := os.Stat(fs.path); err == nil {
		os.Rename(fs.path, fs.path+".v1")
	}
}

var _ interfaces.PortfolioStore = (*FileStore)(nil)
