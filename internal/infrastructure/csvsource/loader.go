package csvsource

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harpa/backend/internal/domain"
)

// Files names the data files inside the data source.
type Files struct {
	Planogram    string `mapstructure:"planogram"`
	StoreMapping string `mapstructure:"store_mapping"`
	FileIndex    string `mapstructure:"file_index"`
	DeleteList   string `mapstructure:"delete_list"`
}

// DefaultFiles are the names the published data set uses.
var DefaultFiles = Files{
	Planogram:    "allplanogramdata.csv",
	StoreMapping: "Store_POG_Mapping.csv",
	FileIndex:    "githubfiles.csv",
	DeleteList:   "deletelist.csv",
}

// Rejection is a row dropped during load.
type Rejection struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

// LoadReport summarizes one load.
type LoadReport struct {
	Placements    int         `json:"placements" yaml:"placements"`
	Stores        int         `json:"stores" yaml:"stores"`
	DeleteEntries int         `json:"deleteEntries" yaml:"deleteEntries"`
	Files         int         `json:"files" yaml:"files"`
	Missing       []string    `json:"missing,omitempty" yaml:"missing,omitempty"`
	Rejected      []Rejection `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

func (r *LoadReport) reject(file string, line int, reason string) {
	r.Rejected = append(r.Rejected, Rejection{File: file, Line: line, Reason: reason})
}

// Loader reads the data set through a Fetcher.
type Loader struct {
	fetcher domain.Fetcher
	files   Files
	mapper  *rowMapper
	logger  *zap.Logger
}

// NewLoader creates a loader. Empty file names fall back to DefaultFiles.
func NewLoader(fetcher domain.Fetcher, files Files, logger *zap.Logger) *Loader {
	if files.Planogram == "" {
		files.Planogram = DefaultFiles.Planogram
	}
	if files.StoreMapping == "" {
		files.StoreMapping = DefaultFiles.StoreMapping
	}
	if files.FileIndex == "" {
		files.FileIndex = DefaultFiles.FileIndex
	}
	if files.DeleteList == "" {
		files.DeleteList = DefaultFiles.DeleteList
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{
		fetcher: fetcher,
		files:   files,
		mapper:  newRowMapper(),
		logger:  logger.Named("loader"),
	}
}

// Files returns the file names the loader reads.
func (l *Loader) Files() Files {
	return l.files
}

// Load reads every source. The planogram and store mapping are required;
// a missing delete list or file index leaves that part empty. Bad rows are
// skipped and listed in the report, never fatal.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, *LoadReport, error) {
	report := &LoadReport{}
	ds := &domain.Dataset{}

	placements, err := l.loadPlacements(ctx, report)
	if err != nil {
		return nil, nil, err
	}
	ds.Placements = placements

	stores, err := l.loadStores(ctx, report)
	if err != nil {
		return nil, nil, err
	}
	ds.Stores = stores

	deleteList, err := l.loadDeleteList(ctx, report)
	if err != nil {
		return nil, nil, err
	}
	ds.DeleteList = deleteList

	files, err := l.loadFileIndex(ctx, report)
	if err != nil {
		return nil, nil, err
	}
	ds.Files = files

	report.Placements = len(ds.Placements)
	report.Stores = len(ds.Stores)
	report.DeleteEntries = len(ds.DeleteList)
	report.Files = len(ds.Files)

	l.logger.Info("data loaded",
		zap.Int("placements", report.Placements),
		zap.Int("stores", report.Stores),
		zap.Int("deleteEntries", report.DeleteEntries),
		zap.Int("files", report.Files),
		zap.Int("rejected", len(report.Rejected)),
		zap.Strings("missing", report.Missing))

	return ds, report, nil
}

func (l *Loader) fetchTable(ctx context.Context, name string) (*table, error) {
	rc, err := l.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := readTable(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", name)
	}
	return t, nil
}

func (l *Loader) loadPlacements(ctx context.Context, report *LoadReport) ([]domain.PlacementRecord, error) {
	name := l.files.Planogram
	t, err := l.fetchTable(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "load planogram data")
	}

	pog, bay, peg, code := t.column(pogAliases), t.column(bayAliases), t.column(pegAliases), t.column(upcAliases)
	for _, col := range []struct {
		name string
		idx  int
	}{{"POG", pog}, {"Bay", bay}, {"Peg", peg}, {"UPC", code}} {
		if col.idx < 0 {
			return nil, eris.Wrapf(domain.ErrSourceFailure, "%s: missing column %s", name, col.name)
		}
	}
	position := t.column(positionAliases)
	width := t.column(widthAliases)
	height := t.column(heightAliases)
	description := t.column(descriptionAliases)

	records := make([]domain.PlacementRecord, 0, len(t.rows))
	for _, r := range t.rows {
		raw := placementRow{
			POG:         getCol(r.fields, pog),
			Bay:         getCol(r.fields, bay),
			Peg:         getCol(r.fields, peg),
			Position:    getCol(r.fields, position),
			UPC:         getCol(r.fields, code),
			Width:       getCol(r.fields, width),
			Height:      getCol(r.fields, height),
			Description: getCol(r.fields, description),
		}
		if reason := l.mapper.check(raw); reason != "" {
			report.reject(name, r.line, reason)
			l.logger.Debug("row rejected", zap.String("file", name), zap.Int("line", r.line), zap.String("reason", reason))
			continue
		}
		records = append(records, toPlacement(raw, r.line))
	}
	return records, nil
}

func (l *Loader) loadStores(ctx context.Context, report *LoadReport) ([]domain.StoreMapping, error) {
	name := l.files.StoreMapping
	t, err := l.fetchTable(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "load store mapping")
	}

	store, pog := t.column(storeAliases), t.column(pogAliases)
	if store < 0 || pog < 0 {
		return nil, eris.Wrapf(domain.ErrSourceFailure, "%s: missing Store or POG column", name)
	}

	stores := make([]domain.StoreMapping, 0, len(t.rows))
	for _, r := range t.rows {
		raw := storeRow{Store: getCol(r.fields, store), POG: getCol(r.fields, pog)}
		if reason := l.mapper.check(raw); reason != "" {
			report.reject(name, r.line, reason)
			continue
		}
		stores = append(stores, domain.StoreMapping{StoreID: raw.Store, PlanogramID: raw.POG})
	}
	return stores, nil
}

func (l *Loader) loadDeleteList(ctx context.Context, report *LoadReport) ([]domain.DeleteListEntry, error) {
	name := l.files.DeleteList
	t, err := l.fetchTable(ctx, name)
	if errors.Is(err, domain.ErrSourceNotFound) {
		report.Missing = append(report.Missing, name)
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "load delete list")
	}

	pog, code := t.column(pogAliases), t.column(upcAliases)
	if pog < 0 || code < 0 {
		l.logger.Warn("delete list ignored: missing POG or UPC column", zap.String("file", name))
		report.Missing = append(report.Missing, name)
		return nil, nil
	}
	productName := t.column(productNameAliases)

	entries := make([]domain.DeleteListEntry, 0, len(t.rows))
	for _, r := range t.rows {
		raw := deleteRow{
			POG:         getCol(r.fields, pog),
			UPC:         getCol(r.fields, code),
			ProductName: getCol(r.fields, productName),
		}
		if reason := l.mapper.check(raw); reason != "" {
			report.reject(name, r.line, reason)
			continue
		}
		entries = append(entries, toDeleteEntry(raw))
	}
	return entries, nil
}

func (l *Loader) loadFileIndex(ctx context.Context, report *LoadReport) ([]string, error) {
	name := l.files.FileIndex
	rc, err := l.fetcher.Fetch(ctx, name)
	if errors.Is(err, domain.ErrSourceNotFound) {
		report.Missing = append(report.Missing, name)
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "load file index")
	}
	defer rc.Close()

	return readLines(rc)
}
