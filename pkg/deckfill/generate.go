package deckfill

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"deckfill/pkg/deckfill/deck"
	"deckfill/pkg/deckfill/mapping"
	"deckfill/pkg/deckfill/models"
	"deckfill/pkg/deckfill/resolver"
	"deckfill/pkg/deckfill/sheets"
)

// titleSlide is where the month/year token lives.
const titleSlide = 0

// Options configures one generation run.
type Options struct {
	// InputDir holds the month's spreadsheet files.
	InputDir string
	// OutputDir receives the generated deck; created when absent.
	OutputDir string
	// Month is a free-text month/year label ("Sep'25", "September 2025").
	// Empty means the current month.
	Month string
	// Template is the path of the template deck.
	Template string
	// OutputName overrides the generated filename when set.
	OutputName string
	// MappingPath loads a report mapping file; empty uses the built-in
	// layout.
	MappingPath string
	// Logger receives progress and warnings. Nil means silent.
	Logger *zap.Logger
	// Now is the clock for month defaulting; zero means time.Now.
	Now time.Time
}

// Result summarizes a completed run.
type Result struct {
	OutputPath string
	Slides     int
	Month      MonthLabel
}

// Run executes the whole pipeline: resolve inputs, load the template,
// fill each configured slide table, patch the title and save. Required
// inputs, sheets and columns abort the run; row-count overruns and a
// missing title token only warn.
func Run(opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	m := mapping.Default()
	if opts.MappingPath != "" {
		loaded, err := mapping.Load(opts.MappingPath)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	month := ParseMonth(opts.Month, now)
	log.Info("generating report deck",
		zap.String("month", month.String()),
		zap.String("template", opts.Template),
		zap.String("input_dir", opts.InputDir))

	res, err := resolver.New(opts.InputDir, log)
	if err != nil {
		return nil, err
	}
	paths, err := res.ResolveAll(m)
	if err != nil {
		return nil, err
	}

	d, err := deck.Open(opts.Template)
	if err != nil {
		return nil, err
	}

	if ok, err := d.ReplaceRunText(titleSlide, MonthToken, month.Short()); err != nil {
		return nil, fmt.Errorf("title slide: %w", err)
	} else if !ok {
		log.Warn("title slide has no month token, leaving title unchanged")
	} else {
		log.Info("updated title slide", zap.String("token", month.Short()))
	}

	for _, target := range m.Targets {
		path, ok := paths[target.Source.Role]
		if !ok {
			log.Warn("skipping target, input absent",
				zap.String("target", target.Role),
				zap.String("source", target.Source.Role))
			continue
		}
		ds, err := sheets.ExtractDataset(path, target.Source, target.Fields())
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", target.Role, err)
		}
		written, err := fillTarget(d, target, ds, log)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", target.Role, err)
		}
		log.Info("filled slide table",
			zap.String("target", target.Role),
			zap.Int("slide", target.Slide),
			zap.Int("rows", written))
	}

	outPath := outputPath(opts, month)
	if samePath(outPath, opts.Template) {
		ext := filepath.Ext(outPath)
		outPath = strings.TrimSuffix(outPath, ext) + "_GENERATED" + ext
		log.Warn("output path matches template, renaming", zap.String("output", outPath))
	}
	if err := d.Save(outPath); err != nil {
		return nil, err
	}

	return &Result{OutputPath: outPath, Slides: d.SlideCount(), Month: month}, nil
}

// fillTarget maps one dataset into its slide table. The i-th record lands
// at row HeaderRows+i; writing stops when either the records or the table's
// body rows run out, and overruns are warned about rather than failed.
func fillTarget(d *deck.Deck, target mapping.TargetSpec, ds models.Dataset, log *zap.Logger) (int, error) {
	total, err := d.TableRows(target.Slide, target.Table)
	if err != nil {
		return 0, err
	}
	body := total - target.HeaderRows
	if body < 0 {
		body = 0
	}

	n := len(ds.Records)
	if n > body {
		log.Warn("more source rows than table body rows, truncating",
			zap.String("target", target.Role),
			zap.Int("source_rows", n),
			zap.Int("body_rows", body))
		n = body
	}

	writes := make([]deck.CellWrite, 0, n*len(target.Columns))
	for i := 0; i < n; i++ {
		for _, col := range target.Columns {
			writes = append(writes, deck.CellWrite{
				Row:  target.HeaderRows + i,
				Col:  col.Col,
				Text: col.Kind.Format(ds.Records[i][col.Field]),
			})
		}
	}
	if err := d.WriteTableCells(target.Slide, target.Table, writes); err != nil {
		return 0, err
	}
	return n, nil
}

func outputPath(opts Options, month MonthLabel) string {
	name := opts.OutputName
	if name == "" {
		name = fmt.Sprintf("AIL LT - %s.pptx", month.Short())
	}
	return filepath.Join(opts.OutputDir, name)
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aa == bb
}
