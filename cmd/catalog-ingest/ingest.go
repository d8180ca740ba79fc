package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// DuplicateCodeError reports a product code listed more than once across
// the imported files.
type DuplicateCodeError struct {
	Code  string
	First string
	Again string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("product code %q listed in %s and again in %s", e.Code, e.First, e.Again)
}

// seenCodes flags codes that may repeat. Every code goes into the bloom
// filter; only the filter's hits are kept, as suspects for confirmDuplicates.
type seenCodes struct {
	mu       sync.Mutex
	filter   *bloom.BloomFilter
	suspects map[string]struct{}
}

func newSeenCodes() *seenCodes {
	return &seenCodes{
		filter:   bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		suspects: make(map[string]struct{}),
	}
}

func (s *seenCodes) add(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter.TestAndAddString(code) {
		s.suspects[code] = struct{}{}
	}
}

// readPriceLists parses every file concurrently and returns the rules sorted
// by code. Any invalid row or repeated code fails the whole import.
func readPriceLists(ctx context.Context, files []string) ([]pricing.Rule, error) {
	seen := newSeenCodes()
	results := make([][]pricing.Rule, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			return withPriceList(path, func(r io.Reader) error {
				rules, err := parsePriceList(gctx, path, r, seen)
				if err != nil {
					return err
				}
				slog.Info("file complete", slog.String("file", path), slog.Int("rules", len(rules)))
				results[i] = rules
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := confirmDuplicates(ctx, files, seen.suspects); err != nil {
		return nil, err
	}

	var all []pricing.Rule
	for _, r := range results {
		all = append(all, r...)
	}
	slices.SortFunc(all, func(a, b pricing.Rule) int {
		return strings.Compare(a.Code(), b.Code())
	})
	return all, nil
}

// confirmDuplicates re-streams the files in order, tracking positions of the
// suspect codes only, and reports the first real repeat.
func confirmDuplicates(ctx context.Context, files []string, suspects map[string]struct{}) error {
	if len(suspects) == 0 {
		return nil
	}
	slog.Info("confirming possible duplicates", slog.Int("suspects", len(suspects)))

	origin := make(map[string]string, len(suspects))
	for _, path := range files {
		err := withPriceList(path, func(r io.Reader) error {
			return eachRecord(ctx, path, r, func(record []string, line int) error {
				code := strings.TrimSpace(record[0])
				if _, ok := suspects[code]; !ok {
					return nil
				}
				where := path + ":" + strconv.Itoa(line)
				if first, ok := origin[code]; ok {
					return &DuplicateCodeError{Code: code, First: first, Again: where}
				}
				origin[code] = where
				return nil
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func withPriceList(path string, fn func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	return fn(gz)
}

// eachRecord reads CSV rows, skipping blank lines and lines starting with #.
func eachRecord(ctx context.Context, name string, r io.Reader, fn func(record []string, line int) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		line, _ := cr.FieldPos(0)

		if err := fn(record, line); err != nil {
			return err
		}
	}
}

// parsePriceList reads rows of code,unit_price[,pack_size,pack_price].
func parsePriceList(ctx context.Context, name string, r io.Reader, seen *seenCodes) ([]pricing.Rule, error) {
	var rules []pricing.Rule
	err := eachRecord(ctx, name, r, func(record []string, line int) error {
		rule, err := parseRecord(record)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", name, line)
		}
		seen.add(rule.Code())
		rules = append(rules, rule)

		if len(rules)%progressEvery == 0 {
			slog.Info("progress", slog.String("file", name), slog.Int("rules", len(rules)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func parseRecord(record []string) (pricing.Rule, error) {
	if len(record) != 2 && len(record) != 4 {
		return pricing.Rule{}, errors.Errorf("expected 2 or 4 fields, got %d", len(record))
	}

	code := strings.TrimSpace(record[0])
	unit, err := decimal.NewFromString(strings.TrimSpace(record[1]))
	if err != nil {
		return pricing.Rule{}, errors.Wrap(err, "unit price")
	}
	if len(record) == 2 {
		return pricing.NewRule(code, unit)
	}

	size, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return pricing.Rule{}, errors.Wrap(err, "pack size")
	}
	packPrice, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return pricing.Rule{}, errors.Wrap(err, "pack price")
	}
	return pricing.NewRuleWithVolume(code, unit, pricing.VolumeRule{PackSize: size, PackPrice: packPrice})
}
