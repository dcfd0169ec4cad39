package triage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// DefaultWindow is how recent a file must be to be picked up
const DefaultWindow = 30 * time.Minute

// DefaultKeywords are matched against lower-cased file names
var DefaultKeywords = []string{"신고", "hometax", "excel", "xls", "xlsx", "zip", "pdf", "납부"}

// Options configure one triage pass
type Options struct {
	SourceDir string
	// DestDir is the period folder files are moved into
	DestDir  string
	Window   time.Duration
	SameDay  bool
	Keywords []string
}

// Result lists the files handled by a pass
type Result struct {
	Files []entities.RelocatedFile
}

// Count returns how many files ended with the given method
func (r Result) Count(method entities.RelocationMethod) int {
	n := 0
	for _, f := range r.Files {
		if f.Method == method {
			n++
		}
	}
	return n
}

// Triage relocates recently produced artifacts into a period folder
type Triage struct {
	relocator interfaces.Relocator
	logger    *logrus.Logger
	now       func() time.Time
}

// New - creates a triage step
func New(relocator interfaces.Relocator, logger *logrus.Logger) *Triage {
	return &Triage{
		relocator: relocator,
		logger:    logger,
		now:       time.Now,
	}
}

// Candidates - returns the names in opts.SourceDir that are recent and match a keyword
func (t *Triage) Candidates(opts Options) ([]string, error) {
	entries, err := os.ReadDir(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.SourceDir, err)
	}

	now := t.now()
	keywords := normalizeKeywords(opts.Keywords)

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !recent(info.ModTime(), now, opts) {
			continue
		}
		if !matchesKeyword(entry.Name(), keywords) {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Run - relocates every candidate; a failure on one file does not undo earlier moves
func (t *Triage) Run(ctx context.Context, opts Options) (Result, error) {
	var result Result

	if sameDir(opts.SourceDir, opts.DestDir) {
		return result, fmt.Errorf("source and destination are the same directory: %s", opts.SourceDir)
	}

	names, err := t.Candidates(opts)
	if err != nil {
		return result, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		src := filepath.Join(opts.SourceDir, name)
		dst := filepath.Join(opts.DestDir, name)
		file := entities.RelocatedFile{Name: name, Source: src, Destination: dst}

		if mime, err := mimetype.DetectFile(src); err == nil {
			file.MIME = mime.String()
		}

		method, err := t.relocator.Relocate(src, dst)
		file.Method = method
		file.Err = err

		log := t.logger.WithFields(logrus.Fields{"file": name, "method": method, "mime": file.MIME})
		if err != nil {
			log.WithError(err).Warn("file could not be relocated")
		} else {
			log.Info("file relocated")
		}
		result.Files = append(result.Files, file)
	}

	return result, nil
}

// recent - reports whether modTime is inside the window (or on the same calendar day)
func recent(modTime, now time.Time, opts Options) bool {
	if modTime.After(now) {
		return true
	}
	if opts.SameDay {
		y1, m1, d1 := modTime.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return now.Sub(modTime) < window
}

func normalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = normalizeName(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// matchesKeyword - file names from macOS arrive decomposed, so both sides are NFC
func matchesKeyword(name string, keywords []string) bool {
	name = normalizeName(name)
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func normalizeName(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
