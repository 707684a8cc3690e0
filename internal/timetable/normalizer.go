package timetable

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// DefaultSlotExprs recognise header cells such as "T1" or "09:00-10:00".
var DefaultSlotExprs = []string{
	`(?i)^T\d+$`,
	`^\d{1,2}[:.]\d{2}\s*[-–]\s*\d{1,2}[:.]\d{2}$`,
}

var defaultSlotPatterns = mustCompile(DefaultSlotExprs)

func mustCompile(exprs []string) []*regexp.Regexp {
	out, err := CompileSlotPatterns(exprs)
	if err != nil {
		panic(err)
	}
	return out
}

// CompileSlotPatterns compiles header slot expressions.
func CompileSlotPatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("slot pattern %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// RawRoom is one room's table as handed over by the collector: rows of cell
// text in page order.
type RawRoom struct {
	Room     RoomID
	Semester string
	Year     *string
	Rows     [][]string
}

// Normalizer turns raw table rows into day schedules.
type Normalizer struct {
	classifier Classifier
	patterns   []*regexp.Regexp
	logger     *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSlotPatterns replaces the header slot patterns.
func WithSlotPatterns(patterns []*regexp.Regexp) Option {
	return func(n *Normalizer) { n.patterns = patterns }
}

// WithLogger sets the logger used for skipped rooms.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// NewNormalizer returns a Normalizer using classifier for every cell. A nil
// classifier means DefaultClassifier.
func NewNormalizer(classifier Classifier, opts ...Option) *Normalizer {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	n := &Normalizer{
		classifier: classifier,
		patterns:   defaultSlotPatterns,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// isSlotLabel reports whether a header cell looks like a slot token.
func (n *Normalizer) isSlotLabel(cell string) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return false
	}
	for _, re := range n.patterns {
		if re.MatchString(cell) {
			return true
		}
	}
	return false
}

// headerIndex returns the index of the first row carrying slot labels.
func (n *Normalizer) headerIndex(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if n.isSlotLabel(cell) {
				return i
			}
		}
	}
	return -1
}

// NormalizeDays builds a day schedule from a table's rows. The header row
// fixes the slot label of each column; day rows are zipped against it by
// column index and truncated to the shorter of the two.
func (n *Normalizer) NormalizeDays(rows [][]string) (DaySchedule, error) {
	h := n.headerIndex(rows)
	if h < 0 {
		return nil, ErrNoHeader
	}

	var labels []string
	for _, cell := range rows[h][1:] {
		labels = append(labels, strings.TrimSpace(cell))
	}

	var sched DaySchedule
	for i, row := range rows {
		if i == h || len(row) == 0 {
			continue
		}
		day, ok := CanonicalDay(row[0])
		if !ok {
			continue
		}
		cells := row[1:]
		if len(cells) > len(labels) {
			cells = cells[:len(labels)]
		}
		entries := make([]Entry, 0, len(cells))
		for j, cell := range cells {
			entries = append(entries, NewEntry(n.classifier, labels[j], cell))
		}
		sched = sched.put(day, entries)
	}

	if sched.TotalSlots() == 0 {
		return nil, ErrNoData
	}
	return sched, nil
}

// Normalize builds the schedule of one room.
func (n *Normalizer) Normalize(raw RawRoom) (RoomSchedule, error) {
	sched, err := n.NormalizeDays(raw.Rows)
	if err != nil {
		return RoomSchedule{}, fmt.Errorf("room %s: %w", raw.Room, err)
	}
	return RoomSchedule{
		Room:         raw.Room,
		Semester:     raw.Semester,
		AcademicYear: raw.Year,
		Schedule:     sched,
	}, nil
}

// Skip records a room left out of a batch and why.
type Skip struct {
	Room RoomID
	Err  error
}

// BatchResult is the outcome of normalizing a closed set of rooms.
type BatchResult struct {
	Checked int
	Rooms   []RoomSchedule
	Skipped []Skip
}

// NormalizeBatch normalizes rooms on up to workers goroutines. Rooms come
// back in input order; rooms without a header or data are skipped.
func (n *Normalizer) NormalizeBatch(rooms []RawRoom, workers int) BatchResult {
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		sched RoomSchedule
		err   error
	}
	results := make([]outcome, len(rooms))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				sched, err := n.Normalize(rooms[i])
				results[i] = outcome{sched: sched, err: err}
			}
		}()
	}
	for i := range rooms {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := BatchResult{Checked: len(rooms)}
	for i, r := range results {
		if r.err != nil {
			reason := "error"
			switch {
			case errors.Is(r.err, ErrNoHeader):
				reason = "no header"
			case errors.Is(r.err, ErrNoData):
				reason = "no data"
			}
			n.logger.Debug("room skipped", "room", rooms[i].Room.String(), "reason", reason)
			res.Skipped = append(res.Skipped, Skip{Room: rooms[i].Room, Err: r.err})
			continue
		}
		res.Rooms = append(res.Rooms, r.sched)
	}
	n.logger.Info("normalization complete", "rooms_checked", res.Checked, "rooms_with_data", len(res.Rooms))
	return res
}

// Merge combines the rooms of several discovery passes. Rooms are keyed by
// code: a later pass replaces an earlier one in place, new rooms append.
func Merge(passes ...[]RoomSchedule) []RoomSchedule {
	var out []RoomSchedule
	index := make(map[string]int)
	for _, pass := range passes {
		for _, r := range pass {
			if i, ok := index[r.Room.Code]; ok {
				out[i] = r
				continue
			}
			index[r.Room.Code] = len(out)
			out = append(out, r)
		}
	}
	return out
}
