// Package replay records and replays raw orientation samples.
//
// Log format: line-oriented text.
//
//   - Blank lines ignored.
//   - Lines starting with '#' ignored.
//   - Line "START" resets the origin (next record time is relative to 0
//     again).
//   - Data lines are: <t_ns>,<json>
//     where t_ns is nanoseconds since START (monotonic) and json is the
//     raw sample as emitted by the sensor source.
//
// Intentionally simple and stable, so captured sensor sessions work as
// deterministic regression inputs for the estimator and smoother.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"compassdial/internal/heading"
)

type Record struct {
	At     time.Duration
	Sample *heading.Sample // nil marks a START record
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("invalid replay line (missing comma): %q", line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		jsonStr := strings.TrimSpace(line[comma+1:])
		if tsStr == "" || jsonStr == "" {
			return nil, fmt.Errorf("invalid replay line (empty field): %q", line)
		}

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid replay timestamp %q: %w", tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("invalid replay timestamp (negative): %d", tsNs)
		}

		var smp heading.Sample
		if err := json.Unmarshal([]byte(jsonStr), &smp); err != nil {
			return nil, fmt.Errorf("invalid replay sample: %w", err)
		}

		recs = append(recs, Record{At: time.Duration(tsNs), Sample: &smp})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

// WriteSample appends one raw sample, timestamped relative to the
// writer's creation.
func (ww *Writer) WriteSample(now time.Time, smp heading.Sample) error {
	if ww.closed {
		return errors.New("replay writer is closed")
	}
	b, err := json.Marshal(smp)
	if err != nil {
		return err
	}

	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	if _, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), b); err != nil {
		return err
	}
	return nil
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Play re-emits records with their relative timing. START markers
// reset the origin. speed: 1.0 = real time, 2.0 = half waits. A
// non-nil error from emit stops playback and is returned.
func Play(records []Record, speed float64, loop bool, sleeper Sleeper, emit func(heading.Sample) error) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if emit == nil {
		return errors.New("emit is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}

	for {
		var origin time.Duration
		var lastAt time.Duration
		var haveLast bool

		for _, r := range records {
			if r.Sample == nil {
				origin = r.At
				lastAt = 0
				haveLast = false
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if haveLast {
				wait := at - lastAt
				if wait < 0 {
					wait = 0
				}
				wait = time.Duration(float64(wait) / speed)
				if wait > 0 {
					sleeper.Sleep(wait)
				}
			}

			if err := emit(*r.Sample); err != nil {
				return err
			}

			lastAt = at
			haveLast = true
		}

		if !loop {
			return nil
		}
	}
}

// Source adapts a loaded log to the sensor-source interface.
type Source struct {
	Records []Record
	Speed   float64
	Loop    bool
}

// Load reads a whole sample log from disk.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

func (s *Source) Run(ctx context.Context, emit func(heading.Sample)) error {
	return Play(s.Records, s.Speed, s.Loop, ctxSleeper{ctx}, func(smp heading.Sample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		smp.Time = time.Now()
		emit(smp)
		return nil
	})
}

// ctxSleeper sleeps but wakes early on cancellation so a looping
// replay doesn't hold up shutdown.
type ctxSleeper struct {
	ctx context.Context
}

func (s ctxSleeper) Sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
	case <-t.C:
	}
}
