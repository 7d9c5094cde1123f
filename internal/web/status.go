package web

import (
	"sync/atomic"
	"time"
)

// DialFrame is the UI-facing view of one projected dial frame.
//
// Angles are degrees except StartAngleRad (screen radians, 0 = right,
// -pi/2 = up). Meaning is omitted when the current sector pair has no
// entry in the meanings table.
type DialFrame struct {
	Receiving bool `json:"receiving"`

	HeadingDeg    float64 `json:"heading_deg"`
	TargetDeg     float64 `json:"target_deg"`
	StartAngleRad float64 `json:"start_angle_rad"`

	BigLabel   int     `json:"big_label"`
	SmallLabel int     `json:"small_label"`
	MeaningKey string  `json:"meaning_key"`
	Meaning    *string `json:"meaning,omitempty"`

	LastUpdateUTC string `json:"last_update_utc,omitempty"`
}

type Status struct {
	startUnixNano int64
	frames        uint64
	lastFrameNano int64
	source        atomic.Value // string
	policy        atomic.Value // string
	frame         atomic.Value // DialFrame
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.source.Store("")
	s.policy.Store("")
	s.frame.Store(DialFrame{})
	return s
}

func (s *Status) SetStatic(source, policy string) {
	if source != "" {
		s.source.Store(source)
	}
	if policy != "" {
		s.policy.Store(policy)
	}
}

func (s *Status) SetFrame(nowUTC time.Time, f DialFrame) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	f.LastUpdateUTC = nowUTC.UTC().Format(time.RFC3339Nano)
	s.frame.Store(f)
	atomic.StoreInt64(&s.lastFrameNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.frames, 1)
}

type StatusSnapshot struct {
	Service      string    `json:"service"`
	NowUTC       string    `json:"now_utc"`
	UptimeSec    int64     `json:"uptime_sec"`
	Source       string    `json:"source"`
	Policy       string    `json:"policy"`
	FramesTotal  uint64    `json:"frames_total"`
	LastFrameUTC string    `json:"last_frame_utc,omitempty"`
	Dial         DialFrame `json:"dial"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	lastFrame := atomic.LoadInt64(&s.lastFrameNano)

	snap := StatusSnapshot{
		Service:     "compassdial",
		NowUTC:      nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:   int64(nowUTC.Sub(start).Seconds()),
		Source:      s.source.Load().(string),
		Policy:      s.policy.Load().(string),
		FramesTotal: atomic.LoadUint64(&s.frames),
		Dial:        s.frame.Load().(DialFrame),
	}
	if lastFrame != 0 {
		snap.LastFrameUTC = time.Unix(0, lastFrame).UTC().Format(time.RFC3339Nano)
	}
	return snap
}

// LatestFrame returns the most recently stored dial frame.
func (s *Status) LatestFrame() DialFrame {
	return s.frame.Load().(DialFrame)
}
