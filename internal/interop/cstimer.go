// Package interop converts solves and training data to and from external JSON
// formats: csTimer session exports and cubetui backups.
package interop

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/timer"
)

// ErrMalformedImport is returned for input that is not JSON or holds no solves.
var ErrMalformedImport = errors.New("malformed import")

const propertiesKey = "properties"

// CsTimerSolve is one [[penalty, time], scramble, comment, timestamp] tuple.
type CsTimerSolve struct {
	Penalty   int64
	Time      int64
	Scramble  string
	Comment   string
	Timestamp int64
}

// ImportConfig controls how imported timestamps are assigned.
type ImportConfig struct {
	// DistributeEvenly spreads solves from StartDate to Now in their original order.
	DistributeEvenly bool
	StartDate        time.Time
	Now              time.Time
	// NewID defaults to UUIDv7 strings.
	NewID func() string
}

// Preview summarises a csTimer file before it is imported.
type Preview struct {
	Count    int
	Sessions int
	// First and Last are zero when Count is zero.
	First time.Time
	Last  time.Time
}

type csTimerSession struct {
	items []json.RawMessage
}

// decodeSessions returns the array-valued keys in document order.
func decodeSessions(data []byte) ([]csTimerSession, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedImport)
	}
	var sessions []csTimerSession
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
		}
		if key == propertiesKey || !isArray(raw) {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
		}
		sessions = append(sessions, csTimerSession{items: items})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	return sessions, nil
}

// ParseCsTimer extracts every well-formed solve tuple, sorted by timestamp.
// Elements of the wrong shape are skipped.
func ParseCsTimer(data []byte) ([]CsTimerSolve, error) {
	sessions, err := decodeSessions(data)
	if err != nil {
		return nil, err
	}
	var out []CsTimerSolve
	for _, s := range sessions {
		for _, item := range s.items {
			if solve, ok := decodeTuple(item); ok {
				out = append(out, solve)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

// PreviewCsTimer counts solves and non-empty sessions and reports the original
// date range.
func PreviewCsTimer(data []byte) (Preview, error) {
	sessions, err := decodeSessions(data)
	if err != nil {
		return Preview{}, err
	}
	var p Preview
	minTS, maxTS := int64(math.MaxInt64), int64(math.MinInt64)
	for _, s := range sessions {
		if len(s.items) == 0 {
			continue
		}
		p.Sessions++
		for _, item := range s.items {
			solve, ok := decodeTuple(item)
			if !ok {
				continue
			}
			p.Count++
			minTS = min(minTS, solve.Timestamp)
			maxTS = max(maxTS, solve.Timestamp)
		}
	}
	if p.Count > 0 {
		p.First = time.Unix(minTS, 0).UTC()
		p.Last = time.Unix(maxTS, 0).UTC()
	}
	return p, nil
}

// ImportCsTimer converts a csTimer export into solves. Nothing is returned
// unless at least one solve is recognised.
func ImportCsTimer(data []byte, cfg ImportConfig) ([]model.SolveResult, error) {
	parsed, err := ParseCsTimer(data)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: no csTimer solves found", ErrMalformedImport)
	}
	newID := cfg.NewID
	if newID == nil {
		newID = newUUID
	}

	var interval float64
	startMs := float64(cfg.StartDate.UnixMilli())
	if cfg.DistributeEvenly && len(parsed) > 1 {
		interval = float64(cfg.Now.UnixMilli()-cfg.StartDate.UnixMilli()) / float64(len(parsed)-1)
	}

	out := make([]model.SolveResult, len(parsed))
	for i, cs := range parsed {
		ts := cs.Timestamp
		if cfg.DistributeEvenly {
			ts = int64(math.Floor((startMs + float64(i)*interval) / 1000))
		}
		out[i] = model.SolveResult{
			ID:        newID(),
			Time:      cs.Time,
			Penalty:   convertPenalty(cs.Penalty),
			Scramble:  cs.Scramble,
			Comment:   cs.Comment,
			Timestamp: ts,
			Date:      timer.DateString(ts),
		}
	}
	return out, nil
}

// ExportCsTimer writes solves as a single csTimer session.
func ExportCsTimer(solves []model.SolveResult) ([]byte, error) {
	tuples := make([][]any, 0, len(solves))
	for _, s := range solves {
		tuples = append(tuples, []any{
			[2]int64{int64(s.Penalty), s.Time},
			s.Scramble,
			s.Comment,
			s.Timestamp,
		})
	}
	meta, err := marshalCompact(map[string]sessionMeta{
		"1": {Name: 1, Rank: 1, Stat: [3]int{len(solves), 1, -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session data: %w", err)
	}
	out, err := marshalCompact(csTimerExport{
		Session1:   tuples,
		Properties: csTimerProperties{SessionData: string(meta)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode csTimer export: %w", err)
	}
	return out, nil
}

type csTimerExport struct {
	Session1   [][]any           `json:"session1"`
	Properties csTimerProperties `json:"properties"`
}

type csTimerProperties struct {
	SessionData string `json:"sessionData"`
}

type sessionMeta struct {
	Name int      `json:"name"`
	Opt  struct{} `json:"opt"`
	Rank int      `json:"rank"`
	Stat [3]int   `json:"stat"`
}

// marshalCompact encodes v without HTML escaping or a trailing newline.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeTuple(raw json.RawMessage) (CsTimerSolve, bool) {
	var parts []json.RawMessage
	if !isArray(raw) || json.Unmarshal(raw, &parts) != nil || len(parts) < 4 {
		return CsTimerSolve{}, false
	}
	var timeData []json.RawMessage
	if !isArray(parts[0]) || json.Unmarshal(parts[0], &timeData) != nil || len(timeData) < 2 {
		return CsTimerSolve{}, false
	}
	penalty, ok := decodeNumber(timeData[0])
	if !ok {
		return CsTimerSolve{}, false
	}
	ms, ok := decodeNumber(timeData[1])
	if !ok {
		return CsTimerSolve{}, false
	}
	scramble, ok := decodeString(parts[1])
	if !ok {
		return CsTimerSolve{}, false
	}
	comment, ok := decodeString(parts[2])
	if !ok {
		return CsTimerSolve{}, false
	}
	ts, ok := decodeNumber(parts[3])
	if !ok {
		return CsTimerSolve{}, false
	}
	return CsTimerSolve{
		Penalty:   int64(penalty),
		Time:      int64(ms),
		Scramble:  scramble,
		Comment:   comment,
		Timestamp: int64(ts),
	}, true
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return 0, false
	}
	return v, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func convertPenalty(code int64) model.Penalty {
	switch model.Penalty(code) {
	case model.PenaltyDNF:
		return model.PenaltyDNF
	case model.PenaltyPlusTwo:
		return model.PenaltyPlusTwo
	default:
		return model.PenaltyNone
	}
}

func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}
