package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm/clause"
)

// IssueStatus is a column on the board.
type IssueStatus string

const (
	StatusTodo     IssueStatus = "TODO"
	StatusPurchase IssueStatus = "PURCHASE"
	StatusStore    IssueStatus = "STORE"
	StatusBuffing  IssueStatus = "BUFFING"
	StatusPainting IssueStatus = "PAINTING"
	StatusWinding  IssueStatus = "WINDING"
	StatusAssembly IssueStatus = "ASSEMBLY"
	StatusPacking  IssueStatus = "PACKING"
	StatusSales    IssueStatus = "SALES"
)

var ErrInvalidStatus = errors.New("invalid issue status")

// MasterSequence is the fixed workflow, in the order an issue normally travels it.
var MasterSequence = []IssueStatus{
	StatusTodo,
	StatusPurchase,
	StatusStore,
	StatusBuffing,
	StatusPainting,
	StatusWinding,
	StatusAssembly,
	StatusPacking,
	StatusSales,
}

// Rank returns the 0-based position of s in the master sequence, or -1.
func (s IssueStatus) Rank() int {
	for i, v := range MasterSequence {
		if v == s {
			return i
		}
	}
	return -1
}

// Phase is the 1-based rank shown next to a track entry ("Phase 3").
func (s IssueStatus) Phase() int {
	return s.Rank() + 1
}

func (s IssueStatus) Valid() bool {
	return s.Rank() >= 0
}

// BoardOrder sorts issues by master sequence position, then by order
// descending. Both keys live in one expression because gorm keeps only the
// last of several ORDER BY expressions.
func BoardOrder() clause.OrderBy {
	sql := "CASE status"
	vars := make([]interface{}, 0, len(MasterSequence)+1)
	for i, s := range MasterSequence {
		sql += fmt.Sprintf(" WHEN ? THEN %d", i)
		vars = append(vars, string(s))
	}
	sql += fmt.Sprintf(" ELSE %d END, ? DESC", len(MasterSequence))
	vars = append(vars, clause.Column{Name: "order"})
	return clause.OrderBy{Expression: clause.Expr{SQL: sql, Vars: vars, WithoutParentheses: true}}
}

type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
	PriorityUrgent IssuePriority = "URGENT"
)

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type SprintStatus string

const (
	SprintPlanned   SprintStatus = "PLANNED"
	SprintActive    SprintStatus = "ACTIVE"
	SprintCompleted SprintStatus = "COMPLETED"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// Track is the append-only list of statuses an issue has been moved into on the board.
// It is stored as a JSON array; NULL reads back as an empty track.
type Track []IssueStatus

// Append returns a new track with s added at the end. The receiver is never modified,
// so a track shared with another issue copy stays intact.
func (t Track) Append(s IssueStatus) Track {
	out := make(Track, len(t), len(t)+1)
	copy(out, t)
	return append(out, s)
}

// Last returns the most recent entry, or "" for an empty track.
func (t Track) Last() IssueStatus {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

// IsRepeat reports whether t[i] already occurs earlier in the track.
func (t Track) IsRepeat(i int) bool {
	if i <= 0 || i >= len(t) {
		return false
	}
	for _, s := range t[:i] {
		if s == t[i] {
			return true
		}
	}
	return false
}

// TrackEntry is one annotated step of an issue's history.
type TrackEntry struct {
	Step    int         `json:"step"`
	Status  IssueStatus `json:"status"`
	Phase   int         `json:"phase"`
	Repeat  bool        `json:"repeat"`
	Current bool        `json:"current"`
}

func (t Track) Entries() []TrackEntry {
	entries := make([]TrackEntry, 0, len(t))
	for i, s := range t {
		entries = append(entries, TrackEntry{
			Step:    i + 1,
			Status:  s,
			Phase:   s.Phase(),
			Repeat:  t.IsRepeat(i),
			Current: i == len(t)-1,
		})
	}
	return entries
}

func (t Track) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]IssueStatus(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Track) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*t = Track{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported track value type %T", value)
	}
	var out []IssueStatus
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("invalid track value: %w", err)
	}
	if out == nil {
		out = []IssueStatus{}
	}
	*t = out
	return nil
}

// GormDataType keeps the column portable; drivers store it as text.
func (Track) GormDataType() string { return "text" }
