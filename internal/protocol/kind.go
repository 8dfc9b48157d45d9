package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MoveKind is the closed set of history entry kinds.
type MoveKind uint8

const (
	KindUnknown MoveKind = iota
	KindMove
	KindCapture
	KindCheck
	KindCastle
	KindGameOver
)

var ErrUnknownMoveKind = errors.New("unknown move kind")

var kindNames = [...]string{
	KindUnknown:  "",
	KindMove:     "move",
	KindCapture:  "capture",
	KindCheck:    "check",
	KindCastle:   "castle",
	KindGameOver: "gameOver",
}

// AllMoveKinds lists every valid kind, in declaration order.
func AllMoveKinds() []MoveKind {
	return []MoveKind{KindMove, KindCapture, KindCheck, KindCastle, KindGameOver}
}

func ParseMoveKind(s string) (MoveKind, error) {
	for i, name := range kindNames {
		if i != int(KindUnknown) && name == s {
			return MoveKind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownMoveKind, s)
}

func (k MoveKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("MoveKind(%d)", uint8(k))
}

func (k MoveKind) Valid() bool { return k > KindUnknown && int(k) < len(kindNames) }

func (k MoveKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMoveKind, uint8(k))
	}
	return json.Marshal(k.String())
}

func (k *MoveKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMoveKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MoveRecord is one authoritative history entry.
type MoveRecord struct {
	From Coordinate `json:"from" validate:"coordinate"`
	To   Coordinate `json:"to" validate:"coordinate"`
	Kind MoveKind   `json:"type"`
}

// UCI returns from+to, the same shape as the move intent.
func (m MoveRecord) UCI() string { return string(m.From) + string(m.To) }
