package bracket

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type OccupantKind uint8

const (
	KindEmpty OccupantKind = iota
	KindTeam
	KindBye
	KindTie
)

func (k OccupantKind) String() string {
	switch k {
	case KindTeam:
		return "team"
	case KindBye:
		return "bye"
	case KindTie:
		return "tie"
	default:
		return "empty"
	}
}

// ParseOccupantKind is the inverse of OccupantKind.String
func ParseOccupantKind(s string) (OccupantKind, bool) {
	switch s {
	case "empty":
		return KindEmpty, true
	case "team":
		return KindTeam, true
	case "bye":
		return KindBye, true
	case "tie":
		return KindTie, true
	}
	return KindEmpty, false
}

// Occupant is whatever sits in a slot: nothing yet, a real team, a bye or an
// unresolved tie. The zero value is an empty slot.
type Occupant struct {
	kind OccupantKind
	team int
}

var (
	Empty = Occupant{}
	Bye   = Occupant{kind: KindBye}
	Tie   = Occupant{kind: KindTie}
)

func Team(number int) Occupant {
	return Occupant{kind: KindTeam, team: number}
}

func (o Occupant) Kind() OccupantKind { return o.kind }

func (o Occupant) IsEmpty() bool { return o.kind == KindEmpty }
func (o Occupant) IsTeam() bool  { return o.kind == KindTeam }
func (o Occupant) IsBye() bool   { return o.kind == KindBye }
func (o Occupant) IsTie() bool   { return o.kind == KindTie }

// TeamNumber returns the team number and false for anything that isn't a team
func (o Occupant) TeamNumber() (int, bool) {
	if o.kind != KindTeam {
		return 0, false
	}
	return o.team, true
}

func (o Occupant) String() string {
	if o.kind == KindTeam {
		return "#" + strconv.Itoa(o.team)
	}
	return o.kind.String()
}

// MarshalJSON writes a team as its number, a bye or tie as "bye"/"tie" and
// an empty slot as null.
func (o Occupant) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case KindTeam:
		return json.Marshal(o.team)
	case KindBye, KindTie:
		return json.Marshal(o.kind.String())
	}
	return []byte("null"), nil
}

func (o *Occupant) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*o = Empty
	case float64:
		*o = Team(int(val))
	case string:
		kind, ok := ParseOccupantKind(val)
		if !ok || kind == KindTeam {
			return fmt.Errorf("invalid occupant %q", val)
		}
		*o = Occupant{kind: kind}
	default:
		return fmt.Errorf("invalid occupant %s", data)
	}
	return nil
}
