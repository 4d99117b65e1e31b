package task

import (
	"encoding/json"
	"strings"
)

// ParticipantsInput accepts either a list of names or a single
// comma-delimited string. It is the one place where the dynamic shape
// from the outside world is branched on; everything past Normalize
// works with the canonical list + joined string pair.
type ParticipantsInput struct {
	List   []string
	Raw    string
	IsList bool
}

func ParticipantsFromList(list []string) ParticipantsInput {
	return ParticipantsInput{List: list, IsList: true}
}

func ParticipantsFromString(s string) ParticipantsInput {
	return ParticipantsInput{Raw: s}
}

// Normalize produces the canonical users list (non-empty trimmed
// entries) and its comma-and-space join.
func (in ParticipantsInput) Normalize() ([]string, string) {
	var parts []string
	if in.IsList {
		parts = in.List
	} else if raw := strings.TrimSpace(in.Raw); raw != "" {
		parts = strings.Split(raw, ",")
	}

	users := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		users = append(users, p)
	}
	return users, strings.Join(users, ", ")
}

func (in *ParticipantsInput) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*in = ParticipantsFromList(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*in = ParticipantsFromString(s)
	return nil
}

func (in ParticipantsInput) MarshalJSON() ([]byte, error) {
	if in.IsList {
		return json.Marshal(in.List)
	}
	return json.Marshal(in.Raw)
}
