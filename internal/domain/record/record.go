// Package record turns uploaded JSON batches into user records.
//
// Every field is optional. The decode policy is explicit rather than
// absence-tolerant lookups scattered through the reports:
//
//	name, country  string -> value; null, missing or any other type -> ""
//	score          number or numeric string -> valid when finite;
//	               null or missing -> absent; anything else -> invalid
//	team.projects  array of objects; a project is completed only when its
//	               "completed" field is the JSON literal true
//
// Keys are matched case-sensitively and unknown keys are ignored.
package record

import (
	"bytes"
	"encoding/json"
)

// Project is one entry of a team's project list.
type Project struct {
	Completed bool `json:"completed"`
}

// Team holds the projects attached to a user.
type Team struct {
	Projects []Project `json:"projects"`
}

// UserRecord is one decoded element of an uploaded batch.
type UserRecord struct {
	Name    string
	Score   Score
	Country string
	Team    Team

	raw json.RawMessage
}

// CompletedProjects counts the team projects marked completed.
func (r UserRecord) CompletedProjects() int {
	n := 0
	for _, p := range r.Team.Projects {
		if p.Completed {
			n++
		}
	}
	return n
}

// Raw returns the original JSON object the record was decoded from. It is
// nil for records built in code.
func (r UserRecord) Raw() json.RawMessage { return r.raw }

// recordJSON is the shape written for records that have no original payload.
type recordJSON struct {
	Name    string `json:"name,omitempty"`
	Score   *Score `json:"score,omitempty"`
	Country string `json:"country,omitempty"`
	Team    *Team  `json:"team,omitempty"`
}

// MarshalJSON re-emits the original payload verbatim when there is one.
func (r UserRecord) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	out := recordJSON{Name: r.Name, Country: r.Country}
	if r.Score.State() != ScoreAbsent {
		s := r.Score
		out.Score = &s
	}
	if len(r.Team.Projects) > 0 {
		t := r.Team
		out.Team = &t
	}
	return json.Marshal(out)
}

// fromObject applies the decode policy to one JSON object. ok is false when
// raw is not an object.
func fromObject(raw json.RawMessage) (UserRecord, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return UserRecord{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return UserRecord{}, false
	}
	return UserRecord{
		Name:    stringField(fields["name"]),
		Score:   parseScoreJSON(fields["score"]),
		Country: stringField(fields["country"]),
		Team:    teamField(fields["team"]),
		raw:     trimmed,
	}, true
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func teamField(raw json.RawMessage) Team {
	var team map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &team) != nil {
		return Team{}
	}
	var items []json.RawMessage
	if json.Unmarshal(team["projects"], &items) != nil {
		return Team{}
	}
	projects := make([]Project, 0, len(items))
	for _, item := range items {
		var p map[string]json.RawMessage
		if json.Unmarshal(item, &p) != nil {
			projects = append(projects, Project{})
			continue
		}
		projects = append(projects, Project{Completed: bytes.Equal(bytes.TrimSpace(p["completed"]), []byte("true"))})
	}
	return Team{Projects: projects}
}
