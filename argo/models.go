package argo

// TokenPair is everything a caller must persist to resume work without a
// password: the OAuth2 bearer token plus the portal's secondary per-profile
// token. Both are opaque; neither carries a usable expiry, so staleness only
// surfaces as ErrSessionExpired on a later call.
type TokenPair struct {
	AccessToken string `json:"accessToken"`
	AuthToken   string `json:"authToken"`
}

// complete reports whether both tokens are present.
func (t TokenPair) complete() bool {
	return t.AccessToken != "" && t.AuthToken != ""
}

// Profile is one student reachable from an account. Guardian accounts with
// several children expose several profiles, each with its own secondary
// token. Profiles are immutable once built from the provider's response.
type Profile struct {
	// Index is the position in the provider's profile list.
	Index int `json:"index"`

	// DisplayName is the student's name, when the supplementary lookup
	// succeeded; empty otherwise.
	DisplayName string `json:"displayName"`

	// SchoolClass is the class denomination (e.g. "3A LICEO SCIENTIFICO").
	SchoolClass string `json:"schoolClass"`

	// SchoolCode is the ministry code of the school this profile belongs
	// to. It can differ from the code used to log in.
	SchoolCode string `json:"schoolCode"`

	// Token is the profile's secondary auth token (x-auth-token).
	Token string `json:"-"`

	// StudentID is the portal's numeric student id (prgAlunno).
	StudentID string `json:"studentId"`

	// SchedaID is the portal's enrollment-record id (prgScheda).
	SchedaID string `json:"schedaId"`

	// Raw is the provider payload the profile was built from, kept for
	// callers that need school-specific fields this package doesn't model.
	Raw map[string]any `json:"-"`
}

// AuthResult is what a successful authentication yields.
type AuthResult struct {
	AccessToken string
	Profiles    []Profile
}

// GradeRecord is one grade, normalized from whichever upstream shape it
// arrived in. The canonical fields and the legacy Italian aliases are always
// populated from the same source value; existing consumers read the aliases.
type GradeRecord struct {
	Subject string `json:"subject"`
	Value   string `json:"value"`
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Weight  string `json:"weight"`

	// Legacy aliases.
	Materia string `json:"materia"`
	Voto    string `json:"voto"`
	Data    string `json:"data"`
	Tipo    string `json:"tipo"`
	Peso    string `json:"peso"`
}

// defaultGradeWeight is used when the upstream omits a weight.
const defaultGradeWeight = "100"

func newGradeRecord(subject, value, date, kind, weight string) GradeRecord {
	if weight == "" {
		weight = defaultGradeWeight
	}
	return GradeRecord{
		Subject: subject, Value: value, Date: date, Kind: kind, Weight: weight,
		Materia: subject, Voto: value, Data: date, Tipo: kind, Peso: weight,
	}
}

// HomeworkRecord is one assignment, flattened from the per-subject nested
// lists of the dashboard payload. DueDate has already passed the date
// normalizer.
type HomeworkRecord struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`

	// Legacy aliases.
	Materia      string `json:"materia"`
	Compito      string `json:"compito"`
	DataConsegna string `json:"dataConsegna"`
}

func newHomeworkRecord(subject, description, dueDate string) HomeworkRecord {
	return HomeworkRecord{
		Subject: subject, Description: description, DueDate: dueDate,
		Materia: subject, Compito: description, DataConsegna: dueDate,
	}
}

// AnnouncementRecord is one bulletin-board post or reminder.
type AnnouncementRecord struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Date    string `json:"date"`

	// Legacy aliases.
	Oggetto   string `json:"oggetto"`
	Messaggio string `json:"messaggio"`
	Data      string `json:"data"`
}

func newAnnouncementRecord(subject, body, date string) AnnouncementRecord {
	return AnnouncementRecord{
		Subject: subject, Body: body, Date: date,
		Oggetto: subject, Messaggio: body, Data: date,
	}
}

// Snapshot bundles one fetch of every record domain. Collections are empty,
// never nil-vs-error, when all strategies for a domain missed.
type Snapshot struct {
	Grades        []GradeRecord        `json:"grades"`
	Homework      []HomeworkRecord     `json:"homework"`
	Announcements []AnnouncementRecord `json:"announcements"`
}
