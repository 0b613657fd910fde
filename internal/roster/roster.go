// Package roster loads the professionals database the oracle matches against.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column headers of the roster export.
const (
	ColumnName             = "Імʼя і прізвище"
	ColumnLocation         = "Локація"
	ColumnGoals            = "Цілі"
	ColumnBusinessSector   = "Сфера бізнесу"
	ColumnInterests        = "Захоплення"
	ColumnBusinessNeeds    = "Бізнес потреби"
	ColumnReviews          = "Відгуки про людину"
	ColumnSocialLinks      = "Посилання на соц.мережі"
	ColumnAchievements     = "Досягнення, якими пишається"
	ColumnBusinessSectors  = "Сфери бізнесу"
	ColumnCompanies        = "Компанії"
	ColumnSelfDescription  = "Опис від людини"
	ColumnLookingFor       = "Кого шукає"
	ColumnOpenTo           = "Відкритий до"
	ColumnInterestingFacts = "Цікаві факти про мене"
)

// DefaultSampleSize bounds the number of profiles placed in a prompt.
const DefaultSampleSize = 20

var ErrEmpty = errors.New("roster has no profiles")

// Profile is a single professional from the roster.
type Profile struct {
	Name             string
	Location         string
	Goals            string
	BusinessSector   string
	Interests        string
	BusinessNeeds    string
	Reviews          string
	SocialLinks      string
	Achievements     string
	BusinessSectors  string
	Companies        string
	SelfDescription  string
	LookingFor       string
	OpenTo           string
	InterestingFacts string
}

// Roster is an immutable list of profiles.
type Roster struct {
	profiles []Profile
}

// New wraps already parsed profiles.
func New(profiles []Profile) *Roster {
	return &Roster{profiles: append([]Profile(nil), profiles...)}
}

// LoadFile reads a roster CSV from disk.
func LoadFile(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()

	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	return r, nil
}

// Load parses a roster CSV with a header row. Missing columns yield empty
// fields; rows without a name are skipped.
func Load(r io.Reader) (*Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	if _, ok := index[ColumnName]; !ok {
		return nil, fmt.Errorf("missing %q column", ColumnName)
	}

	var profiles []Profile
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		field := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(record) {
				return ""
			}
			return cleanValue(record[i])
		}

		p := Profile{
			Name:             field(ColumnName),
			Location:         field(ColumnLocation),
			Goals:            field(ColumnGoals),
			BusinessSector:   field(ColumnBusinessSector),
			Interests:        field(ColumnInterests),
			BusinessNeeds:    field(ColumnBusinessNeeds),
			Reviews:          field(ColumnReviews),
			SocialLinks:      field(ColumnSocialLinks),
			Achievements:     field(ColumnAchievements),
			BusinessSectors:  field(ColumnBusinessSectors),
			Companies:        field(ColumnCompanies),
			SelfDescription:  field(ColumnSelfDescription),
			LookingFor:       field(ColumnLookingFor),
			OpenTo:           field(ColumnOpenTo),
			InterestingFacts: field(ColumnInterestingFacts),
		}
		if p.Name == "" {
			continue
		}
		profiles = append(profiles, p)
	}

	if len(profiles) == 0 {
		return nil, ErrEmpty
	}

	return &Roster{profiles: profiles}, nil
}

// cleanValue drops spreadsheet placeholders for empty cells.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// Len returns the number of profiles.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.profiles)
}

// Profiles returns a copy of all profiles.
func (r *Roster) Profiles() []Profile {
	if r == nil {
		return nil
	}
	return append([]Profile(nil), r.profiles...)
}

// Sample returns the first n profiles.
func (r *Roster) Sample(n int) []Profile {
	if r == nil {
		return nil
	}
	if n <= 0 || n > len(r.profiles) {
		n = len(r.profiles)
	}
	return append([]Profile(nil), r.profiles[:n]...)
}

// Context renders the first n profiles as prompt context.
func (r *Roster) Context(n int) string {
	var b strings.Builder
	b.WriteString("Business Match Users Database (Sample):\n\n")

	for i, p := range r.Sample(n) {
		fmt.Fprintf(&b, "Професіонал %d:\n", i+1)
		writeLine(&b, "Ім'я", p.Name)
		writeLine(&b, "Локація", p.Location)
		writeLine(&b, "Бізнес-сектор", p.BusinessSector)
		writeLine(&b, "Цілі", p.Goals)
		writeLine(&b, "Шукає", p.LookingFor)
		writeLine(&b, "Відкритий до", p.OpenTo)
		writeLine(&b, "Бізнес-потреби", p.BusinessNeeds)
		writeLine(&b, "Інтереси", p.Interests)
		writeLine(&b, "Компанії", p.Companies)
		writeLine(&b, "Досягнення", p.Achievements)
		writeLine(&b, "Контакти", p.SocialLinks)
		b.WriteString("---\n\n")
	}

	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
