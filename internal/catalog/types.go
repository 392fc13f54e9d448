// Package catalog loads and serves study descriptors: the curated metadata
// layer describing which studies exist, which tables each exposes, and which
// variables each table carries.
package catalog

// Variable describes one extractable variable of a table.
type Variable struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Sensitive   bool   `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`
}

// Table describes one extractable table of a study.
type Table struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Owner       string     `yaml:"owner,omitempty" json:"owner,omitempty"`
	Tags        []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
	Variables   []Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Variable returns the named variable descriptor, if present.
func (t *Table) Variable(name string) (Variable, bool) {
	for _, v := range t.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// StudyMetadata carries the descriptive fields researchers browse by.
type StudyMetadata struct {
	StudyType             string `yaml:"study_type,omitempty" json:"study_type,omitempty"`
	YearStarted           int    `yaml:"year_started,omitempty" json:"year_started,omitempty"`
	PrincipalInvestigator string `yaml:"principal_investigator,omitempty" json:"principal_investigator,omitempty"`
	PatientCount          int    `yaml:"patient_count,omitempty" json:"patient_count,omitempty"`
}

// Study describes one study and its tables.
type Study struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Contact     string        `yaml:"contact,omitempty" json:"contact,omitempty"`
	Tags        []string      `yaml:"tags,omitempty" json:"tags,omitempty"`
	Metadata    StudyMetadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Tables      []Table       `yaml:"-" json:"tables,omitempty"`
}

// Table returns the named table descriptor, if present.
func (s *Study) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Catalog is an immutable snapshot of every loaded study.
type Catalog struct {
	studies map[string]*Study
	order   []string
}

// Study returns the named study, if present.
func (c *Catalog) Study(name string) (*Study, bool) {
	s, ok := c.studies[name]
	return s, ok
}

// Studies returns all studies in load order.
func (c *Catalog) Studies() []*Study {
	out := make([]*Study, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.studies[name])
	}
	return out
}

// Len returns the number of loaded studies.
func (c *Catalog) Len() int {
	return len(c.order)
}
