package models

import (
	"time"

	"fleet/internal/status"
)

type AuditType string

const (
	AuditInternal  AuditType = "internal"
	AuditExternal  AuditType = "external"
	AuditFlagState AuditType = "flag_state"
	AuditPortState AuditType = "port_state"
	AuditClass     AuditType = "class"
	AuditISM       AuditType = "ism"
	AuditISPS      AuditType = "isps"
)

func (t AuditType) IsValid() bool {
	switch t {
	case AuditInternal, AuditExternal, AuditFlagState, AuditPortState, AuditClass, AuditISM, AuditISPS:
		return true
	}
	return false
}

type AuditStatus string

const (
	AuditScheduled  AuditStatus = "scheduled"
	AuditInProgress AuditStatus = "in_progress"
	AuditCompleted  AuditStatus = "completed"
	AuditClosed     AuditStatus = "closed"
)

func (s AuditStatus) IsValid() bool {
	switch s {
	case AuditScheduled, AuditInProgress, AuditCompleted, AuditClosed:
		return true
	}
	return false
}

type Severity string

const (
	SeverityObservation Severity = "observation"
	SeverityMinor       Severity = "minor"
	SeverityMajor       Severity = "major"
	SeverityCritical    Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityObservation, SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

type FindingInput struct {
	Description      string    `json:"description"`
	Severity         Severity  `json:"severity"`
	CorrectiveAction string    `json:"correctiveAction,omitempty"`
	DueDate          time.Time `json:"dueDate,omitzero"`
}

type Finding struct {
	ID string `json:"id"`
	FindingInput
	Closed   bool      `json:"closed"`
	ClosedBy string    `json:"closedBy,omitempty"`
	ClosedAt time.Time `json:"closedAt,omitzero"`
}

type AuditInput struct {
	Title       string      `json:"title"`
	Type        AuditType   `json:"type"`
	AuditDate   time.Time   `json:"auditDate,omitzero"`
	Auditor     string      `json:"auditor,omitempty"`
	Location    string      `json:"location,omitempty"`
	Status      AuditStatus `json:"status"`
	Summary     string      `json:"summary,omitempty"`
	FileURL     string      `json:"fileUrl,omitempty"`
	NextAuditAt time.Time   `json:"nextAuditAt,omitzero"`
}

type AuditReport struct {
	Meta
	AuditInput
	AuditNumber  string    `json:"auditNumber"`
	Findings     []Finding `json:"findings,omitempty"`
	OpenFindings int       `json:"openFindings"`
}

type AuditPatch struct {
	Version     *int64       `json:"version"`
	Title       *string      `json:"title"`
	Type        *AuditType   `json:"type"`
	AuditDate   *time.Time   `json:"auditDate"`
	Auditor     *string      `json:"auditor"`
	Location    *string      `json:"location"`
	Status      *AuditStatus `json:"status"`
	Summary     *string      `json:"summary"`
	FileURL     *string      `json:"fileUrl"`
	NextAuditAt *time.Time   `json:"nextAuditAt"`
}

func (p AuditPatch) Apply(in *AuditInput) {
	set(&in.Title, p.Title)
	set(&in.Type, p.Type)
	set(&in.AuditDate, p.AuditDate)
	set(&in.Auditor, p.Auditor)
	set(&in.Location, p.Location)
	set(&in.Status, p.Status)
	set(&in.Summary, p.Summary)
	set(&in.FileURL, p.FileURL)
	set(&in.NextAuditAt, p.NextAuditAt)
}

// Derive counts open findings.
func (a *AuditReport) Derive() {
	a.OpenFindings = 0
	for _, f := range a.Findings {
		if !f.Closed {
			a.OpenFindings++
		}
	}
}

// Legal documents

type LegalType string

const (
	LegalContract     LegalType = "contract"
	LegalCharterParty LegalType = "charter_party"
	LegalInsurance    LegalType = "insurance"
	LegalLicense      LegalType = "license"
	LegalAgreement    LegalType = "agreement"
	LegalOther        LegalType = "other"
)

func (t LegalType) IsValid() bool {
	switch t {
	case LegalContract, LegalCharterParty, LegalInsurance, LegalLicense, LegalAgreement, LegalOther:
		return true
	}
	return false
}

type LegalStatus string

const (
	LegalDraft      LegalStatus = "draft"
	LegalActive     LegalStatus = "active"
	LegalTerminated LegalStatus = "terminated"
)

func (s LegalStatus) IsValid() bool {
	switch s {
	case LegalDraft, LegalActive, LegalTerminated:
		return true
	}
	return false
}

type LegalInput struct {
	Title         string      `json:"title"`
	Type          LegalType   `json:"type"`
	Parties       []string    `json:"parties,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	EffectiveDate time.Time   `json:"effectiveDate,omitzero"`
	ExpiryDate    time.Time   `json:"expiryDate,omitzero"`
	ReminderDays  *int        `json:"reminderDays"`
	Status        LegalStatus `json:"status"`
	FileURL       string      `json:"fileUrl,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

type LegalDocument struct {
	Meta
	LegalInput
	Expiry status.ExpiryBadge `json:"expiry"`
}

type LegalPatch struct {
	Version       *int64       `json:"version"`
	Title         *string      `json:"title"`
	Type          *LegalType   `json:"type"`
	Parties       *[]string    `json:"parties"`
	Reference     *string      `json:"reference"`
	EffectiveDate *time.Time   `json:"effectiveDate"`
	ExpiryDate    *time.Time   `json:"expiryDate"`
	ReminderDays  *int         `json:"reminderDays"`
	Status        *LegalStatus `json:"status"`
	FileURL       *string      `json:"fileUrl"`
	Notes         *string      `json:"notes"`
}

func (p LegalPatch) Apply(in *LegalInput) {
	set(&in.Title, p.Title)
	set(&in.Type, p.Type)
	set(&in.Parties, p.Parties)
	set(&in.Reference, p.Reference)
	set(&in.EffectiveDate, p.EffectiveDate)
	set(&in.ExpiryDate, p.ExpiryDate)
	if p.ReminderDays != nil {
		in.ReminderDays = p.ReminderDays
	}
	set(&in.Status, p.Status)
	set(&in.FileURL, p.FileURL)
	set(&in.Notes, p.Notes)
}

func (in LegalInput) Reminder() int { return reminderWindow(in.ReminderDays) }

// Derive recomputes the expiry badge. Terminated documents no longer lapse.
func (d *LegalDocument) Derive(now time.Time) {
	if d.Status == LegalTerminated {
		d.Expiry = status.ExpiryNone
		return
	}
	d.Expiry = status.Expiry(d.ExpiryDate, d.Reminder(), now)
}
