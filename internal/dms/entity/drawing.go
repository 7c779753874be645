package entity

import "time"

// Drawing is a registered design document (a floor plan sheet, an elevation,
// a detail...) tracked across revisions. The current revision pointer is only
// ever advanced by appending a Revision; metadata edits never touch it.
type Drawing struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	// Unique per project among non-archived drawings; archiving releases the
	// number. The partial index is the guard of record, the in-transaction
	// check in the repository just makes the common case deterministic.
	ProjectID     string `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_drawings_live_number,where:status <> 'archived'"`
	DrawingNumber string `json:"drawing_number" gorm:"size:64;not null;uniqueIndex:idx_drawings_live_number,where:status <> 'archived'"`
	Title         string `json:"title" gorm:"size:256;not null"`

	Discipline  string `json:"discipline,omitempty" gorm:"size:32"`
	DrawingType string `json:"drawing_type,omitempty" gorm:"size:32"`
	FloorID     string `json:"floor_id,omitempty" gorm:"size:32;index"`
	SectionID   string `json:"section_id,omitempty" gorm:"size:32;index"`
	Scale       string `json:"scale,omitempty" gorm:"size:32"`
	PaperSize   string `json:"paper_size,omitempty" gorm:"size:16"`
	Description string `json:"description,omitempty" gorm:"type:text"`

	// Current plotted artifact (a PDF in the artifact store).
	DropboxPath string `json:"dropbox_path,omitempty" gorm:"size:512"`
	DropboxURL  string `json:"dropbox_url,omitempty" gorm:"size:512"`
	FileName    string `json:"file_name,omitempty" gorm:"size:256"`
	FileSize    int64  `json:"file_size,omitempty" gorm:"default:0"`

	Status          string     `json:"status" gorm:"size:16;not null;default:active"`
	CurrentRevision int        `json:"current_revision" gorm:"not null;default:0"`
	LastPlottedAt   *time.Time `json:"last_plotted_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Floor     *Floor         `json:"floor,omitempty" gorm:"foreignKey:FloorID"`
	Section   *Section       `json:"section,omitempty" gorm:"foreignKey:SectionID"`
	Creator   *User          `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Revisions []Revision     `json:"revisions,omitempty" gorm:"foreignKey:DrawingID"`
	CadSource *CadSourceLink `json:"cad_source,omitempty" gorm:"foreignKey:DrawingID"`
}

func (Drawing) TableName() string {
	return "drawings"
}

// Revision is an immutable, numbered snapshot of a change to a drawing.
// Numbers start at 1 and are strictly contiguous per drawing.
type Revision struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	DrawingID      string    `json:"drawing_id" gorm:"size:32;not null;uniqueIndex:idx_revisions_drawing_number"`
	RevisionNumber int       `json:"revision_number" gorm:"not null;uniqueIndex:idx_revisions_drawing_number"`
	Description    string    `json:"description" gorm:"type:text;not null"`
	IssuedDate     time.Time `json:"issued_date" gorm:"not null"`
	DropboxPath    string    `json:"dropbox_path,omitempty" gorm:"size:512"`
	FileName       string    `json:"file_name,omitempty" gorm:"size:256"`
	CreatedBy      string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt      time.Time `json:"created_at"`

	// Relations
	Drawing *Drawing `json:"drawing,omitempty" gorm:"foreignKey:DrawingID"`
	Creator *User    `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

func (Revision) TableName() string {
	return "revisions"
}

// CadSourceLink associates a plotted drawing back to its originating CAD file
// so staleness can be flagged. At most one link per drawing; linking again
// replaces the existing one. Freshness is derived on read, never stored.
type CadSourceLink struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	DrawingID      string    `json:"drawing_id" gorm:"size:32;not null;uniqueIndex"`
	CadDropboxPath string    `json:"cad_dropbox_path" gorm:"size:512;not null"`
	CadLayoutName  string    `json:"cad_layout_name,omitempty" gorm:"size:128"`
	LinkedBy       string    `json:"linked_by" gorm:"size:32;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (CadSourceLink) TableName() string {
	return "cad_source_links"
}

// Floor is an external grouping drawings can belong to.
type Floor struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string    `json:"project_id" gorm:"size:32;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	ShortName string    `json:"short_name,omitempty" gorm:"size:16"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (Floor) TableName() string {
	return "floors"
}

// Section is an external grouping drawings can belong to.
type Section struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string    `json:"project_id" gorm:"size:32;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	ShortName string    `json:"short_name,omitempty" gorm:"size:16"`
	Color     string    `json:"color,omitempty" gorm:"size:16"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (Section) TableName() string {
	return "sections"
}

// Drawing lifecycle status
const (
	DrawingStatusActive     = "active"
	DrawingStatusDraft      = "draft"
	DrawingStatusSuperseded = "superseded"
	DrawingStatusArchived   = "archived"
)

// Drawing discipline
const (
	DisciplineArchitectural  = "architectural"
	DisciplineElectrical     = "electrical"
	DisciplineRCP            = "rcp"
	DisciplinePlumbing       = "plumbing"
	DisciplineMechanical     = "mechanical"
	DisciplineInteriorDesign = "interior_design"
)

// Drawing type
const (
	DrawingTypeFloorPlan        = "floor_plan"
	DrawingTypeReflectedCeiling = "reflected_ceiling"
	DrawingTypeElevation        = "elevation"
	DrawingTypeDetail           = "detail"
	DrawingTypeSection          = "section"
	DrawingTypeTitleBlock       = "title_block"
	DrawingTypeXref             = "xref"
	DrawingTypeSchedule         = "schedule"
	DrawingTypeOther            = "other"
)

// CAD source freshness (derived, never persisted)
const (
	FreshnessUpToDate    = "up_to_date"
	FreshnessCadModified = "cad_modified"
	FreshnessNeedsReplot = "needs_replot"
)

// ValidDrawingStatus reports whether s is a known lifecycle status.
func ValidDrawingStatus(s string) bool {
	switch s {
	case DrawingStatusActive, DrawingStatusDraft, DrawingStatusSuperseded, DrawingStatusArchived:
		return true
	}
	return false
}

// ValidDiscipline reports whether s is a known discipline. Empty is allowed.
func ValidDiscipline(s string) bool {
	switch s {
	case "", DisciplineArchitectural, DisciplineElectrical, DisciplineRCP,
		DisciplinePlumbing, DisciplineMechanical, DisciplineInteriorDesign:
		return true
	}
	return false
}

// ValidDrawingType reports whether s is a known drawing type. Empty is allowed.
func ValidDrawingType(s string) bool {
	switch s {
	case "", DrawingTypeFloorPlan, DrawingTypeReflectedCeiling, DrawingTypeElevation,
		DrawingTypeDetail, DrawingTypeSection, DrawingTypeTitleBlock,
		DrawingTypeXref, DrawingTypeSchedule, DrawingTypeOther:
		return true
	}
	return false
}
