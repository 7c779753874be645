package entity

import "time"

// Transmittal records a batch send of drawings, at specific revisions, to a
// recipient. Items snapshot the revision number at creation time; later
// revisions to the referenced drawings never rewrite history. Once sent, only
// the status may change (to acknowledged or cancelled).
type Transmittal struct {
	ID                string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID         string `json:"project_id" gorm:"size:32;not null;index"`
	TransmittalNumber string `json:"transmittal_number" gorm:"size:16;not null;index"`
	Subject           string `json:"subject,omitempty" gorm:"size:256"`

	RecipientName    string `json:"recipient_name" gorm:"size:128;not null"`
	RecipientEmail   string `json:"recipient_email,omitempty" gorm:"size:128"`
	RecipientCompany string `json:"recipient_company,omitempty" gorm:"size:128"`
	RecipientType    string `json:"recipient_type" gorm:"size:16;not null;default:other"`

	Method string `json:"method" gorm:"size:16;not null;default:email"`
	Status string `json:"status" gorm:"size:16;not null;default:draft"`
	Notes  string `json:"notes,omitempty" gorm:"type:text"`

	CreatedBy string     `json:"created_by" gorm:"size:32;not null"`
	SentBy    *string    `json:"sent_by" gorm:"size:32"`
	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	Creator *User             `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Sender  *User             `json:"sender,omitempty" gorm:"foreignKey:SentBy"`
	Items   []TransmittalItem `json:"items,omitempty" gorm:"foreignKey:TransmittalID"`
}

func (Transmittal) TableName() string {
	return "transmittals"
}

// TransmittalItem is one drawing on a transmittal. RevisionNumber, the
// denormalized number/title, and the artifact path are snapshots taken when
// the item was created so the record stays historically accurate even after
// the drawing moves on, is re-plotted, or is archived.
type TransmittalItem struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	TransmittalID string `json:"transmittal_id" gorm:"size:32;not null;index"`
	DrawingID     string `json:"drawing_id" gorm:"size:32;not null;index"`

	RevisionNumber int    `json:"revision_number" gorm:"not null"`
	DrawingNumber  string `json:"drawing_number" gorm:"size:64;not null"`
	DrawingTitle   string `json:"drawing_title" gorm:"size:256;not null"`
	DropboxPath    string `json:"dropbox_path,omitempty" gorm:"size:512"`
	FileName       string `json:"file_name,omitempty" gorm:"size:256"`

	Purpose   string    `json:"purpose,omitempty" gorm:"size:64"`
	Notes     string    `json:"notes,omitempty" gorm:"type:text"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Drawing *Drawing `json:"drawing,omitempty" gorm:"foreignKey:DrawingID"`
}

func (TransmittalItem) TableName() string {
	return "transmittal_items"
}

// ProjectSequence backs per-project number allocation (transmittal numbers).
// The row is incremented inside the allocating transaction so concurrent
// creators serialize on it instead of handing out duplicates.
type ProjectSequence struct {
	ProjectID string `json:"project_id" gorm:"primaryKey;size:32"`
	Name      string `json:"name" gorm:"primaryKey;size:32"`
	Value     int    `json:"value" gorm:"not null;default:0"`
}

func (ProjectSequence) TableName() string {
	return "project_sequences"
}

// Transmittal status
const (
	TransmittalStatusDraft        = "draft"
	TransmittalStatusSent         = "sent"
	TransmittalStatusAcknowledged = "acknowledged"
	TransmittalStatusCancelled    = "cancelled"
)

// Transmittal delivery method
const (
	MethodEmail        = "email"
	MethodHandDelivery = "hand_delivery"
	MethodCourier      = "courier"
	MethodFTP          = "ftp"
	MethodOther        = "other"
)

// Recipient type
const (
	RecipientClient        = "client"
	RecipientContractor    = "contractor"
	RecipientSubcontractor = "subcontractor"
	RecipientConsultant    = "consultant"
	RecipientTeam          = "team"
	RecipientOther         = "other"
)

// Item purpose presets. Purpose is free text; these are the picker options.
var TransmittalPurposes = []string{
	"For Approval",
	"For Construction",
	"For Information",
	"For Review",
	"As Requested",
}

// ValidTransmittalStatus reports whether s is a known transmittal status.
func ValidTransmittalStatus(s string) bool {
	switch s {
	case TransmittalStatusDraft, TransmittalStatusSent,
		TransmittalStatusAcknowledged, TransmittalStatusCancelled:
		return true
	}
	return false
}

// ValidMethod reports whether s is a known delivery method.
func ValidMethod(s string) bool {
	switch s {
	case MethodEmail, MethodHandDelivery, MethodCourier, MethodFTP, MethodOther:
		return true
	}
	return false
}

// ValidRecipientType reports whether s is a known recipient type.
func ValidRecipientType(s string) bool {
	switch s {
	case RecipientClient, RecipientContractor, RecipientSubcontractor,
		RecipientConsultant, RecipientTeam, RecipientOther:
		return true
	}
	return false
}
