package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/planroomhq/planroom/internal/dms/apperr"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/shared/mailer"
	"go.uber.org/zap"
)

// TransmittalService owns the transmittal log and its state machine:
// draft → sent → {acknowledged, cancelled}, cancel also valid from draft.
type TransmittalService struct {
	transmittalRepo *repository.TransmittalRepository
	drawingRepo     *repository.DrawingRepository
	dispatcher      mailer.Dispatcher
	logger          *zap.Logger
}

func NewTransmittalService(transmittalRepo *repository.TransmittalRepository, drawingRepo *repository.DrawingRepository,
	dispatcher mailer.Dispatcher, logger *zap.Logger) *TransmittalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransmittalService{
		transmittalRepo: transmittalRepo,
		drawingRepo:     drawingRepo,
		dispatcher:      dispatcher,
		logger:          logger,
	}
}

// TransmittalItemInput is one drawing to include on a transmittal.
type TransmittalItemInput struct {
	DrawingID string `json:"drawing_id" binding:"required"`
	Purpose   string `json:"purpose"`
	Notes     string `json:"notes"`
}

// CreateTransmittalRequest creates a draft transmittal. Each item snapshots
// the drawing's current revision at creation time.
type CreateTransmittalRequest struct {
	Subject          string                 `json:"subject"`
	RecipientName    string                 `json:"recipient_name" binding:"required"`
	RecipientEmail   string                 `json:"recipient_email"`
	RecipientCompany string                 `json:"recipient_company"`
	RecipientType    string                 `json:"recipient_type"`
	Method           string                 `json:"method"`
	Notes            string                 `json:"notes"`
	Items            []TransmittalItemInput `json:"items" binding:"required"`
}

// Create builds a draft transmittal. The revision number, drawing number, and
// title on each item are value-copies: later revisions to the referenced
// drawings never rewrite an existing transmittal.
func (s *TransmittalService) Create(ctx context.Context, projectID, userID string, req *CreateTransmittalRequest) (*entity.Transmittal, error) {
	if strings.TrimSpace(req.RecipientName) == "" {
		return nil, apperr.Validation("recipient name is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("a transmittal needs at least one drawing")
	}

	recipientType := req.RecipientType
	if recipientType == "" {
		recipientType = entity.RecipientOther
	}
	if !entity.ValidRecipientType(recipientType) {
		return nil, apperr.Validation("unknown recipient type: " + recipientType)
	}
	method := req.Method
	if method == "" {
		method = entity.MethodEmail
	}
	if !entity.ValidMethod(method) {
		return nil, apperr.Validation("unknown delivery method: " + method)
	}

	now := time.Now()
	items := make([]entity.TransmittalItem, 0, len(req.Items))
	for _, in := range req.Items {
		drawing, err := s.drawingRepo.FindByID(ctx, in.DrawingID)
		if err != nil {
			return nil, translateRepoErr(err, "drawing not found: "+in.DrawingID)
		}
		if drawing.Status == entity.DrawingStatusArchived {
			return nil, apperr.State("drawing is archived: " + drawing.DrawingNumber)
		}
		items = append(items, entity.TransmittalItem{
			ID:             uuid.New().String()[:32],
			DrawingID:      drawing.ID,
			RevisionNumber: drawing.CurrentRevision,
			DrawingNumber:  drawing.DrawingNumber,
			DrawingTitle:   drawing.Title,
			DropboxPath:    drawing.DropboxPath,
			FileName:       drawing.FileName,
			Purpose:        in.Purpose,
			Notes:          in.Notes,
			CreatedAt:      now,
		})
	}

	t := &entity.Transmittal{
		ID:               uuid.New().String()[:32],
		ProjectID:        projectID,
		Subject:          req.Subject,
		RecipientName:    strings.TrimSpace(req.RecipientName),
		RecipientEmail:   req.RecipientEmail,
		RecipientCompany: req.RecipientCompany,
		RecipientType:    recipientType,
		Method:           method,
		Status:           entity.TransmittalStatusDraft,
		Notes:            req.Notes,
		CreatedBy:        userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.transmittalRepo.CreateWithItems(ctx, t, items); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns one transmittal with its items.
func (s *TransmittalService) Get(ctx context.Context, id string) (*entity.Transmittal, error) {
	t, err := s.transmittalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "transmittal not found")
	}
	return t, nil
}

// Send transitions draft → sent and, for email transmittals, dispatches the
// message. The state change persists whether or not the mail provider
// cooperates: a dispatch failure is logged and reported alongside the sent
// transmittal, never rolled back.
func (s *TransmittalService) Send(ctx context.Context, id, userID string) (*entity.Transmittal, error) {
	t, err := s.transmittalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "transmittal not found")
	}

	if err := s.transmittalRepo.MarkSent(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.State("transmittal " + t.TransmittalNumber + " is not a draft")
		}
		return nil, err
	}

	sent, err := s.transmittalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "transmittal not found")
	}

	if sent.Method == entity.MethodEmail {
		if dispatchErr := s.dispatch(ctx, sent); dispatchErr != nil {
			s.logger.Warn("transmittal sent but email dispatch failed",
				zap.String("transmittal", sent.TransmittalNumber),
				zap.Error(dispatchErr))
		}
	}
	return sent, nil
}

// Resend re-triggers the email dispatch for an already-sent email
// transmittal. Number, items, and sent_at stay exactly as they were.
func (s *TransmittalService) Resend(ctx context.Context, id string) (*entity.Transmittal, error) {
	t, err := s.transmittalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "transmittal not found")
	}
	if t.Status != entity.TransmittalStatusSent {
		return nil, apperr.State("only sent transmittals can be resent")
	}
	if t.Method != entity.MethodEmail {
		return nil, apperr.State("only email transmittals can be resent")
	}

	if err := s.dispatch(ctx, t); err != nil {
		return nil, fmt.Errorf("resend %s: %w", t.TransmittalNumber, err)
	}
	return t, nil
}

// Acknowledge records the recipient's confirmation. Valid only from sent.
func (s *TransmittalService) Acknowledge(ctx context.Context, id string) (*entity.Transmittal, error) {
	return s.transition(ctx, id, entity.TransmittalStatusAcknowledged,
		entity.TransmittalStatusSent)
}

// Cancel voids the transmittal. Valid from draft or sent; acknowledged and
// cancelled are terminal.
func (s *TransmittalService) Cancel(ctx context.Context, id string) (*entity.Transmittal, error) {
	return s.transition(ctx, id, entity.TransmittalStatusCancelled,
		entity.TransmittalStatusDraft, entity.TransmittalStatusSent)
}

func (s *TransmittalService) transition(ctx context.Context, id, to string, from ...string) (*entity.Transmittal, error) {
	t, err := s.transmittalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "transmittal not found")
	}
	if err := s.transmittalRepo.TransitionStatus(ctx, id, to, from...); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, apperr.State(fmt.Sprintf("cannot move transmittal %s from %s to %s",
				t.TransmittalNumber, t.Status, to))
		}
		return nil, err
	}
	return s.transmittalRepo.FindByID(ctx, id)
}

// List returns the project's transmittals matching the filters.
func (s *TransmittalService) List(ctx context.Context, projectID string, f repository.TransmittalFilters) ([]entity.Transmittal, error) {
	if f.Status != "" && !entity.ValidTransmittalStatus(f.Status) {
		return nil, apperr.Validation("unknown status: " + f.Status)
	}
	return s.transmittalRepo.List(ctx, projectID, f)
}

func (s *TransmittalService) dispatch(ctx context.Context, t *entity.Transmittal) error {
	if s.dispatcher == nil {
		return fmt.Errorf("mail dispatcher not configured")
	}
	if t.RecipientEmail == "" {
		return fmt.Errorf("transmittal %s has no recipient email", t.TransmittalNumber)
	}

	subject := t.Subject
	if subject == "" {
		subject = "Transmittal " + t.TransmittalNumber
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transmittal %s\n\n", t.TransmittalNumber)
	for _, item := range t.Items {
		fmt.Fprintf(&b, "%s  %s  Rev %d", item.DrawingNumber, item.DrawingTitle, item.RevisionNumber)
		if item.Purpose != "" {
			fmt.Fprintf(&b, "  (%s)", item.Purpose)
		}
		b.WriteString("\n")
	}
	if t.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Notes)
	}

	// Attachments come from the item snapshots, not the live drawing rows, so
	// a resend after a re-plot still carries the artifact the body describes.
	attachments := make([]mailer.Attachment, 0, len(t.Items))
	for _, item := range t.Items {
		if item.DropboxPath != "" {
			attachments = append(attachments, mailer.Attachment{
				FileName: item.FileName,
				Path:     item.DropboxPath,
			})
		}
	}

	return s.dispatcher.Dispatch(ctx, &mailer.Message{
		To:          t.RecipientEmail,
		ToName:      t.RecipientName,
		Subject:     subject,
		Body:        b.String(),
		Attachments: attachments,
	})
}
