package services

import (
	"context"

	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// Notifier is the outbound notification collaborator. Mail delivery is
// currently disabled product-wide, so the default wiring is NoopNotifier;
// the hooks stay so the read-before-delete contract keeps working.
type Notifier interface {
	DefectCreated(ctx context.Context, defect *models.DefectView) error
	DefectDeleted(ctx context.Context, defect *models.DefectView) error
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) DefectCreated(context.Context, *models.DefectView) error { return nil }
func (NoopNotifier) DefectDeleted(context.Context, *models.DefectView) error { return nil }
