package inventory

import (
	"context"

	"github.com/sirupsen/logrus"

	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// ReconcileReport lists what a repair pass changed and what it only found.
type ReconcileReport struct {
	// Archived holds purchases that were already stocked but not archived.
	Archived []string `json:"archived"`
	// Duplicates maps a purchase id to the warehouse records created from it
	// when there is more than one. They are reported, not merged.
	Duplicates map[string][]string `json:"duplicates"`
	// Unstocked holds archived purchases with no warehouse record.
	Unstocked []string `json:"unstocked"`
}

// Reconcile repairs purchases left unarchived by an interrupted arrival.
// Running it again right after a successful pass changes nothing.
func (e *Engine) Reconcile(ctx context.Context) (ReconcileReport, error) {
	const op = "reconcile"
	report := ReconcileReport{Archived: []string{}, Duplicates: map[string][]string{}, Unstocked: []string{}}

	purchases, err := e.ListPurchases(ctx, true)
	if err != nil {
		return report, err
	}
	stock, err := e.ListWarehouse(ctx, "")
	if err != nil {
		return report, err
	}

	refs := make(map[string][]string)
	for _, w := range stock {
		if w.PurchaseRef != "" {
			refs[w.PurchaseRef] = append(refs[w.PurchaseRef], w.ID)
		}
	}

	log := e.logger(op)
	for _, p := range purchases {
		stocked := refs[p.ID]
		switch {
		case !p.IsArchived && len(stocked) > 0:
			err := e.store.Update(ctx, models.CollectionPurchases, p.ID, docstore.Fields{
				"isArchived": true,
				"stage":      models.StageStocked,
			})
			if err != nil {
				return report, err
			}
			report.Archived = append(report.Archived, p.ID)
			log.WithField("purchase_id", p.ID).Warn("archived purchase that was already stocked")
		case p.IsArchived && len(stocked) == 0:
			report.Unstocked = append(report.Unstocked, p.ID)
		}
		if len(stocked) > 1 {
			report.Duplicates[p.ID] = stocked
			log.WithFields(logrus.Fields{"purchase_id": p.ID, "items": stocked}).Warn("purchase stocked more than once")
		}
	}
	return report, nil
}
