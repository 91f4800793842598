package checks

import (
	"context"

	"go-sklad/internal/apperr"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

func decodeCheck(doc docstore.Document) (models.CheckRecord, error) {
	var c models.CheckRecord
	if err := doc.Decode(&c); err != nil {
		return c, err
	}
	c.ID = doc.ID
	return c, nil
}

// ListChecks returns the user's checks newest first.
func (a *Aggregator) ListChecks(ctx context.Context) ([]models.CheckRecord, error) {
	const op = "listChecks"
	id, err := a.identity(ctx, op)
	if err != nil {
		return nil, err
	}
	docs, err := a.store.Query(ctx, models.CollectionChecks, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", id.UserID)},
		OrderBy: []docstore.OrderBy{{Field: "createdAt", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.CheckRecord, 0, len(docs))
	for _, d := range docs {
		c, err := decodeCheck(d)
		if err != nil {
			return nil, apperr.Wrap(op, apperr.ErrInvalidState, d.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (a *Aggregator) GetCheck(ctx context.Context, checkID string) (models.CheckRecord, error) {
	const op = "getCheck"
	id, err := a.identity(ctx, op)
	if err != nil {
		return models.CheckRecord{}, err
	}
	doc, err := a.store.Get(ctx, models.CollectionChecks, checkID)
	if err != nil {
		return models.CheckRecord{}, err
	}
	c, err := decodeCheck(doc)
	if err != nil {
		return models.CheckRecord{}, apperr.Wrap(op, apperr.ErrInvalidState, checkID, err)
	}
	if c.UserID != id.UserID {
		return models.CheckRecord{}, apperr.New(op, apperr.ErrPermissionDenied, "check "+checkID)
	}
	return c, nil
}

// CompleteCheck marks a pending check completed. It is the only mutation a
// check ever sees.
func (a *Aggregator) CompleteCheck(ctx context.Context, checkID string) (models.CheckRecord, error) {
	const op = "completeCheck"
	c, err := a.GetCheck(ctx, checkID)
	if err != nil {
		return c, err
	}
	if c.Status != models.CheckStatusPending {
		return c, apperr.New(op, apperr.ErrInvalidState, "check "+checkID+" is "+c.Status)
	}
	if err := a.store.Update(ctx, models.CollectionChecks, checkID, docstore.Fields{"status": models.CheckStatusCompleted}); err != nil {
		return c, err
	}
	c.Status = models.CheckStatusCompleted
	a.logger(op).WithField("check_id", checkID).Info("check completed")
	return c, nil
}
